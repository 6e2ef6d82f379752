package signal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

// Seed is the structured trade intent extracted from a signal message. All
// prices are the literal values from the text; live tracking levels are
// derived separately from a verified market price.
type Seed struct {
	Instrument string
	Direction  domain.Direction
	Entry      float64
	TP1        float64
	TP2        float64
	TP3        float64
	SL         float64
}

// Parser extracts trade seeds from semi-structured signal text. Messages are
// identified by a literal marker phrase; field extraction uses labeled-field
// expressions with a legacy short-label fallback for each price field.
type Parser struct {
	marker string

	entryTypeRe *regexp.Regexp
	entryRe     *regexp.Regexp
	entryOldRe  *regexp.Regexp
	tpRes       [3]*regexp.Regexp
	tpOldRes    [3]*regexp.Regexp
	slRe        *regexp.Regexp
	slOldRe     *regexp.Regexp
}

// NewParser creates a parser keyed on the given marker phrase
// (e.g. "Trade Signal For:").
func NewParser(marker string) (*Parser, error) {
	if strings.TrimSpace(marker) == "" {
		return nil, fmt.Errorf("marker phrase is required: %w", ports.ErrConfigurationError)
	}
	p := &Parser{
		marker:      marker,
		entryTypeRe: regexp.MustCompile(`(?i)Entry Type:\s*(Buy|Sell)`),
		entryRe:     regexp.MustCompile(`(?i)Entry Price:\s*\$?([0-9]+\.?[0-9]*)`),
		entryOldRe:  regexp.MustCompile(`(?i)Entry[:\s]\s*\$?([0-9]+\.?[0-9]*)`),
		slRe:        regexp.MustCompile(`(?i)Stop Loss:\s*\$?([0-9]+\.?[0-9]*)`),
		slOldRe:     regexp.MustCompile(`(?i)SL[:\s]\s*\$?([0-9]+\.?[0-9]*)`),
	}
	for i := 0; i < 3; i++ {
		p.tpRes[i] = regexp.MustCompile(fmt.Sprintf(`(?i)Take Profit %d:\s*\$?([0-9]+\.?[0-9]*)`, i+1))
		p.tpOldRes[i] = regexp.MustCompile(fmt.Sprintf(`(?i)TP%d[:\s]\s*\$?([0-9]+\.?[0-9]*)`, i+1))
	}
	return p, nil
}

// Marker returns the configured marker phrase.
func (p *Parser) Marker() string { return p.marker }

// Looks reports whether the text contains the marker phrase at all. This is
// the cheap pre-filter applied before full parsing.
func (p *Parser) Looks(content string) bool {
	return strings.Contains(content, p.marker)
}

// Parse extracts a complete trade seed from the message text. It returns
// ports.ErrNoMatch when the marker phrase is absent or any of the seven
// required fields is missing; it never returns a partially populated seed.
// No numeric sanity check is performed beyond field presence.
func (p *Parser) Parse(content string) (*Seed, error) {
	if !p.Looks(content) {
		return nil, ports.ErrNoMatch
	}

	seed := &Seed{}

	// Instrument follows the marker phrase on the same line.
	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, p.marker); idx >= 0 {
			seed.Instrument = domain.NormalizeSymbol(line[idx+len(p.marker):])
			break
		}
	}
	if seed.Instrument == "" {
		return nil, fmt.Errorf("missing instrument: %w", ports.ErrNoMatch)
	}

	if m := p.entryTypeRe.FindStringSubmatch(content); m != nil {
		seed.Direction = domain.Direction(strings.ToUpper(m[1]))
	} else {
		// Legacy format: a bare BUY/SELL token anywhere in the text.
		upper := strings.ToUpper(content)
		switch {
		case strings.Contains(upper, "BUY"):
			seed.Direction = domain.Buy
		case strings.Contains(upper, "SELL"):
			seed.Direction = domain.Sell
		default:
			return nil, fmt.Errorf("missing direction: %w", ports.ErrNoMatch)
		}
	}

	var ok bool
	if seed.Entry, ok = extract(content, p.entryRe, p.entryOldRe); !ok {
		return nil, fmt.Errorf("missing entry price: %w", ports.ErrNoMatch)
	}
	tps := [3]*float64{&seed.TP1, &seed.TP2, &seed.TP3}
	for i := 0; i < 3; i++ {
		if *tps[i], ok = extract(content, p.tpRes[i], p.tpOldRes[i]); !ok {
			return nil, fmt.Errorf("missing take profit %d: %w", i+1, ports.ErrNoMatch)
		}
	}
	if seed.SL, ok = extract(content, p.slRe, p.slOldRe); !ok {
		return nil, fmt.Errorf("missing stop loss: %w", ports.ErrNoMatch)
	}

	return seed, nil
}

// extract applies the labeled-field expression, falling back to the legacy
// short-label form. Currency symbols are stripped by the expressions.
func extract(content string, primary, fallback *regexp.Regexp) (float64, bool) {
	for _, re := range []*regexp.Regexp{primary, fallback} {
		if m := re.FindStringSubmatch(content); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
