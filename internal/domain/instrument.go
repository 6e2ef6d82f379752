package domain

import "strings"

// InstrumentSpec holds the per-instrument tick configuration used to derive
// take-profit and stop-loss levels from an entry price.
type InstrumentSpec struct {
	PipSize  float64 // Price change of a single pip
	Decimals int     // Display precision
}

// instrumentSpecs maps normalized symbols to their tick configuration.
// Instruments absent from the table fall back to DefaultSpec.
var instrumentSpecs = map[string]InstrumentSpec{
	"XAUUSD": {PipSize: 0.1, Decimals: 2},
	"GBPJPY": {PipSize: 0.01, Decimals: 3},
	"CHFJPY": {PipSize: 0.01, Decimals: 3},
	"CADJPY": {PipSize: 0.01, Decimals: 3},
	"AUDJPY": {PipSize: 0.01, Decimals: 3},
	"USDJPY": {PipSize: 0.01, Decimals: 3},
	"GBPUSD": {PipSize: 0.0001, Decimals: 4},
	"EURUSD": {PipSize: 0.0001, Decimals: 4},
	"AUDUSD": {PipSize: 0.0001, Decimals: 4},
	"NZDUSD": {PipSize: 0.0001, Decimals: 4},
	"GBPCHF": {PipSize: 0.0001, Decimals: 4},
	"USDCHF": {PipSize: 0.0001, Decimals: 4},
	"USDCAD": {PipSize: 0.0001, Decimals: 4},
	"GBPCAD": {PipSize: 0.0001, Decimals: 4},
	"EURCAD": {PipSize: 0.0001, Decimals: 4},
	"AUDCAD": {PipSize: 0.0001, Decimals: 4},
	"AUDNZD": {PipSize: 0.0001, Decimals: 4},
	"US100":  {PipSize: 1.0, Decimals: 1},
	"GER40":  {PipSize: 1.0, Decimals: 1},
	"US500":  {PipSize: 0.1, Decimals: 2},
	"BTCUSD": {PipSize: 10, Decimals: 1},
}

// DefaultSpec is the generic forex pip configuration applied to unknown
// instruments.
var DefaultSpec = InstrumentSpec{PipSize: 0.0001, Decimals: 4}

// SpecFor returns the tick configuration for a normalized symbol.
func SpecFor(symbol string) InstrumentSpec {
	if spec, ok := instrumentSpecs[symbol]; ok {
		return spec
	}
	return DefaultSpec
}

// NormalizeSymbol converts free-form instrument text to the canonical form:
// uppercase, no separators or surrounding whitespace (e.g. "eur/usd" ->
// "EURUSD").
func NormalizeSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "/", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// IsForexPair reports whether a normalized symbol looks like a plain
// six-letter currency pair (the only shape most rate APIs understand).
func IsForexPair(symbol string) bool {
	if len(symbol) != 6 {
		return false
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
