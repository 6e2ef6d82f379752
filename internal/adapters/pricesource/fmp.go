package pricesource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const (
	fmpFXURL    = "https://financialmodelingprep.com/api/v3/fx/"
	fmpQuoteURL = "https://financialmodelingprep.com/api/v3/quote-short/"
)

// FMP (Financial Modeling Prep) serves currency pairs and spot gold through
// its fx endpoint and index instruments through quote-short alias fallback.
type FMP struct {
	base
}

func NewFMP(apiKey string, logger ports.Logger) *FMP {
	return &FMP{base{name: "fmp", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *FMP) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}

	if symbol == "XAUUSD" || domain.IsForexPair(symbol) {
		return s.fetch(ctx, fmpFXURL+symbol)
	}

	aliases, ok := fmpAliases[symbol]
	if !ok {
		return 0, ports.ErrUnsupportedInstrument
	}
	var lastErr error
	for _, alias := range aliases {
		price, err := s.fetch(ctx, fmpQuoteURL+url.PathEscape(alias))
		if err == nil {
			return price, nil
		}
		if errors.Is(err, ports.ErrRateLimited) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

func (s *FMP) fetch(ctx context.Context, endpoint string) (float64, error) {
	params := url.Values{}
	params.Set("apikey", s.apiKey)

	// FMP returns either a list of quote objects or an error object; price
	// fields vary between bid/price and number/string across endpoints.
	var body interface{}
	if err := s.rc.getJSON(ctx, endpoint, params, nil, &body); err != nil {
		return 0, err
	}

	switch v := body.(type) {
	case []interface{}:
		if len(v) == 0 {
			return 0, fmt.Errorf("%w: empty quote list", ports.ErrMalformedResponse)
		}
		quote, ok := v[0].(map[string]interface{})
		if !ok {
			return 0, fmt.Errorf("%w: unexpected quote shape", ports.ErrMalformedResponse)
		}
		for _, field := range []string{"bid", "price"} {
			if price, ok := asFloat(quote[field]); ok {
				return price, nil
			}
		}
		return 0, fmt.Errorf("%w: no price field in quote", ports.ErrMalformedResponse)
	case map[string]interface{}:
		if msg, ok := v["Error Message"].(string); ok && strings.Contains(strings.ToLower(msg), "limit") {
			return 0, ports.ErrRateLimited
		}
		return 0, fmt.Errorf("%w: error response", ports.ErrMalformedResponse)
	}
	return 0, fmt.Errorf("%w: unexpected response type", ports.ErrMalformedResponse)
}
