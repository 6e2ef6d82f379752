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

const twelveDataURL = "https://api.twelvedata.com/price"

// TwelveData serves currency pairs, spot gold and (via alias fallback) the
// index instruments it quotes as ETFs.
type TwelveData struct {
	base
}

func NewTwelveData(apiKey string, logger ports.Logger) *TwelveData {
	return &TwelveData{base{name: "twelve_data", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *TwelveData) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}

	var candidates []string
	switch {
	case symbol == "XAUUSD":
		candidates = []string{"XAU/USD", "GOLD"}
	case domain.IsForexPair(symbol):
		b, q := splitPair(symbol)
		candidates = []string{b + "/" + q}
	default:
		aliases, ok := twelveDataAliases[symbol]
		if !ok {
			return 0, ports.ErrUnsupportedInstrument
		}
		candidates = aliases
	}

	var lastErr error
	for _, candidate := range candidates {
		price, err := s.fetchSymbol(ctx, candidate)
		if err == nil {
			return price, nil
		}
		if errors.Is(err, ports.ErrRateLimited) {
			// Rate limiting applies to the whole account, not the alias.
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

func (s *TwelveData) fetchSymbol(ctx context.Context, providerSymbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", providerSymbol)
	params.Set("apikey", s.apiKey)

	// TwelveData returns the price as a string and reports quota exhaustion
	// inside a 200 response.
	var body struct {
		Price   string `json:"price"`
		Message string `json:"message"`
	}
	if err := s.rc.getJSON(ctx, twelveDataURL, params, nil, &body); err != nil {
		return 0, err
	}
	if body.Price == "" {
		if strings.Contains(strings.ToLower(body.Message), "limit") {
			return 0, ports.ErrRateLimited
		}
		return 0, fmt.Errorf("%w: no price field", ports.ErrMalformedResponse)
	}
	price, ok := asFloat(body.Price)
	if !ok {
		return 0, fmt.Errorf("%w: unparsable price %q", ports.ErrMalformedResponse, body.Price)
	}
	return price, nil
}
