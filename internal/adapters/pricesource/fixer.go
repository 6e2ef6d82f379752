package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const fixerURL = "http://data.fixer.io/api/latest"

// Fixer serves plain currency pairs only.
type Fixer struct {
	base
}

func NewFixer(apiKey string, logger ports.Logger) *Fixer {
	return &Fixer{base{name: "fixer", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *Fixer) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	baseCur, quoteCur := splitPair(symbol)

	params := url.Values{}
	params.Set("access_key", s.apiKey)
	params.Set("base", baseCur)
	params.Set("symbols", quoteCur)

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := s.rc.getJSON(ctx, fixerURL, params, nil, &body); err != nil {
		return 0, err
	}
	rate, ok := body.Rates[quoteCur]
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ports.ErrMalformedResponse, quoteCur)
	}
	return rate, nil
}
