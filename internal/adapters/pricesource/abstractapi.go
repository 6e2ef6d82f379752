package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const abstractAPIURL = "https://exchange-rates.abstractapi.com/v1/live"

type AbstractAPI struct {
	base
}

func NewAbstractAPI(apiKey string, logger ports.Logger) *AbstractAPI {
	return &AbstractAPI{base{name: "abstractapi", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *AbstractAPI) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	baseCur, quoteCur := splitPair(symbol)

	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("base", baseCur)
	params.Set("target", quoteCur)

	var body struct {
		ExchangeRates map[string]float64 `json:"exchange_rates"`
	}
	if err := s.rc.getJSON(ctx, abstractAPIURL, params, nil, &body); err != nil {
		return 0, err
	}
	rate, ok := body.ExchangeRates[quoteCur]
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ports.ErrMalformedResponse, quoteCur)
	}
	return rate, nil
}
