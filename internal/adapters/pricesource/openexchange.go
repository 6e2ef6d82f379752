package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const openExchangeURL = "https://openexchangerates.org/api/latest.json"

// OpenExchange only publishes USD-quoted rates, so it serves BASUSD pairs
// by inverting the USD->BAS rate.
type OpenExchange struct {
	base
}

func NewOpenExchange(apiKey string, logger ports.Logger) *OpenExchange {
	return &OpenExchange{base{name: "openexchange", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *OpenExchange) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	baseCur, quoteCur := splitPair(symbol)
	if quoteCur != "USD" {
		return 0, ports.ErrUnsupportedInstrument
	}

	params := url.Values{}
	params.Set("app_id", s.apiKey)
	params.Set("symbols", baseCur)

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := s.rc.getJSON(ctx, openExchangeURL, params, nil, &body); err != nil {
		return 0, err
	}
	rate, ok := body.Rates[baseCur]
	if !ok || rate == 0 {
		return 0, fmt.Errorf("%w: missing rate for %s", ports.ErrMalformedResponse, baseCur)
	}
	return 1 / rate, nil
}
