package pricesource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const alphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantage serves plain currency pairs only. Spot gold is deliberately
// excluded: the GLD ETF it would fall back to tracks spot poorly.
type AlphaVantage struct {
	base
}

func NewAlphaVantage(apiKey string, logger ports.Logger) *AlphaVantage {
	return &AlphaVantage{base{name: "alpha_vantage", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *AlphaVantage) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	from, to := splitPair(symbol)

	params := url.Values{}
	params.Set("function", "CURRENCY_EXCHANGE_RATE")
	params.Set("from_currency", from)
	params.Set("to_currency", to)
	params.Set("apikey", s.apiKey)

	var body struct {
		Rate struct {
			ExchangeRate string `json:"5. Exchange Rate"`
		} `json:"Realtime Currency Exchange Rate"`
		Note string `json:"Note"`
	}
	if err := s.rc.getJSON(ctx, alphaVantageURL, params, nil, &body); err != nil {
		return 0, err
	}
	if body.Rate.ExchangeRate == "" {
		if strings.Contains(strings.ToLower(body.Note), "call frequency") {
			return 0, ports.ErrRateLimited
		}
		return 0, fmt.Errorf("%w: no exchange rate field", ports.ErrMalformedResponse)
	}
	price, ok := asFloat(body.Rate.ExchangeRate)
	if !ok {
		return 0, fmt.Errorf("%w: unparsable rate %q", ports.ErrMalformedResponse, body.Rate.ExchangeRate)
	}
	return price, nil
}
