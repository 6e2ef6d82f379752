package pricesource

import (
	"context"
	"fmt"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const exchangeRateURL = "https://v6.exchangerate-api.com/v6"

// ExchangeRate (exchangerate-api.com) serves plain currency pairs only.
type ExchangeRate struct {
	base
}

func NewExchangeRate(apiKey string, logger ports.Logger) *ExchangeRate {
	return &ExchangeRate{base{name: "exchangerate", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *ExchangeRate) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	baseCur, quoteCur := splitPair(symbol)

	var body struct {
		ConversionRate *float64 `json:"conversion_rate"`
	}
	endpoint := fmt.Sprintf("%s/%s/pair/%s/%s", exchangeRateURL, s.apiKey, baseCur, quoteCur)
	if err := s.rc.getJSON(ctx, endpoint, nil, nil, &body); err != nil {
		return 0, err
	}
	if body.ConversionRate == nil {
		return 0, fmt.Errorf("%w: missing conversion_rate", ports.ErrMalformedResponse)
	}
	return *body.ConversionRate, nil
}
