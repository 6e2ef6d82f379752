package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const currencyBeaconURL = "https://api.currencybeacon.com/v1/latest"

// CurrencyBeacon also quotes XAU as a currency, so gold rides the same path.
type CurrencyBeacon struct {
	base
}

func NewCurrencyBeacon(apiKey string, logger ports.Logger) *CurrencyBeacon {
	return &CurrencyBeacon{base{name: "currencybeacon", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *CurrencyBeacon) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	var baseCur, quoteCur string
	switch {
	case symbol == "XAUUSD":
		baseCur, quoteCur = "XAU", "USD"
	case domain.IsForexPair(symbol):
		baseCur, quoteCur = splitPair(symbol)
	default:
		return 0, ports.ErrUnsupportedInstrument
	}

	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("base", baseCur)
	params.Set("symbols", quoteCur)

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := s.rc.getJSON(ctx, currencyBeaconURL, params, nil, &body); err != nil {
		return 0, err
	}
	rate, ok := body.Rates[quoteCur]
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ports.ErrMalformedResponse, quoteCur)
	}
	return rate, nil
}
