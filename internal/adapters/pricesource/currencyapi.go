package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const currencyAPIURL = "https://api.currencyapi.com/v3/latest"

type CurrencyAPI struct {
	base
}

func NewCurrencyAPI(apiKey string, logger ports.Logger) *CurrencyAPI {
	return &CurrencyAPI{base{name: "currencyapi", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *CurrencyAPI) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	baseCur, quoteCur := splitPair(symbol)

	params := url.Values{}
	params.Set("apikey", s.apiKey)
	params.Set("base_currency", baseCur)
	params.Set("currencies", quoteCur)

	var body struct {
		Data map[string]struct {
			Value float64 `json:"value"`
		} `json:"data"`
	}
	if err := s.rc.getJSON(ctx, currencyAPIURL, params, nil, &body); err != nil {
		return 0, err
	}
	entry, ok := body.Data[quoteCur]
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ports.ErrMalformedResponse, quoteCur)
	}
	return entry.Value, nil
}
