package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const apiLayerURL = "https://api.apilayer.com/exchangerates_data/latest"

// APILayer authenticates through an apikey header rather than a query param.
type APILayer struct {
	base
}

func NewAPILayer(apiKey string, logger ports.Logger) *APILayer {
	return &APILayer{base{name: "apilayer", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *APILayer) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	baseCur, quoteCur := splitPair(symbol)

	params := url.Values{}
	params.Set("base", baseCur)
	params.Set("symbols", quoteCur)
	headers := map[string]string{"apikey": s.apiKey}

	var body struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := s.rc.getJSON(ctx, apiLayerURL, params, headers, &body); err != nil {
		return 0, err
	}
	rate, ok := body.Rates[quoteCur]
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ports.ErrMalformedResponse, quoteCur)
	}
	return rate, nil
}
