package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const fxapiURL = "https://api.fxapi.com/v1/latest"

// FXAPI serves currency pairs and spot gold (as the XAU base currency).
type FXAPI struct {
	base
}

func NewFXAPI(apiKey string, logger ports.Logger) *FXAPI {
	return &FXAPI{base{name: "fxapi", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *FXAPI) FetchPrice(ctx context.Context, symbol string) (float64, error) {
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
	params.Set("base_currency", baseCur)
	params.Set("currencies", quoteCur)

	var body struct {
		Data map[string]float64 `json:"data"`
	}
	if err := s.rc.getJSON(ctx, fxapiURL, params, nil, &body); err != nil {
		return 0, err
	}
	rate, ok := body.Data[quoteCur]
	if !ok {
		return 0, fmt.Errorf("%w: missing rate for %s", ports.ErrMalformedResponse, quoteCur)
	}
	return rate, nil
}
