package pricesource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const currencyLayerURL = "http://apilayer.net/api/live"

// CurrencyLayer serves plain currency pairs only.
type CurrencyLayer struct {
	base
}

func NewCurrencyLayer(apiKey string, logger ports.Logger) *CurrencyLayer {
	return &CurrencyLayer{base{name: "currencylayer", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *CurrencyLayer) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	if symbol == "XAUUSD" || !domain.IsForexPair(symbol) {
		return 0, ports.ErrUnsupportedInstrument
	}
	baseCur, quoteCur := splitPair(symbol)

	params := url.Values{}
	params.Set("access_key", s.apiKey)
	params.Set("source", baseCur)
	params.Set("currencies", quoteCur)

	var body struct {
		Quotes map[string]float64 `json:"quotes"`
		Error  struct {
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := s.rc.getJSON(ctx, currencyLayerURL, params, nil, &body); err != nil {
		return 0, err
	}
	if rate, ok := body.Quotes[baseCur+quoteCur]; ok {
		return rate, nil
	}
	if strings.Contains(strings.ToLower(body.Error.Info), "limit") || strings.Contains(strings.ToLower(body.Error.Info), "quota") {
		return 0, ports.ErrRateLimited
	}
	return 0, fmt.Errorf("%w: missing quote %s%s", ports.ErrMalformedResponse, baseCur, quoteCur)
}
