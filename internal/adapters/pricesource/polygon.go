package pricesource

import (
	"context"
	"fmt"
	"net/url"

	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
)

const polygonURLBase = "https://api.polygon.io/v1/last/currencies"

// Polygon covers forex pairs and gold through its currencies endpoint.
type Polygon struct {
	base
}

func NewPolygon(apiKey string, logger ports.Logger) *Polygon {
	return &Polygon{base{name: "polygon", apiKey: apiKey, rc: newRESTClient(), logger: logger}}
}

func (s *Polygon) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := s.requireCredential(); err != nil {
		return 0, err
	}
	var from, to string
	switch {
	case symbol == "XAUUSD":
		from, to = "XAU", "USD"
	case domain.IsForexPair(symbol):
		from, to = splitPair(symbol)
	default:
		return 0, ports.ErrUnsupportedInstrument
	}

	endpoint := fmt.Sprintf("%s/%s/%s", polygonURLBase, from, to)
	params := url.Values{}
	params.Set("apiKey", s.apiKey)

	var body struct {
		Last struct {
			Bid   float64 `json:"bid"`
			Price float64 `json:"price"`
		} `json:"last"`
	}
	if err := s.rc.getJSON(ctx, endpoint, params, nil, &body); err != nil {
		return 0, err
	}
	if body.Last.Bid != 0 {
		return body.Last.Bid, nil
	}
	if body.Last.Price != 0 {
		return body.Last.Price, nil
	}
	return 0, fmt.Errorf("%w: empty last quote for %s/%s", ports.ErrMalformedResponse, from, to)
}
