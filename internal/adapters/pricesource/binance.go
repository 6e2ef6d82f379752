package pricesource

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"signalTracker/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// Binance serves crypto pairs through the spot ticker endpoint. The price
// endpoint is public, so it works without credentials.
type Binance struct {
	client *binance.Client
	logger ports.Logger
}

func NewBinance(apiKey, secretKey string, logger ports.Logger) *Binance {
	return &Binance{
		client: binance.NewClient(apiKey, secretKey),
		logger: logger,
	}
}

func (s *Binance) Name() string { return "binance" }

func (s *Binance) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	aliases, ok := binanceAliases[symbol]
	if !ok {
		return 0, ports.ErrUnsupportedInstrument
	}

	var lastErr error
	for _, alias := range aliases {
		price, err := s.fetchTicker(ctx, alias)
		if err == nil {
			return price, nil
		}
		if errors.Is(err, ports.ErrRateLimited) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

func (s *Binance) fetchTicker(ctx context.Context, alias string) (float64, error) {
	prices, err := s.client.NewListPricesService().Symbol(alias).Do(ctx)
	if err != nil {
		return 0, s.handleError(ctx, err, alias)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("%w: no price data for %s", ports.ErrMalformedResponse, alias)
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: could not parse price %q: %v", ports.ErrMalformedResponse, prices[0].Price, err)
	}
	return price, nil
}

// handleError translates go-binance API errors into the shared sentinel set.
func (s *Binance) handleError(ctx context.Context, err error, alias string) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case -1003, -1015: // too many requests / too many orders
			return fmt.Errorf("binance %s: %w: %v", alias, ports.ErrRateLimited, err)
		case -1121: // invalid symbol
			return fmt.Errorf("binance %s: %w: %v", alias, ports.ErrUnsupportedInstrument, err)
		default:
			return fmt.Errorf("binance %s: %w: %v", alias, ports.ErrMalformedResponse, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("binance %s: %w: %v", alias, ports.ErrTimeout, err)
	}
	return fmt.Errorf("binance %s: %w: %v", alias, ports.ErrUnknown, err)
}
