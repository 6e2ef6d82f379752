package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"signalTracker/internal/ports"
)

// routineAttempts is the number of sources tried from the rotation cursor
// before falling back to every remaining source.
const routineAttempts = 3

// Selector owns the source priority ordering and the rotation cursor. The
// cursor is selector-owned mutable state, guarded for use from both the poll
// loop and ad hoc lookups.
//
// Routine polling deliberately trusts the first successful source's raw price
// instead of running the consensus procedure; full cross-verification is
// reserved for signal-open time. This is a cost/accuracy tradeoff inherited
// from the system's free-tier API budget.
type Selector struct {
	sources []ports.PriceSource // Fixed priority order, most accurate first
	logger  ports.Logger

	mu     sync.Mutex
	cursor int
}

// NewSelector creates a selector over the given sources in priority order.
func NewSelector(sources []ports.PriceSource, logger ports.Logger) (*Selector, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one price source is required: %w", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for selector")
	}
	return &Selector{sources: sources, logger: logger}, nil
}

// SourceCount returns the number of configured sources.
func (s *Selector) SourceCount() int { return len(s.sources) }

// RoutinePrice fetches a price for routine monitoring: it tries three sources
// starting at the rotation cursor, then falls back to every remaining source
// in priority order. The cursor advances by one position only on success, so
// load is spread round-robin across sources that actually work.
//
// A rate-limited source is reported through rateLimited (may be called more
// than once per lookup) and the next source is tried.
func (s *Selector) RoutinePrice(ctx context.Context, symbol string, rateLimited func(source string)) (float64, error) {
	s.mu.Lock()
	start := s.cursor % len(s.sources)
	s.mu.Unlock()

	tried := make(map[int]bool, routineAttempts)
	for i := 0; i < routineAttempts && i < len(s.sources); i++ {
		idx := (start + i) % len(s.sources)
		tried[idx] = true
		price, err := s.fetchOne(ctx, s.sources[idx], symbol, rateLimited)
		if err == nil {
			s.mu.Lock()
			s.cursor = (start + 1) % len(s.sources)
			s.mu.Unlock()
			return price, nil
		}
	}

	s.logger.Debug(ctx, "rotation window exhausted, trying remaining sources", map[string]interface{}{"symbol": symbol})
	for idx, src := range s.sources {
		if tried[idx] {
			continue
		}
		price, err := s.fetchOne(ctx, src, symbol, rateLimited)
		if err == nil {
			return price, nil
		}
	}

	return 0, fmt.Errorf("all sources failed for %s: %w", symbol, ports.ErrPriceUnavailable)
}

// VerifiedPrice queries every source concurrently, regardless of rotation
// state, and resolves the results into a consensus quote. Used once per
// trade, at signal-open time and during the restart catch-up pass.
func (s *Selector) VerifiedPrice(ctx context.Context, symbol string, rateLimited func(source string)) (Quote, bool) {
	type result struct {
		name  string
		price float64
		err   error
	}

	results := make(chan result, len(s.sources))
	var wg sync.WaitGroup
	for _, src := range s.sources {
		wg.Add(1)
		go func(src ports.PriceSource) {
			defer wg.Done()
			price, err := src.FetchPrice(ctx, symbol)
			results <- result{name: src.Name(), price: price, err: err}
		}(src)
	}
	wg.Wait()
	close(results)

	prices := make(map[string]float64)
	for r := range results {
		switch {
		case r.err == nil:
			prices[r.name] = r.price
		case errors.Is(r.err, ports.ErrRateLimited):
			s.logger.Warn(ctx, "source rate limited during verification", map[string]interface{}{"source": r.name, "symbol": symbol})
			if rateLimited != nil {
				rateLimited(r.name)
			}
		case errors.Is(r.err, ports.ErrNoCredential), errors.Is(r.err, ports.ErrUnsupportedInstrument):
			// Expected declines, silent.
		default:
			s.logger.Debug(ctx, "source failed during verification", map[string]interface{}{"source": r.name, "symbol": symbol, "error": r.err.Error()})
		}
	}

	quote, ok := Resolve(prices)
	if !ok {
		s.logger.Warn(ctx, "no source produced a price", map[string]interface{}{"symbol": symbol})
		return Quote{}, false
	}
	if quote.LowConfidence {
		s.logger.Warn(ctx, "price verified by a single source only", map[string]interface{}{"symbol": symbol, "source": quote.Sources[0], "price": quote.Price})
	} else {
		s.logger.Info(ctx, "price verified", map[string]interface{}{"symbol": symbol, "price": quote.Price, "sources": len(quote.Sources), "median": quote.Median})
	}
	return quote, true
}

func (s *Selector) fetchOne(ctx context.Context, src ports.PriceSource, symbol string, rateLimited func(source string)) (float64, error) {
	price, err := src.FetchPrice(ctx, symbol)
	if err == nil {
		s.logger.Debug(ctx, "price fetched", map[string]interface{}{"source": src.Name(), "symbol": symbol, "price": price})
		return price, nil
	}
	switch {
	case errors.Is(err, ports.ErrRateLimited):
		s.logger.Warn(ctx, "source rate limited", map[string]interface{}{"source": src.Name(), "symbol": symbol})
		if rateLimited != nil {
			rateLimited(src.Name())
		}
	case errors.Is(err, ports.ErrNoCredential), errors.Is(err, ports.ErrUnsupportedInstrument):
		// Expected declines, silent.
	default:
		s.logger.Debug(ctx, "source failed", map[string]interface{}{"source": src.Name(), "symbol": symbol, "error": err.Error()})
	}
	return 0, err
}
