// pricecheck queries every configured price source for one instrument and
// prints the per-source results plus the consensus quote. Useful for checking
// provider credentials and symbol coverage before pointing the tracker at a
// live channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"signalTracker/config"
	"signalTracker/internal/adapters/logger"
	"signalTracker/internal/adapters/pricesource"
	"signalTracker/internal/domain"
	"signalTracker/internal/ports"
	"signalTracker/internal/pricefeed"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: pricecheck SYMBOL")
		os.Exit(2)
	}
	symbol := domain.NormalizeSymbol(os.Args[1])

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(logger.LevelError) // Keep tool output clean

	sources := pricesource.NewAll(cfg.Providers, appLogger)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("Checking %d sources for %s...\n\n", len(sources), symbol)

	prices := make(map[string]float64)
	for _, src := range sources {
		price, err := src.FetchPrice(ctx, symbol)
		switch {
		case err == nil:
			prices[src.Name()] = price
			fmt.Printf("  %-16s %.5f\n", src.Name(), price)
		case errors.Is(err, ports.ErrNoCredential):
			fmt.Printf("  %-16s (no credential)\n", src.Name())
		case errors.Is(err, ports.ErrUnsupportedInstrument):
			fmt.Printf("  %-16s (unsupported instrument)\n", src.Name())
		case errors.Is(err, ports.ErrRateLimited):
			fmt.Printf("  %-16s (rate limited)\n", src.Name())
		default:
			fmt.Printf("  %-16s error: %v\n", src.Name(), err)
		}
	}

	fmt.Println()
	quote, ok := pricefeed.Resolve(prices)
	if !ok {
		fmt.Println("No price available: every source failed or declined.")
		os.Exit(1)
	}

	switch {
	case quote.LowConfidence:
		fmt.Printf("Consensus: %.5f (LOW CONFIDENCE, single source: %s)\n", quote.Price, quote.Sources[0])
	case quote.Median:
		fmt.Printf("Consensus: %.5f (median fallback, sources disagreed: %s)\n", quote.Price, strings.Join(quote.Sources, ", "))
	default:
		fmt.Printf("Consensus: %.5f (verified by %s)\n", quote.Price, strings.Join(quote.Sources, ", "))
	}
}
