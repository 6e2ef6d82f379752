package ports

import "context"

// PriceSource defines the interface for a single external price provider.
// Implementations map the normalized instrument symbol to the provider's own
// naming, issue one bounded-timeout request and extract a price from the
// provider-specific response shape.
//
// FetchPrice never panics and never lets a provider error escape unwrapped:
// missing credentials return ErrNoCredential, unsupported instrument classes
// return ErrUnsupportedInstrument, throttling returns ErrRateLimited, and any
// malformed or unexpected response degrades to ErrMalformedResponse.
type PriceSource interface {
	// Name returns the stable identifier of the provider (used for rotation
	// priority, logging and consensus attribution).
	Name() string

	// FetchPrice returns the current price for a normalized symbol.
	FetchPrice(ctx context.Context, symbol string) (float64, error)
}
