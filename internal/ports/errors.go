package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Price Source Errors
	//
	// ErrNoCredential and ErrUnsupportedInstrument are expected conditions:
	// a source without a configured key, or asked for an instrument class it
	// does not serve, declines silently. ErrRateLimited is distinguishable so
	// the caller can warn without treating the instrument as unsupported.
	ErrNoCredential          = errors.New("no API credential configured for source")
	ErrUnsupportedInstrument = errors.New("instrument not supported by source")
	ErrRateLimited           = errors.New("source API rate limit exceeded")
	ErrMalformedResponse     = errors.New("source returned a malformed response")
	ErrPriceUnavailable      = errors.New("no price available")

	// Signal Errors
	ErrNoMatch = errors.New("message is not a complete trading signal")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
	ErrDeleteFailed = errors.New("database delete failed")
)
