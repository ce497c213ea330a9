package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Quote Provider Errors
	// ErrPriceUnavailable is the "valid empty" result: the symbol is not
	// covered by the provider or no quote exists right now. It is not a
	// failure; callers treat it as "no new price".
	ErrPriceUnavailable     = errors.New("no price available for symbol")
	ErrProviderUnavailable  = errors.New("quote provider API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the quote provider")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("quote provider authentication failed (check API keys)")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
	ErrDeleteFailed = errors.New("database delete failed")
)
