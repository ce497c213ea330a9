package ports

import "context"

// QuoteProvider defines the interface for looking up the last traded price
// of a single symbol.
//
// Implementations must distinguish "no price exists" from "the lookup
// failed": return ErrPriceUnavailable (possibly wrapped) when the symbol is
// not covered or the market has no quote, and any other error for transient
// failures (network, rate limit, auth). Callers treat ErrPriceUnavailable
// the same as "no new price" and may retry transient failures.
type QuoteProvider interface {
	// Price retrieves the last traded price for a symbol.
	Price(ctx context.Context, symbol string) (float64, error)
}
