package domain

import (
	"fmt"
	"strings"
	"time"
)

// TradeStatus represents the lifecycle status of a tracked trade.
type TradeStatus string

const (
	StatusPending     TradeStatus = "Pending"
	StatusActive      TradeStatus = "Active"
	StatusTargetHit   TradeStatus = "Target Hit"
	StatusStoplossHit TradeStatus = "Stoploss Hit"
)

// IsTerminal reports whether the status is absorbing: once a trade reaches
// Target Hit or Stoploss Hit it never transitions again.
func (s TradeStatus) IsTerminal() bool {
	return s == StatusTargetHit || s == StatusStoplossHit
}

// ParseStatus converts a string into a TradeStatus.
func ParseStatus(raw string) (TradeStatus, error) {
	switch TradeStatus(raw) {
	case StatusPending, StatusActive, StatusTargetHit, StatusStoplossHit:
		return TradeStatus(raw), nil
	}
	return "", fmt.Errorf("unknown trade status %q", raw)
}

// Trade represents a tracked discretionary trade.
type Trade struct {
	ID        int64       // Unique identifier for the trade (assigned by the repository)
	Symbol    string      // Ticker symbol, uppercase (e.g., "RELIANCE", "ETHUSDT"); immutable after creation
	Buy       float64     // Intended or actual entry price
	Stoploss  float64     // Exit price for a losing trade
	Target    float64     // Exit price for a winning trade
	LastPrice *float64    // Most recent observed market price; nil until first refresh
	Status    TradeStatus // Current lifecycle status
	Entered   bool        // True if the position was already held at creation time
	CreatedAt time.Time   // Timestamp set once at creation
	ClosedAt  *time.Time  // Set exactly once when status first becomes terminal; nil while open
}

// IsClosed reports whether the trade has reached a terminal status.
func (t *Trade) IsClosed() bool {
	return t.Status.IsTerminal()
}

// ExitPrice returns the price a closed trade exits at: the target on a win,
// the stoploss on a loss. Returns 0 for non-terminal trades.
func (t *Trade) ExitPrice() float64 {
	switch t.Status {
	case StatusTargetHit:
		return t.Target
	case StatusStoplossHit:
		return t.Stoploss
	}
	return 0
}

// ValidationError describes a rejected trade construction or level update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid trade %s: %s", e.Field, e.Reason)
}

// ValidateLevels checks the price-level invariant stoploss < buy < target.
// The sizing and R-multiple arithmetic are only well defined under this
// ordering, so it is enforced at construction and on every level edit.
func ValidateLevels(buy, stoploss, target float64) error {
	if buy <= 0 {
		return &ValidationError{Field: "buy", Reason: "must be positive"}
	}
	if stoploss <= 0 {
		return &ValidationError{Field: "stoploss", Reason: "must be positive"}
	}
	if target <= 0 {
		return &ValidationError{Field: "target", Reason: "must be positive"}
	}
	if stoploss >= buy {
		return &ValidationError{Field: "stoploss", Reason: fmt.Sprintf("must be below buy (%.2f >= %.2f)", stoploss, buy)}
	}
	if target <= buy {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("must be above buy (%.2f <= %.2f)", target, buy)}
	}
	return nil
}

// NewTrade validates the inputs and builds a new Trade. The initial status is
// Active when the position is already held (entered), otherwise Pending.
func NewTrade(symbol string, buy, stoploss, target float64, entered bool, now time.Time) (*Trade, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if err := ValidateLevels(buy, stoploss, target); err != nil {
		return nil, err
	}

	status := StatusPending
	if entered {
		status = StatusActive
	}

	return &Trade{
		Symbol:    symbol,
		Buy:       buy,
		Stoploss:  stoploss,
		Target:    target,
		Status:    status,
		Entered:   entered,
		CreatedAt: now,
	}, nil
}
