package lifecycle

import (
	"tradetracker/internal/domain"
)

// Config holds the lifecycle engine policy knobs.
type Config struct {
	// RegressToPending controls whether an Active trade falls back to
	// Pending when the last price dips below the buy level. The default
	// (false) keeps Active trades active until a hard exit boundary is
	// crossed: once a position is held, a dip below the entry level does
	// not un-enter it.
	RegressToPending bool
}

// Engine computes trade status transitions from price levels and the last
// traded price. It is stateless and safe for concurrent use.
type Engine struct {
	cfg Config
}

// New creates a lifecycle engine with the given policy.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Transition is the outcome of evaluating a trade against its last price.
type Transition struct {
	Status  domain.TradeStatus // The computed next status
	Changed bool               // True if Status differs from the trade's stored status
	Closed  bool               // True if this transition closes the trade (caller must stamp ClosedAt)
}

// NextStatus computes the trade's next lifecycle status.
//
// Terminal statuses are absorbing, and a trade with no observed price keeps
// its current status. The target boundary is checked before the stoploss
// boundary, so a degenerate trade where both could trigger resolves to
// Target Hit.
func (e *Engine) NextStatus(t *domain.Trade) domain.TradeStatus {
	if t.Status.IsTerminal() {
		return t.Status
	}
	if t.LastPrice == nil {
		return t.Status
	}
	ltp := *t.LastPrice

	if ltp >= t.Target {
		return domain.StatusTargetHit
	}
	if ltp <= t.Stoploss {
		return domain.StatusStoplossHit
	}
	if t.Status == domain.StatusActive && !e.cfg.RegressToPending {
		return domain.StatusActive
	}
	if ltp >= t.Buy {
		return domain.StatusActive
	}
	return domain.StatusPending
}

// Evaluate computes the next status and reports whether the caller needs to
// persist a change, and whether that change is a closing transition. The
// trade itself is never mutated.
func (e *Engine) Evaluate(t *domain.Trade) Transition {
	next := e.NextStatus(t)
	return Transition{
		Status:  next,
		Changed: next != t.Status,
		Closed:  next != t.Status && next.IsTerminal(),
	}
}
