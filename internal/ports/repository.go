package ports

import (
	"context"
	"time"

	"tradetracker/internal/domain"
)

// TradeRepository defines the interface for storing and retrieving tracked trades.
// All operations act on one record per call; per-record atomicity is the only
// transactional guarantee required.
type TradeRepository interface {
	// Create saves a new trade and returns its assigned ID.
	Create(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Trade, error)
	// FindAll retrieves all trades, ordered by creation time descending.
	FindAll(ctx context.Context) ([]*domain.Trade, error)
	// FindClosed retrieves all terminal-status trades, ordered ascending by
	// close time (ID breaks ties, so the order is deterministic).
	FindClosed(ctx context.Context) ([]*domain.Trade, error)
	// UpdatePrice records a freshly observed last-traded price.
	UpdatePrice(ctx context.Context, id int64, price float64) error
	// UpdateStatus persists a lifecycle status change.
	UpdateStatus(ctx context.Context, id int64, status domain.TradeStatus) error
	// CloseTrade stamps the close timestamp. The stamp is written at most
	// once: closing an already-closed trade is a no-op.
	CloseTrade(ctx context.Context, id int64, closedAt time.Time) error
	// UpdateLevels modifies the buy/stoploss/target prices of a trade.
	UpdateLevels(ctx context.Context, id int64, buy, stoploss, target float64) error
	// Delete removes a trade record.
	Delete(ctx context.Context, id int64) error
}
