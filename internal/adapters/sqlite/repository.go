package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradetracker/internal/domain"
	"tradetracker/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/tradetracker.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits from limiting connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		buy REAL NOT NULL,
		stoploss REAL NOT NULL,
		target REAL NOT NULL,
		last_price REAL DEFAULT NULL,
		status TEXT NOT NULL,
		entered INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status);
	CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades (closed_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

const tradeColumns = `id, symbol, buy, stoploss, target, last_price, status, entered, created_at, closed_at`

// Create saves a new trade and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (symbol, buy, stoploss, target, last_price, status, entered, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var lastPrice sql.NullFloat64
	if trade.LastPrice != nil {
		lastPrice = sql.NullFloat64{Float64: *trade.LastPrice, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		trade.Symbol, trade.Buy, trade.Stoploss, trade.Target, lastPrice, trade.Status, trade.Entered, trade.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for symbol %s: %w: %w", trade.Symbol, ports.ErrQueryFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Symbol, err)
	}
	trade.ID = id
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol, "status": trade.Status})
	return id, nil
}

// FindByID retrieves a trade by its unique ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade by ID %d: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return trade, nil
}

// FindAll retrieves all trades, ordered by creation time descending.
func (r *Repository) FindAll(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all trades: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// FindClosed retrieves all terminal-status trades in ascending close order.
func (r *Repository) FindClosed(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades
	WHERE status IN (?, ?) AND closed_at IS NOT NULL
	ORDER BY closed_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, domain.StatusTargetHit, domain.StatusStoplossHit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	return collectTrades(rows)
}

// UpdatePrice records a freshly observed last-traded price.
func (r *Repository) UpdatePrice(ctx context.Context, id int64, price float64) error {
	const query = `UPDATE trades SET last_price = ? WHERE id = ?`
	return r.exec(ctx, query, "update price", ports.ErrUpdateFailed, id, price, id)
}

// UpdateStatus persists a lifecycle status change.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.TradeStatus) error {
	const query = `UPDATE trades SET status = ? WHERE id = ?`
	return r.exec(ctx, query, "update status", ports.ErrUpdateFailed, id, status, id)
}

// CloseTrade stamps the close timestamp. The WHERE clause keeps the stamp
// write-once: re-closing an already-closed trade affects zero rows and is
// treated as success.
func (r *Repository) CloseTrade(ctx context.Context, id int64, closedAt time.Time) error {
	const query = `UPDATE trades SET closed_at = ? WHERE id = ? AND closed_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, closedAt, id)
	if err != nil {
		return fmt.Errorf("failed to close trade ID %d: %w: %w", id, ports.ErrUpdateFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected closing trade ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		// Either already closed (idempotent no-op) or missing entirely.
		existing, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return findErr
		}
		if existing == nil {
			return fmt.Errorf("trade ID %d not found for close: %w", id, ports.ErrNotFound)
		}
		r.logger.Debug(ctx, "Trade already closed, close is a no-op", map[string]interface{}{"tradeID": id})
		return nil
	}
	r.logger.Debug(ctx, "Trade closed", map[string]interface{}{"tradeID": id, "closedAt": closedAt})
	return nil
}

// UpdateLevels modifies the buy/stoploss/target prices of a trade.
func (r *Repository) UpdateLevels(ctx context.Context, id int64, buy, stoploss, target float64) error {
	const query = `UPDATE trades SET buy = ?, stoploss = ?, target = ? WHERE id = ?`
	return r.exec(ctx, query, "update levels", ports.ErrUpdateFailed, id, buy, stoploss, target, id)
}

// Delete removes a trade record.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM trades WHERE id = ?`
	return r.exec(ctx, query, "delete", ports.ErrDeleteFailed, id, id)
}

// exec runs a single-row statement, maps statement failures onto the given
// ports sentinel and a zero-rows result to ErrNotFound.
func (r *Repository) exec(ctx context.Context, query, op string, sentinel error, id int64, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s for trade ID %d: %w: %w", op, id, sentinel, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s on trade ID %d: %w", op, id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %d not found for %s: %w", id, op, ports.ErrNotFound)
	}
	return nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var lastPrice sql.NullFloat64
	var closedAt sql.NullTime
	var status string
	err := s.Scan(
		&t.ID, &t.Symbol, &t.Buy, &t.Stoploss, &t.Target, &lastPrice, &status, &t.Entered, &t.CreatedAt, &closedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if lastPrice.Valid {
		p := lastPrice.Float64
		t.LastPrice = &p
	}
	if closedAt.Valid {
		ts := closedAt.Time
		t.ClosedAt = &ts
	}
	t.Status = domain.TradeStatus(status)
	return t, nil
}

func collectTrades(rows *sql.Rows) ([]*domain.Trade, error) {
	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w: %w", ports.ErrQueryFailed, err)
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return trades, nil
}
