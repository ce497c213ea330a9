package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tradetracker/internal/analytics"
	"tradetracker/internal/domain"
	"tradetracker/internal/lifecycle"
	"tradetracker/internal/ports"
)

// TrackerService orchestrates the trade tracker: it feeds quotes into the
// repository, runs the lifecycle engine over every trade, persists the
// resulting transitions, and replays closed trades through the analytics
// engine.
type TrackerService struct {
	logger ports.Logger
	repo   ports.TradeRepository
	quotes ports.QuoteProvider
	engine *lifecycle.Engine

	startingCapital float64
	riskPerTrade    float64

	now func() time.Time

	// One mutex per trade ID. The engine itself is stateless, but the
	// read-decide-write pass over a trade must not interleave with a
	// concurrent pass over the same trade (lost-update race on status
	// and closed_at).
	locks sync.Map // map[int64]*sync.Mutex
}

// Options holds the dependencies and tunables of the tracker service.
type Options struct {
	Logger          ports.Logger
	Repo            ports.TradeRepository
	Quotes          ports.QuoteProvider
	Engine          *lifecycle.Engine
	StartingCapital float64
	RiskPerTrade    float64
	Now             func() time.Time // Defaults to time.Now; injectable for tests
}

// NewTrackerService creates a new tracker service instance.
func NewTrackerService(opts Options) (*TrackerService, error) {
	if opts.Logger == nil || opts.Repo == nil || opts.Quotes == nil || opts.Engine == nil {
		return nil, fmt.Errorf("missing required dependencies for TrackerService")
	}
	if opts.StartingCapital <= 0 {
		return nil, fmt.Errorf("starting capital must be positive")
	}
	if opts.RiskPerTrade <= 0 || opts.RiskPerTrade >= 1 {
		return nil, fmt.Errorf("risk per trade must be between 0 and 1")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TrackerService{
		logger:          opts.Logger,
		repo:            opts.Repo,
		quotes:          opts.Quotes,
		engine:          opts.Engine,
		startingCapital: opts.StartingCapital,
		riskPerTrade:    opts.RiskPerTrade,
		now:             now,
	}, nil
}

func (s *TrackerService) lockFor(id int64) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// AddTrade validates and persists a new trade. The initial status is Active
// when the position is already held, otherwise Pending.
func (s *TrackerService) AddTrade(ctx context.Context, symbol string, buy, stoploss, target float64, entered bool) (*domain.Trade, error) {
	trade, err := domain.NewTrade(symbol, buy, stoploss, target, entered, s.now().UTC())
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, trade)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to save new trade", map[string]interface{}{"symbol": trade.Symbol})
		return nil, fmt.Errorf("failed to save trade: %w", err)
	}
	trade.ID = id
	s.logger.Info(ctx, "Trade added", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol, "status": trade.Status})
	return trade, nil
}

// List returns all trades, newest first.
func (s *TrackerService) List(ctx context.Context) ([]*domain.Trade, error) {
	return s.repo.FindAll(ctx)
}

// ListByStatus returns all trades currently in the given status.
func (s *TrackerService) ListByStatus(ctx context.Context, status domain.TradeStatus) ([]*domain.Trade, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*domain.Trade, 0, len(all))
	for _, t := range all {
		if t.Status == status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// RefreshResult summarizes one refresh pass.
type RefreshResult struct {
	Refreshed   int // Prices fetched and stored
	Unavailable int // Symbols with no quote (valid empty, skipped)
	Failed      int // Transient lookup failures
	Transitions int // Status changes persisted by the evaluation pass
	Closed      int // Trades that reached a terminal status this pass
}

// Refresh fetches a fresh last price for every open trade and then runs the
// lifecycle evaluation pass. Terminal trades are skipped entirely: price
// refresh is inert once a trade is closed.
//
// "No price available" is not a failure and is silently skipped; transient
// lookup errors are counted and reported in the returned error without
// aborting the rest of the pass.
func (s *TrackerService) Refresh(ctx context.Context) (*RefreshResult, error) {
	trades, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for refresh: %w", err)
	}

	res := &RefreshResult{}
	var lastErr error
	for _, t := range trades {
		if t.IsClosed() {
			continue
		}
		price, err := s.quotes.Price(ctx, t.Symbol)
		if err != nil {
			if errors.Is(err, ports.ErrPriceUnavailable) {
				res.Unavailable++
				s.logger.Debug(ctx, "No price for symbol, skipping", map[string]interface{}{"symbol": t.Symbol})
				continue
			}
			res.Failed++
			lastErr = err
			s.logger.Warn(ctx, "Price lookup failed", map[string]interface{}{"symbol": t.Symbol, "error": err.Error()})
			continue
		}
		if err := s.repo.UpdatePrice(ctx, t.ID, price); err != nil {
			res.Failed++
			lastErr = err
			s.logger.Error(ctx, err, "Failed to store refreshed price", map[string]interface{}{"tradeID": t.ID})
			continue
		}
		res.Refreshed++
	}

	evalRes, err := s.EvaluateAll(ctx)
	if err != nil {
		return res, err
	}
	res.Transitions = evalRes.Transitions
	res.Closed = evalRes.Closed

	if res.Failed > 0 {
		return res, fmt.Errorf("%d price lookup(s) failed during refresh: %w", res.Failed, lastErr)
	}
	return res, nil
}

// EvaluateResult summarizes one lifecycle evaluation pass.
type EvaluateResult struct {
	Transitions int
	Closed      int
}

// EvaluateAll runs the lifecycle engine over every trade and persists the
// transitions. Each trade is re-read and written under its own lock so the
// read-decide-write step is atomic per trade; a closing transition stamps
// the close timestamp exactly once.
func (s *TrackerService) EvaluateAll(ctx context.Context) (*EvaluateResult, error) {
	trades, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for evaluation: %w", err)
	}

	res := &EvaluateResult{}
	for _, t := range trades {
		if err := s.evaluateOne(ctx, t.ID, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *TrackerService) evaluateOne(ctx context.Context, id int64, res *EvaluateResult) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock: the snapshot from the listing may be stale.
	trade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to re-read trade %d: %w", id, err)
	}
	if trade == nil {
		return nil // Deleted since the listing; nothing to do.
	}

	tr := s.engine.Evaluate(trade)
	if !tr.Changed {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, id, tr.Status); err != nil {
		return fmt.Errorf("failed to persist status for trade %d: %w", id, err)
	}
	res.Transitions++
	fields := map[string]interface{}{"tradeID": id, "symbol": trade.Symbol, "from": trade.Status, "to": tr.Status}

	if tr.Closed {
		if err := s.repo.CloseTrade(ctx, id, s.now().UTC()); err != nil {
			return fmt.Errorf("failed to stamp close time for trade %d: %w", id, err)
		}
		res.Closed++
		s.logger.Info(ctx, "Trade closed", fields)
		return nil
	}
	s.logger.Info(ctx, "Trade status changed", fields)
	return nil
}

// Report replays all closed trades through the analytics engine.
func (s *TrackerService) Report(ctx context.Context) ([]analytics.TradeRecord, *analytics.Summary, error) {
	closed, err := s.repo.FindClosed(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load closed trades: %w", err)
	}
	records, summary := analytics.Replay(closed, analytics.Config{
		StartingCapital: s.startingCapital,
		RiskFraction:    s.riskPerTrade,
	})
	return records, summary, nil
}

// UpdateLevels changes the price levels of an open trade. Closed trades are
// rejected: their levels feed the replay arithmetic and are part of the
// realized record.
func (s *TrackerService) UpdateLevels(ctx context.Context, id int64, buy, stoploss, target float64) error {
	if err := domain.ValidateLevels(buy, stoploss, target); err != nil {
		return err
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	trade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if trade == nil {
		return fmt.Errorf("trade %d: %w", id, ports.ErrNotFound)
	}
	if trade.IsClosed() {
		return fmt.Errorf("trade %d is closed, levels are immutable: %w", id, ports.ErrInvalidRequest)
	}

	if err := s.repo.UpdateLevels(ctx, id, buy, stoploss, target); err != nil {
		return fmt.Errorf("failed to update levels for trade %d: %w", id, err)
	}
	s.logger.Info(ctx, "Trade levels updated", map[string]interface{}{"tradeID": id, "buy": buy, "stoploss": stoploss, "target": target})
	return nil
}

// Delete removes a trade.
func (s *TrackerService) Delete(ctx context.Context, id int64) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}
