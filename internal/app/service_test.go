package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradetracker/internal/domain"
	"tradetracker/internal/lifecycle"
	"tradetracker/internal/ports"
)

// --- Mocks ---

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockRepo is an in-memory TradeRepository. Copies are stored and returned so
// callers cannot mutate repo state through shared pointers.
type mockRepo struct {
	trades map[int64]*domain.Trade
	nextID int64

	closeCalls int
	failCreate error
}

func newMockRepo() *mockRepo {
	return &mockRepo{trades: make(map[int64]*domain.Trade), nextID: 1}
}

func (m *mockRepo) put(t *domain.Trade) {
	cp := *t
	m.trades[t.ID] = &cp
	if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
}

func (m *mockRepo) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	if m.failCreate != nil {
		return 0, m.failCreate
	}
	trade.ID = m.nextID
	m.nextID++
	cp := *trade
	m.trades[trade.ID] = &cp
	return trade.ID, nil
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*domain.Trade, error) {
	t, ok := m.trades[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) FindAll(ctx context.Context) ([]*domain.Trade, error) {
	out := make([]*domain.Trade, 0, len(m.trades))
	for id := int64(1); id < m.nextID; id++ {
		if t, ok := m.trades[id]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) FindClosed(ctx context.Context) ([]*domain.Trade, error) {
	all, _ := m.FindAll(ctx)
	out := make([]*domain.Trade, 0)
	for _, t := range all {
		if t.IsClosed() && t.ClosedAt != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdatePrice(ctx context.Context, id int64, price float64) error {
	t, ok := m.trades[id]
	if !ok {
		return ports.ErrNotFound
	}
	p := price
	t.LastPrice = &p
	return nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id int64, status domain.TradeStatus) error {
	t, ok := m.trades[id]
	if !ok {
		return ports.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m *mockRepo) CloseTrade(ctx context.Context, id int64, closedAt time.Time) error {
	t, ok := m.trades[id]
	if !ok {
		return ports.ErrNotFound
	}
	m.closeCalls++
	if t.ClosedAt != nil {
		return nil // write-once: keep the original stamp
	}
	ts := closedAt
	t.ClosedAt = &ts
	return nil
}

func (m *mockRepo) UpdateLevels(ctx context.Context, id int64, buy, stoploss, target float64) error {
	t, ok := m.trades[id]
	if !ok {
		return ports.ErrNotFound
	}
	t.Buy, t.Stoploss, t.Target = buy, stoploss, target
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.trades[id]; !ok {
		return ports.ErrNotFound
	}
	delete(m.trades, id)
	return nil
}

// mockQuotes returns canned prices per symbol, or a canned error.
type mockQuotes struct {
	prices map[string]float64
	errs   map[string]error
	calls  int
}

func (m *mockQuotes) Price(ctx context.Context, symbol string) (float64, error) {
	m.calls++
	if err, ok := m.errs[symbol]; ok {
		return 0, err
	}
	p, ok := m.prices[symbol]
	if !ok {
		return 0, ports.ErrPriceUnavailable
	}
	return p, nil
}

// --- Helpers ---

func newTestService(t *testing.T, repo ports.TradeRepository, quotes ports.QuoteProvider) *TrackerService {
	t.Helper()
	svc, err := NewTrackerService(Options{
		Logger:          &mockLogger{},
		Repo:            repo,
		Quotes:          quotes,
		Engine:          lifecycle.New(lifecycle.Config{}),
		StartingCapital: 100000,
		RiskPerTrade:    0.01,
		Now:             func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func seedTrade(t *testing.T, repo *mockRepo, symbol string, status domain.TradeStatus, lastPrice *float64) *domain.Trade {
	t.Helper()
	trade, err := domain.NewTrade(symbol, 100, 90, 120, false, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	trade.Status = status
	trade.LastPrice = lastPrice
	trade.ID = repo.nextID
	repo.put(trade)
	return trade
}

func ptr(f float64) *float64 { return &f }

// --- Tests ---

func TestNewTrackerService_Validation(t *testing.T) {
	repo := newMockRepo()
	quotes := &mockQuotes{}
	logger := &mockLogger{}
	engine := lifecycle.New(lifecycle.Config{})

	tests := []struct {
		name string
		opts Options
	}{
		{"missing repo", Options{Logger: logger, Quotes: quotes, Engine: engine, StartingCapital: 1000, RiskPerTrade: 0.01}},
		{"missing quotes", Options{Logger: logger, Repo: repo, Engine: engine, StartingCapital: 1000, RiskPerTrade: 0.01}},
		{"zero capital", Options{Logger: logger, Repo: repo, Quotes: quotes, Engine: engine, RiskPerTrade: 0.01}},
		{"risk too high", Options{Logger: logger, Repo: repo, Quotes: quotes, Engine: engine, StartingCapital: 1000, RiskPerTrade: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrackerService(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestAddTrade(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(t, repo, &mockQuotes{})
	ctx := context.Background()

	pending, err := svc.AddTrade(ctx, " reliance ", 100, 90, 120, false)
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE", pending.Symbol)
	assert.Equal(t, domain.StatusPending, pending.Status)
	assert.Equal(t, int64(1), pending.ID)

	active, err := svc.AddTrade(ctx, "INFY", 1500, 1400, 1700, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, active.Status)

	// Level validation happens before any repository write.
	_, err = svc.AddTrade(ctx, "BAD", 100, 110, 120, false)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, repo.trades, 2)
}

func TestAddTrade_RepoFailure(t *testing.T) {
	repo := newMockRepo()
	repo.failCreate = fmt.Errorf("disk full")
	svc := newTestService(t, repo, &mockQuotes{})

	_, err := svc.AddTrade(context.Background(), "TCS", 100, 90, 120, false)
	assert.ErrorContains(t, err, "failed to save trade")
}

func TestRefresh_SkipsTerminalAndCountsOutcomes(t *testing.T) {
	repo := newMockRepo()
	seedTrade(t, repo, "UP", domain.StatusActive, nil)       // will hit target
	seedTrade(t, repo, "FLAT", domain.StatusPending, nil)    // stays pending
	seedTrade(t, repo, "GONE", domain.StatusActive, nil)     // no quote available
	seedTrade(t, repo, "BROKEN", domain.StatusActive, nil)   // transient failure
	done := seedTrade(t, repo, "DONE", domain.StatusTargetHit, ptr(125))
	closedAt := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CloseTrade(context.Background(), done.ID, closedAt))
	repo.closeCalls = 0

	quotes := &mockQuotes{
		prices: map[string]float64{"UP": 121, "FLAT": 95},
		errs:   map[string]error{"BROKEN": ports.ErrConnectionFailed},
	}
	svc := newTestService(t, repo, quotes)

	res, err := svc.Refresh(context.Background())
	require.Error(t, err) // transient failure surfaces after the pass completes
	assert.ErrorIs(t, err, ports.ErrConnectionFailed)

	assert.Equal(t, 2, res.Refreshed)
	assert.Equal(t, 1, res.Unavailable)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Transitions) // UP -> Target Hit
	assert.Equal(t, 1, res.Closed)
	assert.Equal(t, 4, quotes.calls) // terminal DONE never queried

	up, _ := repo.FindByID(context.Background(), 1)
	assert.Equal(t, domain.StatusTargetHit, up.Status)
	require.NotNil(t, up.ClosedAt)

	// The pre-closed trade keeps its original stamp.
	after, _ := repo.FindByID(context.Background(), done.ID)
	assert.Equal(t, closedAt, *after.ClosedAt)
}

func TestEvaluateAll_ClosesExactlyOnce(t *testing.T) {
	repo := newMockRepo()
	seedTrade(t, repo, "HIT", domain.StatusActive, ptr(120))
	svc := newTestService(t, repo, &mockQuotes{})
	ctx := context.Background()

	first, err := svc.EvaluateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Transitions)
	assert.Equal(t, 1, first.Closed)

	trade, _ := repo.FindByID(ctx, 1)
	require.NotNil(t, trade.ClosedAt)
	stamp := *trade.ClosedAt

	// Repeated passes are no-ops on terminal trades.
	second, err := svc.EvaluateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Transitions)
	assert.Equal(t, 0, second.Closed)
	assert.Equal(t, 1, repo.closeCalls)

	trade, _ = repo.FindByID(ctx, 1)
	assert.Equal(t, stamp, *trade.ClosedAt)
}

func TestEvaluateAll_PendingEntersOnBuy(t *testing.T) {
	repo := newMockRepo()
	seedTrade(t, repo, "ENTER", domain.StatusPending, ptr(101))
	seedTrade(t, repo, "WAIT", domain.StatusPending, ptr(95))
	svc := newTestService(t, repo, &mockQuotes{})

	res, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Transitions)
	assert.Equal(t, 0, res.Closed)

	entered, _ := repo.FindByID(context.Background(), 1)
	assert.Equal(t, domain.StatusActive, entered.Status)
	waiting, _ := repo.FindByID(context.Background(), 2)
	assert.Equal(t, domain.StatusPending, waiting.Status)
}

func TestUpdateLevels(t *testing.T) {
	repo := newMockRepo()
	open := seedTrade(t, repo, "OPEN", domain.StatusActive, ptr(105))
	closed := seedTrade(t, repo, "SHUT", domain.StatusStoplossHit, ptr(88))
	require.NoError(t, repo.CloseTrade(context.Background(), closed.ID, time.Now().UTC()))
	svc := newTestService(t, repo, &mockQuotes{})
	ctx := context.Background()

	require.NoError(t, svc.UpdateLevels(ctx, open.ID, 102, 92, 125))
	got, _ := repo.FindByID(ctx, open.ID)
	assert.Equal(t, 102.0, got.Buy)
	assert.Equal(t, 92.0, got.Stoploss)
	assert.Equal(t, 125.0, got.Target)

	// Closed trades are part of the realized record.
	err := svc.UpdateLevels(ctx, closed.ID, 102, 92, 125)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	// Invalid ordering is rejected before any lookup.
	var vErr *domain.ValidationError
	assert.ErrorAs(t, svc.UpdateLevels(ctx, open.ID, 100, 120, 110), &vErr)

	assert.ErrorIs(t, svc.UpdateLevels(ctx, 999, 102, 92, 125), ports.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	trade := seedTrade(t, repo, "BYE", domain.StatusPending, nil)
	svc := newTestService(t, repo, &mockQuotes{})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, trade.ID))
	assert.ErrorIs(t, svc.Delete(ctx, trade.ID), ports.ErrNotFound)
}

func TestReport_CompoundsClosedTrades(t *testing.T) {
	repo := newMockRepo()
	ctx := context.Background()

	win := seedTrade(t, repo, "WIN", domain.StatusTargetHit, ptr(121))
	require.NoError(t, repo.CloseTrade(ctx, win.ID, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)))
	loss := seedTrade(t, repo, "LOSS", domain.StatusStoplossHit, ptr(89))
	require.NoError(t, repo.CloseTrade(ctx, loss.ID, time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)))
	seedTrade(t, repo, "OPEN", domain.StatusActive, ptr(105))

	svc := newTestService(t, repo, &mockQuotes{})
	records, summary, err := svc.Report(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// 100000 * 0.01 / 10 = 100 shares; +2000 then the loss sizes off 102000.
	assert.Equal(t, int64(100), records[0].Quantity)
	assert.Equal(t, 2000.0, records[0].PnL)
	assert.Equal(t, 102000.0, records[0].Equity)
	assert.Equal(t, 2.0, records[0].RMultiple)

	assert.Equal(t, int64(102), records[1].Quantity)
	assert.Equal(t, -1020.0, records[1].PnL)
	assert.Equal(t, 100980.0, records[1].Equity)
	assert.Equal(t, -1.0, records[1].RMultiple)

	assert.Equal(t, 2, summary.ClosedTrades)
	assert.Equal(t, 1, summary.TargetHits)
	assert.Equal(t, 50.0, summary.WinRate)
	assert.Equal(t, 100980.0, summary.FinalCapital)
}

func TestRefresh_TimeoutCountedAsFailure(t *testing.T) {
	repo := newMockRepo()
	seedTrade(t, repo, "SLOW", domain.StatusActive, nil)
	quotes := &mockQuotes{errs: map[string]error{"SLOW": ports.ErrTimeout}}
	svc := newTestService(t, repo, quotes)

	res, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrTimeout))
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Refreshed)
	assert.Equal(t, 1, quotes.calls)
}
