package analytics

import (
	"math"
	"sort"
	"time"

	"tradetracker/internal/domain"
	"tradetracker/internal/risk"
)

// Config holds the replay tunables. Both values must be supplied by the
// caller; the engine has no built-in defaults.
type Config struct {
	StartingCapital float64 // Capital at the start of the replay (e.g., 100000)
	RiskFraction    float64 // Fraction of current capital risked per trade (e.g., 0.01)
}

// TradeRecord is the per-trade output of the replay: one record per closed
// trade, in close order. Derived, never persisted.
type TradeRecord struct {
	TradeID     int64
	Symbol      string
	Status      domain.TradeStatus
	ExitPrice   float64
	Quantity    int64
	PnL         float64 // Realized profit/loss, rounded to 2dp
	Equity      float64 // Capital after this trade, rounded to 2dp
	RMultiple   float64
	HoldingDays int
}

// EquityPoint is one point on the replay equity curve.
type EquityPoint struct {
	Time     time.Time
	Equity   float64
	Drawdown float64 // Percent decline from the running peak (<= 0)
}

// Summary holds the aggregate statistics of a replay.
type Summary struct {
	ClosedTrades   int
	TargetHits     int
	StoplossHits   int
	WinRate        float64 // Percent of closed trades that hit target
	FinalCapital   float64
	TotalReturnPct float64
	MaxDrawdownPct float64 // Most negative drawdown on the equity curve
	CAGRPct        float64 // 0 when the replay spans less than a day
	AvgR           float64
	BestR          float64
	WorstR         float64
	AvgHoldingDays float64
	EquityCurve    []EquityPoint
}

// Replay runs a capital-compounding backtest over the closed trades in the
// input and produces per-trade records plus summary statistics.
//
// Non-terminal trades are filtered out. The remainder is replayed in
// ascending close order (stable, so same-timestamp closes resolve by input
// order) with position size computed from the already-compounded capital at
// each step. Replay is a pure function of its input: it never mutates the
// trades and repeated calls yield identical results. An empty input produces
// an empty, zero-valued result rather than an error.
func Replay(trades []*domain.Trade, cfg Config) ([]TradeRecord, *Summary) {
	closed := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() && t.ClosedAt != nil {
			closed = append(closed, t)
		}
	}

	summary := &Summary{
		FinalCapital: round2(cfg.StartingCapital),
		EquityCurve:  make([]EquityPoint, 0, len(closed)),
	}
	records := make([]TradeRecord, 0, len(closed))
	if len(closed) == 0 {
		return records, summary
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].ClosedAt.Before(*closed[j].ClosedAt)
	})

	capital := cfg.StartingCapital
	peak := capital
	maxDrawdown := 0.0
	var sumR, sumDays float64
	bestR := math.Inf(-1)
	worstR := math.Inf(1)
	firstCreated := closed[0].CreatedAt

	for _, t := range closed {
		if t.CreatedAt.Before(firstCreated) {
			firstCreated = t.CreatedAt
		}

		qty := risk.Quantity(capital, cfg.RiskFraction, t.Buy, t.Stoploss)
		exitPrice := t.ExitPrice()
		pnl := (exitPrice - t.Buy) * float64(qty)
		capital += pnl

		r := risk.RMultiple(t.Buy, exitPrice, t.Stoploss)
		days := int(t.ClosedAt.Sub(t.CreatedAt).Hours() / 24)

		summary.ClosedTrades++
		if t.Status == domain.StatusTargetHit {
			summary.TargetHits++
		} else {
			summary.StoplossHits++
		}
		sumR += r
		sumDays += float64(days)
		if r > bestR {
			bestR = r
		}
		if r < worstR {
			worstR = r
		}

		if capital > peak {
			peak = capital
		}
		drawdown := (capital - peak) / peak * 100
		if drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}

		records = append(records, TradeRecord{
			TradeID:     t.ID,
			Symbol:      t.Symbol,
			Status:      t.Status,
			ExitPrice:   exitPrice,
			Quantity:    qty,
			PnL:         round2(pnl),
			Equity:      round2(capital),
			RMultiple:   r,
			HoldingDays: days,
		})
		summary.EquityCurve = append(summary.EquityCurve, EquityPoint{
			Time:     *t.ClosedAt,
			Equity:   round2(capital),
			Drawdown: round2(drawdown),
		})
	}

	n := float64(summary.ClosedTrades)
	summary.WinRate = round2(float64(summary.TargetHits) / n * 100)
	summary.FinalCapital = round2(capital)
	summary.TotalReturnPct = round2((capital/cfg.StartingCapital - 1) * 100)
	summary.MaxDrawdownPct = round2(maxDrawdown)
	summary.AvgR = round2(sumR / n)
	summary.BestR = bestR
	summary.WorstR = worstR
	summary.AvgHoldingDays = round2(sumDays / n)

	// Elapsed time counts in whole days, same as HoldingDays: a replay
	// that opens and closes within one calendar day has zero years and
	// reports no CAGR instead of an annualized intraday blowup.
	lastClosed := *closed[len(closed)-1].ClosedAt
	elapsedDays := int(lastClosed.Sub(firstCreated).Hours() / 24)
	years := float64(elapsedDays) / 365
	if years > 0 && cfg.StartingCapital > 0 && capital > 0 {
		summary.CAGRPct = round2((math.Pow(capital/cfg.StartingCapital, 1/years) - 1) * 100)
	}

	return records, summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
