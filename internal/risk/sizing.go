package risk

import "math"

// Quantity calculates a fixed-fractional position size: risk a constant
// fraction of current capital, divided by the per-share risk between entry
// and stoploss. Returns 0 when the per-share risk is zero or negative, so
// a degenerate trade contributes nothing rather than blowing up the replay.
func Quantity(capital, riskFraction, buy, stoploss float64) int64 {
	perShareRisk := math.Abs(buy - stoploss)
	if perShareRisk == 0 {
		return 0
	}
	riskAmount := capital * riskFraction
	qty := math.Floor(riskAmount / perShareRisk)
	if qty < 0 {
		return 0
	}
	return int64(qty)
}

// RMultiple expresses a realized exit as a multiple of the initial per-share
// risk (entry - stoploss), rounded to 2 decimal places. Returns 0 when entry
// equals the stoploss, where the multiple is undefined.
func RMultiple(entry, exit, stoploss float64) float64 {
	denom := entry - stoploss
	if denom == 0 {
		return 0
	}
	return math.Round((exit-entry)/denom*100) / 100
}
