package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewTrade(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 15, 0, 0, time.UTC)

	trade, err := NewTrade(" reliance ", 2500, 2400, 2700, false, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if trade.Symbol != "RELIANCE" {
		t.Errorf("Expected symbol normalized to RELIANCE, got %q", trade.Symbol)
	}
	if trade.Status != StatusPending {
		t.Errorf("Expected Pending for a not-yet-entered trade, got %s", trade.Status)
	}
	if trade.LastPrice != nil || trade.ClosedAt != nil {
		t.Errorf("Expected nil last price and close time on a new trade")
	}
	if !trade.CreatedAt.Equal(now) {
		t.Errorf("Expected createdAt %v, got %v", now, trade.CreatedAt)
	}

	entered, err := NewTrade("INFY", 1500, 1400, 1700, true, now)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if entered.Status != StatusActive {
		t.Errorf("Expected Active for an already-entered trade, got %s", entered.Status)
	}
}

func TestNewTradeValidation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		symbol  string
		buy     float64
		sl      float64
		target  float64
		field   string
	}{
		{"empty symbol", "  ", 100, 90, 120, "symbol"},
		{"zero buy", "AAA", 0, 90, 120, "buy"},
		{"negative stoploss", "AAA", 100, -5, 120, "stoploss"},
		{"zero target", "AAA", 100, 90, 0, "target"},
		{"stoploss above buy", "AAA", 100, 110, 120, "stoploss"},
		{"stoploss equals buy", "AAA", 100, 100, 120, "stoploss"},
		{"target below buy", "AAA", 100, 90, 95, "target"},
		{"target equals buy", "AAA", 100, 90, 100, "target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrade(tt.symbol, tt.buy, tt.sl, tt.target, false, now)
			if err == nil {
				t.Fatalf("Expected validation error")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected error on field %q, got %q", tt.field, vErr.Field)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if StatusPending.IsTerminal() || StatusActive.IsTerminal() {
		t.Errorf("Pending/Active must not be terminal")
	}
	if !StatusTargetHit.IsTerminal() || !StatusStoplossHit.IsTerminal() {
		t.Errorf("Target Hit/Stoploss Hit must be terminal")
	}
}

func TestExitPrice(t *testing.T) {
	trade := Trade{Buy: 100, Stoploss: 90, Target: 120}

	trade.Status = StatusTargetHit
	if got := trade.ExitPrice(); got != 120 {
		t.Errorf("Expected exit at target 120, got %f", got)
	}
	trade.Status = StatusStoplossHit
	if got := trade.ExitPrice(); got != 90 {
		t.Errorf("Expected exit at stoploss 90, got %f", got)
	}
	trade.Status = StatusActive
	if got := trade.ExitPrice(); got != 0 {
		t.Errorf("Expected 0 for an open trade, got %f", got)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []TradeStatus{StatusPending, StatusActive, StatusTargetHit, StatusStoplossHit} {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStatus("Closed"); err == nil {
		t.Errorf("Expected error for unknown status")
	}
}
