package kitequote

import (
	"context"
	"fmt"

	"tradetracker/internal/ports"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// Client implements the ports.QuoteProvider interface using the Zerodha
// Kite Connect API. Suited to NSE/BSE equity symbols; the configured
// exchange prefixes every lookup (e.g., "NSE:RELIANCE").
type Client struct {
	kc       *kiteconnect.Client
	exchange string
	logger   ports.Logger
}

// Config holds configuration specific to the Kite quote adapter.
type Config struct {
	APIKey      string
	AccessToken string
	Exchange    string // Defaults to "NSE"
	Logger      ports.Logger
}

// New creates a new Kite quote adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Kite quote client")
	}
	if cfg.APIKey == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("kite quote client: %w: API key and access token are required", ports.ErrConfigurationError)
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "NSE"
	}

	kc := kiteconnect.New(cfg.APIKey)
	kc.SetAccessToken(cfg.AccessToken)
	cfg.Logger.Info(context.Background(), "Kite quote client configured", map[string]interface{}{"exchange": exchange})

	return &Client{kc: kc, exchange: exchange, logger: cfg.Logger}, nil
}

// Price retrieves the last traded price for a symbol.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	instrument := c.exchange + ":" + symbol

	// The kiteconnect client manages its own HTTP timeouts; honor an
	// already-canceled context before issuing the request.
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("price lookup canceled for %s: %w", symbol, ports.ErrContextCanceled)
	}

	quotes, err := c.kc.GetLTP(instrument)
	if err != nil {
		c.logger.Error(ctx, err, "Kite LTP request failed", map[string]interface{}{"instrument": instrument})
		return 0, fmt.Errorf("price lookup failed for %s: %w", symbol, ports.ErrProviderUnavailable)
	}

	quote, ok := quotes[instrument]
	if !ok {
		c.logger.Debug(ctx, "Symbol not covered by Kite", map[string]interface{}{"instrument": instrument})
		return 0, fmt.Errorf("symbol %s: %w", symbol, ports.ErrPriceUnavailable)
	}
	return quote.LastPrice, nil
}
