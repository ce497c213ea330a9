package binancequote

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"tradetracker/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

const (
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"
)

// Client implements the ports.QuoteProvider interface using the go-binance
// spot API. A tracker only reads last prices, so no private endpoints are
// touched and empty API keys are acceptable.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance quote adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance quote adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance quote client")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance quote client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{spotClient: client, logger: cfg.Logger}, nil
}

// Price retrieves the last traded price for a symbol.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	op := "Price"
	prices, err := c.spotClient.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op, symbol)
	}
	if len(prices) == 0 {
		c.logger.Debug(ctx, "No ticker data for symbol", map[string]interface{}{"symbol": symbol})
		return 0, fmt.Errorf("symbol %s: %w", symbol, ports.ErrPriceUnavailable)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s' for %s: %w", prices[0].Price, symbol, err)
		return 0, c.handleError(ctx, parseErr, op, symbol)
	}
	return price, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation, symbol string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "symbol": symbol, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1121: // Invalid symbol: a valid-empty result, not a failure
			c.logger.Debug(ctx, "Symbol not covered by Binance", fields)
			return fmt.Errorf("symbol %s: %w", symbol, ports.ErrPriceUnavailable)
		case -2014, -2015: // API key format / permission errors
			mappedErr = ports.ErrAuthenticationFailed
		default:
			mappedErr = ports.ErrProviderUnavailable
		}
		c.logger.Error(ctx, err, "Binance API error", fields)
		return fmt.Errorf("%s failed for %s: %w", operation, symbol, mappedErr)
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s canceled for %s: %w", operation, symbol, ports.ErrContextCanceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out for %s: %w", operation, symbol, ports.ErrTimeout)
	}

	c.logger.Error(ctx, err, "Binance request failed", fields)
	return fmt.Errorf("%s failed for %s: %w", operation, symbol, ports.ErrConnectionFailed)
}
