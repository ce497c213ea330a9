package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"tradetracker/internal/adapters/logger"
)

// Quote provider selection values.
const (
	ProviderBinance = "binance"
	ProviderKite    = "kite"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Quote provider
	QuoteProvider string // "binance" or "kite"

	// Binance (spot, public price endpoint; keys optional)
	BinanceAPIKey    string
	BinanceSecretKey string
	IsTestnet        bool

	// Kite Connect (NSE/BSE equities)
	KiteAPIKey      string
	KiteAccessToken string
	KiteExchange    string

	// Analytics
	StartingCapital float64 // Replay starting capital
	RiskPerTrade    float64 // Fraction of capital risked per trade

	// Lifecycle policy
	AllowStatusRegression bool // Active trades fall back to Pending below the buy level

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "text" (StdLogger) or "json" (zap)
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/tradetracker.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Quote provider
	cfg.QuoteProvider = strings.ToLower(getEnv("QUOTE_PROVIDER", ProviderBinance))
	switch cfg.QuoteProvider {
	case ProviderBinance:
		cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
		cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
		cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	case ProviderKite:
		cfg.KiteAPIKey = getEnv("KITE_API_KEY", "")
		cfg.KiteAccessToken = getEnv("KITE_ACCESS_TOKEN", "")
		cfg.KiteExchange = getEnv("KITE_EXCHANGE", "NSE")
		if cfg.KiteAPIKey == "" {
			errs = append(errs, "KITE_API_KEY must be set when QUOTE_PROVIDER=kite")
		}
		if cfg.KiteAccessToken == "" {
			errs = append(errs, "KITE_ACCESS_TOKEN must be set when QUOTE_PROVIDER=kite")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown QUOTE_PROVIDER %q (want %q or %q)", cfg.QuoteProvider, ProviderBinance, ProviderKite))
	}

	// Analytics
	cfg.StartingCapital, err = getEnvAsFloatRequired("STARTING_CAPITAL", 100000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STARTING_CAPITAL: %v", err))
	} else if cfg.StartingCapital <= 0 {
		errs = append(errs, "STARTING_CAPITAL must be positive")
	}

	cfg.RiskPerTrade, err = getEnvAsFloatRequired("RISK_PER_TRADE", 0.01)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_PER_TRADE: %v", err))
	} else if cfg.RiskPerTrade <= 0 || cfg.RiskPerTrade >= 1.0 {
		errs = append(errs, "RISK_PER_TRADE must be between 0.0 and 1.0 (exclusive)")
	}

	// Lifecycle policy
	cfg.AllowStatusRegression = getEnvAsBool("ALLOW_STATUS_REGRESSION", false)

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("unknown LOG_FORMAT %q (want \"text\" or \"json\")", cfg.LogFormat))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
