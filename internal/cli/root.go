package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradetracker/config"
	"tradetracker/internal/adapters/binancequote"
	"tradetracker/internal/adapters/kitequote"
	"tradetracker/internal/adapters/logger"
	"tradetracker/internal/adapters/sqlite"
	"tradetracker/internal/app"
	"tradetracker/internal/lifecycle"
	"tradetracker/internal/ports"
)

var rootCmd = &cobra.Command{
	Use:   "tradetracker",
	Short: "Track discretionary trades and replay closed ones into performance analytics",
	Long: `Tradetracker follows each trade through a fixed lifecycle
(Pending -> Active -> Target Hit / Stoploss Hit) driven by refreshed
last-traded prices, and replays closed trades through a capital-compounding
simulator for equity curve, drawdown, R-multiples, CAGR and win rate.

Configuration is read from environment variables or a .env file
(DB_PATH, QUOTE_PROVIDER, STARTING_CAPITAL, RISK_PER_TRADE, ...).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// runtime bundles the wired application for one command invocation.
type runtime struct {
	cfg    *config.Config
	logger ports.Logger
	repo   *sqlite.Repository
	svc    *app.TrackerService
}

func (rt *runtime) close() {
	if rt.repo != nil {
		_ = rt.repo.Close()
	}
}

// newRuntime loads configuration and wires adapters, engine and service.
func newRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		zl, err := logger.NewZapLogger(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		appLogger = zl
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		return nil, fmt.Errorf("init repository: %w", err)
	}

	var quotes ports.QuoteProvider
	switch cfg.QuoteProvider {
	case config.ProviderKite:
		quotes, err = kitequote.New(kitequote.Config{
			APIKey:      cfg.KiteAPIKey,
			AccessToken: cfg.KiteAccessToken,
			Exchange:    cfg.KiteExchange,
			Logger:      appLogger,
		})
	default:
		quotes, err = binancequote.New(binancequote.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.IsTestnet,
			Logger:     appLogger,
		})
	}
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("init quote provider: %w", err)
	}

	engine := lifecycle.New(lifecycle.Config{RegressToPending: cfg.AllowStatusRegression})

	svc, err := app.NewTrackerService(app.Options{
		Logger:          appLogger,
		Repo:            repo,
		Quotes:          quotes,
		Engine:          engine,
		StartingCapital: cfg.StartingCapital,
		RiskPerTrade:    cfg.RiskPerTrade,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("init service: %w", err)
	}

	return &runtime{cfg: cfg, logger: appLogger, repo: repo, svc: svc}, nil
}
