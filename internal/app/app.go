// Package app wires configuration, storage, clients, and services into the
// running application.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calderalabs/quantfeed/internal/clients/alphavantage"
	"github.com/calderalabs/quantfeed/internal/clients/coincap"
	"github.com/calderalabs/quantfeed/internal/clients/coingecko"
	"github.com/calderalabs/quantfeed/internal/clients/eia"
	"github.com/calderalabs/quantfeed/internal/clients/fred"
	"github.com/calderalabs/quantfeed/internal/clients/polygon"
	"github.com/calderalabs/quantfeed/internal/common"
	"github.com/calderalabs/quantfeed/internal/interfaces"
	"github.com/calderalabs/quantfeed/internal/resolver"
	analyticssvc "github.com/calderalabs/quantfeed/internal/services/analytics"
	seriessvc "github.com/calderalabs/quantfeed/internal/services/series"
	"github.com/calderalabs/quantfeed/internal/storage"
)

// App holds all initialized services, clients, and storage. It is the shared
// core used by cmd/quantfeed-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Resolver         interfaces.Resolver
	SeriesService    interfaces.SeriesService
	AnalyticsService interfaces.AnalyticsService
	StartupTime      time.Time

	scheduler       *refreshScheduler
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, QUANTFEED_CONFIG, then binary dir
	if configPath == "" {
		configPath = os.Getenv("QUANTFEED_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "quantfeed.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/quantfeed.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Cache.Path != "" && !filepath.IsAbs(config.Storage.Cache.Path) {
		config.Storage.Cache.Path = filepath.Join(binDir, config.Storage.Cache.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	res := resolver.NewResolver(storageManager.Cache(), logger)
	seriesService := seriessvc.NewService(res, logger)
	registerChains(seriesService, config, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Resolver:         res,
		SeriesService:    seriesService,
		AnalyticsService: analyticssvc.NewService(logger),
		StartupTime:      time.Now(),
	}

	logger.Info().
		Dur("elapsed", time.Since(startupStart)).
		Str("version", common.GetFullVersion()).
		Msg("App initialized")

	return a, nil
}

// registerChains builds the provider clients and binds each configured
// symbol's logical key to its fallback chain. Chain order is a data-quality
// ranking: the primary feed first, public fallbacks after.
func registerChains(svc *seriessvc.Service, config *common.Config, logger *common.Logger) {
	av := alphavantage.NewClient(config.Clients.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
		alphavantage.WithLogger(logger),
		alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
	)
	gecko := coingecko.NewClient(
		coingecko.WithBaseURL(config.Clients.CoinGecko.BaseURL),
		coingecko.WithLogger(logger),
		coingecko.WithRateLimit(config.Clients.CoinGecko.RateLimit),
		coingecko.WithTimeout(config.Clients.CoinGecko.GetTimeout()),
	)
	ccap := coincap.NewClient(
		coincap.WithBaseURL(config.Clients.CoinCap.BaseURL),
		coincap.WithLogger(logger),
		coincap.WithRateLimit(config.Clients.CoinCap.RateLimit),
		coincap.WithTimeout(config.Clients.CoinCap.GetTimeout()),
	)
	energy := eia.NewClient(config.Clients.EIA.APIKey,
		eia.WithBaseURL(config.Clients.EIA.BaseURL),
		eia.WithLogger(logger),
		eia.WithRateLimit(config.Clients.EIA.RateLimit),
		eia.WithTimeout(config.Clients.EIA.GetTimeout()),
	)
	macro := fred.NewClient(config.Clients.FRED.APIKey,
		fred.WithBaseURL(config.Clients.FRED.BaseURL),
		fred.WithLogger(logger),
		fred.WithRateLimit(config.Clients.FRED.RateLimit),
		fred.WithTimeout(config.Clients.FRED.GetTimeout()),
	)
	poly := polygon.NewClient(config.Clients.Polygon.APIKey,
		polygon.WithBaseURL(config.Clients.Polygon.BaseURL),
		polygon.WithLogger(logger),
		polygon.WithRateLimit(config.Clients.Polygon.RateLimit),
		polygon.WithTimeout(config.Clients.Polygon.GetTimeout()),
	)

	chains := map[string][]interfaces.ProviderClient{
		"equity": {poly, av},
		"crypto": {gecko, ccap},
		"energy": {energy},
		"macro":  {macro},
		"option": {poly},
	}

	svc.SetDefaultChain([]interfaces.ProviderClient{poly, av})

	register := func(key string) {
		class, symbol := splitKey(key)
		chain, ok := chains[class]
		if !ok {
			chain = []interfaces.ProviderClient{poly, av}
		}
		svc.Register(key, chain, interfaces.SeriesParams{Symbol: symbol, Limit: 90})
	}

	for _, key := range config.Refresh.Symbols {
		register(key)
	}
	for _, key := range config.Refresh.Watchlist {
		register(key)
	}
}

// splitKey splits a logical key into asset class and symbol.
func splitKey(key string) (class, symbol string) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i], key[i+1:]
		}
	}
	return "", key
}

// StartWarmCache launches the startup prefetch in the background.
func (a *App) StartWarmCache() {
	ctx, cancel := context.WithCancel(context.Background())
	a.warmCacheCancel = cancel
	go warmCache(ctx, a.SeriesService, a.Storage.Cache(), a.Config, a.Logger)
}

// StartRefreshScheduler starts the periodic series refresh.
func (a *App) StartRefreshScheduler() {
	a.scheduler = startRefreshScheduler(a.SeriesService, a.Config.Refresh, a.Logger)
}

// Close stops background work and releases storage.
func (a *App) Close() error {
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	return a.Storage.Close()
}
