package cli

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

// cacheCleanInterval is how often expired report entries are evicted.
const cacheCleanInterval = time.Minute

// App is the wired ledger and report stack shared by the binaries.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Backend *backend.Backend
	Ledger  *ledger.Ledger
	Reports *report.Service
	Caches  *cache.Manager

	// ReportCache is nil when caching is disabled.
	ReportCache *cache.LRU[any]
}

// Bootstrap opens the configured store, loads the ledger from it and
// builds the report service on top. A zero CACHE_SIZE disables report
// caching.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	opts, err := backend.OptionsFrom(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.Open(ctx, opts, logger)
	if err != nil {
		return nil, err
	}

	ledgerOpts := []ledger.Option{ledger.WithLogger(logger)}
	if res.Publisher != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(res.Publisher))
	}
	l, err := ledger.Open(ctx, res.Store, ledgerOpts...)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Backend: res,
		Ledger:  l,
		Caches:  cache.NewManager(logger),
	}

	reportOpts := []report.Option{report.WithLogger(logger)}
	if cfg.CacheSize > 0 {
		lru := cache.NewLRU[any](cfg.CacheSize, cfg.CacheTTL)
		app.Caches.Register(lru)
		app.ReportCache = lru
		reportOpts = append(reportOpts, report.WithCache(lru))
	}
	app.Reports = report.NewService(l, reportOpts...)

	logger.Info("Ledger ready",
		log.FieldBackend, cfg.StoreBackend,
		log.FieldVersion, l.Version(),
		"publishing", res.Publisher != nil,
		"cache_size", cfg.CacheSize)
	return app, nil
}

// StartCacheJanitor evicts expired report entries until ctx is done.
func (a *App) StartCacheJanitor(ctx context.Context) {
	if a.Config.CacheTTL > 0 {
		a.Caches.Start(ctx, cacheCleanInterval)
	}
}

// Close stops background work and releases the backend.
func (a *App) Close() error {
	a.Caches.Stop()
	return a.Backend.Close()
}
