package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	app, err := cli.Bootstrap(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err, log.FieldBackend, cfg.StoreBackend)
		os.Exit(1)
	}

	opts := []apphttp.Option{apphttp.WithRateLimit(cfg.WriteRateLimit)}
	if app.ReportCache != nil {
		opts = append(opts, apphttp.WithCacheStats(app.ReportCache.Stats))
	}
	srv := apphttp.NewServer(":"+cfg.Port, app.Ledger, app.Reports, logger, opts...)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})
	app.StartCacheJanitor(ctx)

	logger.Info("Starting fintrack server", "port", cfg.Port, log.FieldBackend, cfg.StoreBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = app.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
