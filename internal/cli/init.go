// Package cli wires the pieces every fintrack binary starts with: env file,
// logger, configuration, backend and signal-driven shutdown.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/log"
)

// SetupLogger logs to stdout at LOG_LEVEL (info when unset) and installs
// the logger as the slog default.
func SetupLogger(component string) *log.Logger {
	return setupLogger(component, os.Stdout, slog.LevelInfo)
}

// SetupTerminalLogger logs to stderr at warn level unless LOG_LEVEL says
// otherwise. Stdout is left to command output.
func SetupTerminalLogger(component string) *log.Logger {
	return setupLogger(component, os.Stderr, slog.LevelWarn)
}

func setupLogger(component string, out io.Writer, level slog.Level) *log.Logger {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if parsed, err := log.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	logger := log.New(log.Config{Level: level, Component: component, Output: out})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile reads .env from the working directory when present.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig returns the environment configuration, exiting the
// process when it is invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, then
// runs cleanup with timeout to finish. done is closed when cleanup returns
// or the timeout expires.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	closed := make(chan struct{})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(closed)
		sig := <-signals
		signal.Stop(signals)
		logger.Info("Stopping", "signal", sig.String(), "timeout", timeout)
		cancel()

		stopCtx, stop := context.WithTimeout(context.Background(), timeout)
		defer stop()
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if cleanup != nil {
				cleanup(stopCtx)
			}
		}()

		select {
		case <-finished:
			logger.Info("Stopped cleanly")
		case <-stopCtx.Done():
			logger.Warn("Cleanup did not finish before the timeout")
		}
	}()

	return ctx, closed
}
