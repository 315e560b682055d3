package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	memsheet "fintrack/internal/sheets/memory"
	"fintrack/internal/worker"
)

func main() {
	backfill := flag.Bool("backfill", false, "mirror every stored expense before consuming changes")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	var mirror sheets.ExpenseMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, gsheet.Credentials{
			JSON:            cfg.GoogleServiceAccountJSON,
			File:            cfg.GoogleServiceAccountFile,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		mirror = memsheet.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewMirrorWorker(mirror, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	if *backfill {
		if err := runBackfill(ctx, w, cfg, logger); err != nil {
			logger.Error("Backfill failed", log.FieldError, err)
			// Live changes are still worth mirroring.
		}
	}

	if err := w.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = amqpClient.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}

// runBackfill opens the configured store without a publisher and mirrors
// its expenses.
func runBackfill(ctx context.Context, w *worker.MirrorWorker, cfg *config.Config, logger *log.Logger) error {
	opts, err := backend.OptionsFrom(cfg)
	if err != nil {
		return err
	}
	opts.Broker = backend.Broker{}
	b, err := backend.Open(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	_, err = w.Backfill(ctx, b.Store)
	return err
}
