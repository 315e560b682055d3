package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/render"
)

// withApp loads configuration, opens the ledger and runs fn. The backend
// is released afterwards.
func withApp(ctx context.Context, fn func(app *cli.App, r *render.Renderer) error) subcommands.ExitStatus {
	cli.LoadEnvFile()
	logger := cli.SetupTerminalLogger(log.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)

	app, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Backend cleanup error", log.FieldError, err)
		}
	}()

	if err := fn(app, render.New(cfg.Currency)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsage(err) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func isUsage(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrEmptyName)
}

func printMarkdown(md string) {
	out, err := glamour.Render(md, "dark")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// show prints md unless err is set.
func show(md string, err error) error {
	if err != nil {
		return err
	}
	printMarkdown(md)
	return nil
}

// parseDateOr parses s, or returns def when s is empty.
func parseDateOr(s string, def core.Date) (core.Date, error) {
	if s == "" {
		return def, nil
	}
	return core.ParseDate(s)
}

// parseMonthOr parses s, or returns def when s is empty.
func parseMonthOr(s string, def core.Month) (core.Month, error) {
	if s == "" {
		return def, nil
	}
	return core.ParseMonth(s)
}

// parseRange resolves -from/-to or -period against today. With neither it
// covers the current month.
func parseRange(from, to, period string, today core.Date) (core.Range, error) {
	switch {
	case from != "" || to != "":
		if from == "" || to == "" {
			return core.Range{}, fmt.Errorf("%w: both -from and -to are required", core.ErrInvalidDate)
		}
		return core.ParseRange(from, to)
	case period != "":
		p, err := core.ParsePeriod(period)
		if err != nil {
			return core.Range{}, fmt.Errorf("%w: %v", core.ErrInvalidDate, err)
		}
		return p.Range(today), nil
	default:
		return today.MonthOf().Range(), nil
	}
}
