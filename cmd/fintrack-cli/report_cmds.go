package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/render"
)

// rangeFlags are shared by the commands reporting over a date range.
type rangeFlags struct {
	from, to, period string
}

func (r *rangeFlags) set(f *flag.FlagSet) {
	f.StringVar(&r.from, "from", "", "First day of the range, YYYY-MM-DD")
	f.StringVar(&r.to, "to", "", "Last day of the range, YYYY-MM-DD")
	f.StringVar(&r.period, "period", "", "Named period: last-30-days, this-month, last-3-months, last-6-months, this-year, all-time")
}

func (r *rangeFlags) resolve(today core.Date) (core.Range, error) {
	return parseRange(r.from, r.to, r.period, today)
}

type dashboardCmd struct {
	month string
}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "display the month overview" }
func (*dashboardCmd) Usage() string {
	return `dashboard [-month YYYY-MM]

  Displays totals, budgets, goals, category breakdown, recent expenses and
  the change from the previous month.
`
}

func (c *dashboardCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to display (defaults to the current month)")
}

func (c *dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, r *render.Renderer) error {
		month, err := parseMonthOr(c.month, app.Reports.Today().MonthOf())
		if err != nil {
			return err
		}
		d, err := app.Reports.Dashboard(ctx, month)
		if err != nil {
			return err
		}
		return show(r.Dashboard(d))
	})
}

type topCmd struct {
	rng rangeFlags
	n   int
}

func (*topCmd) Name() string     { return "top" }
func (*topCmd) Synopsis() string { return "list the largest expenses" }
func (*topCmd) Usage() string {
	return `top [-n 10] [-from YYYY-MM-DD -to YYYY-MM-DD | -period <period>]
`
}

func (c *topCmd) SetFlags(f *flag.FlagSet) {
	c.rng.set(f)
	f.IntVar(&c.n, "n", 10, "Number of expenses to list")
}

func (c *topCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, r *render.Renderer) error {
		rng, err := c.rng.resolve(app.Reports.Today())
		if err != nil {
			return err
		}
		return show(r.Expenses("Top Expenses", app.Reports.TopExpenses(ctx, rng, c.n)))
	})
}

type trendCmd struct {
	a, b rangeFlags
}

func (*trendCmd) Name() string     { return "trend" }
func (*trendCmd) Synopsis() string { return "compare spending between two periods" }
func (*trendCmd) Usage() string {
	return `trend [-a-from -a-to | -a-period] [-b-from -b-to | -b-period]

  Compares period A with period B. Defaults to the previous month against
  the current one.
`
}

func (c *trendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.a.from, "a-from", "", "First day of period A")
	f.StringVar(&c.a.to, "a-to", "", "Last day of period A")
	f.StringVar(&c.a.period, "a-period", "", "Named period A")
	f.StringVar(&c.b.from, "b-from", "", "First day of period B")
	f.StringVar(&c.b.to, "b-to", "", "Last day of period B")
	f.StringVar(&c.b.period, "b-period", "", "Named period B")
}

func (c *trendCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, r *render.Renderer) error {
		today := app.Reports.Today()
		a := today.MonthOf().Prev().Range()
		if c.a != (rangeFlags{}) {
			var err error
			if a, err = c.a.resolve(today); err != nil {
				return err
			}
		}
		b, err := c.b.resolve(today)
		if err != nil {
			return err
		}
		return show(r.Trend(app.Reports.Trend(ctx, a, b)))
	})
}

type budgetsCmd struct {
	month string
}

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "display budget progress for a month" }
func (*budgetsCmd) Usage() string {
	return `budgets [-month YYYY-MM]
`
}

func (c *budgetsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to display (defaults to the current month)")
}

func (c *budgetsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, r *render.Renderer) error {
		month, err := parseMonthOr(c.month, app.Reports.Today().MonthOf())
		if err != nil {
			return err
		}
		return show(r.BudgetProgress(app.Reports.BudgetProgress(ctx, month)))
	})
}

type goalsCmd struct{}

func (*goalsCmd) Name() string     { return "goals" }
func (*goalsCmd) Synopsis() string { return "display savings goal progress" }
func (*goalsCmd) Usage() string {
	return `goals
`
}
func (*goalsCmd) SetFlags(*flag.FlagSet) {}

func (c *goalsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, r *render.Renderer) error {
		return show(r.GoalProgress(app.Reports.GoalProgress(ctx)))
	})
}

type categoriesCmd struct {
	rng rangeFlags
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "display spending by category" }
func (*categoriesCmd) Usage() string {
	return `categories [-from YYYY-MM-DD -to YYYY-MM-DD | -period <period>]
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) { c.rng.set(f) }

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, r *render.Renderer) error {
		rng, err := c.rng.resolve(app.Reports.Today())
		if err != nil {
			return err
		}
		return show(r.CategoryBreakdown(app.Reports.CategoryBreakdown(ctx, rng)))
	})
}
