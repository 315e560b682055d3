package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/render"
)

type addExpenseCmd struct {
	amount   string
	category string
	date     string
	note     string
}

func (*addExpenseCmd) Name() string     { return "add-expense" }
func (*addExpenseCmd) Synopsis() string { return "record an expense" }
func (*addExpenseCmd) Usage() string {
	return `add-expense -amount <amount> -category <category> [-date YYYY-MM-DD] [-note <text>]

  Records an expense. The date defaults to today.
`
}

func (c *addExpenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Amount spent, e.g. 12.50 (required)")
	f.StringVar(&c.category, "category", "", "Expense category (required)")
	f.StringVar(&c.date, "date", "", "Date of the expense (defaults to today)")
	f.StringVar(&c.note, "note", "", "Free text note")
}

func (c *addExpenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, _ *render.Renderer) error {
		amount, err := core.ParseMoney(c.amount)
		if err != nil {
			return err
		}
		date, err := parseDateOr(c.date, app.Reports.Today())
		if err != nil {
			return err
		}
		id, err := app.Ledger.AddExpense(ctx, amount, c.category, date, c.note)
		if err != nil {
			return err
		}
		fmt.Printf("Expense %d recorded: %s on %s\n", id, amount.Format(app.Config.Currency), date)
		return nil
	})
}

type deleteExpenseCmd struct{}

func (*deleteExpenseCmd) Name() string     { return "delete-expense" }
func (*deleteExpenseCmd) Synopsis() string { return "delete an expense by id" }
func (*deleteExpenseCmd) Usage() string {
	return `delete-expense <id>
`
}
func (*deleteExpenseCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteExpenseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := idArg(f)
	if !ok {
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(app *cli.App, _ *render.Renderer) error {
		if err := app.Ledger.DeleteExpense(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Expense %d deleted\n", id)
		return nil
	})
}

type setBudgetCmd struct {
	month    string
	category string
	limit    string
}

func (*setBudgetCmd) Name() string     { return "set-budget" }
func (*setBudgetCmd) Synopsis() string { return "set the monthly limit of a category" }
func (*setBudgetCmd) Usage() string {
	return `set-budget -category <category> -limit <amount> [-month YYYY-MM]

  Sets or replaces the budget of a category. The month defaults to the
  current one.
`
}

func (c *setBudgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Budget month (defaults to the current month)")
	f.StringVar(&c.category, "category", "", "Budget category (required)")
	f.StringVar(&c.limit, "limit", "", "Spending limit (required)")
}

func (c *setBudgetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, _ *render.Renderer) error {
		month, err := parseMonthOr(c.month, app.Reports.Today().MonthOf())
		if err != nil {
			return err
		}
		limit, err := core.ParseMoney(c.limit)
		if err != nil {
			return err
		}
		b, err := app.Ledger.SetBudget(ctx, month, c.category, limit)
		if err != nil {
			return err
		}
		fmt.Printf("Budget %s set to %s\n", b.Key(), b.Limit.Format(app.Config.Currency))
		return nil
	})
}

type deleteBudgetCmd struct {
	month    string
	category string
}

func (*deleteBudgetCmd) Name() string     { return "delete-budget" }
func (*deleteBudgetCmd) Synopsis() string { return "remove the budget of a category" }
func (*deleteBudgetCmd) Usage() string {
	return `delete-budget -category <category> [-month YYYY-MM]
`
}

func (c *deleteBudgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Budget month (defaults to the current month)")
	f.StringVar(&c.category, "category", "", "Budget category (required)")
}

func (c *deleteBudgetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, _ *render.Renderer) error {
		month, err := parseMonthOr(c.month, app.Reports.Today().MonthOf())
		if err != nil {
			return err
		}
		if err := app.Ledger.DeleteBudget(ctx, month, c.category); err != nil {
			return err
		}
		fmt.Printf("Budget %s deleted\n", core.BudgetKey(month, c.category))
		return nil
	})
}

type addGoalCmd struct {
	name     string
	target   string
	deadline string
}

func (*addGoalCmd) Name() string     { return "add-goal" }
func (*addGoalCmd) Synopsis() string { return "create a savings goal" }
func (*addGoalCmd) Usage() string {
	return `add-goal -name <name> -target <amount> -deadline YYYY-MM-DD
`
}

func (c *addGoalCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Goal name (required)")
	f.StringVar(&c.target, "target", "", "Target amount (required)")
	f.StringVar(&c.deadline, "deadline", "", "Deadline (required)")
}

func (c *addGoalCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(app *cli.App, _ *render.Renderer) error {
		target, err := core.ParseMoney(c.target)
		if err != nil {
			return err
		}
		deadline, err := core.ParseDate(c.deadline)
		if err != nil {
			return err
		}
		id, err := app.Ledger.CreateGoal(ctx, c.name, target, deadline)
		if err != nil {
			return err
		}
		fmt.Printf("Goal %d created: %s by %s\n", id, target.Format(app.Config.Currency), deadline)
		return nil
	})
}

type contributeCmd struct {
	delta string
}

func (*contributeCmd) Name() string     { return "contribute" }
func (*contributeCmd) Synopsis() string { return "add to (or withdraw from) a savings goal" }
func (*contributeCmd) Usage() string {
	return `contribute -delta <amount> <goal id>

  Adds delta to the goal. A negative delta withdraws; the saved amount never
  drops below zero.
`
}

func (c *contributeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.delta, "delta", "", "Amount to add, negative to withdraw (required)")
}

func (c *contributeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := idArg(f)
	if !ok {
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(app *cli.App, _ *render.Renderer) error {
		delta, err := core.ParseMoney(c.delta)
		if err != nil {
			return err
		}
		g, err := app.Ledger.ContributeToGoal(ctx, id, delta)
		if err != nil {
			return err
		}
		fmt.Printf("Goal %q: %s of %s\n", g.Name, g.Current.Format(app.Config.Currency), g.Target.Format(app.Config.Currency))
		return nil
	})
}

type deleteGoalCmd struct{}

func (*deleteGoalCmd) Name() string     { return "delete-goal" }
func (*deleteGoalCmd) Synopsis() string { return "delete a savings goal by id" }
func (*deleteGoalCmd) Usage() string {
	return `delete-goal <id>
`
}
func (*deleteGoalCmd) SetFlags(*flag.FlagSet) {}

func (c *deleteGoalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, ok := idArg(f)
	if !ok {
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(app *cli.App, _ *render.Renderer) error {
		if err := app.Ledger.DeleteGoal(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Goal %d deleted\n", id)
		return nil
	})
}

// idArg reads the single positional id argument.
func idArg(f *flag.FlagSet) (int64, bool) {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one id argument is required.")
		return 0, false
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", f.Arg(0))
		return 0, false
	}
	return id, true
}
