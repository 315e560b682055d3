package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&addExpenseCmd{}, "expenses")
	commander.Register(&deleteExpenseCmd{}, "expenses")
	commander.Register(&setBudgetCmd{}, "budgets")
	commander.Register(&deleteBudgetCmd{}, "budgets")
	commander.Register(&addGoalCmd{}, "goals")
	commander.Register(&contributeCmd{}, "goals")
	commander.Register(&deleteGoalCmd{}, "goals")

	commander.Register(&dashboardCmd{}, "reports")
	commander.Register(&topCmd{}, "reports")
	commander.Register(&trendCmd{}, "reports")
	commander.Register(&budgetsCmd{}, "reports")
	commander.Register(&goalsCmd{}, "reports")
	commander.Register(&categoriesCmd{}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
