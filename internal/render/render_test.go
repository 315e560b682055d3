package render

import (
	"strings"
	"testing"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/report"
)

func mustContain(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\n%s", w, out)
		}
	}
}

func TestRenderer_Dashboard(t *testing.T) {
	r := New("USD")
	month := core.Month{Year: 2024, Month: 3}
	d := report.Dashboard{
		Month: month,
		Totals: aggregate.MonthTotals{
			Month:      month,
			Spent:      core.MoneyFromInt(80),
			Budgeted:   core.MoneyFromInt(100),
			Remaining:  core.MoneyFromInt(20),
			BudgetUsed: core.PercentOf(core.MoneyFromInt(80), core.MoneyFromInt(100)),
		},
		Budgets: []aggregate.BudgetLine{
			{Category: "food", Spent: core.MoneyFromInt(120), Limit: core.MoneyFromInt(100), HasLimit: true,
				Remaining: core.MoneyFromInt(-20), Percent: core.PercentOf(core.MoneyFromInt(120), core.MoneyFromInt(100))},
			{Category: "transport", Spent: core.MoneyFromInt(5)},
		},
		Recent: []core.Expense{
			{ID: 7, Amount: core.MoneyFromCents(1250), Category: "food", Date: core.NewDate(2024, 3, 2), Note: "lunch"},
		},
		VsPreviousMonth: aggregate.TrendResult{
			PeriodA:       core.Month{Year: 2024, Month: 2}.Range(),
			PeriodB:       month.Range(),
			TotalB:        core.MoneyFromInt(80),
			DeltaAbsolute: core.MoneyFromInt(80),
		},
	}

	out, err := r.Dashboard(d)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	mustContain(t, out,
		"# Dashboard 2024-03",
		"## Budgets",
		"| food | "+core.MoneyFromInt(120).Format("USD"),
		"**120.00%**",
		"| transport | "+core.MoneyFromInt(5).Format("USD")+" | - | - | n/a |",
		"No savings goals.",
		"No spending.",
		"| 7 | 2024-03-02 | food | "+core.MoneyFromCents(1250).Format("USD")+" | lunch |",
		"+"+core.MoneyFromInt(80).Format("USD"),
		"| **Change %** |  | n/a |",
	)
}

func TestRenderer_Expenses(t *testing.T) {
	r := New("")
	rng := core.NewRange(core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31))

	tests := []struct {
		name string
		list report.ExpenseList
		want []string
	}{
		{
			name: "empty with range",
			list: report.ExpenseList{Range: &rng},
			want: []string{"# Top", "*2024-03-01..2024-03-31*", "No expenses."},
		},
		{
			name: "rows",
			list: report.ExpenseList{Expenses: []core.Expense{
				{ID: 1, Amount: core.MoneyFromInt(10), Category: "rent", Date: core.NewDate(2024, 3, 1)},
				{ID: 2, Amount: core.MoneyFromInt(5), Category: "food", Date: core.NewDate(2024, 3, 2)},
			}},
			want: []string{"| ID | Date | Category | Amount | Note |", "| 1 | 2024-03-01 | rent |", "| 2 | 2024-03-02 | food |"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Expenses("Top", tt.list)
			if err != nil {
				t.Fatalf("Expenses() error = %v", err)
			}
			mustContain(t, out, tt.want...)
		})
	}
}

func TestRenderer_GoalProgress(t *testing.T) {
	r := New("USD")
	g := report.GoalProgress{
		Today: core.NewDate(2024, 3, 15),
		Lines: []aggregate.GoalLine{
			{
				Goal: core.SavingsGoal{ID: 1, Name: "bike", Target: core.MoneyFromInt(100),
					Current: core.MoneyFromInt(150), Deadline: core.NewDate(2024, 3, 10)},
				Percent:       core.PercentFromDecimal(core.MoneyFromInt(100).Decimal()),
				DaysRemaining: -5,
				Achieved:      true,
			},
		},
	}
	out, err := r.GoalProgress(g)
	if err != nil {
		t.Fatalf("GoalProgress() error = %v", err)
	}
	mustContain(t, out, "As of 2024-03-15", "| bike ✓ |", "100.00%", "| 2024-03-10 | -5 |")
}

func TestRenderer_SmallViews(t *testing.T) {
	r := New("USD")
	month := core.Month{Year: 2024, Month: 1}

	totals, err := r.MonthlyTotals(report.MonthlyTotals{MonthTotals: aggregate.MonthTotals{Month: month}})
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, totals, "# Totals 2024-01", "| Budget Used | n/a |")

	budgets, err := r.BudgetProgress(report.BudgetProgress{Month: month})
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, budgets, "# Budgets 2024-01", "No budgets set.")

	cats, err := r.CategoryBreakdown(report.CategoryBreakdown{
		Range: month.Range(),
		Categories: []aggregate.CategoryShare{
			{Category: "food", Total: core.MoneyFromInt(30), Share: core.PercentOf(core.MoneyFromInt(30), core.MoneyFromInt(40))},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, cats, "| food |", "75.00%")

	series, err := r.SpendingSeries(report.SpendingSeries{
		Range:       month.Range(),
		Granularity: core.Monthly.String(),
		Points:      []aggregate.SeriesPoint{{Start: month.First(), Total: core.MoneyFromInt(3), Cumulative: core.MoneyFromInt(3)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, series, "# Spending monthly", "| 2024-01-01 |")

	trend, err := r.Trend(report.Trend{TrendResult: aggregate.TrendResult{
		TotalA:        core.MoneyFromInt(50),
		DeltaAbsolute: core.MoneyFromInt(-50),
		DeltaPercent:  core.PercentOf(core.MoneyFromInt(-50), core.MoneyFromInt(50)),
	}})
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, trend, "# Spending Trend", "-100.00%")
}
