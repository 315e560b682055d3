package aggregate

import (
	"reflect"
	"testing"

	"fintrack/internal/core"
)

func m(s string) core.Money {
	v, err := core.ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return v
}

func d(s string) core.Date {
	v, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return v
}

func month(s string) core.Month {
	v, err := core.ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return v
}

func rng(from, to string) core.Range { return core.NewRange(d(from), d(to)) }

func pct(s string) core.Percent { return core.PercentFromDecimal(m(s).Decimal()) }

// january is the budget scenario: food 50+30 against a 100 limit and
// unbudgeted transport.
func january() core.Snapshot {
	return core.Snapshot{
		Expenses: []core.Expense{
			{ID: 1, Amount: m("50"), Category: "food", Date: d("2024-01-05")},
			{ID: 2, Amount: m("30"), Category: "food", Date: d("2024-01-20")},
			{ID: 3, Amount: m("20"), Category: "transport", Date: d("2024-01-10")},
			{ID: 4, Amount: m("99"), Category: "food", Date: d("2024-02-01")},
		},
		Budgets: []core.Budget{
			{Month: month("2024-01"), Category: "food", Limit: m("100")},
			{Month: month("2024-01"), Category: "rent", Limit: m("0")},
			{Month: month("2024-02"), Category: "food", Limit: m("500")},
		},
		Goals: []core.SavingsGoal{
			{ID: 1, Name: "car", Target: m("10000"), Current: m("12000"), Deadline: d("2025-01-01")},
			{ID: 2, Name: "trip", Target: m("400"), Current: m("100"), Deadline: d("2024-01-10")},
		},
		Version: 7,
	}
}

func TestBudgetProgressScenario(t *testing.T) {
	lines := BudgetProgress(january(), month("2024-01"))
	if len(lines) != 3 {
		t.Fatalf("expected food, rent and transport, got %+v", lines)
	}

	food, rent, transport := lines[0], lines[1], lines[2]
	if food.Category != "food" || !food.Spent.Equal(m("80")) || !food.Limit.Equal(m("100")) || !food.Percent.Equal(pct("80")) || !food.Remaining.Equal(m("20")) {
		t.Errorf("food = %+v", food)
	}
	if rent.Category != "rent" || !rent.HasLimit || rent.Percent.IsApplicable() || !rent.Spent.IsZero() {
		t.Errorf("zero limit must be n/a: %+v", rent)
	}
	if transport.Category != "transport" || transport.HasLimit || transport.Percent.IsApplicable() || !transport.Spent.Equal(m("20")) {
		t.Errorf("transport = %+v", transport)
	}
}

func TestBudgetPercentCanExceedHundred(t *testing.T) {
	snap := january()
	snap.Budgets[0].Limit = m("40")
	food := BudgetProgress(snap, month("2024-01"))[0]
	if !food.Percent.Equal(pct("200")) || !food.Remaining.Equal(m("-40")) {
		t.Fatalf("food = %+v", food)
	}
}

func TestTotalsByMonth(t *testing.T) {
	tot := TotalsByMonth(january(), month("2024-01"))
	if !tot.Spent.Equal(m("100")) || !tot.Budgeted.Equal(m("100")) || !tot.Saved.Equal(m("12100")) {
		t.Fatalf("totals = %+v", tot)
	}
	if !tot.Remaining.IsZero() || !tot.BudgetUsed.Equal(pct("100")) {
		t.Fatalf("totals = %+v", tot)
	}

	empty := TotalsByMonth(january(), month("2023-12"))
	if !empty.Spent.IsZero() || empty.BudgetUsed.IsApplicable() {
		t.Fatalf("empty month = %+v", empty)
	}
}

func TestGoalProgress(t *testing.T) {
	lines := GoalProgress(january(), d("2024-01-15"))
	if len(lines) != 2 {
		t.Fatalf("got %+v", lines)
	}
	car, trip := lines[0], lines[1]
	if !car.Percent.Equal(pct("100")) || !car.Achieved || !car.Remaining.IsZero() {
		t.Errorf("car should clamp at 100%%: %+v", car)
	}
	if car.DaysRemaining != 352 {
		t.Errorf("car days = %d", car.DaysRemaining)
	}
	if !trip.Percent.Equal(pct("25")) || trip.DaysRemaining != -5 || !trip.Remaining.Equal(m("300")) {
		t.Errorf("trip = %+v", trip)
	}
}

func TestTopExpensesTieBreaks(t *testing.T) {
	snap := core.Snapshot{Expenses: []core.Expense{
		{ID: 1, Amount: m("10"), Category: "a", Date: d("2024-03-05")},
		{ID: 2, Amount: m("30"), Category: "a", Date: d("2024-03-02")},
		{ID: 3, Amount: m("10"), Category: "a", Date: d("2024-03-01")},
		{ID: 4, Amount: m("10"), Category: "a", Date: d("2024-03-01")},
		{ID: 5, Amount: m("500"), Category: "a", Date: d("2024-04-01")},
	}}

	got := TopExpenses(snap, rng("2024-03-01", "2024-03-31"), 3)
	var ids []int64
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []int64{2, 3, 4}) {
		t.Fatalf("ids = %v", ids)
	}

	again := TopExpenses(snap, rng("2024-03-01", "2024-03-31"), 3)
	for i := range got {
		if got[i].ID != again[i].ID {
			t.Fatal("TopExpenses is not deterministic")
		}
	}

	if n := len(TopExpenses(snap, rng("2024-03-01", "2024-03-31"), 10)); n != 4 {
		t.Fatalf("range filter kept %d", n)
	}
	if n := len(TopExpenses(snap, rng("2024-03-01", "2024-03-31"), 0)); n != 0 {
		t.Fatalf("n=0 returned %d", n)
	}
	if n := len(TopExpenses(snap, rng("2024-03-05", "2024-03-05"), 5)); n != 1 {
		t.Fatalf("single-day range should include its boundary, got %d", n)
	}
}

func TestTrend(t *testing.T) {
	snap := core.Snapshot{Expenses: []core.Expense{
		{ID: 1, Amount: m("150"), Category: "a", Date: d("2024-02-03")},
		{ID: 2, Amount: m("50"), Category: "b", Date: d("2024-02-20")},
		{ID: 3, Amount: m("100"), Category: "b", Date: d("2024-03-20")},
	}}

	tests := []struct {
		name      string
		a, b      core.Range
		wantDelta string
		wantPct   core.Percent
	}{
		{"from nothing", month("2024-01").Range(), month("2024-02").Range(), "200", core.NotApplicable()},
		{"decrease", month("2024-02").Range(), month("2024-03").Range(), "-100", pct("-50")},
		{"increase", month("2024-03").Range(), month("2024-02").Range(), "100", pct("100")},
		{"both empty", month("2023-01").Range(), month("2023-02").Range(), "0", core.NotApplicable()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend(snap, tt.a, tt.b)
			if !got.DeltaAbsolute.Equal(m(tt.wantDelta)) || !got.DeltaPercent.Equal(tt.wantPct) {
				t.Fatalf("got delta %s percent %s", got.DeltaAbsolute, got.DeltaPercent)
			}
		})
	}
}

func TestCategoryBreakdown(t *testing.T) {
	got := CategoryBreakdown(january(), month("2024-01").Range())
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Category != "food" || !got[0].Total.Equal(m("80")) || !got[0].Share.Equal(pct("80")) {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Category != "transport" || !got[1].Share.Equal(pct("20")) {
		t.Errorf("second = %+v", got[1])
	}
	if len(CategoryBreakdown(january(), month("2020-01").Range())) != 0 {
		t.Error("empty range should have no categories")
	}
}

func TestSpendingSeriesDaily(t *testing.T) {
	got := SpendingSeries(january(), rng("2024-01-04", "2024-01-06"), core.Daily)
	want := []struct{ start, total, cum string }{
		{"2024-01-04", "0", "0"},
		{"2024-01-05", "50", "50"},
		{"2024-01-06", "0", "50"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d points", len(got))
	}
	for i, w := range want {
		p := got[i]
		if p.Start.String() != w.start || !p.Total.Equal(m(w.total)) || !p.Cumulative.Equal(m(w.cum)) {
			t.Errorf("point %d = %+v", i, p)
		}
	}
}

func TestSpendingSeriesMonthly(t *testing.T) {
	got := SpendingSeries(january(), rng("2023-12-15", "2024-02-10"), core.Monthly)
	if len(got) != 3 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Start.String() != "2023-12-01" || !got[0].Total.IsZero() {
		t.Errorf("december = %+v", got[0])
	}
	if !got[1].Total.Equal(m("100")) || !got[2].Total.Equal(m("99")) || !got[2].Cumulative.Equal(m("199")) {
		t.Errorf("series = %+v", got)
	}
}

func TestSpendingSeriesBounded(t *testing.T) {
	tests := []struct {
		name    string
		r       core.Range
		g       core.Granularity
		wantLen int
	}{
		{"ten years of days", core.Range{From: core.NewDate(2014, 1, 1), To: core.NewDate(2024, 1, 9)}, core.Daily, 0},
		{"at the limit", core.Range{From: core.NewDate(2014, 1, 1), To: core.NewDate(2014, 1, 1).AddDays(MaxSeriesPoints - 1)}, core.Daily, MaxSeriesPoints},
		{"whole calendar by day", core.Range{From: core.NewDate(1, 1, 2), To: core.NewDate(9999, 12, 31)}, core.Daily, 0},
		{"whole calendar by month", core.Range{From: core.NewDate(1, 1, 2), To: core.NewDate(9999, 12, 31)}, core.Monthly, 0},
		{"ten years by month", core.Range{From: core.NewDate(2014, 1, 1), To: core.NewDate(2023, 12, 31)}, core.Monthly, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpendingSeries(january(), tt.r, tt.g); len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestRecentExpenses(t *testing.T) {
	got := RecentExpenses(january(), 3)
	var ids []int64
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []int64{4, 2, 3}) {
		t.Fatalf("ids = %v", ids)
	}
	if len(RecentExpenses(core.Snapshot{}, 5)) != 0 {
		t.Fatal("empty snapshot")
	}
}

func TestMonthTotalMatchesLiveExpenses(t *testing.T) {
	snap := january()
	before := MonthTotal(snap, month("2024-01"))
	snap.Expenses = snap.Expenses[1:]
	after := MonthTotal(snap, month("2024-01"))
	if !before.Sub(after).Equal(m("50")) {
		t.Fatalf("before %s after %s", before, after)
	}
}

func TestAggregationDoesNotMutateSnapshot(t *testing.T) {
	snap := january()
	TopExpenses(snap, month("2024-01").Range(), 2)
	RecentExpenses(snap, 2)
	for i, e := range snap.Expenses {
		if e.ID != int64(i+1) {
			t.Fatalf("snapshot reordered: %+v", snap.Expenses)
		}
	}
}
