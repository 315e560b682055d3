// Package aggregate derives report figures from a ledger snapshot.
//
// Every function is pure: it reads the snapshot it is given and nothing else,
// never mutates it and needs no locking. Ratios with a zero denominator are
// reported as core.NotApplicable instead of zero or infinity.
package aggregate

import (
	"sort"

	"fintrack/internal/core"
)

type MonthTotals struct {
	Month     core.Month `json:"month"`
	Spent     core.Money `json:"spent"`
	Budgeted  core.Money `json:"budgeted"`
	Saved     core.Money `json:"saved"`
	Remaining core.Money `json:"remaining"`
	// BudgetUsed is Spent over Budgeted.
	BudgetUsed core.Percent `json:"budget_used"`
}

type BudgetLine struct {
	Category  string       `json:"category"`
	Spent     core.Money   `json:"spent"`
	Limit     core.Money   `json:"limit"`
	HasLimit  bool         `json:"has_limit"`
	Remaining core.Money   `json:"remaining"`
	Percent   core.Percent `json:"percent"`
}

type GoalLine struct {
	Goal          core.SavingsGoal `json:"goal"`
	Percent       core.Percent     `json:"percent"`
	Remaining     core.Money       `json:"remaining"`
	DaysRemaining int              `json:"days_remaining"`
	Achieved      bool             `json:"achieved"`
}

type TrendResult struct {
	PeriodA       core.Range   `json:"period_a"`
	PeriodB       core.Range   `json:"period_b"`
	TotalA        core.Money   `json:"total_a"`
	TotalB        core.Money   `json:"total_b"`
	DeltaAbsolute core.Money   `json:"delta_absolute"`
	DeltaPercent  core.Percent `json:"delta_percent"`
}

type CategoryShare struct {
	Category string       `json:"category"`
	Total    core.Money   `json:"total"`
	Share    core.Percent `json:"share"`
}

type SeriesPoint struct {
	Start      core.Date  `json:"start"`
	Total      core.Money `json:"total"`
	Cumulative core.Money `json:"cumulative"`
}

// RangeTotal sums the expenses dated within r.
func RangeTotal(snap core.Snapshot, r core.Range) core.Money {
	var total core.Money
	for _, e := range snap.Expenses {
		if r.Contains(e.Date) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// MonthTotal sums the expenses dated within month.
func MonthTotal(snap core.Snapshot, month core.Month) core.Money {
	return RangeTotal(snap, month.Range())
}

// TotalsByMonth returns what was spent and budgeted in month, together with
// the amount saved across all goals, which are not month-scoped.
func TotalsByMonth(snap core.Snapshot, month core.Month) MonthTotals {
	t := MonthTotals{Month: month, Spent: MonthTotal(snap, month)}
	for _, b := range snap.Budgets {
		if b.Month == month {
			t.Budgeted = t.Budgeted.Add(b.Limit)
		}
	}
	for _, g := range snap.Goals {
		t.Saved = t.Saved.Add(g.Current)
	}
	t.Remaining = t.Budgeted.Sub(t.Spent)
	t.BudgetUsed = core.PercentOf(t.Spent, t.Budgeted)
	return t
}

// BudgetProgress compares spending with the limit of every category that
// has a budget or an expense in month, ordered by category.
//
// Categories spent in without a budget have HasLimit false. Their percent,
// like that of a zero limit, is not applicable.
func BudgetProgress(snap core.Snapshot, month core.Month) []BudgetLine {
	lines := make(map[string]*BudgetLine)
	line := func(category string) *BudgetLine {
		l, ok := lines[category]
		if !ok {
			l = &BudgetLine{Category: category}
			lines[category] = l
		}
		return l
	}

	for _, b := range snap.Budgets {
		if b.Month != month {
			continue
		}
		l := line(b.Category)
		l.Limit = b.Limit
		l.HasLimit = true
	}
	for _, e := range snap.Expenses {
		if month.Contains(e.Date) {
			l := line(e.Category)
			l.Spent = l.Spent.Add(e.Amount)
		}
	}

	out := make([]BudgetLine, 0, len(lines))
	for _, l := range lines {
		if l.HasLimit {
			l.Remaining = l.Limit.Sub(l.Spent)
			l.Percent = core.PercentOf(l.Spent, l.Limit)
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// GoalProgress reports every goal's completion as of today, ordered by id.
// Percent is clamped to [0, 100]; DaysRemaining is negative once the
// deadline has passed.
func GoalProgress(snap core.Snapshot, today core.Date) []GoalLine {
	out := make([]GoalLine, 0, len(snap.Goals))
	for _, g := range snap.Goals {
		out = append(out, GoalLine{
			Goal:          g,
			Percent:       core.PercentOf(g.Current, g.Target).Clamp(0, 100),
			Remaining:     g.Target.Sub(g.Current).Max(core.Money{}),
			DaysRemaining: today.DaysUntil(g.Deadline),
			Achieved:      g.Achieved(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Goal.ID < out[j].Goal.ID })
	return out
}

// TopExpenses returns at most n expenses dated within r, largest first.
// Ties go to the earlier date, then to the lower id.
func TopExpenses(snap core.Snapshot, r core.Range, n int) []core.Expense {
	if n <= 0 {
		return []core.Expense{}
	}
	out := make([]core.Expense, 0)
	for _, e := range snap.Expenses {
		if r.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Trend compares the spending of period b against period a.
func Trend(snap core.Snapshot, a, b core.Range) TrendResult {
	totalA, totalB := RangeTotal(snap, a), RangeTotal(snap, b)
	delta := totalB.Sub(totalA)
	return TrendResult{
		PeriodA:       a,
		PeriodB:       b,
		TotalA:        totalA,
		TotalB:        totalB,
		DeltaAbsolute: delta,
		DeltaPercent:  core.PercentOf(delta, totalA),
	}
}

// CategoryBreakdown totals spending per category within r, largest first,
// with each category's share of the overall total.
func CategoryBreakdown(snap core.Snapshot, r core.Range) []CategoryShare {
	totals := make(map[string]core.Money)
	var overall core.Money
	for _, e := range snap.Expenses {
		if r.Contains(e.Date) {
			totals[e.Category] = totals[e.Category].Add(e.Amount)
			overall = overall.Add(e.Amount)
		}
	}

	out := make([]CategoryShare, 0, len(totals))
	for c, t := range totals {
		out = append(out, CategoryShare{Category: c, Total: t, Share: core.PercentOf(t, overall)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MaxSeriesPoints bounds a spending series: ten years of days.
const MaxSeriesPoints = 3660

// SpendingSeries buckets the spending within r by day or by month. Every
// bucket is present, empty ones with a zero total, and carries the running
// total from the start of r. Ranges needing more than MaxSeriesPoints
// buckets yield nil.
func SpendingSeries(snap core.Snapshot, r core.Range, g core.Granularity) []SeriesPoint {
	if r.Points(g) > MaxSeriesPoints {
		return nil
	}
	var starts []core.Date
	index := make(map[string]int)
	bucket := func(d core.Date) core.Date { return d }
	if g == core.Monthly {
		bucket = func(d core.Date) core.Date { return d.MonthOf().First() }
		for m := r.From.MonthOf(); !r.To.MonthOf().Before(m); m = m.Next() {
			index[m.First().String()] = len(starts)
			starts = append(starts, m.First())
		}
	} else {
		for d := r.From; !d.After(r.To); d = d.AddDays(1) {
			index[d.String()] = len(starts)
			starts = append(starts, d)
		}
	}

	out := make([]SeriesPoint, len(starts))
	for i, s := range starts {
		out[i].Start = s
	}
	for _, e := range snap.Expenses {
		if !r.Contains(e.Date) {
			continue
		}
		i := index[bucket(e.Date).String()]
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	var running core.Money
	for i := range out {
		running = running.Add(out[i].Total)
		out[i].Cumulative = running
	}
	return out
}

// RecentExpenses returns the n most recent expenses, newest date first and
// the later id first within a day.
func RecentExpenses(snap core.Snapshot, n int) []core.Expense {
	if n <= 0 {
		return []core.Expense{}
	}
	out := make([]core.Expense, len(snap.Expenses))
	copy(out, snap.Expenses)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
