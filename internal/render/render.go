// Package render turns report views into markdown documents for the
// terminal client.
package render

import (
	"bytes"
	"fmt"
	"strconv"

	md "github.com/nao1215/markdown"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/report"
)

// Renderer formats money in one currency.
type Renderer struct {
	currency string
}

func New(currency string) *Renderer {
	if currency == "" {
		currency = core.DefaultCurrency
	}
	return &Renderer{currency: currency}
}

func (r *Renderer) money(m core.Money) string { return m.Format(r.currency) }

// signed prefixes positive amounts with "+".
func (r *Renderer) signed(m core.Money) string {
	if m.IsPositive() {
		return "+" + r.money(m)
	}
	return r.money(m)
}

func build(doc *md.Markdown, buf *bytes.Buffer) (string, error) {
	if err := doc.Build(); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) Dashboard(d report.Dashboard) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1f("Dashboard %s", d.Month)
	r.totalsTable(doc, d.Totals)

	doc.H2("Budgets")
	r.budgetTable(doc, d.Budgets)

	doc.H2("Savings Goals")
	r.goalTable(doc, d.Goals)

	doc.H2("Spending by Category")
	r.categoryTable(doc, d.Categories)

	doc.H2("Recent Expenses")
	r.expenseTable(doc, d.Recent)

	doc.H2("Compared with Previous Month")
	r.trendTable(doc, d.VsPreviousMonth)

	return build(doc, &buf)
}

func (r *Renderer) MonthlyTotals(t report.MonthlyTotals) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1f("Totals %s", t.Month)
	r.totalsTable(doc, t.MonthTotals)
	return build(doc, &buf)
}

func (r *Renderer) BudgetProgress(b report.BudgetProgress) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1f("Budgets %s", b.Month)
	r.budgetTable(doc, b.Lines)
	return build(doc, &buf)
}

func (r *Renderer) GoalProgress(g report.GoalProgress) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Savings Goals")
	doc.PlainTextf("As of %s", g.Today)
	r.goalTable(doc, g.Lines)
	return build(doc, &buf)
}

// Expenses renders a list under the given title. The range, when set, is
// printed below the title.
func (r *Renderer) Expenses(title string, l report.ExpenseList) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)
	if l.Range != nil {
		doc.PlainText(md.Italic(l.Range.String()))
	}
	r.expenseTable(doc, l.Expenses)
	return build(doc, &buf)
}

func (r *Renderer) Trend(t report.Trend) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Spending Trend")
	r.trendTable(doc, t.TrendResult)
	return build(doc, &buf)
}

func (r *Renderer) CategoryBreakdown(c report.CategoryBreakdown) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Spending by Category")
	doc.PlainText(md.Italic(c.Range.String()))
	r.categoryTable(doc, c.Categories)
	return build(doc, &buf)
}

func (r *Renderer) SpendingSeries(s report.SpendingSeries) (string, error) {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1f("Spending %s", s.Granularity)
	doc.PlainText(md.Italic(s.Range.String()))
	if len(s.Points) == 0 {
		doc.PlainText("No data.")
		return build(doc, &buf)
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Start", "Total", "Cumulative"},
	}
	for _, p := range s.Points {
		table.Rows = append(table.Rows, []string{p.Start.String(), r.money(p.Total), r.money(p.Cumulative)})
	}
	doc.Table(table)
	return build(doc, &buf)
}

func (r *Renderer) totalsTable(doc *md.Markdown, t aggregate.MonthTotals) {
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Spent"), md.Bold(r.money(t.Spent))},
		Rows: [][]string{
			{"Budgeted", r.money(t.Budgeted)},
			{"Remaining", r.money(t.Remaining)},
			{"Saved", r.money(t.Saved)},
			{"Budget Used", t.BudgetUsed.String()},
		},
	})
}

func (r *Renderer) budgetTable(doc *md.Markdown, lines []aggregate.BudgetLine) {
	if len(lines) == 0 {
		doc.PlainText("No budgets set.")
		return
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Category", "Spent", "Limit", "Remaining", "Used"},
	}
	for _, l := range lines {
		limit, remaining := "-", "-"
		if l.HasLimit {
			limit = r.money(l.Limit)
			remaining = r.money(l.Remaining)
		}
		used := l.Percent.String()
		if l.HasLimit && l.Spent.GreaterThan(l.Limit) {
			used = md.Bold(used)
		}
		table.Rows = append(table.Rows, []string{l.Category, r.money(l.Spent), limit, remaining, used})
	}
	doc.Table(table)
}

func (r *Renderer) goalTable(doc *md.Markdown, lines []aggregate.GoalLine) {
	if len(lines) == 0 {
		doc.PlainText("No savings goals.")
		return
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignLeft, md.AlignRight},
		Header:    []string{"Goal", "Saved", "Target", "Progress", "Deadline", "Days Left"},
	}
	for _, l := range lines {
		name := l.Goal.Name
		if l.Achieved {
			name += " ✓"
		}
		table.Rows = append(table.Rows, []string{
			name,
			r.money(l.Goal.Current),
			r.money(l.Goal.Target),
			l.Percent.String(),
			l.Goal.Deadline.String(),
			strconv.Itoa(l.DaysRemaining),
		})
	}
	doc.Table(table)
}

func (r *Renderer) categoryTable(doc *md.Markdown, shares []aggregate.CategoryShare) {
	if len(shares) == 0 {
		doc.PlainText("No spending.")
		return
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Category", "Total", "Share"},
	}
	for _, s := range shares {
		table.Rows = append(table.Rows, []string{s.Category, r.money(s.Total), s.Share.String()})
	}
	doc.Table(table)
}

func (r *Renderer) expenseTable(doc *md.Markdown, expenses []core.Expense) {
	if len(expenses) == 0 {
		doc.PlainText("No expenses.")
		return
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignLeft},
		Header:    []string{"ID", "Date", "Category", "Amount", "Note"},
	}
	for _, e := range expenses {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			e.Category,
			r.money(e.Amount),
			e.Note,
		})
	}
	doc.Table(table)
}

func (r *Renderer) trendTable(doc *md.Markdown, t aggregate.TrendResult) {
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight},
		Header:    []string{"Period", "Dates", "Total"},
		Rows: [][]string{
			{"A", t.PeriodA.String(), r.money(t.TotalA)},
			{"B", t.PeriodB.String(), r.money(t.TotalB)},
			{md.Bold("Change"), "", md.Bold(r.signed(t.DeltaAbsolute))},
			{md.Bold("Change %"), "", t.DeltaPercent.String()},
		},
	})
}
