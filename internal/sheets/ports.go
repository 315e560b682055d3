// Package sheets defines the spreadsheet mirror of the expense ledger and
// the row layout shared by its implementations.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// ExpenseMirror keeps one spreadsheet row per live expense.
//
// Both operations are idempotent so redelivered messages are harmless:
// appending an id that already has a row returns that row, deleting an id
// without a row succeeds.
type ExpenseMirror interface {
	AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	DeleteExpense(ctx context.Context, id int64) error
}

// Header is the first row of the mirror sheet.
var Header = []string{"ID", "Date", "Category", "Amount", "Note"}

// ExpenseRow renders e in column order.
func ExpenseRow(e core.Expense) []any {
	return []any{store.FormatID(e.ID), e.Date.String(), e.Category, e.Amount.String(), e.Note}
}

// ParseExpenseRow reads a row written by ExpenseRow. Cells may come back
// as numbers, so everything goes through fmt.Sprint.
func ParseExpenseRow(row []any) (core.Expense, error) {
	cols := make([]string, len(Header))
	for i := range cols {
		if i < len(row) {
			cols[i] = strings.TrimSpace(fmt.Sprint(row[i]))
		}
	}
	return store.DecodeExpense(store.Record{
		store.FieldID:       cols[0],
		store.FieldDate:     cols[1],
		store.FieldCategory: cols[2],
		store.FieldAmount:   cols[3],
		store.FieldNote:     cols[4],
	})
}

// FindRow returns the zero-based index of the row whose first cell is id,
// or -1.
func FindRow(rows [][]any, id int64) int {
	want := store.FormatID(id)
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i
		}
	}
	return -1
}
