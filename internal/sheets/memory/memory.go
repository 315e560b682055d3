// Package memory is an in-process ExpenseMirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := sheets.FindRow(m.rows, e.ID); i >= 0 {
		return ref(i), nil
	}
	m.rows = append(m.rows, sheets.ExpenseRow(e))
	return ref(len(m.rows) - 1), nil
}

func (m *Mirror) DeleteExpense(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := sheets.FindRow(m.rows, id); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

// Expenses returns the mirrored expenses in row order.
func (m *Mirror) Expenses() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Expense, 0, len(m.rows))
	for _, row := range m.rows {
		if e, err := sheets.ParseExpenseRow(row); err == nil {
			out = append(out, e)
		}
	}
	return out
}

func ref(i int) string { return fmt.Sprintf("mem:%d", i+1) }
