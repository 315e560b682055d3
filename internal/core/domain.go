package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names one of the three record collections kept by the ledger.
type Kind string

const (
	KindExpense Kind = "expense"
	KindBudget  Kind = "budget"
	KindGoal    Kind = "goal"
)

// ChangeOp is the kind of write a Change describes.
type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

type (
	Expense struct {
		ID       int64  `json:"id"`
		Amount   Money  `json:"amount"`
		Category string `json:"category"`
		Date     Date   `json:"date"`
		Note     string `json:"note,omitempty"`
	}

	// Budget is the spending limit of one category for one month.
	Budget struct {
		Month    Month  `json:"month"`
		Category string `json:"category"`
		Limit    Money  `json:"limit"`
	}

	SavingsGoal struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Target   Money  `json:"target"`
		Current  Money  `json:"current"`
		Deadline Date   `json:"deadline"`
	}

	// Snapshot is an immutable copy of every record at one instant.
	// Expenses and Goals are ordered by ID, Budgets by month then category.
	Snapshot struct {
		Expenses []Expense
		Budgets  []Budget
		Goals    []SavingsGoal
		Version  uint64
		TakenAt  time.Time
	}

	// Change describes a committed ledger write.
	Change struct {
		Kind     Kind
		Op       ChangeOp
		RecordID string
		Record   map[string]string // nil for deletes
		Version  uint64
		At       time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEmptyCategory is reported as an invalid date so callers matching
	// on the four base kinds still classify it as a validation failure.
	ErrEmptyCategory = fmt.Errorf("%w: empty category", ErrInvalidDate)
	ErrEmptyName     = errors.New("empty name")
)

// NormalizeCategory trims the category. Categories are an open set.
func NormalizeCategory(c string) string {
	return strings.TrimSpace(c)
}

func (e Expense) Validate() error {
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if NormalizeCategory(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Limit.IsNegative() {
		return ErrInvalidAmount
	}
	if err := b.Month.Validate(); err != nil {
		return err
	}
	if NormalizeCategory(b.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Key returns the unique identifier of the budget: "YYYY-MM/category".
func (b Budget) Key() string {
	return BudgetKey(b.Month, b.Category)
}

// BudgetKey builds the identifier of the budget of category in month.
func BudgetKey(m Month, category string) string {
	return m.String() + "/" + NormalizeCategory(category)
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Target.IsPositive() {
		return ErrInvalidAmount
	}
	if g.Current.IsNegative() {
		return ErrInvalidAmount
	}
	if err := g.Deadline.Validate(); err != nil {
		return err
	}
	return nil
}

// Contribute returns the goal with delta applied to its current amount.
// The result never drops below zero and is not capped at the target.
func (g SavingsGoal) Contribute(delta Money) SavingsGoal {
	g.Current = g.Current.Add(delta)
	if g.Current.IsNegative() {
		g.Current = Money{}
	}
	return g
}

// Achieved reports whether the goal has reached its target.
func (g SavingsGoal) Achieved() bool {
	return !g.Current.LessThan(g.Target)
}
