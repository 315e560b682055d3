package store

import (
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Field names of stored records.
const (
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldDate     = "date"
	FieldNote     = "note"
	FieldMonth    = "month"
	FieldLimit    = "limit"
	FieldName     = "name"
	FieldTarget   = "target"
	FieldCurrent  = "current"
	FieldDeadline = "deadline"
)

// FormatID renders a numeric record id.
func FormatID(id int64) string { return strconv.FormatInt(id, 10) }

// ParseID parses a numeric record id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func EncodeExpense(e core.Expense) Record {
	return Record{
		FieldID:       FormatID(e.ID),
		FieldAmount:   e.Amount.Decimal().String(),
		FieldCategory: e.Category,
		FieldDate:     e.Date.String(),
		FieldNote:     e.Note,
	}
}

func DecodeExpense(r Record) (core.Expense, error) {
	id, err := ParseID(r[FieldID])
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode expense: %w", err)
	}
	amount, err := core.ParseMoney(r[FieldAmount])
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode expense %d amount: %w", id, err)
	}
	date, err := core.ParseDate(r[FieldDate])
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode expense %d date: %w", id, err)
	}
	return core.Expense{
		ID:       id,
		Amount:   amount,
		Category: r[FieldCategory],
		Date:     date,
		Note:     r[FieldNote],
	}, nil
}

func EncodeBudget(b core.Budget) Record {
	return Record{
		FieldID:       b.Key(),
		FieldMonth:    b.Month.String(),
		FieldCategory: b.Category,
		FieldLimit:    b.Limit.Decimal().String(),
	}
}

func DecodeBudget(r Record) (core.Budget, error) {
	month, err := core.ParseMonth(r[FieldMonth])
	if err != nil {
		return core.Budget{}, fmt.Errorf("decode budget %q month: %w", r.ID(), err)
	}
	limit, err := core.ParseMoney(r[FieldLimit])
	if err != nil {
		return core.Budget{}, fmt.Errorf("decode budget %q limit: %w", r.ID(), err)
	}
	return core.Budget{Month: month, Category: r[FieldCategory], Limit: limit}, nil
}

func EncodeGoal(g core.SavingsGoal) Record {
	return Record{
		FieldID:       FormatID(g.ID),
		FieldName:     g.Name,
		FieldTarget:   g.Target.Decimal().String(),
		FieldCurrent:  g.Current.Decimal().String(),
		FieldDeadline: g.Deadline.String(),
	}
}

func DecodeGoal(r Record) (core.SavingsGoal, error) {
	id, err := ParseID(r[FieldID])
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("decode goal: %w", err)
	}
	target, err := core.ParseMoney(r[FieldTarget])
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("decode goal %d target: %w", id, err)
	}
	current, err := core.ParseMoney(r[FieldCurrent])
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("decode goal %d current: %w", id, err)
	}
	deadline, err := core.ParseDate(r[FieldDeadline])
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("decode goal %d deadline: %w", id, err)
	}
	return core.SavingsGoal{
		ID:       id,
		Name:     r[FieldName],
		Target:   target,
		Current:  current,
		Deadline: deadline,
	}, nil
}
