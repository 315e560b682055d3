// Package core provides the domain types shared by the ledger, the stores and
// the aggregation layer.
//
// This file contains the Money type. Amounts are exact decimals; conversion to
// float only happens for display.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used by Money.String.
const DefaultCurrency = "INR"

// Money is an exact decimal amount in the ledger currency.
// The zero value is 0.
type Money struct {
	value decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money { return Money{value: d} }

// MoneyFromInt returns a whole amount.
func MoneyFromInt(i int64) Money { return Money{value: decimal.NewFromInt(i)} }

// MoneyFromCents returns the amount for a value expressed in hundredths.
func MoneyFromCents(c int64) Money { return Money{value: decimal.New(c, -2)} }

// ParseMoney parses a decimal string.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and a
// leading sign. Sign checks are left to the caller's validation so that
// contribution deltas can be negative.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("12,34") -> 12.34, nil
//	ParseMoney("-5")    -> -5, nil
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d}, nil
}

func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) }
func (m Money) LessThan(n Money) bool    { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool { return m.value.GreaterThan(n.value) }
func (m Money) Cmp(n Money) int          { return m.value.Cmp(n.value) }
func (m Money) Add(n Money) Money        { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money        { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money               { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money               { return Money{value: m.value.Abs()} }
func (m Money) InexactFloat64() float64  { return m.value.InexactFloat64() }

// Max returns the larger of m and n.
func (m Money) Max(n Money) Money {
	if m.LessThan(n) {
		return n
	}
	return m
}

// String returns the amount with two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.value.StringFixed(2)
}

// Format renders the amount with the symbol and grouping of the given ISO
// currency code. Unknown codes fall back to String.
func (m Money) Format(currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return m.String()
	}
	minor := m.value.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// MarshalJSON encodes the exact decimal as a JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.value.MarshalJSON()
}

// UnmarshalJSON accepts a JSON number or string.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	m.value = d
	return nil
}
