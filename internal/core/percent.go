package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent is a percentage that may be "not applicable", which is the case
// for every ratio whose denominator is zero. The zero value is n/a.
type Percent struct {
	value      decimal.Decimal
	applicable bool
}

// NotApplicable returns the n/a percentage.
func NotApplicable() Percent { return Percent{} }

// PercentFromDecimal returns an applicable percentage of value.
func PercentFromDecimal(value decimal.Decimal) Percent {
	return Percent{value: value, applicable: true}
}

// PercentOf returns part/whole*100, or n/a when whole is zero.
func PercentOf(part, whole Money) Percent {
	if whole.IsZero() {
		return NotApplicable()
	}
	return PercentFromDecimal(part.value.Div(whole.value).Mul(hundred))
}

func (p Percent) IsApplicable() bool       { return p.applicable }
func (p Percent) Decimal() decimal.Decimal { return p.value }

// Clamp bounds an applicable percentage to [lo, hi]. n/a stays n/a.
func (p Percent) Clamp(lo, hi int64) Percent {
	if !p.applicable {
		return p
	}
	l, h := decimal.NewFromInt(lo), decimal.NewFromInt(hi)
	if p.value.LessThan(l) {
		return PercentFromDecimal(l)
	}
	if p.value.GreaterThan(h) {
		return PercentFromDecimal(h)
	}
	return p
}

// Equal compares two percentages; two n/a values are equal.
func (p Percent) Equal(q Percent) bool {
	if p.applicable != q.applicable {
		return false
	}
	return !p.applicable || p.value.Equal(q.value)
}

// String returns "n/a" or the value with two decimals, e.g. "80.00%".
func (p Percent) String() string {
	if !p.applicable {
		return "n/a"
	}
	return p.value.StringFixed(2) + "%"
}

// MarshalJSON encodes n/a as null and applicable values as a number
// rounded to two decimals.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.applicable {
		return []byte("null"), nil
	}
	return []byte(p.value.StringFixed(2)), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = NotApplicable()
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*p = PercentFromDecimal(d)
	return nil
}
