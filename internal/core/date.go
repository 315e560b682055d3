package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 layout used for dates everywhere.
const DateFormat = "2006-01-02"

// MonthFormat is the layout of a Month string.
const MonthFormat = "2006-01"

// Date is a calendar day, stored at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day. Out of range values are
// normalized the way time.Date does; use DateOf to reject them instead.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the date for year, month, day or ErrInvalidDate when the
// combination is not a real calendar day (e.g. February 30).
func DateOf(year int, month time.Month, day int) (Date, error) {
	d := NewDate(year, month, day)
	if d.Year() != year || d.Month() != month || d.Day() != day {
		return Date{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return d, nil
}

// MinDate is the earliest supported day. 0001-01-01 is the zero Date and
// means unset.
var MinDate = NewDate(1, time.January, 2)

// ParseDate parses a YYYY-MM-DD string on or after MinDate.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d := Date{Time: t}
	if d.Before(MinDate) {
		return Date{}, fmt.Errorf("%w: %s is before %s", ErrInvalidDate, d, MinDate)
	}
	return d, nil
}

// DateFromTime truncates t to its calendar day in t's location.
func DateFromTime(t time.Time) Date {
	return NewDate(t.Date())
}

// Today returns the current date in local time.
func Today() Date {
	return DateFromTime(time.Now())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is unset", ErrInvalidDate)
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.Format(DateFormat) }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.Time.Before(x.Time) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.Time.After(x.Time) }

// Equal reports whether d and x are the same day.
func (d Date) Equal(x Date) bool { return d.Time.Equal(x.Time) }

// AddDays returns the date n days later (or earlier when n < 0).
func (d Date) AddDays(n int) Date { return NewDate(d.Year(), d.Month(), d.Day()+n) }

// DaysUntil returns the number of days from d to x, negative if x is before d.
func (d Date) DaysUntil(x Date) int {
	return int((x.Unix() - d.Unix()) / (24 * 60 * 60))
}

// MonthOf returns the month containing d.
func (d Date) MonthOf() Month { return Month{Year: d.Year(), Month: d.Month()} }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthFormat, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: month %q", ErrInvalidDate, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) Validate() error {
	if m.Year < 1 || m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: month %d-%d", ErrInvalidDate, m.Year, int(m.Month))
	}
	return nil
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// First returns the first day of the month.
func (m Month) First() Date { return NewDate(m.Year, m.Month, 1) }

// Last returns the last day of the month.
func (m Month) Last() Date { return NewDate(m.Year, m.Month+1, 0) }

// Range returns the month as an inclusive date range.
func (m Month) Range() Range { return Range{From: m.First(), To: m.Last()} }

// Contains reports whether d falls in the month.
func (m Month) Contains(d Date) bool { return d.Year() == m.Year && d.Month() == m.Month }

func (m Month) Prev() Month { return m.First().AddDays(-1).MonthOf() }
func (m Month) Next() Month { return m.Last().AddDays(1).MonthOf() }

// Minus returns the month n months before m.
func (m Month) Minus(n int) Month {
	return NewDate(m.Year, m.Month-time.Month(n), 1).MonthOf()
}

// Before reports whether m is strictly before n.
func (m Month) Before(n Month) bool {
	if m.Year != n.Year {
		return m.Year < n.Year
	}
	return m.Month < n.Month
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Range is an inclusive range of dates.
type Range struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// NewRange creates a range. If from is after to they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// ParseRange parses two YYYY-MM-DD strings into a range.
func ParseRange(from, to string) (Range, error) {
	f, err := ParseDate(from)
	if err != nil {
		return Range{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return Range{}, err
	}
	return NewRange(f, t), nil
}

// Contains returns true if d is within the range, boundaries included.
func (r Range) Contains(d Date) bool { return !d.Before(r.From) && !d.After(r.To) }

// Days returns the number of days in the range, boundaries included.
func (r Range) Days() int { return r.From.DaysUntil(r.To) + 1 }

// Points returns how many buckets of size g cover the range.
func (r Range) Points(g Granularity) int {
	if g == Monthly {
		from, to := r.From.MonthOf(), r.To.MonthOf()
		return (to.Year-from.Year)*12 + int(to.Month) - int(from.Month) + 1
	}
	return r.Days()
}

func (r Range) String() string { return r.From.String() + ".." + r.To.String() }

// Granularity is the bucket size of a spending series.
type Granularity int

const (
	Daily Granularity = iota
	Monthly
)

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Monthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// ParseGranularity parses "daily"/"day" or "monthly"/"month".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "":
		return Daily, nil
	case "monthly", "month":
		return Monthly, nil
	default:
		return Daily, fmt.Errorf("unknown granularity %q", s)
	}
}
