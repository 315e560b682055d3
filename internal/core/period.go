package core

import (
	"fmt"
	"strings"
)

// Period is a named date range relative to today.
type Period string

const (
	PeriodLast30Days  Period = "last-30-days"
	PeriodThisMonth   Period = "this-month"
	PeriodLast3Months Period = "last-3-months"
	PeriodLast6Months Period = "last-6-months"
	PeriodThisYear    Period = "this-year"
	PeriodAllTime     Period = "all-time"
)

// Periods lists the known periods.
func Periods() []Period {
	return []Period{PeriodLast30Days, PeriodThisMonth, PeriodLast3Months, PeriodLast6Months, PeriodThisYear, PeriodAllTime}
}

// EpochDate is the start of the all-time period.
var EpochDate = NewDate(2000, 1, 1)

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Range returns the dates covered by p, ending today.
//
// The multi-month periods start on the first day of the month that many
// months before the current one, so "last-3-months" on 2024-05-20 is
// 2024-02-01..2024-05-20.
func (p Period) Range(today Date) Range {
	month := today.MonthOf()
	switch p {
	case PeriodLast30Days:
		return Range{From: today.AddDays(-29), To: today}
	case PeriodThisMonth:
		return Range{From: month.First(), To: today}
	case PeriodLast3Months:
		return Range{From: month.Minus(3).First(), To: today}
	case PeriodLast6Months:
		return Range{From: month.Minus(6).First(), To: today}
	case PeriodThisYear:
		return Range{From: NewDate(today.Year(), 1, 1), To: today}
	default:
		return Range{From: EpochDate, To: today}
	}
}
