package main

import (
	"errors"
	"flag"
	"testing"

	"fintrack/internal/core"
)

func TestParseRange(t *testing.T) {
	today := core.NewDate(2024, 5, 20)

	tests := []struct {
		name             string
		from, to, period string
		want             core.Range
		wantErr          bool
	}{
		{name: "default is current month", want: core.Month{Year: 2024, Month: 5}.Range()},
		{name: "explicit", from: "2024-01-01", to: "2024-01-31",
			want: core.Range{From: core.NewDate(2024, 1, 1), To: core.NewDate(2024, 1, 31)}},
		{name: "reversed bounds swap", from: "2024-01-31", to: "2024-01-01",
			want: core.Range{From: core.NewDate(2024, 1, 1), To: core.NewDate(2024, 1, 31)}},
		{name: "period", period: "last-30-days",
			want: core.Range{From: core.NewDate(2024, 4, 21), To: today}},
		{name: "missing to", from: "2024-01-01", wantErr: true},
		{name: "unknown period", period: "fortnight", wantErr: true},
		{name: "bad date", from: "2024-02-30", to: "2024-03-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRange(tt.from, tt.to, tt.period, today)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidDate) {
					t.Fatalf("parseRange() error = %v, want ErrInvalidDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRange() error = %v", err)
			}
			if !got.From.Equal(tt.want.From) || !got.To.Equal(tt.want.To) {
				t.Errorf("parseRange() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsUsage(t *testing.T) {
	if !isUsage(core.ErrEmptyCategory) {
		t.Error("empty category should be a usage error")
	}
	if isUsage(core.ErrNotFound) {
		t.Error("not found should not be a usage error")
	}
}

func TestIDArg(t *testing.T) {
	tests := []struct {
		args   []string
		want   int64
		wantOK bool
	}{
		{args: []string{"42"}, want: 42, wantOK: true},
		{args: nil},
		{args: []string{"1", "2"}},
		{args: []string{"abc"}},
		{args: []string{"0"}},
	}
	for _, tt := range tests {
		f := flag.NewFlagSet("test", flag.ContinueOnError)
		if err := f.Parse(tt.args); err != nil {
			t.Fatal(err)
		}
		got, ok := idArg(f)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("idArg(%v) = %d, %v, want %d, %v", tt.args, got, ok, tt.want, tt.wantOK)
		}
	}
}
