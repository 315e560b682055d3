package sheets

import (
	"testing"

	"fintrack/internal/core"
)

func TestExpenseRowRoundTrip(t *testing.T) {
	amount, _ := core.ParseMoney("1234.5")
	e := core.Expense{ID: 42, Amount: amount, Category: "rent", Date: core.NewDate(2024, 2, 29), Note: "feb"}

	row := ExpenseRow(e)
	if row[0] != "42" || row[1] != "2024-02-29" || row[3] != "1234.50" {
		t.Fatalf("row = %v", row)
	}
	got, err := ParseExpenseRow(row)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 42 || !got.Amount.Equal(amount) || got.Note != "feb" || !got.Date.Equal(e.Date) {
		t.Fatalf("got %+v", got)
	}
}

func TestParseExpenseRowNumericCells(t *testing.T) {
	got, err := ParseExpenseRow([]any{float64(7), "2024-01-02", "food", 12.5})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 7 || got.Amount.String() != "12.50" || got.Note != "" {
		t.Fatalf("got %+v", got)
	}
	if _, err := ParseExpenseRow([]any{"ID", "Date", "Category", "Amount", "Note"}); err == nil {
		t.Fatal("header row should not parse")
	}
}

func TestFindRow(t *testing.T) {
	rows := [][]any{{"ID"}, {"3"}, {}, {float64(10)}}
	tests := []struct {
		id   int64
		want int
	}{
		{3, 1},
		{10, 3},
		{4, -1},
	}
	for _, tt := range tests {
		if got := FindRow(rows, tt.id); got != tt.want {
			t.Errorf("FindRow(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
