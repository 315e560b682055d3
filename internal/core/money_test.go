package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.50", true},
		{"-5", "-5.00", true},
		{"0", "0.00", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	sum := Money{}
	for i := 0; i < 10; i++ {
		sum = sum.Add(MoneyFromCents(10))
	}
	if !sum.Equal(MoneyFromInt(1)) {
		t.Fatalf("expected exactly 1, got %s", sum)
	}
	if got := MoneyFromInt(3).Sub(MoneyFromInt(5)); !got.Equal(MoneyFromInt(-2)) {
		t.Fatalf("expected -2, got %s", got)
	}
}

func TestMoneyFormat(t *testing.T) {
	m, _ := ParseMoney("1234.5")
	if got := m.Format("USD"); got != "$1,234.50" {
		t.Fatalf("unexpected USD format %q", got)
	}
	if got := m.Format("nope"); got != "1234.50" {
		t.Fatalf("unknown currency should fall back to plain format, got %q", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	var m Money
	if err := m.UnmarshalJSON([]byte(`"12.34"`)); err != nil || !m.Equal(MoneyFromCents(1234)) {
		t.Fatalf("string form: got %s err=%v", m, err)
	}
	if err := m.UnmarshalJSON([]byte(`50`)); err != nil || !m.Equal(MoneyFromInt(50)) {
		t.Fatalf("number form: got %s err=%v", m, err)
	}
	if err := m.UnmarshalJSON([]byte(`"x"`)); err == nil {
		t.Fatalf("expected error for garbage")
	}
}
