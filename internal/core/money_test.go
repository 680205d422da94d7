package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"756.78", 75678, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseBudgetToCentsAcceptsZero(t *testing.T) {
	got, err := ParseBudgetToCents("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", got, err)
	}
	if _, err := ParseBudgetToCents("-5"); err == nil {
		t.Fatalf("expected error for negative budget")
	}
}

func TestMoneyFloorSub(t *testing.T) {
	cases := []struct {
		a, b, want int64
	}{
		{500, 200, 300},
		{500, 500, 0},
		{100, 300, 0},
		{0, 1, 0},
	}
	for _, tc := range cases {
		if got := Cents(tc.a).FloorSub(Cents(tc.b)); got.Cents != tc.want {
			t.Errorf("%d - %d = %d, want %d", tc.a, tc.b, got.Cents, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		123456: "1234.56",
		-250:   "-2.50",
	}
	for cents, want := range cases {
		if got := Cents(cents).String(); got != want {
			t.Errorf("Cents(%d).String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSONIsIntegerCents(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Cents(75678)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":75678}` {
		t.Fatalf("unexpected json %s", b)
	}
	var back struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal(b, &back); err != nil || back.Amount.Cents != 75678 {
		t.Fatalf("unmarshal: %+v err=%v", back, err)
	}
}
