package core

import "testing"

func TestCalculateSpentPercentage(t *testing.T) {
	tests := []struct {
		name     string
		budgeted int64
		spent    int64
		want     int
	}{
		{"zero budget", 0, 12345, 0},
		{"zero budget zero spent", 0, 0, 0},
		{"rounds half up", 100000, 75678, 76},
		{"exact half", 200, 1, 1}, // 0.5% -> 1
		{"below half", 1000, 4, 0},
		{"exceeds hundred", 1000, 1500, 150},
		{"nothing spent", 1000, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSpentPercentage(Cents(tt.budgeted), Cents(tt.spent))
			if got != tt.want {
				t.Errorf("CalculateSpentPercentage(%d, %d) = %d, want %d", tt.budgeted, tt.spent, got, tt.want)
			}
		})
	}
}

func TestCalculateEventStatus(t *testing.T) {
	tests := []struct {
		budgeted int64
		spent    int64
		want     EventStatus
	}{
		{100000, 70000, StatusUnderBudget},
		{100000, 80000, StatusOnTrack},
		{100000, 100000, StatusOnTrack},
		{100000, 120000, StatusOverBudget},
		{0, 0, StatusOnTrack},
		{0, 500, StatusOnTrack},
		// boundaries at whole units
		{100000, 79900, StatusUnderBudget},
		{100000, 100100, StatusOverBudget},
		// boundaries at cent precision
		{100000, 79999, StatusUnderBudget},
		{100000, 100001, StatusOverBudget},
	}
	for _, tt := range tests {
		got := CalculateEventStatus(Cents(tt.budgeted), Cents(tt.spent))
		if got != tt.want {
			t.Errorf("CalculateEventStatus(%d, %d) = %s, want %s", tt.budgeted, tt.spent, got, tt.want)
		}
	}
}
