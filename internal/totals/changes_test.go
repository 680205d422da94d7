package totals

import (
	"testing"

	"eventbudget/internal/core"
)

func TestChange_Apply(t *testing.T) {
	tests := []struct {
		name   string
		cur    int64
		change Change
		want   int64
	}{
		{"add", 100, Change{Add: core.Cents(50)}, 150},
		{"subtract", 100, Change{Subtract: core.Cents(40)}, 60},
		{"mixed", 100, Change{Add: core.Cents(30), Subtract: core.Cents(120)}, 10},
		{"floor", 100, Change{Subtract: core.Cents(500)}, 0},
		{"add before floor", 0, Change{Add: core.Cents(50), Subtract: core.Cents(50)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.Apply(core.Cents(tt.cur)); got.Cents != tt.want {
				t.Errorf("Apply(%d) = %d, want %d", tt.cur, got.Cents, tt.want)
			}
		})
	}
}

func TestPlan_EventIsSumOfCategories(t *testing.T) {
	plan := NewPlan().
		SubtractScheduled("cat-a", core.Cents(300)).
		AddScheduled("cat-b", core.Cents(300)).
		AddSpent("cat-b", core.Cents(120)).
		AddSpent("cat-b", core.Cents(80))

	if got := plan.CategoryIDs(); len(got) != 2 || got[0] != "cat-a" || got[1] != "cat-b" {
		t.Errorf("CategoryIDs() = %v", got)
	}
	if got := plan.Category("cat-b").Spent.Add.Cents; got != 200 {
		t.Errorf("cat-b spent add = %d, want 200", got)
	}

	ev := plan.Event()
	if ev.Scheduled.Add.Cents != 300 || ev.Scheduled.Subtract.Cents != 300 {
		t.Errorf("event scheduled = %+v", ev.Scheduled)
	}
	if got := ev.Scheduled.Apply(core.Cents(1000)).Cents; got != 1000 {
		t.Errorf("moving between categories changed the event total: %d", got)
	}
}

func TestPlan_Empty(t *testing.T) {
	if !NewPlan().Empty() {
		t.Error("new plan should be empty")
	}
	if !NewPlan().AddSpent("cat-a", core.Money{}).Empty() {
		t.Error("zero change should be empty")
	}
	if NewPlan().AddSpent("cat-a", core.Cents(1)).Empty() {
		t.Error("plan with change should not be empty")
	}
}
