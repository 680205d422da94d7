package sheets

import (
	"testing"

	"eventbudget/internal/core"
)

func TestRows(t *testing.T) {
	event := core.Event{
		Name:      "Wedding",
		EventDate: core.NewDate(2026, 9, 12),
		Currency:  "EUR",
		Totals: core.Totals{
			Budgeted:  core.Cents(100000),
			Scheduled: core.Cents(30000),
			Spent:     core.Cents(110000),
		},
		SpentPercentage: 110,
		Status:          core.StatusOverBudget,
	}
	summary := core.EventSummary{
		Event: event,
		Categories: []core.Category{
			{Name: "Venue", BudgetedAmount: core.Cents(60000), SpentAmount: core.Cents(90000)},
			{Name: "Food", BudgetedAmount: core.Cents(40000), ScheduledAmount: core.Cents(30000), SpentAmount: core.Cents(20000)},
		},
	}

	rows := Rows(summary)
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(rows))
	}
	if rows[0][1] != "2026-09-12" {
		t.Errorf("title row = %v", rows[0])
	}
	venue := rows[2]
	if venue[0] != "Venue" || venue[4] != -300.0 || venue[5] != 150 {
		t.Errorf("venue row = %v", venue)
	}
	total := rows[4]
	if total[0] != "Total" || total[1] != 1000.0 || total[5] != 110 || total[6] != "over-budget" {
		t.Errorf("total row = %v", total)
	}
}
