// Package sheets exports event summaries to spreadsheets.
package sheets

import (
	"context"

	"eventbudget/internal/core"
)

// SummaryWriter replaces the exported summary of an event.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, ownerID string, summary core.EventSummary) (ref string, err error)
}

var Header = []any{"Category", "Budgeted", "Scheduled", "Spent", "Remaining", "Spent %"}

// Rows renders a summary as spreadsheet rows: a title row, the header, one
// row per category and a total row carrying the event status.
func Rows(summary core.EventSummary) [][]any {
	e := summary.Event
	rows := make([][]any, 0, len(summary.Categories)+3)
	rows = append(rows, []any{e.Name, e.EventDate.String(), e.Currency}, Header)
	for _, c := range summary.Categories {
		rows = append(rows, []any{
			c.Name,
			c.BudgetedAmount.Decimal(),
			c.ScheduledAmount.Decimal(),
			c.SpentAmount.Decimal(),
			remaining(c.BudgetedAmount, c.SpentAmount),
			core.CalculateSpentPercentage(c.BudgetedAmount, c.SpentAmount),
		})
	}
	rows = append(rows, []any{
		"Total",
		e.Budgeted.Decimal(),
		e.Scheduled.Decimal(),
		e.Spent.Decimal(),
		remaining(e.Budgeted, e.Spent),
		e.SpentPercentage,
		string(e.Status),
	})
	return rows
}

// remaining may be negative when over budget.
func remaining(budgeted, spent core.Money) float64 {
	return core.Money{Cents: budgeted.Cents - spent.Cents}.Decimal()
}
