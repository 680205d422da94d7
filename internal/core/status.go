package core

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	eighty  = decimal.NewFromInt(80)
)

// CalculateSpentPercentage returns round(spent/budgeted*100), half-up, or 0
// when nothing is budgeted. The result is not capped at 100.
func CalculateSpentPercentage(budgeted, spent Money) int {
	if budgeted.Cents <= 0 {
		return 0
	}
	ratio := decimal.NewFromInt(spent.Cents).Mul(hundred).Div(decimal.NewFromInt(budgeted.Cents))
	return int(ratio.Round(0).IntPart())
}

// CalculateEventStatus derives the budget status from the unrounded spent
// ratio. 80% and 100% are both on-track.
func CalculateEventStatus(budgeted, spent Money) EventStatus {
	if budgeted.Cents <= 0 {
		return StatusOnTrack
	}
	s := decimal.NewFromInt(spent.Cents).Mul(hundred)
	b := decimal.NewFromInt(budgeted.Cents)
	switch {
	case s.GreaterThan(b.Mul(hundred)):
		return StatusOverBudget
	case s.LessThan(b.Mul(eighty)):
		return StatusUnderBudget
	default:
		return StatusOnTrack
	}
}
