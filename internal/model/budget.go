package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnnualBudget is a one-year budget period starting at StartInclusive.
type AnnualBudget struct {
	StartInclusive time.Time
	// Order lists the budgeted subcategories in file order.
	Order   []SubCategoryKey
	Monthly map[SubCategoryKey]decimal.Decimal
}

// EndExclusive returns the first day after the period.
func (b AnnualBudget) EndExclusive() time.Time {
	return b.StartInclusive.AddDate(1, 0, 0)
}

// Contains reports whether date falls in [start, start+1y).
func (b AnnualBudget) Contains(date time.Time) bool {
	return !date.Before(b.StartInclusive) && date.Before(b.EndExclusive())
}

// Overlaps reports whether two periods share at least one day.
func (b AnnualBudget) Overlaps(other AnnualBudget) bool {
	return b.StartInclusive.Before(other.EndExclusive()) && other.StartInclusive.Before(b.EndExclusive())
}

// AnchorDay is the day of month on which budget cycles begin.
func (b AnnualBudget) AnchorDay() int {
	return b.StartInclusive.Day()
}

// MonthlyTotal sums the monthly budget across every subcategory.
func (b AnnualBudget) MonthlyTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b.Monthly {
		total = total.Add(v)
	}
	return total
}
