// Package budgets loads date-anchored annual budget periods and answers
// "what is the monthly budget of this subcategory on this date".
package budgets

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budgetbook/internal/model"
)

var (
	// ErrNoBudgetPeriod is returned when no loaded period contains a date.
	ErrNoBudgetPeriod = errors.New("no applicable budget period")
	// ErrNotBudgeted is returned when a period has no entry for a subcategory.
	ErrNotBudgeted = errors.New("subcategory not budgeted")
)

// Budgets is the read-only set of loaded budget periods, sorted by start.
type Budgets struct {
	periods []model.AnnualBudget
}

// New sorts periods and rejects duplicates and overlaps.
func New(periods ...model.AnnualBudget) (*Budgets, error) {
	sorted := make([]model.AnnualBudget, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartInclusive.Before(sorted[j].StartInclusive)
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Overlaps(cur) {
			return nil, fmt.Errorf("budget period starting %s overlaps period starting %s",
				cur.StartInclusive.Format(model.DateFormat), prev.StartInclusive.Format(model.DateFormat))
		}
	}
	return &Budgets{periods: sorted}, nil
}

// Periods returns the loaded periods in start order.
func (b *Budgets) Periods() []model.AnnualBudget {
	return b.periods
}

// BudgetFor returns the unique period whose [start, start+1y) contains date.
func (b *Budgets) BudgetFor(date time.Time) (model.AnnualBudget, error) {
	day := truncateDay(date)
	i := sort.Search(len(b.periods), func(i int) bool {
		return b.periods[i].StartInclusive.After(day)
	})
	// periods[i-1] is the last period starting on or before date.
	if i > 0 && b.periods[i-1].Contains(day) {
		return b.periods[i-1], nil
	}
	return model.AnnualBudget{}, fmt.Errorf("%w for %s", ErrNoBudgetPeriod, day.Format(model.DateFormat))
}

// ValueFor returns the monthly budget of (sub, category) in the period
// containing date.
func (b *Budgets) ValueFor(sub, category string, date time.Time) (decimal.Decimal, error) {
	period, err := b.BudgetFor(date)
	if err != nil {
		return decimal.Zero, err
	}
	key := model.SubCategoryKey{Category: category, SubCategory: sub}
	v, ok := period.Monthly[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s in period starting %s",
			ErrNotBudgeted, key, period.StartInclusive.Format(model.DateFormat))
	}
	return v, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
