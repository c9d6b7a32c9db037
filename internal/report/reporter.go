// Package report aggregates persisted decisions into actual-vs-budget
// reports.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budgetbook/internal/budgets"
	"github.com/cleared-dev/budgetbook/internal/model"
)

// ErrInconsistentState is returned when decisions cannot be reported on, for
// example because one of them is still unresolved.
var ErrInconsistentState = errors.New("inconsistent decision data")

// OverviewName is the name of the synthetic overview row.
const OverviewName = "Overview"

// AggregatedOverviewName is the name of the running-total row.
const AggregatedOverviewName = "Aggregated overview"

const monthsPerYear = 12

// BudgetSource resolves budget periods and monthly values.
type BudgetSource interface {
	BudgetFor(date time.Time) (model.AnnualBudget, error)
	ValueFor(sub, category string, date time.Time) (decimal.Decimal, error)
}

// Reporter builds category reports against annual budgets.
type Reporter struct {
	budgets BudgetSource
}

// NewReporter creates a Reporter.
func NewReporter(budgets BudgetSource) *Reporter {
	return &Reporter{budgets: budgets}
}

// CategoryReportsFrom groups decisions by subcategory. Actuals are summed and
// then rounded half-up to cents; budgets are the monthly budget times
// numberOfMonths. The budget period is the one containing the latest
// decision date. Categories without decisions are omitted.
func (r *Reporter) CategoryReportsFrom(decisions []model.Decision, numberOfMonths int) ([]CategoryReport, error) {
	if len(decisions) == 0 {
		return nil, nil
	}
	if numberOfMonths < 1 {
		return nil, fmt.Errorf("number of months must be positive, got %d", numberOfMonths)
	}

	_, last := DateSpan(decisions)
	period, err := r.budgets.BudgetFor(last)
	if err != nil {
		return nil, err
	}
	groups, err := groupDecisions(period, decisions)
	if err != nil {
		return nil, err
	}

	months := decimal.NewFromInt(int64(numberOfMonths))
	var reports []CategoryReport
	index := make(map[string]int)
	for _, g := range groups {
		monthly, err := r.budgets.ValueFor(g.key.SubCategory, g.key.Category, last)
		if err != nil {
			return nil, err
		}
		i, ok := index[g.key.Category]
		if !ok {
			i = len(reports)
			index[g.key.Category] = i
			reports = append(reports, CategoryReport{Title: g.key.Category})
		}
		reports[i].Data = append(reports[i].Data, DataItem{
			Name:   g.key.SubCategory,
			Actual: g.actual,
			Budget: monthly.Mul(months),
		})
	}
	return reports, nil
}

// AnnualCategoryReportsFrom reports decisions against the period containing
// the latest decision date.
func (r *Reporter) AnnualCategoryReportsFrom(decisions []model.Decision) ([]AnnualCategoryReport, error) {
	if len(decisions) == 0 {
		return nil, nil
	}
	_, last := DateSpan(decisions)
	period, err := r.budgets.BudgetFor(last)
	if err != nil {
		return nil, err
	}
	return r.AnnualCategoryReportsFor(period, decisions)
}

// AnnualCategoryReportsFor reports decisions against period. Each row carries
// the budget so far (monthly times the cycles elapsed up to the latest
// decision) and the full annual budget (monthly times twelve).
func (r *Reporter) AnnualCategoryReportsFor(period model.AnnualBudget, decisions []model.Decision) ([]AnnualCategoryReport, error) {
	if len(decisions) == 0 {
		return nil, nil
	}
	_, last := DateSpan(decisions)
	groups, err := groupDecisions(period, decisions)
	if err != nil {
		return nil, err
	}

	elapsed := decimal.NewFromInt(int64(MonthsElapsed(period, last)))
	year := decimal.NewFromInt(monthsPerYear)
	var reports []AnnualCategoryReport
	index := make(map[string]int)
	for _, g := range groups {
		monthly, ok := period.Monthly[g.key]
		if !ok {
			return nil, fmt.Errorf("%w: %s in period starting %s",
				budgets.ErrNotBudgeted, g.key, period.StartInclusive.Format(model.DateFormat))
		}
		i, ok := index[g.key.Category]
		if !ok {
			i = len(reports)
			index[g.key.Category] = i
			reports = append(reports, AnnualCategoryReport{Title: g.key.Category})
		}
		reports[i].Data = append(reports[i].Data, AnnualDataItem{
			Name:         g.key.SubCategory,
			Actual:       g.actual,
			BudgetSoFar:  monthly.Mul(elapsed),
			AnnualBudget: monthly.Mul(year),
		})
	}
	return reports, nil
}

// OverviewFrom sums every row of every category into one Overview row.
func OverviewFrom(reports []CategoryReport) DataItem {
	o := DataItem{Name: OverviewName, Actual: decimal.Zero, Budget: decimal.Zero}
	for _, c := range reports {
		for _, row := range c.Data {
			o.Actual = o.Actual.Add(row.Actual)
			o.Budget = o.Budget.Add(row.Budget)
		}
	}
	return o
}

// AnnualOverviewFrom sums annual rows into one Overview row.
func AnnualOverviewFrom(reports []AnnualCategoryReport) AnnualDataItem {
	o := AnnualDataItem{Name: OverviewName, Actual: decimal.Zero, BudgetSoFar: decimal.Zero, AnnualBudget: decimal.Zero}
	for _, c := range reports {
		for _, row := range c.Data {
			o.Actual = o.Actual.Add(row.Actual)
			o.BudgetSoFar = o.BudgetSoFar.Add(row.BudgetSoFar)
			o.AnnualBudget = o.AnnualBudget.Add(row.AnnualBudget)
		}
	}
	return o
}

// AggregatedOverviewFrom adds the current overview's actual to the actuals of
// the earlier months of the same budget period and compares the total with
// the period's monthly budget prorated over the cycles elapsed by lastTxnDate.
func (r *Reporter) AggregatedOverviewFrom(overview DataItem, firstTxnDate, lastTxnDate time.Time, historical []DataItem) (AggregatedOverview, error) {
	if firstTxnDate.After(lastTxnDate) {
		return AggregatedOverview{}, fmt.Errorf("first transaction date %s is after last transaction date %s",
			firstTxnDate.Format(model.DateFormat), lastTxnDate.Format(model.DateFormat))
	}
	period, err := r.budgets.BudgetFor(lastTxnDate)
	if err != nil {
		return AggregatedOverview{}, err
	}

	actual := overview.Actual
	for _, h := range historical {
		actual = actual.Add(h.Actual)
	}

	months := MonthsElapsed(period, lastTxnDate)
	return AggregatedOverview{
		Name:          AggregatedOverviewName,
		Actual:        actual,
		Budget:        period.MonthlyTotal().Mul(decimal.NewFromInt(int64(months))),
		MonthsElapsed: months,
	}, nil
}

// CycleBoundary returns the year and month of the next occurrence of the
// anchor day at or after date. A date on or before the anchor day stays in
// its own month; a later date rolls to the following month.
func CycleBoundary(date time.Time, anchorDay int) (int, time.Month) {
	if date.Day() <= anchorDay {
		return date.Year(), date.Month()
	}
	if date.Month() == time.December {
		return date.Year() + 1, time.January
	}
	return date.Year(), date.Month() + 1
}

// MonthsElapsed counts the whole budget cycles between the period start and
// the cycle boundary of date, clamped to [0, 12].
func MonthsElapsed(period model.AnnualBudget, date time.Time) int {
	start := period.StartInclusive
	year, month := CycleBoundary(date, period.AnchorDay())
	months := (year-start.Year())*monthsPerYear + int(month) - int(start.Month())
	switch {
	case months < 0:
		return 0
	case months > monthsPerYear:
		return monthsPerYear
	}
	return months
}

// DateSpan returns the earliest and latest line dates of decisions.
func DateSpan(decisions []model.Decision) (first, last time.Time) {
	for i, d := range decisions {
		if i == 0 || d.Line.Date.Before(first) {
			first = d.Line.Date
		}
		if i == 0 || d.Line.Date.After(last) {
			last = d.Line.Date
		}
	}
	return first, last
}

// group is the rounded sum of one subcategory.
type group struct {
	key    model.SubCategoryKey
	actual decimal.Decimal
}

// groupDecisions sums amounts per subcategory. Groups follow the period's
// budget order; subcategories missing from the budget follow, sorted, so the
// caller's budget lookup reports them.
func groupDecisions(period model.AnnualBudget, decisions []model.Decision) ([]group, error) {
	sums := make(map[model.SubCategoryKey]decimal.Decimal)
	for i, d := range decisions {
		if !d.Resolved() {
			return nil, fmt.Errorf("%w: decision %d (%s) is unresolved", ErrInconsistentState, i, d.Line.Merchant)
		}
		sums[d.Key()] = sums[d.Key()].Add(d.Line.Amount)
	}

	groups := make([]group, 0, len(sums))
	for _, key := range period.Order {
		if sum, ok := sums[key]; ok {
			groups = append(groups, group{key: key, actual: sum.Round(2)})
			delete(sums, key)
		}
	}

	rest := make([]model.SubCategoryKey, 0, len(sums))
	for key := range sums {
		rest = append(rest, key)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	for _, key := range rest {
		groups = append(groups, group{key: key, actual: sums[key].Round(2)})
	}
	return groups, nil
}
