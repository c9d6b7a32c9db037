package report

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// amount renders money in report payloads with exactly two decimals.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(decimal.Decimal(a).StringFixed(2))
}

// DataItem is one actual-vs-budget row.
type DataItem struct {
	Name   string          `json:"name"`
	Actual decimal.Decimal `json:"actual"`
	Budget decimal.Decimal `json:"budget"`
}

func (d DataItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string `json:"name"`
		Actual amount `json:"actual"`
		Budget amount `json:"budget"`
	}{d.Name, amount(d.Actual), amount(d.Budget)})
}

// CategoryReport groups the rows of one category.
type CategoryReport struct {
	Title string     `json:"title"`
	Data  []DataItem `json:"data"`
}

// AnnualDataItem is one row of an annual report.
type AnnualDataItem struct {
	Name         string          `json:"name"`
	Actual       decimal.Decimal `json:"actual"`
	BudgetSoFar  decimal.Decimal `json:"budgetSoFar"`
	AnnualBudget decimal.Decimal `json:"annualBudget"`
}

func (d AnnualDataItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name         string `json:"name"`
		Actual       amount `json:"actual"`
		BudgetSoFar  amount `json:"budgetSoFar"`
		AnnualBudget amount `json:"annualBudget"`
	}{d.Name, amount(d.Actual), amount(d.BudgetSoFar), amount(d.AnnualBudget)})
}

// AnnualCategoryReport groups the annual rows of one category.
type AnnualCategoryReport struct {
	Title string           `json:"title"`
	Data  []AnnualDataItem `json:"data"`
}

// AggregatedOverview compares the running total of a budget period with the
// budget prorated to the cycles elapsed so far.
type AggregatedOverview struct {
	Name          string          `json:"name"`
	Actual        decimal.Decimal `json:"actual"`
	Budget        decimal.Decimal `json:"budget"`
	MonthsElapsed int             `json:"monthsElapsed"`
}

func (o AggregatedOverview) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name          string `json:"name"`
		Actual        amount `json:"actual"`
		Budget        amount `json:"budget"`
		MonthsElapsed int    `json:"monthsElapsed"`
	}{o.Name, amount(o.Actual), amount(o.Budget), o.MonthsElapsed})
}

// Payload is the monthly report document.
type Payload struct {
	Year              int                 `json:"year"`
	Month             int                 `json:"month"`
	AggregateOverview *AggregatedOverview `json:"aggregateOverview"`
	Overview          DataItem            `json:"overview"`
	Categories        []CategoryReport    `json:"categories"`
}

// AnnualPayload is the report document for a whole budget period.
type AnnualPayload struct {
	PeriodStart   string                 `json:"periodStart"`
	PeriodEnd     string                 `json:"periodEnd"`
	MonthsElapsed int                    `json:"monthsElapsed"`
	Overview      AnnualDataItem         `json:"overview"`
	Categories    []AnnualCategoryReport `json:"categories"`
}
