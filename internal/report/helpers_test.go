package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/budgetbook/internal/budgets"
	"github.com/cleared-dev/budgetbook/internal/id"
	"github.com/cleared-dev/budgetbook/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func decision(d time.Time, merchant, amount, cat, sub string) model.Decision {
	return model.Decision{
		Line:        model.Line{Date: d, Merchant: merchant, Amount: dec(amount)},
		Category:    cat,
		SubCategory: sub,
	}
}

// period builds a budget from (category, subcategory, monthly) triples,
// keeping their order.
func period(start time.Time, triples ...string) model.AnnualBudget {
	b := model.AnnualBudget{StartInclusive: start, Monthly: make(map[model.SubCategoryKey]decimal.Decimal)}
	for i := 0; i+2 < len(triples); i += 3 {
		key := model.SubCategoryKey{Category: triples[i], SubCategory: triples[i+1]}
		b.Order = append(b.Order, key)
		b.Monthly[key] = dec(triples[i+2])
	}
	return b
}

func newBudgets(t *testing.T, periods ...model.AnnualBudget) *budgets.Budgets {
	t.Helper()
	b, err := budgets.New(periods...)
	require.NoError(t, err)
	return b
}

type monthKey struct{ year, month int }

type fakeReader struct {
	months map[monthKey][]model.Decision
	err    error
}

func (f *fakeReader) Read(_ context.Context, year, month int) ([]model.Decision, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.months[monthKey{year, month}], nil
}

func (f *fakeReader) ReadForYearStarting(ctx context.Context, d time.Time) ([]model.Decision, error) {
	var all []model.Decision
	for i := 0; i < 12; i++ {
		y, m := id.AddMonths(d.Year(), int(d.Month()), i)
		ds, err := f.Read(ctx, y, m)
		if err != nil {
			return nil, err
		}
		all = append(all, ds...)
	}
	return all, nil
}

var errDisk = errors.New("disk on fire")
