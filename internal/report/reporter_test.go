package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/budgetbook/internal/budgets"
	"github.com/cleared-dev/budgetbook/internal/model"
)

func TestCategoryReportsFromSumsActuals(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2024, 1, 1), "Food", "Groceries", "10.00")))

	reports, err := r.CategoryReportsFrom([]model.Decision{
		decision(date(2024, 3, 2), "LIDL", "2.00", "Food", "Groceries"),
		decision(date(2024, 3, 9), "ALDI", "3.50", "Food", "Groceries"),
	}, 1)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "Food", reports[0].Title)
	require.Len(t, reports[0].Data, 1)
	assert.Equal(t, "Groceries", reports[0].Data[0].Name)
	assertDec(t, "5.50", reports[0].Data[0].Actual)
	assertDec(t, "10.00", reports[0].Data[0].Budget)
}

func TestCategoryReportsFromRoundsAfterSumming(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2024, 1, 1), "Food", "Groceries", "10")))

	reports, err := r.CategoryReportsFrom([]model.Decision{
		decision(date(2024, 3, 2), "LIDL", "0.004", "Food", "Groceries"),
		decision(date(2024, 3, 3), "LIDL", "0.004", "Food", "Groceries"),
		decision(date(2024, 3, 4), "LIDL", "1.000", "Food", "Groceries"),
	}, 1)
	require.NoError(t, err)

	// 1.008 rounds to 1.01; rounding each line first would give 1.00.
	assertDec(t, "1.01", reports[0].Data[0].Actual)
}

func TestCategoryReportsFromRoundsHalfUp(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2024, 1, 1), "Food", "Groceries", "10")))

	reports, err := r.CategoryReportsFrom([]model.Decision{
		decision(date(2024, 3, 2), "LIDL", "2.125", "Food", "Groceries"),
	}, 1)
	require.NoError(t, err)
	assertDec(t, "2.13", reports[0].Data[0].Actual)
}

func TestCategoryReportsFromMultipliesBudgetByMonths(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2024, 1, 1), "Food", "Groceries", "10.00")))

	reports, err := r.CategoryReportsFrom([]model.Decision{
		decision(date(2024, 3, 2), "LIDL", "2.00", "Food", "Groceries"),
	}, 3)
	require.NoError(t, err)
	assertDec(t, "30.00", reports[0].Data[0].Budget)
}

func TestCategoryReportsFromOrdersByBudgetFile(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2024, 1, 1),
		"Housing", "Rent", "900",
		"Food", "Groceries", "300",
		"Transport", "Fuel", "80",
		"Food", "Eating out", "100",
	)))

	reports, err := r.CategoryReportsFrom([]model.Decision{
		decision(date(2024, 3, 2), "PIZZA", "20", "Food", "Eating out"),
		decision(date(2024, 3, 3), "LIDL", "40", "Food", "Groceries"),
		decision(date(2024, 3, 1), "LANDLORD", "900", "Housing", "Rent"),
	}, 1)
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, "Housing", reports[0].Title)
	assert.Equal(t, "Food", reports[1].Title)
	require.Len(t, reports[1].Data, 2)
	assert.Equal(t, "Groceries", reports[1].Data[0].Name)
	assert.Equal(t, "Eating out", reports[1].Data[1].Name)
}

func TestCategoryReportsFromErrors(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2024, 1, 1), "Food", "Groceries", "10")))

	t.Run("unresolved decision", func(t *testing.T) {
		_, err := r.CategoryReportsFrom([]model.Decision{
			decision(date(2024, 3, 2), "MYSTERY", "2", "", ""),
		}, 1)
		assert.ErrorIs(t, err, ErrInconsistentState)
	})

	t.Run("subcategory not budgeted", func(t *testing.T) {
		_, err := r.CategoryReportsFrom([]model.Decision{
			decision(date(2024, 3, 2), "LIDL", "2", "Food", "Groceries"),
			decision(date(2024, 3, 2), "CINEMA", "12", "Leisure", "Culture"),
		}, 1)
		assert.ErrorIs(t, err, budgets.ErrNotBudgeted)
	})

	t.Run("no budget period", func(t *testing.T) {
		_, err := r.CategoryReportsFrom([]model.Decision{
			decision(date(2023, 3, 2), "LIDL", "2", "Food", "Groceries"),
		}, 1)
		assert.ErrorIs(t, err, budgets.ErrNoBudgetPeriod)
	})

	t.Run("non-positive months", func(t *testing.T) {
		_, err := r.CategoryReportsFrom([]model.Decision{
			decision(date(2024, 3, 2), "LIDL", "2", "Food", "Groceries"),
		}, 0)
		assert.Error(t, err)
	})
}

func TestCategoryReportsFromEmpty(t *testing.T) {
	r := NewReporter(newBudgets(t))
	reports, err := r.CategoryReportsFrom(nil, 1)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestOverviewFrom(t *testing.T) {
	o := OverviewFrom([]CategoryReport{
		{Title: "Food", Data: []DataItem{
			{Name: "Groceries", Actual: dec("5.50"), Budget: dec("10")},
			{Name: "Eating out", Actual: dec("20"), Budget: dec("15")},
		}},
		{Title: "Housing", Data: []DataItem{
			{Name: "Rent", Actual: dec("900"), Budget: dec("900")},
		}},
	})

	assert.Equal(t, OverviewName, o.Name)
	assertDec(t, "925.50", o.Actual)
	assertDec(t, "925", o.Budget)
}

func TestOverviewFromEmpty(t *testing.T) {
	o := OverviewFrom(nil)
	assertDec(t, "0", o.Actual)
	assertDec(t, "0", o.Budget)
}

func TestCycleBoundary(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		anchor    int
		wantYear  int
		wantMonth time.Month
	}{
		{"before anchor", date(2023, 9, 20), 24, 2023, time.September},
		{"on anchor", date(2023, 9, 24), 24, 2023, time.September},
		{"after anchor", date(2023, 9, 25), 24, 2023, time.October},
		{"december wraps", date(2023, 12, 28), 24, 2024, time.January},
		{"december before anchor", date(2023, 12, 2), 24, 2023, time.December},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m := CycleBoundary(tt.date, tt.anchor)
			assert.Equal(t, tt.wantYear, y)
			assert.Equal(t, tt.wantMonth, m)
		})
	}
}

func TestMonthsElapsed(t *testing.T) {
	p := period(date(2023, 6, 24), "Food", "Groceries", "10")

	tests := []struct {
		name string
		last time.Time
		want int
	}{
		{"period start", date(2023, 6, 24), 0},
		{"day after start", date(2023, 6, 25), 1},
		{"before anchor day", date(2023, 9, 20), 3},
		{"on anchor day", date(2023, 9, 24), 3},
		{"after anchor day", date(2023, 9, 25), 4},
		{"december rolls into january", date(2023, 12, 28), 7},
		{"last day of period", date(2024, 6, 23), 12},
		{"before period clamps to zero", date(2023, 5, 1), 0},
		{"after period clamps to twelve", date(2024, 7, 30), 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsElapsed(p, tt.last))
		})
	}
}

func TestAggregatedOverviewFrom(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2023, 6, 24),
		"Food", "Groceries", "10",
		"Housing", "Rent", "100",
	)))

	got, err := r.AggregatedOverviewFrom(
		DataItem{Name: OverviewName, Actual: dec("50"), Budget: dec("110")},
		date(2023, 9, 1), date(2023, 9, 20),
		[]DataItem{{Actual: dec("20")}, {Actual: dec("30")}},
	)
	require.NoError(t, err)

	assert.Equal(t, AggregatedOverviewName, got.Name)
	assert.Equal(t, 3, got.MonthsElapsed)
	assertDec(t, "100", got.Actual)
	assertDec(t, "330", got.Budget)
}

func TestAggregatedOverviewFromCountsCurrentCycleAfterAnchor(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2023, 6, 24), "Food", "Groceries", "10")))

	got, err := r.AggregatedOverviewFrom(DataItem{Actual: dec("5")}, date(2023, 9, 1), date(2023, 9, 25), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, got.MonthsElapsed)
	assertDec(t, "40", got.Budget)
}

func TestMonthsElapsedAnchorDayProration(t *testing.T) {
	p := period(date(2024, 1, 24), "Food", "Groceries", "10")

	// The 20th is before the anchor: March is not complete yet.
	assert.Equal(t, 2, MonthsElapsed(p, date(2024, 3, 20)))
	// The 25th is past the anchor: March counts.
	assert.Equal(t, 3, MonthsElapsed(p, date(2024, 3, 25)))
}

func TestAggregatedOverviewFromErrors(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2023, 6, 24), "Food", "Groceries", "10")))

	_, err := r.AggregatedOverviewFrom(DataItem{}, date(2023, 9, 25), date(2023, 9, 1), nil)
	assert.Error(t, err)

	_, err = r.AggregatedOverviewFrom(DataItem{}, date(2020, 1, 1), date(2020, 1, 2), nil)
	assert.ErrorIs(t, err, budgets.ErrNoBudgetPeriod)
}

func TestAnnualCategoryReportsFrom(t *testing.T) {
	r := NewReporter(newBudgets(t, period(date(2023, 6, 24),
		"Food", "Groceries", "10",
		"Housing", "Rent", "100",
	)))

	reports, err := r.AnnualCategoryReportsFrom([]model.Decision{
		decision(date(2023, 7, 1), "LIDL", "4.25", "Food", "Groceries"),
		decision(date(2023, 9, 20), "LIDL", "6.00", "Food", "Groceries"),
	})
	require.NoError(t, err)

	require.Len(t, reports, 1)
	row := reports[0].Data[0]
	assert.Equal(t, "Groceries", row.Name)
	assertDec(t, "10.25", row.Actual)
	assertDec(t, "30", row.BudgetSoFar)
	assertDec(t, "120", row.AnnualBudget)

	o := AnnualOverviewFrom(reports)
	assertDec(t, "10.25", o.Actual)
	assertDec(t, "30", o.BudgetSoFar)
	assertDec(t, "120", o.AnnualBudget)
}

func TestAnnualBudgetSoFarCountsFromPeriodStart(t *testing.T) {
	p := period(date(2023, 6, 24), "Food", "Groceries", "10")
	r := NewReporter(newBudgets(t, p))

	// The first decision falls late in the period; budget so far still
	// covers every cycle since the period started.
	reports, err := r.AnnualCategoryReportsFor(p, []model.Decision{
		decision(date(2023, 9, 1), "LIDL", "4", "Food", "Groceries"),
		decision(date(2023, 9, 20), "LIDL", "6", "Food", "Groceries"),
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assertDec(t, "30", reports[0].Data[0].BudgetSoFar)
}

func TestAnnualCategoryReportsForNotBudgeted(t *testing.T) {
	p := period(date(2023, 6, 24), "Food", "Groceries", "10")
	r := NewReporter(newBudgets(t, p))

	_, err := r.AnnualCategoryReportsFor(p, []model.Decision{
		decision(date(2023, 7, 1), "CINEMA", "12", "Leisure", "Culture"),
	})
	assert.ErrorIs(t, err, budgets.ErrNotBudgeted)
}

func TestDateSpan(t *testing.T) {
	first, last := DateSpan([]model.Decision{
		decision(date(2024, 3, 9), "B", "1", "Food", "Groceries"),
		decision(date(2024, 3, 2), "A", "1", "Food", "Groceries"),
		decision(date(2024, 3, 20), "C", "1", "Food", "Groceries"),
	})
	assert.Equal(t, date(2024, 3, 2), first)
	assert.Equal(t, date(2024, 3, 20), last)
}
