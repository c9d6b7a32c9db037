package decisions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budgetbook/internal/model"
)

type mockCategories map[model.SubCategoryKey]bool

func newMockCategories(pairs ...string) mockCategories {
	m := make(mockCategories)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[model.SubCategoryKey{Category: pairs[i], SubCategory: pairs[i+1]}] = true
	}
	return m
}

func (m mockCategories) Exists(category, sub string) bool {
	return m[model.SubCategoryKey{Category: category, SubCategory: sub}]
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decision(d time.Time, merchant, amount, cat, sub string) model.Decision {
	return model.Decision{
		Line:        model.Line{Date: d, Merchant: merchant, Amount: dec(amount)},
		Category:    cat,
		SubCategory: sub,
	}
}
