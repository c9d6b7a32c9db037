package categories

import "github.com/cleared-dev/budgetbook/internal/model"

// DefaultSchema returns the category schema written by `budgetbook init`.
func DefaultSchema() []model.Category {
	return []model.Category{
		newCategory("Housing", "Rent", "Utilities", "Internet"),
		newCategory("Food", "Groceries", "Eating out"),
		newCategory("Transport", "Public transport", "Fuel"),
		newCategory("Shopping", "Online", "Clothing", "Subscriptions"),
		newCategory("Health", "Pharmacy", "Sport"),
		newCategory("Leisure", "Travel", "Culture"),
		newCategory("Income", "Salary", "Refunds"),
	}
}

func newCategory(name string, subs ...string) model.Category {
	c := model.Category{Name: name}
	for _, s := range subs {
		c.SubCategories = append(c.SubCategories, model.SubCategory{Name: s, Category: name})
	}
	return c
}
