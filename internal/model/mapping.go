package model

import "strings"

// CategoryMapping maps a merchant-name fragment to a category and subcategory.
type CategoryMapping struct {
	MerchantFragment string
	Category         string
	SubCategory      string
}

// Matches reports whether the fragment occurs in merchant. Case-sensitive.
func (m CategoryMapping) Matches(merchant string) bool {
	return m.MerchantFragment != "" && strings.Contains(merchant, m.MerchantFragment)
}
