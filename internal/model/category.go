package model

// Category is a top-level budget category with its enumerated subcategories.
type Category struct {
	Name          string
	SubCategories []SubCategory
}

// SubCategory belongs to exactly one Category. Category holds the owner's
// name and is only used for lookups.
type SubCategory struct {
	Name     string
	Category string
}

// Key returns the lookup key of the subcategory.
func (s SubCategory) Key() SubCategoryKey {
	return SubCategoryKey{Category: s.Category, SubCategory: s.Name}
}

// SubCategoryKey identifies a subcategory within its category.
type SubCategoryKey struct {
	Category    string
	SubCategory string
}

func (k SubCategoryKey) String() string {
	return k.Category + "/" + k.SubCategory
}
