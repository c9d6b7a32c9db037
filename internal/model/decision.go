package model

// Decision is the categorization outcome for a single Line. Both Category and
// SubCategory are empty while a decision is still required, and both are set
// once it is resolved.
type Decision struct {
	Line        Line
	Category    string
	SubCategory string
}

// Resolved reports whether the decision carries a category and subcategory.
func (d Decision) Resolved() bool {
	return d.Category != "" && d.SubCategory != ""
}

// Unresolved reports whether the decision still needs a mapping.
func (d Decision) Unresolved() bool {
	return d.Category == "" && d.SubCategory == ""
}

// Valid reports whether the decision is either fully resolved or fully
// unresolved.
func (d Decision) Valid() bool {
	return d.Resolved() || d.Unresolved()
}

// Key returns the subcategory key of a resolved decision.
func (d Decision) Key() SubCategoryKey {
	return SubCategoryKey{Category: d.Category, SubCategory: d.SubCategory}
}
