package categories

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/budgetbook/internal/model"
)

const (
	numFields      = 2
	colCategory    = 0
	colSubCategory = 1
)

var header = []string{"category", "subcategory"}

// ReadSchema reads categories.csv into categories, preserving file order.
// Each row names one subcategory of a category.
func ReadSchema(r io.Reader) ([]model.Category, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading categories CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var cats []model.Category
	index := make(map[string]int)
	seen := make(map[model.SubCategoryKey]bool)
	for i, rec := range records[1:] {
		cat, sub := rec[colCategory], rec[colSubCategory]
		if cat == "" || sub == "" {
			return nil, fmt.Errorf("row %d: category and subcategory are required", i+2)
		}
		key := model.SubCategoryKey{Category: cat, SubCategory: sub}
		if seen[key] {
			return nil, fmt.Errorf("row %d: duplicate subcategory %s", i+2, key)
		}
		seen[key] = true

		idx, ok := index[cat]
		if !ok {
			idx = len(cats)
			index[cat] = idx
			cats = append(cats, model.Category{Name: cat})
		}
		cats[idx].SubCategories = append(cats[idx].SubCategories, model.SubCategory{Name: sub, Category: cat})
	}
	return cats, nil
}

// WriteSchema writes categories.csv, one row per subcategory.
func WriteSchema(w io.Writer, cats []model.Category) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, c := range cats {
		for _, s := range c.SubCategories {
			if err := cw.Write([]string{c.Name, s.Name}); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	return cw.Error()
}
