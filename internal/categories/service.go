package categories

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// schemaPath is the location of the schema relative to the data directory.
var schemaPath = filepath.Join("categories", "categories.csv")

// Service provides in-memory lookup over the category schema.
type Service struct {
	categories []model.Category
	byName     map[string]model.Category
	subs       map[model.SubCategoryKey]model.SubCategory
}

// NewService creates a Service from a slice of categories.
func NewService(cats []model.Category) *Service {
	byName := make(map[string]model.Category, len(cats))
	subs := make(map[model.SubCategoryKey]model.SubCategory)
	for _, c := range cats {
		byName[c.Name] = c
		for _, s := range c.SubCategories {
			subs[s.Key()] = s
		}
	}
	return &Service{categories: cats, byName: byName, subs: subs}
}

// Load reads categories/categories.csv from a data directory and returns a Service.
func Load(dataDir string) (*Service, error) {
	path := filepath.Join(dataDir, schemaPath)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening category schema: %w", err)
	}
	defer f.Close()

	cats, err := ReadSchema(f)
	if err != nil {
		return nil, fmt.Errorf("reading category schema: %w", err)
	}
	return NewService(cats), nil
}

// All returns all categories in schema order.
func (s *Service) All() []model.Category {
	return s.categories
}

// Category returns a category by name.
func (s *Service) Category(name string) (model.Category, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// SubCategory returns the named subcategory of category.
func (s *Service) SubCategory(category, sub string) (model.SubCategory, bool) {
	sc, ok := s.subs[model.SubCategoryKey{Category: category, SubCategory: sub}]
	return sc, ok
}

// Exists reports whether sub is a subcategory of category.
func (s *Service) Exists(category, sub string) bool {
	_, ok := s.SubCategory(category, sub)
	return ok
}

// Save writes the schema to categories/categories.csv.
func (s *Service) Save(dataDir string) error {
	path := filepath.Join(dataDir, schemaPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating categories dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating category schema file: %w", err)
	}
	defer f.Close()

	if err := WriteSchema(f, s.categories); err != nil {
		return fmt.Errorf("writing category schema: %w", err)
	}
	return nil
}
