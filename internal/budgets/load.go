package budgets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// Dir is the budgets directory relative to the data directory.
const Dir = "budgets"

var startDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// File is the JSON document describing one budget period. The period start
// comes from the file name; YearStart and YearEnd are informational.
type File struct {
	YearStart  int            `json:"yearStart,omitempty"`
	YearEnd    int            `json:"yearEnd,omitempty"`
	Categories []FileCategory `json:"categories"`
}

// FileCategory lists the budgeted subcategories of one category.
type FileCategory struct {
	Title         string            `json:"title"`
	SubCategories []FileSubCategory `json:"subcategories"`
}

// FileSubCategory is one monthly budget line.
type FileSubCategory struct {
	Name          string          `json:"name"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
}

// SchemaChecker tests whether a subcategory exists in the category schema.
type SchemaChecker interface {
	Exists(category, sub string) bool
}

// Load reads every *.json file under dir. Each file name must embed the
// period start date as YYYY-MM-DD. When schema is non-nil every budgeted
// subcategory must exist in it.
func Load(dir string, schema SchemaChecker) (*Budgets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading budgets dir: %w", err)
	}

	var periods []model.AnnualBudget
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		period, err := loadFile(filepath.Join(dir, e.Name()), schema)
		if err != nil {
			return nil, fmt.Errorf("budget %s: %w", e.Name(), err)
		}
		periods = append(periods, period)
	}
	return New(periods...)
}

// StartDateFromName extracts the period start embedded in a file name.
func StartDateFromName(name string) (time.Time, error) {
	match := startDatePattern.FindString(filepath.Base(name))
	if match == "" {
		return time.Time{}, fmt.Errorf("no YYYY-MM-DD start date in file name %q", name)
	}
	start, err := time.Parse(model.DateFormat, match)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start date %q: %w", match, err)
	}
	return start, nil
}

func loadFile(path string, schema SchemaChecker) (model.AnnualBudget, error) {
	start, err := StartDateFromName(path)
	if err != nil {
		return model.AnnualBudget{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.AnnualBudget{}, fmt.Errorf("reading: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return model.AnnualBudget{}, fmt.Errorf("parsing: %w", err)
	}
	return f.toBudget(start, schema)
}

func (f File) toBudget(start time.Time, schema SchemaChecker) (model.AnnualBudget, error) {
	b := model.AnnualBudget{
		StartInclusive: start,
		Monthly:        make(map[model.SubCategoryKey]decimal.Decimal),
	}
	for _, c := range f.Categories {
		for _, s := range c.SubCategories {
			key := model.SubCategoryKey{Category: c.Title, SubCategory: s.Name}
			if _, dup := b.Monthly[key]; dup {
				return model.AnnualBudget{}, fmt.Errorf("duplicate subcategory %s", key)
			}
			if schema != nil && !schema.Exists(c.Title, s.Name) {
				return model.AnnualBudget{}, fmt.Errorf("subcategory %s is not in the category schema", key)
			}
			if s.MonthlyBudget.IsNegative() {
				return model.AnnualBudget{}, fmt.Errorf("negative monthly budget for %s", key)
			}
			b.Monthly[key] = s.MonthlyBudget
			b.Order = append(b.Order, key)
		}
	}
	return b, nil
}

// NewFile builds the JSON document for a period, in the order of b.Order.
func NewFile(b model.AnnualBudget) File {
	f := File{YearStart: b.StartInclusive.Year(), YearEnd: b.EndExclusive().Year()}
	index := make(map[string]int)
	for _, key := range b.Order {
		i, ok := index[key.Category]
		if !ok {
			i = len(f.Categories)
			index[key.Category] = i
			f.Categories = append(f.Categories, FileCategory{Title: key.Category})
		}
		f.Categories[i].SubCategories = append(f.Categories[i].SubCategories,
			FileSubCategory{Name: key.SubCategory, MonthlyBudget: b.Monthly[key]})
	}
	return f
}

// Save writes b as <dir>/budget-<start>.json.
func Save(dir string, b model.AnnualBudget) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating budgets dir: %w", err)
	}
	data, err := json.MarshalIndent(NewFile(b), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding budget: %w", err)
	}
	name := fmt.Sprintf("budget-%s.json", b.StartInclusive.Format(model.DateFormat))
	if err := os.WriteFile(filepath.Join(dir, name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing budget: %w", err)
	}
	return nil
}
