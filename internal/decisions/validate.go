package decisions

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// ValidationError describes a single invalid decision.
type ValidationError struct {
	Index       int
	Merchant    string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("decision %d [%s]: %s", e.Index, e.Merchant, e.Description)
}

// ValidationErrors is returned by Store.Write when a batch is rejected.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// CategoryChecker tests whether a subcategory exists in the category schema.
type CategoryChecker interface {
	Exists(category, sub string) bool
}

// ValidateDecisions checks a batch before it is persisted: every decision is
// either fully resolved or fully unresolved, resolved decisions name a known
// subcategory, and merchants are non-empty.
func ValidateDecisions(decisions []model.Decision, categories CategoryChecker) []ValidationError {
	var errs []ValidationError
	for i, d := range decisions {
		if strings.TrimSpace(d.Line.Merchant) == "" {
			errs = append(errs, ValidationError{Index: i, Description: "empty merchant"})
		}
		if d.Line.Date.IsZero() {
			errs = append(errs, ValidationError{Index: i, Merchant: d.Line.Merchant, Description: "missing date"})
		}
		if !d.Valid() {
			errs = append(errs, ValidationError{
				Index:       i,
				Merchant:    d.Line.Merchant,
				Description: fmt.Sprintf("partial decision %q/%q", d.Category, d.SubCategory),
			})
			continue
		}
		if d.Resolved() && !categories.Exists(d.Category, d.SubCategory) {
			errs = append(errs, ValidationError{
				Index:       i,
				Merchant:    d.Line.Merchant,
				Description: fmt.Sprintf("unknown subcategory %s", d.Key()),
			})
		}
	}
	return errs
}
