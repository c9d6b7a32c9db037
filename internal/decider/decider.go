// Package decider classifies statement lines against merchant mappings.
package decider

import "github.com/cleared-dev/budgetbook/internal/model"

// Process returns one decision per line, in line order. A line is resolved by
// the first mapping, in list order, whose fragment occurs in its merchant;
// lines without a match get an unresolved decision.
func Process(mappings []model.CategoryMapping, lines []model.Line) []model.Decision {
	decisions := make([]model.Decision, len(lines))
	for i, line := range lines {
		decisions[i] = decide(mappings, line)
	}
	return decisions
}

func decide(mappings []model.CategoryMapping, line model.Line) model.Decision {
	for _, m := range mappings {
		if m.Matches(line.Merchant) {
			return model.Decision{Line: line, Category: m.Category, SubCategory: m.SubCategory}
		}
	}
	return model.Decision{Line: line}
}

// Unresolved returns the decisions that still need a mapping.
func Unresolved(decisions []model.Decision) []model.Decision {
	var out []model.Decision
	for _, d := range decisions {
		if d.Unresolved() {
			out = append(out, d)
		}
	}
	return out
}

// UnknownMerchants returns the distinct merchants of unresolved decisions in
// first-seen order.
func UnknownMerchants(decisions []model.Decision) []string {
	seen := make(map[string]bool)
	var merchants []string
	for _, d := range decisions {
		if !d.Unresolved() || seen[d.Line.Merchant] {
			continue
		}
		seen[d.Line.Merchant] = true
		merchants = append(merchants, d.Line.Merchant)
	}
	return merchants
}
