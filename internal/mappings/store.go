// Package mappings persists merchant-fragment to category mappings as an
// append-only log. Read order equals append order, and that order decides
// which mapping wins when several match a merchant.
package mappings

import (
	"context"
	"fmt"
	"strings"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// Store is an append-only log of category mappings.
type Store interface {
	Append(ctx context.Context, m model.CategoryMapping) error
	LoadAll(ctx context.Context) ([]model.CategoryMapping, error)
}

// Validate checks that a mapping is a well-formed triple.
func Validate(m model.CategoryMapping) error {
	fields := []struct {
		name, value string
	}{
		{"merchant fragment", m.MerchantFragment},
		{"category", m.Category},
		{"subcategory", m.SubCategory},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
		if strings.ContainsAny(f.value, "\r\n") {
			return fmt.Errorf("%s must be a single line", f.name)
		}
	}
	return nil
}

// Backends understood by Open.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Open returns the store for backend. The returned close function releases
// any resources held by the backend.
func Open(backend, dataDir, sqlitePath string) (Store, func() error, error) {
	switch backend {
	case BackendCSV, "":
		return NewFileStore(dataDir), func() error { return nil }, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite mappings: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown mappings backend %q", backend)
	}
}
