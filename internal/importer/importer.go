// Package importer turns bank exports into normalized statement lines.
//
// Each bank has its own layout, date format and sign convention; a Normalizer
// hides those differences and emits model.Line values where positive amounts
// are expenses.
package importer

import (
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// ErrMalformedLine is returned for rows that cannot be parsed.
var ErrMalformedLine = errors.New("malformed statement line")

// Normalizer converts one bank's export into normalized lines.
type Normalizer interface {
	Normalize(r io.Reader) ([]model.Line, error)
	Format() string
}

// Registry holds named normalizers.
type Registry struct {
	normalizers map[string]Normalizer
}

// NewRegistry creates an empty normalizer registry.
func NewRegistry() *Registry {
	return &Registry{normalizers: make(map[string]Normalizer)}
}

// Register adds a normalizer. Panics on duplicate format.
func (r *Registry) Register(n Normalizer) {
	key := strings.ToLower(n.Format())
	if _, ok := r.normalizers[key]; ok {
		panic("duplicate normalizer format: " + key)
	}
	r.normalizers[key] = n
}

// Get returns the normalizer for format, or nil.
func (r *Registry) Get(format string) Normalizer {
	return r.normalizers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.normalizers))
	for f := range r.normalizers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// DefaultRegistry returns a registry with all built-in normalizers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&LinesNormalizer{})
	r.Register(&ChaseNormalizer{})
	return r
}

// sanitizeMerchant trims and collapses runs of whitespace.
func sanitizeMerchant(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
