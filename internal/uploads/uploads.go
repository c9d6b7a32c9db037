// Package uploads parks the normalized lines of a statement while its
// unknown merchants are being resolved.
package uploads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cleared-dev/budgetbook/internal/importer"
	"github.com/cleared-dev/budgetbook/internal/model"
)

// Dir is the uploads directory under the data directory.
const Dir = "uploads"

// ErrNotFound is returned for ids that are malformed or not parked.
var ErrNotFound = errors.New("upload not found")

// Store keeps parked batches as uploads/<uuid>.csv.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{root: filepath.Join(dataDir, Dir)}
}

// Save parks lines and returns the new upload id.
func (s *Store) Save(lines []model.Line) (string, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("creating uploads dir: %w", err)
	}

	id := uuid.NewString()
	f, err := os.OpenFile(s.path(id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating upload %s: %w", id, err)
	}
	if err := importer.WriteLines(f, lines); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing upload %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing upload %s: %w", id, err)
	}
	return id, nil
}

// Load returns the parked lines of id.
func (s *Store) Load(id string) ([]model.Line, error) {
	if !Valid(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", id, err)
	}
	defer f.Close()

	lines, err := importer.ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", id, err)
	}
	return lines, nil
}

// Exists reports whether id names a parked upload.
func (s *Store) Exists(id string) bool {
	if !Valid(id) {
		return false
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Remove deletes a parked upload. Removing a missing upload is not an error.
func (s *Store) Remove(id string) error {
	if !Valid(id) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing upload %s: %w", id, err)
	}
	return nil
}

// Valid reports whether id is a canonical uuid.
func Valid(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, id+".csv")
}
