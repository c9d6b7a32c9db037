// Package decisions persists finalized decisions in one CSV file per
// (year, month, user, statement) partition.
package decisions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/budgetbook/internal/id"
	"github.com/cleared-dev/budgetbook/internal/model"
)

// ErrInconsistentPartition marks persisted data that no longer agrees with
// the category schema or cannot be parsed.
var ErrInconsistentPartition = errors.New("inconsistent decision partition")

// Dir is the decisions directory relative to the data directory.
const Dir = "decisions"

// yearWindow is the number of months read by ReadForYearStarting.
const yearWindow = 12

// Store reads and writes decision partitions.
type Store struct {
	root       string
	categories CategoryChecker
	locks      *keyedMutex
}

// NewStore creates a Store rooted at <dataDir>/decisions.
func NewStore(dataDir string, categories CategoryChecker) *Store {
	return &Store{
		root:       filepath.Join(dataDir, Dir),
		categories: categories,
		locks:      newKeyedMutex(),
	}
}

// Write validates decisions and replaces the partition identified by meta.
// A second write to the same partition fully replaces the first.
func (s *Store) Write(ctx context.Context, meta model.StatementMetadata, decisions []model.Decision) error {
	if err := id.Validate(meta); err != nil {
		return fmt.Errorf("invalid statement metadata: %w", err)
	}
	if verrs := ValidateDecisions(decisions, s.categories); len(verrs) > 0 {
		return ValidationErrors(verrs)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rel := id.PartitionPath(meta)
	unlock := s.locks.Lock(rel)
	defer unlock()

	path := filepath.Join(s.root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating partition dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+meta.Statement+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp partition: %w", err)
	}
	// No-op once the rename has succeeded.
	defer os.Remove(tmp.Name())

	if err := WriteDecisions(tmp, decisions); err != nil {
		tmp.Close()
		return fmt.Errorf("writing partition %s: %w", meta, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing partition %s: %w", meta, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing partition %s: %w", meta, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing partition %s: %w", meta, err)
	}
	return nil
}

// Path returns the file backing a partition.
func (s *Store) Path(meta model.StatementMetadata) string {
	return filepath.Join(s.root, id.PartitionPath(meta))
}

// Partitions lists every partition of a month, scratch partitions included,
// ordered by user then statement.
func (s *Store) Partitions(ctx context.Context, year, month int) ([]model.StatementMetadata, error) {
	monthDir := id.MonthDir(year, month)
	users, err := os.ReadDir(filepath.Join(s.root, monthDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", monthDir, err)
	}

	var metas []model.StatementMetadata
	for _, u := range users {
		if !u.IsDir() || strings.HasPrefix(u.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := os.ReadDir(filepath.Join(s.root, monthDir, u.Name()))
		if err != nil {
			return nil, fmt.Errorf("listing %s/%s: %w", monthDir, u.Name(), err)
		}
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".csv") {
				continue
			}
			meta, err := id.ParsePartitionPath(filepath.Join(monthDir, u.Name(), name))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInconsistentPartition, err)
			}
			metas = append(metas, meta)
		}
	}

	sort.Slice(metas, func(i, j int) bool {
		if metas[i].User != metas[j].User {
			return metas[i].User < metas[j].User
		}
		return metas[i].Statement < metas[j].Statement
	})
	return metas, nil
}

// ReadPartition reads one partition. Decisions naming a subcategory that is
// not in the schema fail with ErrInconsistentPartition.
func (s *Store) ReadPartition(_ context.Context, meta model.StatementMetadata) ([]model.Decision, error) {
	rel := id.PartitionPath(meta)
	f, err := os.Open(filepath.Join(s.root, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening partition %s: %w", meta, err)
	}
	defer f.Close()

	decisions, err := ReadDecisions(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInconsistentPartition, meta, err)
	}
	for i, d := range decisions {
		if d.Resolved() && !s.categories.Exists(d.Category, d.SubCategory) {
			return nil, fmt.Errorf("%w: %s row %d: unknown subcategory %s", ErrInconsistentPartition, meta, i+2, d.Key())
		}
	}
	return decisions, nil
}

// Read returns the decisions of every non-scratch partition of a month.
func (s *Store) Read(ctx context.Context, year, month int) ([]model.Decision, error) {
	metas, err := s.Partitions(ctx, year, month)
	if err != nil {
		return nil, err
	}

	var all []model.Decision
	for _, meta := range metas {
		if meta.IsScratch() {
			continue
		}
		ds, err := s.ReadPartition(ctx, meta)
		if err != nil {
			return nil, err
		}
		all = append(all, ds...)
	}
	return all, nil
}

// ReadForYearStarting returns the decisions of the twelve months beginning at
// date's year and month, wrapping into the following calendar year. The day
// of date is ignored: a window starting on the 24th still includes the whole
// first month.
func (s *Store) ReadForYearStarting(ctx context.Context, date time.Time) ([]model.Decision, error) {
	months := make([][]model.Decision, yearWindow)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < yearWindow; i++ {
		year, month := id.AddMonths(date.Year(), int(date.Month()), i)
		g.Go(func() error {
			ds, err := s.Read(gctx, year, month)
			if err != nil {
				return fmt.Errorf("reading %04d-%02d: %w", year, month, err)
			}
			months[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.Decision
	for _, ds := range months {
		all = append(all, ds...)
	}
	return all, nil
}
