package mappings

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// Header is the CSV header for mappings.csv.
const Header = "merchant_fragment,category,subcategory"

const (
	numFields      = 3
	colFragment    = 0
	colCategory    = 1
	colSubCategory = 2
)

// FilePath is the location of the CSV log relative to the data directory.
var FilePath = filepath.Join("mappings", "mappings.csv")

// FileStore keeps mappings in a CSV file. Writers are serialised and the
// loaded list is cached until the file changes, so appends made by another
// process (such as `mappings add` next to `serve`) are picked up.
type FileStore struct {
	path string

	mu     sync.Mutex
	cache  []model.CategoryMapping
	stamp  fileStamp
	loaded bool
}

// fileStamp identifies a version of the mappings file.
type fileStamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (f fileStamp) equal(o fileStamp) bool {
	return f.exists == o.exists && f.size == o.size && f.modTime.Equal(o.modTime)
}

func (s *FileStore) statFile() (fileStamp, error) {
	fi, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return fileStamp{}, nil
	}
	if err != nil {
		return fileStamp{}, fmt.Errorf("checking mappings: %w", err)
	}
	return fileStamp{exists: true, size: fi.Size(), modTime: fi.ModTime()}, nil
}

// NewFileStore returns a FileStore for <dataDir>/mappings/mappings.csv.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{path: filepath.Join(dataDir, FilePath)}
}

// MarshalMapping converts a mapping to a CSV row.
func MarshalMapping(m model.CategoryMapping) []string {
	row := make([]string, numFields)
	row[colFragment] = m.MerchantFragment
	row[colCategory] = m.Category
	row[colSubCategory] = m.SubCategory
	return row
}

// UnmarshalMapping converts a CSV row to a mapping.
func UnmarshalMapping(record []string) (model.CategoryMapping, error) {
	if len(record) != numFields {
		return model.CategoryMapping{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	m := model.CategoryMapping{
		MerchantFragment: record[colFragment],
		Category:         record[colCategory],
		SubCategory:      record[colSubCategory],
	}
	if err := Validate(m); err != nil {
		return model.CategoryMapping{}, err
	}
	return m, nil
}

// Append writes m to the end of the log, creating the file and header if needed.
func (s *FileStore) Append(_ context.Context, m model.CategoryMapping) error {
	if err := Validate(m); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating mappings dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening mappings: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.Write(MarshalMapping(m)); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing mappings: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing mappings: %w", err)
	}

	s.cache, s.loaded = nil, false
	return nil
}

// LoadAll returns every mapping in append order. A missing file is an empty log.
func (s *FileStore) LoadAll(_ context.Context) ([]model.CategoryMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp, err := s.statFile()
	if err != nil {
		return nil, err
	}
	if !s.loaded || !stamp.equal(s.stamp) {
		ms, err := s.read()
		if err != nil {
			return nil, err
		}
		s.cache, s.stamp, s.loaded = ms, stamp, true
	}

	out := make([]model.CategoryMapping, len(s.cache))
	copy(out, s.cache)
	return out, nil
}

func (s *FileStore) read() ([]model.CategoryMapping, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening mappings: %w", err)
	}
	defer f.Close()

	return readMappings(f)
}

func readMappings(r io.Reader) ([]model.CategoryMapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading mappings CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var ms []model.CategoryMapping
	for i, rec := range records[1:] {
		m, err := UnmarshalMapping(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		ms = append(ms, m)
	}
	return ms, nil
}
