// Package id formats and parses statement partition identifiers.
package id

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// partitionExt is the file extension of a decision partition.
const partitionExt = ".csv"

// ValidateName checks that a user or statement name can be used as a single
// path element. Leading dots are rejected: partition listing skips hidden
// entries and temp files start with a dot.
func ValidateName(kind, name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%s is required", kind)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%s %q must not start with a dot", kind, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%s %q must not contain path separators", kind, name)
	case strings.ContainsAny(name, "\x00\r\n"):
		return fmt.Errorf("%s %q contains control characters", kind, name)
	}
	return nil
}

// Validate checks every component of a statement's metadata.
func Validate(meta model.StatementMetadata) error {
	if meta.Year < 1 || meta.Year > 9999 {
		return fmt.Errorf("invalid year %d", meta.Year)
	}
	if meta.Month < 1 || meta.Month > 12 {
		return fmt.Errorf("invalid month %d", meta.Month)
	}
	if err := ValidateName("user", meta.User); err != nil {
		return err
	}
	return ValidateName("statement", meta.Statement)
}

// MonthDir returns "YYYY/MM".
func MonthDir(year, month int) string {
	return filepath.Join(fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
}

// PartitionPath returns "YYYY/MM/<user>/<statement>.csv".
func PartitionPath(meta model.StatementMetadata) string {
	return filepath.Join(MonthDir(meta.Year, meta.Month), meta.User, meta.Statement+partitionExt)
}

// ParsePartitionPath parses a path produced by PartitionPath.
func ParsePartitionPath(rel string) (model.StatementMetadata, error) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 || !strings.HasSuffix(parts[3], partitionExt) {
		return model.StatementMetadata{}, fmt.Errorf("invalid partition path %q", rel)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return model.StatementMetadata{}, fmt.Errorf("invalid year in partition path %q: %w", rel, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.StatementMetadata{}, fmt.Errorf("invalid month in partition path %q: %w", rel, err)
	}

	meta := model.StatementMetadata{
		Year:      year,
		Month:     month,
		User:      parts[2],
		Statement: strings.TrimSuffix(parts[3], partitionExt),
	}
	if err := Validate(meta); err != nil {
		return model.StatementMetadata{}, fmt.Errorf("partition path %q: %w", rel, err)
	}
	return meta, nil
}

// AddMonths shifts (year, month) by n months, wrapping across years.
func AddMonths(year, month, n int) (int, int) {
	idx := year*12 + (month - 1) + n
	return idx / 12, idx%12 + 1
}
