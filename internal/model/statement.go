package model

import (
	"fmt"
	"strings"
)

// ScratchUser is the user whose partitions hold test data.
const ScratchUser = "test"

// StatementMetadata identifies the batch a set of decisions belongs to.
type StatementMetadata struct {
	Year      int
	Month     int
	User      string
	Statement string
}

// IsScratch reports whether the partition holds test or scratch data that
// must not show up in reports.
func (m StatementMetadata) IsScratch() bool {
	return strings.EqualFold(m.User, ScratchUser) || strings.HasPrefix(m.Statement, "_")
}

func (m StatementMetadata) String() string {
	return fmt.Sprintf("%04d-%02d/%s/%s", m.Year, m.Month, m.User, m.Statement)
}
