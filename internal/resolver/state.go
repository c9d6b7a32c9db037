// Package resolver drives a statement from upload to persisted decisions,
// asking for one mapping per unknown merchant. All progress between steps is
// carried in a signed resume token, so any process can serve any step.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// State is a step of the resolution workflow.
type State string

const (
	StateAwaitingUpload       State = "awaiting_upload"
	StateDeciding             State = "deciding"
	StateAllResolved          State = "all_resolved"
	StateMerchantsOutstanding State = "merchants_outstanding"
	StateAwaitingUserMapping  State = "awaiting_user_mapping"
	StateMappingWritten       State = "mapping_written"
)

var (
	// ErrStateLost is returned when a resume token cannot be trusted or its
	// batch is gone. The upload has to be started again.
	ErrStateLost = errors.New("workflow state lost")
	// ErrMalformedBatch is returned for unusable statement uploads.
	ErrMalformedBatch = errors.New("malformed statement batch")
	// ErrMalformedSubmission is returned for rejected mapping submissions.
	ErrMalformedSubmission = errors.New("malformed mapping submission")
)

// Batch identifies the statement being resolved and its parked lines.
type Batch struct {
	Meta   model.StatementMetadata
	Upload string
}

// Submission is a user-provided mapping for the current merchant.
type Submission struct {
	Fragment    string
	Category    string
	SubCategory string
}

// Mapping converts the submission to a mapping, trimming whitespace.
func (s Submission) Mapping() model.CategoryMapping {
	return model.CategoryMapping{
		MerchantFragment: strings.TrimSpace(s.Fragment),
		Category:         strings.TrimSpace(s.Category),
		SubCategory:      strings.TrimSpace(s.SubCategory),
	}
}

// Prompt asks for a mapping for Merchant.
type Prompt struct {
	Token     string
	Batch     Batch
	Merchant  string
	Remaining []string
}

// Outcome is where a workflow step left the batch: either AllResolved with
// the number of persisted decisions, or AwaitingUserMapping with a Prompt.
type Outcome struct {
	State     State
	Batch     Batch
	Decisions int
	Prompt    *Prompt
}

// ValidationError describes one rejected submission field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is the list of problems with a submission.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
