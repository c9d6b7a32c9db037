// Package events publishes domain events about persisted statements and
// learned mappings.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cleared-dev/budgetbook/internal/model"
)

// Event types, also used as routing keys.
const (
	TypeStatementPersisted = "statement.persisted"
	TypeMappingLearned     = "mapping.learned"
)

// Event is one domain event.
type Event struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurredAt"`
	Year       int                    `json:"year"`
	Month      int                    `json:"month"`
	User       string                 `json:"user"`
	Statement  string                 `json:"statement"`
	Decisions  int                    `json:"decisions,omitempty"`
	Mapping    *model.CategoryMapping `json:"mapping,omitempty"`
}

// StatementPersisted builds the event emitted after a partition write.
func StatementPersisted(meta model.StatementMetadata, decisions int) Event {
	return Event{
		Type:       TypeStatementPersisted,
		OccurredAt: time.Now().UTC(),
		Year:       meta.Year,
		Month:      meta.Month,
		User:       meta.User,
		Statement:  meta.Statement,
		Decisions:  decisions,
	}
}

// MappingLearned builds the event emitted after a mapping is appended.
func MappingLearned(meta model.StatementMetadata, m model.CategoryMapping) Event {
	return Event{
		Type:       TypeMappingLearned,
		OccurredAt: time.Now().UTC(),
		Year:       meta.Year,
		Month:      meta.Month,
		User:       meta.User,
		Statement:  meta.Statement,
		Mapping:    &m,
	}
}

// ToJSON encodes the event as a message body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes a message body.
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records e.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
