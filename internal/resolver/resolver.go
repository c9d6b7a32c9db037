package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/budgetbook/internal/decider"
	"github.com/cleared-dev/budgetbook/internal/events"
	"github.com/cleared-dev/budgetbook/internal/id"
	"github.com/cleared-dev/budgetbook/internal/mappings"
	"github.com/cleared-dev/budgetbook/internal/model"
	"github.com/cleared-dev/budgetbook/internal/uploads"
)

// DecisionWriter persists a statement partition.
type DecisionWriter interface {
	Write(ctx context.Context, meta model.StatementMetadata, decisions []model.Decision) error
}

// UploadStore parks batch lines between steps.
type UploadStore interface {
	Save(lines []model.Line) (string, error)
	Load(id string) ([]model.Line, error)
	Exists(id string) bool
	Remove(id string) error
}

// CategoryChecker reports whether a category/subcategory pair exists.
type CategoryChecker interface {
	Exists(category, sub string) bool
}

// Committer records persisted data, e.g. in git.
type Committer interface {
	Commit(ctx context.Context, message string, paths ...string) (string, error)
}

// Deps are the collaborators of a Resolver. Committer may be nil.
type Deps struct {
	Mappings   mappings.Store
	Decisions  DecisionWriter
	Uploads    UploadStore
	Categories CategoryChecker
	Events     events.Publisher
	Committer  Committer
}

// Resolver runs the unknown-merchant workflow.
type Resolver struct {
	deps  Deps
	codec *Codec
	log   zerolog.Logger
}

// New creates a Resolver. A nil Events publisher discards events.
func New(deps Deps, codec *Codec, log zerolog.Logger) *Resolver {
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	return &Resolver{
		deps:  deps,
		codec: codec,
		log:   log.With().Str("component", "resolver").Logger(),
	}
}

// Start parks the lines of a new statement and decides them.
func (r *Resolver) Start(ctx context.Context, meta model.StatementMetadata, lines []model.Line) (Outcome, error) {
	if err := id.Validate(meta); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}
	if len(lines) == 0 {
		return Outcome{}, fmt.Errorf("%w: statement %s has no lines", ErrMalformedBatch, meta)
	}

	upload, err := r.deps.Uploads.Save(lines)
	if err != nil {
		return Outcome{}, err
	}
	batch := Batch{Meta: meta, Upload: upload}
	r.log.Info().
		Str("statement", meta.String()).
		Str("upload", upload).
		Int("lines", len(lines)).
		Str("state", string(StateAwaitingUpload)).
		Msg("statement uploaded")

	return r.decide(ctx, batch, lines)
}

// Resume returns the prompt encoded in a token.
func (r *Resolver) Resume(tok string) (Prompt, error) {
	t, err := r.load(tok)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Token: tok, Batch: t.batch(), Merchant: t.Current, Remaining: t.Remaining}, nil
}

// Submit records a mapping for the token's current merchant. A rejected
// submission writes nothing and leaves the token valid. Once no merchant is
// left the whole batch is decided again with the learned mappings.
func (r *Resolver) Submit(ctx context.Context, tok string, sub Submission) (Outcome, error) {
	t, err := r.load(tok)
	if err != nil {
		return Outcome{}, err
	}
	batch := t.batch()

	m := sub.Mapping()
	if errs := r.validate(t.Current, m); len(errs) > 0 {
		return Outcome{}, fmt.Errorf("%w: %w", ErrMalformedSubmission, errs)
	}
	if err := r.deps.Mappings.Append(ctx, m); err != nil {
		return Outcome{}, fmt.Errorf("appending mapping: %w", err)
	}
	r.publish(ctx, events.MappingLearned(batch.Meta, m))
	r.log.Info().
		Str("statement", batch.Meta.String()).
		Str("merchant", t.Current).
		Str("fragment", m.MerchantFragment).
		Str("state", string(StateMappingWritten)).
		Msg("mapping learned")

	if len(t.Remaining) > 0 {
		return r.prompt(batch, t.Remaining[0], t.Remaining[1:])
	}

	lines, err := r.deps.Uploads.Load(batch.Upload)
	if errors.Is(err, uploads.ErrNotFound) {
		return Outcome{}, fmt.Errorf("%w: %v", ErrStateLost, err)
	}
	if err != nil {
		return Outcome{}, err
	}
	return r.decide(ctx, batch, lines)
}

func (r *Resolver) load(tok string) (token, error) {
	t, err := r.codec.decode(tok)
	if err != nil {
		return token{}, err
	}
	if !r.deps.Uploads.Exists(t.Batch.Upload) {
		return token{}, fmt.Errorf("%w: upload %s is gone", ErrStateLost, t.Batch.Upload)
	}
	return t, nil
}

func (r *Resolver) validate(current string, m model.CategoryMapping) ValidationErrors {
	var errs ValidationErrors
	if m.MerchantFragment == "" {
		errs = append(errs, ValidationError{Field: "fragment", Message: "is required"})
	} else if !m.Matches(current) {
		errs = append(errs, ValidationError{Field: "fragment", Message: fmt.Sprintf("does not occur in merchant %q", current)})
	}
	if m.Category == "" {
		errs = append(errs, ValidationError{Field: "category", Message: "is required"})
	}
	if m.SubCategory == "" {
		errs = append(errs, ValidationError{Field: "subcategory", Message: "is required"})
	}
	if m.Category != "" && m.SubCategory != "" && !r.deps.Categories.Exists(m.Category, m.SubCategory) {
		errs = append(errs, ValidationError{Field: "subcategory", Message: fmt.Sprintf("unknown subcategory %s/%s", m.Category, m.SubCategory)})
	}
	if len(errs) == 0 {
		if err := mappings.Validate(m); err != nil {
			errs = append(errs, ValidationError{Field: "mapping", Message: err.Error()})
		}
	}
	return errs
}

// decide classifies the batch with the current mappings. A fully resolved
// batch is persisted; otherwise the first unknown merchant is prompted for.
func (r *Resolver) decide(ctx context.Context, batch Batch, lines []model.Line) (Outcome, error) {
	all, err := r.deps.Mappings.LoadAll(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading mappings: %w", err)
	}
	decisions := decider.Process(all, lines)
	unknown := decider.UnknownMerchants(decisions)

	r.log.Debug().
		Str("statement", batch.Meta.String()).
		Int("decisions", len(decisions)).
		Int("unknown_merchants", len(unknown)).
		Str("state", string(StateDeciding)).
		Msg("batch decided")

	if len(unknown) > 0 {
		r.log.Info().
			Str("statement", batch.Meta.String()).
			Strs("merchants", unknown).
			Str("state", string(StateMerchantsOutstanding)).
			Msg("merchants outstanding")
		return r.prompt(batch, unknown[0], unknown[1:])
	}
	return r.persist(ctx, batch, decisions)
}

func (r *Resolver) prompt(batch Batch, current string, remaining []string) (Outcome, error) {
	tok, err := r.codec.encode(newToken(batch, current, remaining))
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		State: StateAwaitingUserMapping,
		Batch: batch,
		Prompt: &Prompt{
			Token:     tok,
			Batch:     batch,
			Merchant:  current,
			Remaining: remaining,
		},
	}, nil
}

func (r *Resolver) persist(ctx context.Context, batch Batch, decisions []model.Decision) (Outcome, error) {
	if err := r.deps.Decisions.Write(ctx, batch.Meta, decisions); err != nil {
		return Outcome{}, fmt.Errorf("persisting %s: %w", batch.Meta, err)
	}
	if err := r.deps.Uploads.Remove(batch.Upload); err != nil {
		r.log.Warn().Err(err).Str("upload", batch.Upload).Msg("removing parked upload")
	}
	r.publish(ctx, events.StatementPersisted(batch.Meta, len(decisions)))

	if r.deps.Committer != nil {
		hash, err := r.deps.Committer.Commit(ctx, "decisions: "+batch.Meta.String())
		if err != nil {
			r.log.Warn().Err(err).Str("statement", batch.Meta.String()).Msg("committing data dir")
		} else if hash != "" {
			r.log.Debug().Str("commit", hash).Msg("data dir committed")
		}
	}

	r.log.Info().
		Str("statement", batch.Meta.String()).
		Int("decisions", len(decisions)).
		Str("state", string(StateAllResolved)).
		Msg("statement persisted")
	return Outcome{State: StateAllResolved, Batch: batch, Decisions: len(decisions)}, nil
}

func (r *Resolver) publish(ctx context.Context, e events.Event) {
	if err := r.deps.Events.Publish(ctx, e); err != nil {
		r.log.Warn().Err(err).Str("type", e.Type).Msg("publishing event")
	}
}
