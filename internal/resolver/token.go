package resolver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/budgetbook/internal/id"
	"github.com/cleared-dev/budgetbook/internal/model"
	"github.com/cleared-dev/budgetbook/internal/uploads"
)

const tokenVersion = 1

// token is the serialized continuation of a batch awaiting mappings.
type token struct {
	V         int        `json:"v"`
	Batch     tokenBatch `json:"batch"`
	Current   string     `json:"current"`
	Remaining []string   `json:"remaining,omitempty"`
}

type tokenBatch struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	User      string `json:"user"`
	Statement string `json:"statement"`
	Upload    string `json:"upload"`
}

func newToken(b Batch, current string, remaining []string) token {
	return token{
		V: tokenVersion,
		Batch: tokenBatch{
			Year:      b.Meta.Year,
			Month:     b.Meta.Month,
			User:      b.Meta.User,
			Statement: b.Meta.Statement,
			Upload:    b.Upload,
		},
		Current:   current,
		Remaining: remaining,
	}
}

func (t token) batch() Batch {
	return Batch{
		Meta: model.StatementMetadata{
			Year:      t.Batch.Year,
			Month:     t.Batch.Month,
			User:      t.Batch.User,
			Statement: t.Batch.Statement,
		},
		Upload: t.Batch.Upload,
	}
}

// Codec signs and verifies resume tokens. The encoding is
// base64url(json) "." base64url(hmac-sha256(json)).
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec. The secret must not be empty.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	return &Codec{secret: []byte(secret)}, nil
}

func (c *Codec) encode(t token) (string, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding token: %w", err)
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(payload) + "." + enc.EncodeToString(c.sign(payload)), nil
}

func (c *Codec) decode(s string) (token, error) {
	enc := base64.RawURLEncoding
	body, sig, ok := strings.Cut(s, ".")
	if !ok {
		return token{}, fmt.Errorf("%w: token is not signed", ErrStateLost)
	}
	payload, err := enc.DecodeString(body)
	if err != nil {
		return token{}, fmt.Errorf("%w: token payload: %v", ErrStateLost, err)
	}
	mac, err := enc.DecodeString(sig)
	if err != nil {
		return token{}, fmt.Errorf("%w: token signature: %v", ErrStateLost, err)
	}
	if !hmac.Equal(mac, c.sign(payload)) {
		return token{}, fmt.Errorf("%w: token signature mismatch", ErrStateLost)
	}

	var t token
	if err := json.Unmarshal(payload, &t); err != nil {
		return token{}, fmt.Errorf("%w: token payload: %v", ErrStateLost, err)
	}
	if t.V != tokenVersion {
		return token{}, fmt.Errorf("%w: unsupported token version %d", ErrStateLost, t.V)
	}
	if err := id.Validate(t.batch().Meta); err != nil {
		return token{}, fmt.Errorf("%w: %v", ErrStateLost, err)
	}
	if !uploads.Valid(t.Batch.Upload) {
		return token{}, fmt.Errorf("%w: invalid upload id", ErrStateLost)
	}
	if t.Current == "" {
		return token{}, fmt.Errorf("%w: no current merchant", ErrStateLost)
	}
	return t, nil
}

func (c *Codec) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(payload)
	return h.Sum(nil)
}
