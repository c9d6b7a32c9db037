package uploads

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/budgetbook/internal/model"
)

func sampleLines() []model.Line {
	return []model.Line{
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Merchant: "LIDL, BERLIN", Amount: decimal.RequireFromString("12.40")},
		{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Merchant: "REFUND", Amount: decimal.RequireFromString("-3")},
	}
}

func TestSaveLoadRemove(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	id, err := s.Save(sampleLines())
	require.NoError(t, err)
	assert.True(t, Valid(id))
	assert.True(t, s.Exists(id))
	assert.FileExists(t, filepath.Join(dir, Dir, id+".csv"))

	lines, err := s.Load(id)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "LIDL, BERLIN", lines[0].Merchant)
	assert.True(t, lines[0].Amount.Equal(decimal.RequireFromString("12.40")))
	assert.True(t, lines[1].Amount.IsNegative())

	require.NoError(t, s.Remove(id))
	assert.False(t, s.Exists(id))
	require.NoError(t, s.Remove(id))

	_, err = s.Load(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveGeneratesDistinctIDs(t *testing.T) {
	s := NewStore(t.TempDir())
	a, err := s.Save(sampleLines())
	require.NoError(t, err)
	b, err := s.Save(sampleLines())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLoadRejectsNonUUIDs(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.csv"), []byte("2024-01-01,X,1\n"), 0o644))

	for _, id := range []string{"", "../secret", "not-a-uuid", "../../etc/passwd"} {
		_, err := s.Load(id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		assert.False(t, s.Exists(id))
		assert.ErrorIs(t, s.Remove(id), ErrNotFound)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
	assert.False(t, Valid("1B4E28BA-2FA1-11D2-883F-0016D3CCA427"))
	assert.False(t, Valid("{1b4e28ba-2fa1-11d2-883f-0016d3cca427}"))
	assert.False(t, Valid("nope"))
}
