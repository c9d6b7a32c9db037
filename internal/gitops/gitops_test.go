package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitLog(t *testing.T, dir, format string) string {
	t.Helper()
	cmd := exec.Command("git", "log", "--format="+format, "-1")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return string(out)
}

func TestInitAndIsRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))

	require.NoError(t, Init(context.Background(), dir))
	assert.True(t, IsRepo(dir))
}

func TestCommitterCommit(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, Init(ctx, dir))

	part := filepath.Join("decisions", "2024", "03", "alice")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, part), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, part, "visa.csv"), []byte("x\n"), 0o644))

	c := NewCommitter(dir, "Budget Book", "books@example.com")
	hash, err := c.Commit(ctx, "decisions: 2024-03/alice/visa", "decisions")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Contains(t, gitLog(t, dir, "%s"), "decisions: 2024-03/alice/visa")
	assert.Contains(t, gitLog(t, dir, "%an <%ae>"), "Budget Book <books@example.com>")
}

func TestCommitterNothingToCommit(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, Init(ctx, dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "budgetbook.yaml"), []byte("a: 1\n"), 0o644))

	c := NewCommitter(dir, "Budget Book", "books@example.com")
	first, err := c.Commit(ctx, "init")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := c.Commit(ctx, "again")
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestCommitterOutsideRepo(t *testing.T) {
	requireGit(t)
	c := NewCommitter(t.TempDir(), "Budget Book", "books@example.com")
	_, err := c.Commit(context.Background(), "nope")
	assert.Error(t, err)
}
