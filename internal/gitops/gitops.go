// Package gitops versions the data directory with the git CLI.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Committer commits changes under a data directory. Commits are serialized;
// git's index does not tolerate concurrent writers.
type Committer struct {
	dir   string
	name  string
	email string
	mu    sync.Mutex
}

// NewCommitter creates a Committer for the repository at dir.
func NewCommitter(dir, name, email string) *Committer {
	return &Committer{dir: dir, name: name, email: email}
}

// Commit stages paths (relative to the repository root, or everything when
// empty) and commits them. It returns the short hash of the new commit, or
// "" when nothing changed.
func (c *Committer) Commit(ctx context.Context, message string, paths ...string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	add := append([]string{"add", "-A", "--"}, paths...)
	if len(paths) == 0 {
		add = append(add, ".")
	}
	if _, err := c.git(ctx, add...); err != nil {
		return "", err
	}

	// diff --quiet exits 1 when something is staged.
	if _, err := c.git(ctx, "diff", "--cached", "--quiet"); err == nil {
		return "", nil
	}

	if _, err := c.git(ctx, "commit", "--quiet", "-m", message); err != nil {
		return "", err
	}
	out, err := c.git(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Committer) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+c.name,
		"GIT_AUTHOR_EMAIL="+c.email,
		"GIT_COMMITTER_NAME="+c.name,
		"GIT_COMMITTER_EMAIL="+c.email,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
