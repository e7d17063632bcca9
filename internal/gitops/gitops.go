// Package gitops versions a data directory with the git command line.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies who commits.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Repo is a git working tree rooted at Dir.
type Repo struct {
	Dir    string
	Author Author
}

// Open returns a Repo for dir. It does not check that dir is a repository.
func Open(dir string, author Author) *Repo {
	return &Repo{Dir: dir, Author: author}
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Available reports whether a git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Init initializes the repository unless one already exists.
func (r *Repo) Init(ctx context.Context) error {
	if IsRepo(r.Dir) {
		return nil
	}
	if _, err := r.run(ctx, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// HasChanges reports whether paths (or the whole tree, if none) have
// uncommitted changes.
func (r *Repo) HasChanges(ctx context.Context, paths ...string) (bool, error) {
	args := append([]string{"status", "--porcelain", "--"}, paths...)
	out, err := r.run(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// Commit stages paths (or everything, if none) and commits them. It returns
// the short hash of the new commit, or "" when there was nothing to commit.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) (string, error) {
	changed, err := r.HasChanges(ctx, paths...)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}

	add := []string{"add", "-A", "--"}
	if len(paths) == 0 {
		add = append(add, ".")
	}
	if _, err := r.run(ctx, append(add, paths...)...); err != nil {
		return "", fmt.Errorf("git add: %w", err)
	}
	if _, err := r.run(ctx, "commit", "--quiet", "-m", message, "--author", r.Author.String()); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}

	out, err := r.run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	// The committer must be set even where git has no user configured.
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+r.Author.Name,
		"GIT_COMMITTER_EMAIL="+r.Author.Email,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
