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

var testAuthor = Author{Name: "Test Author", Email: "test@example.com"}

func newRepo(t *testing.T) *Repo {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
	r := Open(t.TempDir(), testAuthor)
	require.NoError(t, r.Init(context.Background()))
	return r
}

func TestInit(t *testing.T) {
	r := newRepo(t)
	assert.True(t, IsRepo(r.Dir))

	// Init on an existing repo is a no-op.
	require.NoError(t, r.Init(context.Background()))
}

func TestIsRepo(t *testing.T) {
	assert.False(t, IsRepo(t.TempDir()), "empty dir should not be a repo")
}

func TestCommit(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(r.Dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "data", "accounts.csv"), []byte("id\n"), 0o644))

	hash, err := r.Commit(ctx, "account add: Everyday", "data")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = r.Dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "account add: Everyday|Test Author <test@example.com>")
}

func TestCommit_NothingToCommit(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "a.txt"), []byte("a"), 0o644))
	_, err := r.Commit(ctx, "first")
	require.NoError(t, err)

	hash, err := r.Commit(ctx, "second")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestCommit_OnlyGivenPaths(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(r.Dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "data", "goals.csv"), []byte("id\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "scratch.txt"), []byte("x"), 0o644))

	_, err := r.Commit(ctx, "goal add", "data")
	require.NoError(t, err)

	dirty, err := r.HasChanges(ctx)
	require.NoError(t, err)
	assert.True(t, dirty, "scratch.txt stays uncommitted")
}
