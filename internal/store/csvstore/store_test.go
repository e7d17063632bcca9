package csvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectie-app/projectie/internal/model"
	"github.com/projectie-app/projectie/internal/store"
	"github.com/projectie-app/projectie/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	var dir string
	open := func(t *testing.T) store.Store {
		dir = t.TempDir()
		s, err := Open(dir)
		require.NoError(t, err)
		return s
	}
	reopen := func(t *testing.T) store.Store {
		s, err := Open(dir)
		require.NoError(t, err)
		return s
	}
	storetest.Run(t, open, reopen)
}

func TestOpenCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, s.Dir())
}

func TestEmptyDirReadsEmpty(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	accts, err := s.Accounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accts)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.SaveAccount(ctx, model.Account{ID: "a-1", Name: "Everyday", Type: model.AccountTypeSpending}))
	require.NoError(t, s.SaveAccount(ctx, model.Account{ID: "a-2", Name: "Rainy day", Type: model.AccountTypeSaving}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, AccountsFile, entries[0].Name())
}

func TestCorruptFileSurfacesError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, GoalsFile), []byte("id,account_id\ng-1\n"), 0o644))
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.Goals(context.Background(), "a-1")
	assert.Error(t, err)
}
