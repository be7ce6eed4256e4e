package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func testEntries(contents ...string) []domain.IndexEntry {
	entries := make([]domain.IndexEntry, len(contents))
	for i, c := range contents {
		entries[i] = domain.IndexEntry{
			Unit: domain.TextUnit{
				ID:       "unit-" + c,
				Content:  c,
				Metadata: map[string]string{domain.MetaSubject: "S " + c},
			},
			Vector: []float32{float32(i), 0.5, -1.25},
		}
	}
	return entries
}

func testInfo(name string) domain.SessionInfo {
	return domain.SessionInfo{
		Name:       name,
		IndexID:    "idx-" + name,
		Model:      "test-model",
		Dimensions: 3,
		BuiltAt:    time.Date(2024, 6, 3, 9, 30, 0, 123, time.UTC),
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceSession(ctx, testInfo("s"), testEntries("a")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	_, entries, err := reopened.LoadSession(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReplaceAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceSession(ctx, testInfo("today"), testEntries("a", "b", "c")))

	info, entries, err := store.LoadSession(ctx, "today")

	require.NoError(t, err)
	assert.Equal(t, "idx-today", info.IndexID)
	assert.Equal(t, "test-model", info.Model)
	assert.Equal(t, 3, info.Dimensions)
	assert.Equal(t, 3, info.Units)
	assert.True(t, info.BuiltAt.Equal(testInfo("today").BuiltAt))

	require.Len(t, entries, 3)
	assert.Equal(t, testEntries("a", "b", "c"), entries)
}

func TestReplaceSession_NoCarryover(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceSession(ctx, testInfo("s"), testEntries("old1", "old2")))
	next := testInfo("s")
	next.IndexID = "second"
	require.NoError(t, store.ReplaceSession(ctx, next, testEntries("new")))

	info, entries, err := store.LoadSession(ctx, "s")

	require.NoError(t, err)
	assert.Equal(t, "second", info.IndexID)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Unit.Content)
}

func TestReplaceSession_EmptyCorpus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceSession(ctx, testInfo("quiet"), nil))

	info, entries, err := store.LoadSession(ctx, "quiet")

	require.NoError(t, err)
	assert.Zero(t, info.Units)
	assert.Empty(t, entries)
}

func TestReplaceSession_CancelledKeepsPrevious(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.ReplaceSession(context.Background(), testInfo("s"), testEntries("keep")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.ReplaceSession(ctx, testInfo("s"), testEntries("lost"))
	require.Error(t, err)

	_, entries, err := store.LoadSession(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep", entries[0].Unit.Content)
}

func TestLoadSession_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, _, err := store.LoadSession(context.Background(), "missing")

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceSession(ctx, testInfo("zeta"), testEntries("a")))
	require.NoError(t, store.ReplaceSession(ctx, testInfo("alpha"), testEntries("a", "b")))

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "alpha", sessions[0].Name)
	assert.Equal(t, 2, sessions[0].Units)
	assert.Equal(t, "zeta", sessions[1].Name)

	require.NoError(t, store.DeleteSession(ctx, "alpha"))
	require.NoError(t, store.DeleteSession(ctx, "alpha"))

	sessions, err = store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	_, _, err = store.LoadSession(ctx, "alpha")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFloat32Blob(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}

	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
