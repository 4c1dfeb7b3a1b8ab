package localstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(Config{Root: t.TempDir()}, zerolog.New(io.Discard))
	require.NoError(t, err)
	return store
}

func TestStoreSaveAndRead(t *testing.T) {
	store := newTestStore(t)

	path, err := store.Save(context.Background(), "Réponse Finale.PDF", bytes.NewReader([]byte("%PDF-1.4 content")))
	require.NoError(t, err)
	require.Contains(t, path, "r-ponse-finale.pdf")

	data, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.4 content"), data)
}

func TestStoreSaveUniqueNames(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Save(context.Background(), "answer.pdf", bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	second, err := store.Save(context.Background(), "answer.pdf", bytes.NewReader([]byte("b")))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestStoreRemoveMissingFileIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Remove(context.Background(), "nope.pdf"))
}

func TestCleanupTempDeletesOnlyStaleFiles(t *testing.T) {
	root := t.TempDir()
	store, err := New(Config{Root: root}, zerolog.New(io.Discard))
	require.NoError(t, err)

	stalePath, err := store.SaveTemp(context.Background(), "stale.pdf", bytes.NewReader([]byte("old")))
	require.NoError(t, err)
	freshPath, err := store.SaveTemp(context.Background(), "fresh.pdf", bytes.NewReader([]byte("new")))
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, stalePath), old, old))

	removed, err := store.CleanupTemp(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = store.Read(context.Background(), stalePath)
	require.Error(t, err)
	_, err = store.Read(context.Background(), freshPath)
	require.NoError(t, err)
}
