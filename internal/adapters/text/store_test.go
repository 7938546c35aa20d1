package text_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/adapters/text"
	"go.trai.ch/loom/internal/core/domain"
)

func newTestStore(t *testing.T) *text.Store {
	t.Helper()
	store, err := text.NewStore(1 << 20)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.weft")
	require.NoError(t, os.WriteFile(path, []byte("<h1>hi</h1>"), 0o644))

	store := newTestStore(t)
	source := store.Source(path)

	content, version, err := source.Load(t.Context())
	require.NoError(t, err)
	require.Equal(t, "<h1>hi</h1>", content)
	require.NotEqual(t, domain.VersionStamp{}, version)
}

func TestFileSource_UnchangedFileKeepsVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.weft")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	store := newTestStore(t)

	_, first, err := store.Source(path).Load(t.Context())
	require.NoError(t, err)

	_, second, err := store.Source(path).Load(t.Context())
	require.NoError(t, err)
	require.Equal(t, first, second, "an unchanged file must keep its version stamp")
}

func TestFileSource_ChangedFileGetsNewVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.weft")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	store := newTestStore(t)

	_, first, err := store.Source(path).Load(t.Context())
	require.NoError(t, err)

	// Force a different mtime so the cache key changes even on coarse
	// filesystem clocks.
	require.NoError(t, os.WriteFile(path, []byte("two!"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	content, second, err := store.Source(path).Load(t.Context())
	require.NoError(t, err)
	require.Equal(t, "two!", content)
	require.True(t, second.NewerThan(first))
}

func TestFileSource_MissingFile(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.Source(filepath.Join(t.TempDir(), "missing.weft")).Load(t.Context())
	require.Error(t, err)
}

func TestStringSource(t *testing.T) {
	version := domain.NewVersionStamp()
	source := text.NewStringSource("buffer", version)

	content, got, err := source.Load(t.Context())
	require.NoError(t, err)
	require.Equal(t, "buffer", content)
	require.Equal(t, version, got)
}
