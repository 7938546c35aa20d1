// Package text implements the document text sources: in-memory buffers and
// lazily read disk files behind a ristretto content cache.
package text

import (
	"context"
	"fmt"
	"os"

	"github.com/dgraph-io/ristretto/v2"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

// cachedText is one cached file read with the version it was stamped at.
type cachedText struct {
	text    string
	version domain.VersionStamp
}

// Store creates text sources and owns the shared file-content cache. Cache
// entries are keyed by path plus modification time and size, so a changed
// file always misses and is stamped with a fresh version.
type Store struct {
	cache *ristretto.Cache[string, cachedText]
}

// NewStore creates a store. maxCostBytes is the maximum total size of cached
// file contents in bytes.
func NewStore(maxCostBytes int64) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, cachedText]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create text cache")
	}
	return &Store{cache: cache}, nil
}

// Source returns a lazy disk-backed text source for the given file.
func (s *Store) Source(path string) ports.TextSource {
	return &fileSource{store: s, path: path}
}

// Close shuts down the content cache and releases resources.
func (s *Store) Close() {
	s.cache.Close()
}

// fileSource reads a file on demand. Reads of an unchanged file are served
// from the store's cache and keep their original version stamp.
type fileSource struct {
	store *Store
	path  string
}

// Load reads the file, or returns the cached content when the file has not
// changed since the last read.
func (f *fileSource) Load(_ context.Context) (string, domain.VersionStamp, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return "", domain.VersionStamp{}, zerr.With(zerr.Wrap(err, "failed to stat document"), "path", f.path)
	}

	key := fmt.Sprintf("%s|%d|%d", f.path, info.ModTime().UnixNano(), info.Size())
	if cached, ok := f.store.cache.Get(key); ok {
		return cached.text, cached.version, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", domain.VersionStamp{}, zerr.With(zerr.Wrap(err, "failed to read document"), "path", f.path)
	}

	entry := cachedText{text: string(data), version: domain.NewVersionStamp()}
	f.store.cache.Set(key, entry, info.Size())
	f.store.cache.Wait()
	return entry.text, entry.version, nil
}

// StringSource serves a fixed in-memory buffer, typically an open editor
// document.
type StringSource struct {
	text    string
	version domain.VersionStamp
}

// NewStringSource creates a source for host-supplied text.
func NewStringSource(text string, version domain.VersionStamp) *StringSource {
	return &StringSource{text: text, version: version}
}

// Load returns the buffer and its version.
func (s *StringSource) Load(context.Context) (string, domain.VersionStamp, error) {
	return s.text, s.version, nil
}

var (
	_ ports.TextSource = (*fileSource)(nil)
	_ ports.TextSource = (*StringSource)(nil)
)
