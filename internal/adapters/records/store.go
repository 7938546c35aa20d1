// Package records persists compile records in a flat JSON file under the
// project's .loom directory.
package records

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

const storeFilename = "records.json"

var _ ports.CompileRecordStore = (*Store)(nil)

// Store implements ports.CompileRecordStore using a flat JSON file.
type Store struct {
	mu    sync.RWMutex
	path  string
	cache map[string]domain.CompileRecord
}

// NewStore creates an unbound store. Open must be called with the project
// root before records can be read or written.
func NewStore() *Store {
	return &Store{
		cache: make(map[string]domain.CompileRecord),
	}
}

// Open binds the store to the given project root and loads any existing
// records from disk. A missing or empty store file is not an error.
func (s *Store) Open(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.path = filepath.Join(filepath.Clean(root), ".loom", storeFilename)
	s.cache = make(map[string]domain.CompileRecord)

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read compile record store")
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.cache); err != nil {
		return zerr.Wrap(err, "failed to unmarshal compile record store")
	}

	return nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal compile record store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for compile record store")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write compile record store")
	}

	return nil
}

// Get retrieves the record for a given document target path.
func (s *Store) Get(target string) (*domain.CompileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.path == "" {
		return nil, zerr.New("compile record store is not open")
	}

	record, ok := s.cache[target]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Put stores the record and persists the store to disk.
func (s *Store) Put(record domain.CompileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return zerr.New("compile record store is not open")
	}

	s.cache[record.Target] = record
	return s.save()
}
