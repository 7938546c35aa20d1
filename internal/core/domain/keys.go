package domain

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath canonicalizes a file path for identity comparison: cleaned,
// forward slashes, and case-folded on platforms with case-insensitive file
// systems. Keys derived from the same on-disk file always compare equal.
func NormalizePath(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	if pathsCaseInsensitive {
		p = strings.ToLower(p)
	}
	return p
}

var pathsCaseInsensitive = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// ProjectKey is the stable identity of a project, derived from its normalized
// root path. The zero value matches no project.
type ProjectKey struct {
	id InternedString
}

// NewProjectKey derives a key from the project's root directory path.
func NewProjectKey(rootPath string) ProjectKey {
	return ProjectKey{id: NewInternedString(NormalizePath(rootPath))}
}

// String returns the normalized root path backing the key.
func (k ProjectKey) String() string {
	return k.id.String()
}

// IsZero reports whether the key identifies no project.
func (k ProjectKey) IsZero() bool {
	return k == ProjectKey{}
}

// DocumentKey is the stable identity of a document within a project, derived
// from its normalized file path.
type DocumentKey struct {
	id InternedString
}

// NewDocumentKey derives a key from a document's file path.
func NewDocumentKey(filePath string) DocumentKey {
	return DocumentKey{id: NewInternedString(NormalizePath(filePath))}
}

// String returns the normalized file path backing the key.
func (k DocumentKey) String() string {
	return k.id.String()
}

// IsZero reports whether the key identifies no document.
func (k DocumentKey) IsZero() bool {
	return k == DocumentKey{}
}
