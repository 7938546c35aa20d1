// Package resolver implements the convention-based import resolver: every
// document imports the shared directive files of its ancestor directories.
package resolver

import (
	"path"
	"strings"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

// Shared directive file names, by document kind.
const (
	importsFileName          = "_imports.weft"
	componentImportsFileName = "_component_imports.weft"
)

// Convention resolves import targets by walking the document's directory
// chain from the project root down to the document, outermost first: a
// directive in a parent directory applies before one in a child directory.
type Convention struct{}

// New creates a Convention resolver.
func New() *Convention {
	return &Convention{}
}

// ResolveImportTargets returns the ordered candidate import target paths for
// the document. The document's own target may be among the candidates when it
// is itself a directive file; callers exclude it.
func (r *Convention) ResolveImportTargets(doc domain.HostDocument, _ domain.Configuration) []string {
	name := importsFileName
	if doc.Kind == domain.FileKindComponent {
		name = componentImportsFileName
	}

	target := domain.NormalizePath(doc.TargetPath)

	var targets []string
	prefix := ""
	targets = append(targets, name)
	for _, segment := range strings.Split(path.Dir(target), "/") {
		if segment == "." || segment == "" {
			continue
		}
		prefix = path.Join(prefix, segment)
		targets = append(targets, path.Join(prefix, name))
	}
	return targets
}

var _ ports.ImportResolver = (*Convention)(nil)
