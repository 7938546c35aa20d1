package snapshot

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/loom/internal/core/domain"
)

// ImportGraph is the reverse import index of one project: it maps an import
// document's target path to the set of documents that splice it in. Instances
// are immutable; mutation methods return patched copies with structural
// sharing of untouched entries.
type ImportGraph struct {
	// dependents maps a normalized import target path to dependent documents.
	dependents map[string]map[domain.DocumentKey]struct{}

	// targetsByDoc maps each document to the normalized target paths it
	// imports, so edges can be removed without re-resolving.
	targetsByDoc map[domain.DocumentKey][]string
}

func newImportGraph() *ImportGraph {
	return &ImportGraph{
		dependents:   make(map[string]map[domain.DocumentKey]struct{}),
		targetsByDoc: make(map[domain.DocumentKey][]string),
	}
}

// buildImportGraph constructs the graph wholesale from a document set and the
// resolved import targets per document.
func buildImportGraph(docs map[domain.DocumentKey]*DocumentState, resolve func(domain.HostDocument) []string) *ImportGraph {
	g := newImportGraph()
	for key, doc := range docs {
		targets := resolve(doc.host)
		g.targetsByDoc[key] = targets
		for _, target := range targets {
			set := g.dependents[target]
			if set == nil {
				set = make(map[domain.DocumentKey]struct{})
				g.dependents[target] = set
			}
			set[key] = struct{}{}
		}
	}
	return g
}

// Dependents returns the documents that import the given target path, in
// deterministic (sorted) order.
func (g *ImportGraph) Dependents(targetPath string) []domain.DocumentKey {
	set := g.dependents[domain.NormalizePath(targetPath)]
	if len(set) == 0 {
		return nil
	}
	keys := make([]domain.DocumentKey, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b domain.DocumentKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// withDocument returns a copy of the graph with the document's import edges
// added. targets must already be normalized and must not contain the
// document's own target path.
func (g *ImportGraph) withDocument(key domain.DocumentKey, targets []string) *ImportGraph {
	next := g.clone()
	next.targetsByDoc[key] = targets
	for _, target := range targets {
		set := maps.Clone(next.dependents[target])
		if set == nil {
			set = make(map[domain.DocumentKey]struct{})
		}
		set[key] = struct{}{}
		next.dependents[target] = set
	}
	return next
}

// withoutDocument returns a copy of the graph with every edge of the document
// removed.
func (g *ImportGraph) withoutDocument(key domain.DocumentKey) *ImportGraph {
	targets, ok := g.targetsByDoc[key]
	if !ok {
		return g
	}
	next := g.clone()
	delete(next.targetsByDoc, key)
	for _, target := range targets {
		set := maps.Clone(next.dependents[target])
		delete(set, key)
		if len(set) == 0 {
			delete(next.dependents, target)
		} else {
			next.dependents[target] = set
		}
	}
	return next
}

// clone copies the outer maps; dependent sets are shared until modified.
func (g *ImportGraph) clone() *ImportGraph {
	return &ImportGraph{
		dependents:   maps.Clone(g.dependents),
		targetsByDoc: maps.Clone(g.targetsByDoc),
	}
}
