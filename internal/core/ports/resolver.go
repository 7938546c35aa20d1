package ports

import "go.trai.ch/loom/internal/core/domain"

// ImportResolver computes the ordered import-target candidates a document
// depends on. Resolution is purely structural (file names and ancestor
// directories); it must not consult document content or hidden state.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ImportResolver interface {
	// ResolveImportTargets returns the target paths of the import documents
	// the given document would splice in, outermost first. The result may
	// include the document's own target path; callers exclude it.
	ResolveImportTargets(doc domain.HostDocument, config domain.Configuration) []string
}
