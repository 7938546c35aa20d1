package ports

import "go.trai.ch/loom/internal/core/domain"

// LoadedDocument pairs a discovered document with the text source that reads
// its content.
type LoadedDocument struct {
	Host   domain.HostDocument
	Source TextSource
}

// ProjectLoader reads a project manifest and discovers the project's
// documents. It feeds the snapshot manager at host startup; the engine itself
// never touches the file system.
//
//go:generate go run go.uber.org/mock/mockgen -source=loader.go -destination=mocks/mock_loader.go -package=mocks
type ProjectLoader interface {
	// Load reads the manifest in dir and returns the host project together
	// with its documents.
	Load(dir string) (domain.HostProject, []LoadedDocument, error)
}
