package snapshot

import (
	"sync"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

// engineHandle lazily builds the project-scoped compile engine. The handle is
// read-mostly: readers race only on the sync.Once, and the writer replaces
// the whole handle when the configuration or code language version changes.
type engineHandle struct {
	compiler            ports.Compiler
	config              domain.Configuration
	codeLanguageVersion string

	once   sync.Once
	engine ports.CompileEngine
}

func newEngineHandle(compiler ports.Compiler, config domain.Configuration, codeLanguageVersion string) *engineHandle {
	return &engineHandle{
		compiler:            compiler,
		config:              config,
		codeLanguageVersion: codeLanguageVersion,
	}
}

func (h *engineHandle) get() ports.CompileEngine {
	h.once.Do(func() {
		h.engine = h.compiler.CreateEngine(h.config, h.codeLanguageVersion)
	})
	return h.engine
}
