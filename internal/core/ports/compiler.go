// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/loom/internal/core/domain"
)

// ImportText pairs an import document with its resolved text, in the order
// the directives are spliced into the compilation.
type ImportText struct {
	Document domain.HostDocument
	Text     string
}

// CompileRequest carries every input a compilation depends on. The engine is
// already bound to the project configuration and code language version.
type CompileRequest struct {
	Document   domain.HostDocument
	Text       string
	Imports    []ImportText
	TagHelpers []domain.TagHelper
}

// CompileEngine compiles documents under one fixed project configuration.
// Compile must be a deterministic pure function of the request and the
// engine's bound configuration; the output caching strategy relies on it.
//
//go:generate go run go.uber.org/mock/mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type CompileEngine interface {
	Compile(ctx context.Context, req CompileRequest) (*domain.GeneratedOutput, error)
}

// Compiler constructs compile engines. Engine construction may be expensive;
// the project state caches the engine and rebuilds it only when the
// configuration or code language version changes.
type Compiler interface {
	CreateEngine(config domain.Configuration, codeLanguageVersion string) CompileEngine
}
