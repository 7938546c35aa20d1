// Package compiler implements the reference weft compile engine: a
// deterministic translation of weft templates into Go render functions.
package compiler

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

// Weft constructs compile engines bound to one project configuration.
type Weft struct {
	tracer ports.Tracer
}

// New creates the weft compiler.
func New(tracer ports.Tracer) *Weft {
	return &Weft{tracer: tracer}
}

// CreateEngine binds an engine to the configuration and code language version.
func (c *Weft) CreateEngine(config domain.Configuration, codeLanguageVersion string) ports.CompileEngine {
	return &engine{
		tracer:              c.tracer,
		config:              config,
		codeLanguageVersion: codeLanguageVersion,
	}
}

type engine struct {
	tracer              ports.Tracer
	config              domain.Configuration
	codeLanguageVersion string
}

// Compile translates one document. The output is a pure function of the
// request and the engine's bound configuration.
func (e *engine) Compile(ctx context.Context, req ports.CompileRequest) (*domain.GeneratedOutput, error) {
	_, span := e.tracer.Start(ctx, "compiler.compile")
	defer span.End()
	span.SetAttribute("document", req.Document.TargetPath)
	span.SetAttribute("imports", len(req.Imports))

	doc, err := parse(req.Text)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "failed to parse template"), "document", req.Document.TargetPath)
		span.RecordError(err)
		return nil, err
	}

	// Directives from import documents apply first, outermost first, so a
	// document-level directive can override an inherited one.
	directives := make([]directive, 0, len(doc.directives))
	for _, imp := range req.Imports {
		impDoc, err := parse(imp.Text)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, "failed to parse import"), "import", imp.Document.TargetPath)
			span.RecordError(err)
			return nil, err
		}
		directives = append(directives, impDoc.directives...)
	}
	directives = append(directives, doc.directives...)

	checksum := e.checksum(req)
	code := emit(emitInput{
		document:   req.Document,
		directives: directives,
		nodes:      doc.nodes,
		tagHelpers: req.TagHelpers,
		checksum:   checksum,
	})

	return &domain.GeneratedOutput{Code: code, Checksum: checksum}, nil
}

// checksum hashes every compilation input. Two requests with equal hashes
// produce byte-identical code.
func (e *engine) checksum(req ports.CompileRequest) string {
	digest := xxhash.New()
	put := func(parts ...string) {
		for _, part := range parts {
			_, _ = digest.WriteString(part)
			_, _ = digest.WriteString("\x00")
		}
	}

	put(e.config.Name, e.config.LanguageVersion, e.codeLanguageVersion)
	put(e.config.Extensions...)
	put(req.Document.TargetPath, string(req.Document.Kind), req.Text)
	for _, imp := range req.Imports {
		put(imp.Document.TargetPath, imp.Text)
	}
	for _, helper := range req.TagHelpers {
		put(helper.Name, helper.Assembly)
	}

	return fmt.Sprintf("%016x", digest.Sum64())
}

var _ ports.Compiler = (*Weft)(nil)
