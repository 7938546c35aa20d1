// Package app implements the application layer for loom.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/loom/internal/engine/snapshot"
	"go.trai.ch/zerr"
)

// defaultCodeLanguageVersion is the Go language version generated code
// targets when the host does not say otherwise.
const defaultCodeLanguageVersion = "1.25"

// RunOptions configures one compile run.
type RunOptions struct {
	// OutDir is the directory generated files are written to, mirroring the
	// project layout. Empty writes each file next to its source.
	OutDir string

	// Jobs caps concurrent compilations. Zero means NumCPU.
	Jobs int
}

// App represents the main application logic: it loads a project into the
// snapshot manager and compiles every document against one snapshot.
type App struct {
	loader     ports.ProjectLoader
	manager    *snapshot.Manager
	tagHelpers ports.TagHelperProvider
	records    ports.CompileRecordStore
	tracer     ports.Tracer
	logger     ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ProjectLoader,
	manager *snapshot.Manager,
	tagHelpers ports.TagHelperProvider,
	records ports.CompileRecordStore,
	tracer ports.Tracer,
	logger ports.Logger,
) *App {
	return &App{
		loader:     loader,
		manager:    manager,
		tagHelpers: tagHelpers,
		records:    records,
		tracer:     tracer,
		logger:     logger,
	}
}

// Run compiles the project rooted at dir and writes the generated Go files.
func (a *App) Run(ctx context.Context, dir string, opts RunOptions) error {
	ctx, span := a.tracer.Start(ctx, "app.run")
	defer span.End()
	span.SetAttribute("dir", dir)

	project, err := a.loadProject(ctx, dir)
	if err != nil {
		span.RecordError(err)
		return err
	}

	compiled, upToDate, err := a.compileAll(ctx, project, opts)
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttribute("documents", compiled)
	if upToDate > 0 {
		a.logger.Info(fmt.Sprintf("compiled %d documents (%d up to date)", compiled, upToDate))
	} else {
		a.logger.Info(fmt.Sprintf("compiled %d documents", compiled))
	}
	return nil
}

// loadProject reads the manifest, installs the project in the manager, and
// returns the resulting project snapshot.
func (a *App) loadProject(ctx context.Context, dir string) (*snapshot.ProjectState, error) {
	helpers, version, err := a.tagHelpers.TagHelpers(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve tag helpers")
	}

	host, docs, err := a.loader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load project")
	}

	if err := a.records.Open(host.RootPath); err != nil {
		return nil, zerr.Wrap(err, "failed to open compile record store")
	}

	sub := a.manager.Subscribe(func(e snapshot.ChangeEvent) {
		if e.Kind == snapshot.KindDocumentAdded {
			a.logger.Info("tracking " + e.DocumentKey.String())
		}
	})
	defer a.manager.Unsubscribe(sub)

	a.manager.ProjectAdded(host, domain.WorkspaceState{
		TagHelpers:          helpers,
		CodeLanguageVersion: defaultCodeLanguageVersion,
		Version:             version,
	})

	key := host.Key()
	for _, doc := range docs {
		a.manager.DocumentAdded(key, doc.Host, doc.Source)
	}

	return a.manager.GetLoadedProject(key)
}

// compileAll fans compilations out over one immutable project snapshot.
// Directive files are inputs, not outputs, and are skipped.
func (a *App) compileAll(ctx context.Context, project *snapshot.ProjectState, opts RunOptions) (int, int, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(jobs)

	var compiled, upToDate atomic.Int64
	for _, docKey := range project.DocumentKeys() {
		doc, ok := project.Document(docKey)
		if !ok || doc.Host().Kind == domain.FileKindImport {
			continue
		}

		group.Go(func() error {
			output, _, err := doc.GeneratedOutput(ctx, project)
			if err != nil {
				a.logger.Error(err)
				return zerr.With(domain.ErrCompileFailed, "document", doc.Host().TargetPath)
			}
			wrote, err := a.writeOutput(doc.Host(), output, opts)
			if err != nil {
				a.logger.Error(err)
				return zerr.With(domain.ErrCompileFailed, "document", doc.Host().TargetPath)
			}
			if wrote {
				compiled.Add(1)
			} else {
				upToDate.Add(1)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return 0, 0, err
	}
	return int(compiled.Load()), int(upToDate.Load()), nil
}

// writeOutput places the generated source at <source>.go, either mirrored
// under the output directory or next to the source file. It consults the
// compile record store and skips the write when the artifact on disk was
// produced from the same inputs. Returns whether a file was written.
func (a *App) writeOutput(doc domain.HostDocument, output *domain.GeneratedOutput, opts RunOptions) (bool, error) {
	path := doc.FilePath + ".go"
	if opts.OutDir != "" {
		path = filepath.Join(opts.OutDir, filepath.FromSlash(doc.TargetPath)+".go")
	}

	record, err := a.records.Get(doc.TargetPath)
	if err != nil {
		return false, err
	}
	if record != nil && record.Checksum == output.Checksum && record.OutputPath == path {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", path)
	}
	if err := os.WriteFile(path, []byte(output.Code), 0o644); err != nil { //nolint:gosec // generated source is world-readable
		return false, zerr.With(zerr.Wrap(err, "failed to write generated file"), "path", path)
	}

	err = a.records.Put(domain.CompileRecord{
		Target:     doc.TargetPath,
		Checksum:   output.Checksum,
		OutputPath: path,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
