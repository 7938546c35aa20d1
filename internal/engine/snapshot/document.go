package snapshot

import (
	"context"
	"sync"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

// loadedText is a document's resolved text and the version it was observed at.
type loadedText struct {
	text    string
	version domain.VersionStamp
}

// DocumentState is the immutable per-document state: host identity, the text
// source, and the memoized generated-output cache. A document is owned by
// exactly one ProjectState at a time; every change produces a new instance
// while prior snapshots keep referencing the old one.
type DocumentState struct {
	host   domain.HostDocument
	source ports.TextSource

	// generation counts the transitions this document identity has been
	// through, for diagnostics only.
	generation int

	textMu sync.Mutex
	text   *loadedText

	cache *outputCache
}

// newDocumentState creates a document state with an empty output cache.
func newDocumentState(host domain.HostDocument, source ports.TextSource) *DocumentState {
	return &DocumentState{
		host:   host,
		source: source,
		cache:  newOutputCache(),
	}
}

// Host returns the host-supplied document identity.
func (d *DocumentState) Host() domain.HostDocument {
	return d.host
}

// Key returns the document's stable identity.
func (d *DocumentState) Key() domain.DocumentKey {
	return d.host.Key()
}

// Generation returns the number of transitions this document identity has
// been through since it was added.
func (d *DocumentState) Generation() int {
	return d.generation
}

// Text resolves the document's text through its source. The first successful
// load is memoized on the instance; later calls return the identical result.
func (d *DocumentState) Text(ctx context.Context) (string, domain.VersionStamp, error) {
	d.textMu.Lock()
	defer d.textMu.Unlock()

	if d.text != nil {
		return d.text.text, d.text.version, nil
	}

	text, version, err := d.source.Load(ctx)
	if err != nil {
		return "", domain.VersionStamp{}, zerr.With(zerr.Wrap(err, "failed to load document text"), "document", d.host.FilePath)
	}
	d.text = &loadedText{text: text, version: version}
	return text, version, nil
}

// TryGetText returns the memoized text without triggering a load.
func (d *DocumentState) TryGetText() (string, domain.VersionStamp, bool) {
	d.textMu.Lock()
	defer d.textMu.Unlock()
	if d.text == nil {
		return "", domain.VersionStamp{}, false
	}
	return d.text.text, d.text.version, true
}

// resolvedText returns the memoized text pointer for carry-forward into a
// successor instance.
func (d *DocumentState) resolvedText() *loadedText {
	d.textMu.Lock()
	defer d.textMu.Unlock()
	return d.text
}

// WithText replaces the document's content with already-known text. The
// output cache starts fresh: a text change always invalidates the output.
func (d *DocumentState) WithText(text string, version domain.VersionStamp) *DocumentState {
	next := newDocumentState(d.host, eagerSource{text: text, version: version})
	next.generation = d.generation + 1
	next.text = &loadedText{text: text, version: version}
	return next
}

// WithTextSource replaces the document's text source. Text is re-resolved on
// demand and the output cache starts fresh.
func (d *DocumentState) WithTextSource(source ports.TextSource) *DocumentState {
	next := newDocumentState(d.host, source)
	next.generation = d.generation + 1
	return next
}

// WithConfigurationChange produces the successor instance for a project
// configuration change. The text cannot have changed, so the resolved text is
// retained; the output cache handle is carried forward so an in-flight
// computation is adopted rather than duplicated, and the composite version
// check invalidates any entry the change actually affects.
func (d *DocumentState) WithConfigurationChange() *DocumentState {
	return d.forked()
}

// WithImportsChange produces the successor instance for a change to one of
// the document's import documents.
func (d *DocumentState) WithImportsChange() *DocumentState {
	return d.forked()
}

// WithWorkspaceStateChange produces the successor instance for a workspace
// metadata change.
func (d *DocumentState) WithWorkspaceStateChange() *DocumentState {
	return d.forked()
}

func (d *DocumentState) forked() *DocumentState {
	next := &DocumentState{
		host:       d.host,
		source:     d.source,
		generation: d.generation + 1,
		text:       d.resolvedText(),
		cache:      d.cache,
	}
	return next
}

// TryGetGeneratedOutput returns the cached output entry, if any, without
// triggering a computation. The entry carries the version it was computed
// from; callers compare it against the current input version themselves.
func (d *DocumentState) TryGetGeneratedOutput() (*OutputEntry, bool) {
	entry := d.cache.peek()
	return entry, entry != nil
}

// compileInputs is the full, version-stamped input set of one compilation.
type compileInputs struct {
	version domain.VersionStamp
	text    string
	imports []ports.ImportText
}

// GeneratedOutput returns the document's generated output and the composite
// input version it was computed from, computing it at most once per input
// version. Concurrent callers for the same instance share one computation;
// cancelling ctx abandons only the caller's wait, never the shared work.
func (d *DocumentState) GeneratedOutput(ctx context.Context, project *ProjectState) (*domain.GeneratedOutput, domain.VersionStamp, error) {
	for {
		inputs, err := d.gatherInputs(ctx, project)
		if err != nil {
			return nil, domain.VersionStamp{}, err
		}

		if entry := d.cache.get(inputs.version); entry != nil {
			return entry.Output, entry.Version, nil
		}

		fut, started := d.cache.join(inputs.version)
		if started {
			// The computation must survive the starting caller's cancellation:
			// other callers may still be waiting on it.
			go d.runCompile(context.WithoutCancel(ctx), project, inputs, fut)
		}

		select {
		case <-fut.done:
		case <-ctx.Done():
			return nil, domain.VersionStamp{}, ctx.Err()
		}

		if fut.err != nil {
			return nil, domain.VersionStamp{}, fut.err
		}
		if fut.entry.Version == inputs.version {
			return fut.entry.Output, fut.entry.Version, nil
		}
		// We adopted a computation started for an older input version
		// (carried across a document transition). Its result is stale for
		// us; re-evaluate against the current inputs.
	}
}

// gatherInputs resolves the document's own text and the texts of its import
// documents, and folds their versions together with the project's
// configuration and workspace-state versions into the composite input version.
func (d *DocumentState) gatherInputs(ctx context.Context, project *ProjectState) (compileInputs, error) {
	text, textVersion, err := d.Text(ctx)
	if err != nil {
		return compileInputs{}, err
	}

	version := domain.NewestVersion(textVersion, project.ConfigurationVersion())
	version = domain.NewestVersion(version, project.WorkspaceStateVersion())

	importDocs := project.importDocuments(d.host)
	imports := make([]ports.ImportText, 0, len(importDocs))
	for _, imp := range importDocs {
		importText, importVersion, err := imp.Text(ctx)
		if err != nil {
			return compileInputs{}, err
		}
		version = domain.NewestVersion(version, importVersion)
		imports = append(imports, ports.ImportText{Document: imp.host, Text: importText})
	}

	return compileInputs{version: version, text: text, imports: imports}, nil
}

func (d *DocumentState) runCompile(ctx context.Context, project *ProjectState, inputs compileInputs, fut *outputFuture) {
	engine := project.compileEngine()
	output, err := engine.Compile(ctx, ports.CompileRequest{
		Document:   d.host,
		Text:       inputs.text,
		Imports:    inputs.imports,
		TagHelpers: project.workspace.TagHelpers,
	})
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "generated output computation failed"), "document", d.host.FilePath)
		d.cache.complete(fut, nil, err)
		return
	}
	d.cache.complete(fut, &OutputEntry{Output: output, Version: inputs.version}, nil)
}

// eagerSource serves text that was supplied directly by the host.
type eagerSource struct {
	text    string
	version domain.VersionStamp
}

var _ ports.TextSource = eagerSource{}

func (s eagerSource) Load(context.Context) (string, domain.VersionStamp, error) {
	return s.text, s.version, nil
}
