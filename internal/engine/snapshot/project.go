package snapshot

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

// versionSet is the project's four independent version axes. The overall
// version advances on every mutation and is always at least as new as the
// other three.
type versionSet struct {
	overall            domain.VersionStamp
	configuration      domain.VersionStamp
	documentCollection domain.VersionStamp
	workspaceState     domain.VersionStamp
}

// bump advances the overall version and stamps the changed axes with the same
// new value, preserving the overall >= axis invariant.
func (v versionSet) bump(configuration, documents, workspace bool) versionSet {
	next := v.overall.Next()
	out := v
	out.overall = next
	if configuration {
		out.configuration = next
	}
	if documents {
		out.documentCollection = next
	}
	if workspace {
		out.workspaceState = next
	}
	return out
}

// ProjectState is the immutable per-project aggregate: host configuration,
// workspace metadata, the document map, the import graph, and the version
// axes. Every operation is copy-on-write; a no-op returns the receiver
// itself so callers can detect "nothing changed" by reference comparison.
type ProjectState struct {
	compiler ports.Compiler
	resolver ports.ImportResolver

	host      domain.HostProject
	workspace domain.WorkspaceState

	documents map[domain.DocumentKey]*DocumentState
	byTarget  map[string]domain.DocumentKey
	imports   *ImportGraph

	versions versionSet
	engine   *engineHandle
}

// NewProjectState creates the initial state for a freshly added project.
func NewProjectState(compiler ports.Compiler, resolver ports.ImportResolver, host domain.HostProject, workspace domain.WorkspaceState) *ProjectState {
	initial := domain.NewVersionStamp()
	return &ProjectState{
		compiler:  compiler,
		resolver:  resolver,
		host:      host,
		workspace: workspace,
		documents: make(map[domain.DocumentKey]*DocumentState),
		byTarget:  make(map[string]domain.DocumentKey),
		imports:   newImportGraph(),
		versions: versionSet{
			overall:            initial,
			configuration:      initial,
			documentCollection: initial,
			workspaceState:     initial,
		},
		engine: newEngineHandle(compiler, host.Configuration, workspace.CodeLanguageVersion),
	}
}

// Key returns the project's stable identity.
func (p *ProjectState) Key() domain.ProjectKey {
	return p.host.Key()
}

// HostProject returns the host-supplied project record.
func (p *ProjectState) HostProject() domain.HostProject {
	return p.host
}

// Workspace returns the workspace metadata the project compiles against.
func (p *ProjectState) Workspace() domain.WorkspaceState {
	return p.workspace
}

// Version returns the overall version: strictly newer after every mutation.
func (p *ProjectState) Version() domain.VersionStamp {
	return p.versions.overall
}

// ConfigurationVersion changes iff the host project configuration changes.
func (p *ProjectState) ConfigurationVersion() domain.VersionStamp {
	return p.versions.configuration
}

// DocumentCollectionVersion changes iff the document set or the configuration
// changes.
func (p *ProjectState) DocumentCollectionVersion() domain.VersionStamp {
	return p.versions.documentCollection
}

// WorkspaceStateVersion changes iff the workspace metadata changes.
func (p *ProjectState) WorkspaceStateVersion() domain.VersionStamp {
	return p.versions.workspaceState
}

// Document returns the state of the document with the given key.
func (p *ProjectState) Document(key domain.DocumentKey) (*DocumentState, bool) {
	doc, ok := p.documents[key]
	return doc, ok
}

// DocumentKeys returns the keys of every document, in deterministic order.
func (p *ProjectState) DocumentKeys() []domain.DocumentKey {
	keys := make([]domain.DocumentKey, 0, len(p.documents))
	for key := range p.documents {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b domain.DocumentKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// DocumentCount returns the number of documents in the project.
func (p *ProjectState) DocumentCount() int {
	return len(p.documents)
}

// ImportGraph returns the project's reverse import index.
func (p *ProjectState) ImportGraph() *ImportGraph {
	return p.imports
}

// AddDocument inserts a new document. No-op if the path is already present.
// If the added document is itself an import target other documents already
// reference, those documents are transitioned with WithImportsChange.
func (p *ProjectState) AddDocument(host domain.HostDocument, source ports.TextSource) *ProjectState {
	key := host.Key()
	if _, exists := p.documents[key]; exists {
		return p
	}

	target := domain.NormalizePath(host.TargetPath)
	targets := p.ImportTargets(host)

	docs := maps.Clone(p.documents)
	docs[key] = newDocumentState(host, source)

	graph := p.imports.withDocument(key, targets)
	for _, dep := range graph.Dependents(target) {
		if dep == key {
			continue
		}
		docs[dep] = docs[dep].WithImportsChange()
	}

	byTarget := maps.Clone(p.byTarget)
	byTarget[target] = key

	next := p.clone()
	next.documents = docs
	next.byTarget = byTarget
	next.imports = graph
	next.versions = p.versions.bump(false, true, false)
	return next
}

// RemoveDocument removes a document. No-op if absent. Dependants of the
// removed import target are transitioned with WithImportsChange first.
func (p *ProjectState) RemoveDocument(key domain.DocumentKey) *ProjectState {
	doc, exists := p.documents[key]
	if !exists {
		return p
	}

	target := domain.NormalizePath(doc.host.TargetPath)

	docs := maps.Clone(p.documents)
	delete(docs, key)
	for _, dep := range p.imports.Dependents(target) {
		if dep == key {
			continue
		}
		if existing, ok := docs[dep]; ok {
			docs[dep] = existing.WithImportsChange()
		}
	}

	byTarget := maps.Clone(p.byTarget)
	if byTarget[target] == key {
		delete(byTarget, target)
	}

	next := p.clone()
	next.documents = docs
	next.byTarget = byTarget
	next.imports = p.imports.withoutDocument(key)
	next.versions = p.versions.bump(false, true, false)
	return next
}

// UpdateDocumentText replaces a document's content with host-supplied text.
// No-op if absent.
func (p *ProjectState) UpdateDocumentText(key domain.DocumentKey, text string, version domain.VersionStamp) *ProjectState {
	return p.replaceDocument(key, func(doc *DocumentState) *DocumentState {
		return doc.WithText(text, version)
	})
}

// UpdateDocumentSource replaces a document's text source. No-op if absent.
func (p *ProjectState) UpdateDocumentSource(key domain.DocumentKey, source ports.TextSource) *ProjectState {
	return p.replaceDocument(key, func(doc *DocumentState) *DocumentState {
		return doc.WithTextSource(source)
	})
}

// replaceDocument swaps in a new state for one document and, when the changed
// document is an import target, transitions every dependant recorded in the
// import graph. Only the overall version advances: the document set is intact.
func (p *ProjectState) replaceDocument(key domain.DocumentKey, replace func(*DocumentState) *DocumentState) *ProjectState {
	doc, exists := p.documents[key]
	if !exists {
		return p
	}

	docs := maps.Clone(p.documents)
	docs[key] = replace(doc)

	for _, dep := range p.imports.Dependents(doc.host.TargetPath) {
		if dep == key {
			continue
		}
		if existing, ok := docs[dep]; ok {
			docs[dep] = existing.WithImportsChange()
		}
	}

	next := p.clone()
	next.documents = docs
	next.versions = p.versions.bump(false, false, false)
	return next
}

// WithHostProject applies a configuration change. No-op if the new record is
// value-equal to the current one. Import resolution may depend on the
// configuration, so the import graph is rebuilt wholesale, every document is
// transitioned, and the compile engine is dropped and rebuilt lazily.
func (p *ProjectState) WithHostProject(host domain.HostProject) *ProjectState {
	if p.host.Equal(host) {
		return p
	}

	docs := make(map[domain.DocumentKey]*DocumentState, len(p.documents))
	for key, doc := range p.documents {
		docs[key] = doc.WithConfigurationChange()
	}

	next := p.clone()
	next.host = host
	next.documents = docs
	next.imports = buildImportGraph(docs, func(hd domain.HostDocument) []string {
		return importTargets(p.resolver, hd, host.Configuration)
	})
	next.versions = p.versions.bump(true, true, false)
	next.engine = newEngineHandle(p.compiler, host.Configuration, p.workspace.CodeLanguageVersion)
	return next
}

// WithWorkspaceState applies a workspace metadata change. No-op if value-equal
// to the current state. The compile engine only depends on the code language
// version, so it is retained when that is unchanged.
func (p *ProjectState) WithWorkspaceState(workspace domain.WorkspaceState) *ProjectState {
	if p.workspace.Equal(workspace) {
		return p
	}

	docs := make(map[domain.DocumentKey]*DocumentState, len(p.documents))
	for key, doc := range p.documents {
		docs[key] = doc.WithWorkspaceStateChange()
	}

	next := p.clone()
	next.workspace = workspace
	next.documents = docs
	next.versions = p.versions.bump(false, false, true)
	if workspace.CodeLanguageVersion != p.workspace.CodeLanguageVersion {
		next.engine = newEngineHandle(p.compiler, p.host.Configuration, workspace.CodeLanguageVersion)
	}
	return next
}

// ImportTargets resolves the ordered import target paths for a document,
// normalized and with the document's own target path excluded: a document
// never imports itself.
func (p *ProjectState) ImportTargets(host domain.HostDocument) []string {
	return importTargets(p.resolver, host, p.host.Configuration)
}

func importTargets(resolver ports.ImportResolver, host domain.HostDocument, config domain.Configuration) []string {
	own := domain.NormalizePath(host.TargetPath)
	resolved := resolver.ResolveImportTargets(host, config)
	targets := make([]string, 0, len(resolved))
	for _, candidate := range resolved {
		normalized := domain.NormalizePath(candidate)
		if normalized == own {
			continue
		}
		targets = append(targets, normalized)
	}
	return targets
}

// importDocuments returns the states of the document's import documents, in
// resolution order. Targets without a matching document are skipped: the
// import file may simply not exist yet.
func (p *ProjectState) importDocuments(host domain.HostDocument) []*DocumentState {
	targets := p.ImportTargets(host)
	docs := make([]*DocumentState, 0, len(targets))
	for _, target := range targets {
		key, ok := p.byTarget[target]
		if !ok {
			continue
		}
		if doc, ok := p.documents[key]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

func (p *ProjectState) compileEngine() ports.CompileEngine {
	return p.engine.get()
}

func (p *ProjectState) clone() *ProjectState {
	next := *p
	return &next
}
