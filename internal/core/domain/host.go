package domain

import "slices"

// FileKind classifies a weft document by the role it plays during compilation.
type FileKind string

const (
	// FileKindTemplate is a regular page template.
	FileKindTemplate FileKind = "template"
	// FileKindComponent is a reusable component template.
	FileKindComponent FileKind = "component"
	// FileKindImport is a shared-directive file (for example _imports.weft)
	// whose content is implicitly prepended to documents below its directory.
	FileKindImport FileKind = "import"
)

// Configuration captures the compiler-facing project configuration. It is an
// immutable value; a configuration change replaces the whole record.
type Configuration struct {
	// Name identifies the configuration, e.g. "weft-2".
	Name string

	// LanguageVersion is the weft language version documents are parsed as.
	LanguageVersion string

	// Extensions lists enabled compiler extensions, in activation order.
	Extensions []string
}

// Equal reports whether two configurations are value-equal.
func (c Configuration) Equal(other Configuration) bool {
	return c.Name == other.Name &&
		c.LanguageVersion == other.LanguageVersion &&
		slices.Equal(c.Extensions, other.Extensions)
}

// HostProject is the host-supplied identity and configuration of a project.
// It is immutable; the host replaces it wholesale on configuration change.
type HostProject struct {
	// RootPath is the project root directory. The project key derives from it.
	RootPath string

	// DisplayName is the human-readable project name.
	DisplayName string

	// RootNamespace is the namespace generated code is rooted under.
	RootNamespace string

	// Configuration is the active compiler configuration.
	Configuration Configuration
}

// Key returns the stable identity of the project.
func (p HostProject) Key() ProjectKey {
	return NewProjectKey(p.RootPath)
}

// Equal reports whether two host projects are value-equal.
func (p HostProject) Equal(other HostProject) bool {
	return p.RootPath == other.RootPath &&
		p.DisplayName == other.DisplayName &&
		p.RootNamespace == other.RootNamespace &&
		p.Configuration.Equal(other.Configuration)
}

// HostDocument identifies a document independent of its content.
type HostDocument struct {
	// FilePath is the document's path on disk (or the host's moniker for it).
	FilePath string

	// TargetPath is the project-relative path compilation addresses the
	// document by. Import resolution operates on target paths.
	TargetPath string

	// Kind classifies the document.
	Kind FileKind
}

// Key returns the stable identity of the document.
func (d HostDocument) Key() DocumentKey {
	return NewDocumentKey(d.FilePath)
}
