package domain

import "slices"

// TagHelper describes one workspace-provided tag helper made available to
// every document in a project.
type TagHelper struct {
	// Name is the fully qualified helper name.
	Name string

	// Assembly is the assembly or package the helper comes from.
	Assembly string
}

// WorkspaceState is the project-wide metadata the workspace contributes to
// compilation: the tag-helper set and the code language version generated
// output targets. Immutable; replaced wholesale on change.
type WorkspaceState struct {
	// TagHelpers is the current workspace tag-helper set, in discovery order.
	TagHelpers []TagHelper

	// CodeLanguageVersion is the Go language version generated code targets.
	// The project's compiler engine depends on it; other workspace state does
	// not invalidate the engine.
	CodeLanguageVersion string

	// Version stamps the tag-helper set, as reported by the provider.
	Version VersionStamp
}

// Equal reports whether two workspace states are value-equal.
func (w WorkspaceState) Equal(other WorkspaceState) bool {
	return w.CodeLanguageVersion == other.CodeLanguageVersion &&
		w.Version == other.Version &&
		slices.Equal(w.TagHelpers, other.TagHelpers)
}
