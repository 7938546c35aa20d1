package domain

// CompileRecord remembers the last artifact written for a document so a
// later run can skip rewriting outputs whose inputs did not change.
type CompileRecord struct {
	// Target is the project-relative path of the source document.
	Target string `json:"target"`

	// Checksum is the input checksum of the artifact last written.
	Checksum string `json:"checksum"`

	// OutputPath is the absolute path the artifact was written to.
	OutputPath string `json:"outputPath"`
}
