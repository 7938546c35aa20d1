package domain

// GeneratedOutput is the derived artifact the compiler produces for one
// document: generated Go source plus a checksum of the inputs it was built
// from. Instances are never mutated after creation; cache hits return the
// identical pointer.
type GeneratedOutput struct {
	// Code is the generated Go source text.
	Code string

	// Checksum is a content hash of the compilation inputs, embedded in the
	// generated header so stale artifacts are detectable on disk.
	Checksum string
}
