package domain

import "go.trai.ch/zerr"

var (
	// ErrProjectNotFound is returned when a project key resolves to no loaded
	// project. Callers that cannot guarantee existence should use the TryGet
	// variants instead.
	ErrProjectNotFound = zerr.New("project not found")

	// ErrDocumentNotFound is returned when a document path resolves to no
	// document in the project.
	ErrDocumentNotFound = zerr.New("document not found")

	// ErrInvalidManifest is returned when a project manifest fails validation.
	ErrInvalidManifest = zerr.New("invalid project manifest")

	// ErrCompileFailed is returned when the compiler rejects a document.
	ErrCompileFailed = zerr.New("compilation failed")
)
