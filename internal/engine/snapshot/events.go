// Package snapshot implements the incremental project/document state engine:
// immutable, versioned snapshots of projects and documents, a single-writer
// mutation protocol, an import-dependency graph, and a memoized single-flight
// cache of each document's generated output.
package snapshot

import "go.trai.ch/loom/internal/core/domain"

// ChangeKind identifies the mutation that produced a change event.
type ChangeKind string

const (
	KindProjectAdded    ChangeKind = "ProjectAdded"
	KindProjectRemoved  ChangeKind = "ProjectRemoved"
	KindProjectChanged  ChangeKind = "ProjectChanged"
	KindDocumentAdded   ChangeKind = "DocumentAdded"
	KindDocumentRemoved ChangeKind = "DocumentRemoved"
	KindDocumentChanged ChangeKind = "DocumentChanged"
	KindDocumentOpened  ChangeKind = "DocumentOpened"
	KindDocumentClosed  ChangeKind = "DocumentClosed"
	KindSolutionClosed  ChangeKind = "SolutionClosed"
	KindSolutionOpened  ChangeKind = "SolutionOpened"
)

// ChangeEvent describes one effective mutation: the snapshot before, the
// snapshot after, and the entity the mutation touched. Both snapshots are
// immutable and safe to read from any goroutine.
type ChangeEvent struct {
	Kind ChangeKind

	// Older and Newer are the solution snapshots around the mutation.
	Older *SolutionState
	Newer *SolutionState

	// ProjectKey identifies the affected project; zero for solution-level events.
	ProjectKey domain.ProjectKey

	// DocumentKey identifies the affected document; zero for project-level events.
	DocumentKey domain.DocumentKey

	// SolutionIsClosing is true when the event was produced during teardown.
	SolutionIsClosing bool
}

// Handler receives change events. Handlers run on the writer, one event at a
// time, in enqueue order. A handler may trigger further mutations; their
// events are appended to the queue and delivered after the events already in
// flight. Panics are recovered and logged.
type Handler func(ChangeEvent)
