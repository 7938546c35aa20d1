package snapshot

import (
	"maps"
	"slices"
	"strings"

	"go.trai.ch/loom/internal/core/domain"
)

// SolutionState is the immutable root snapshot: the project map, the set of
// currently open documents, and the closing flag. Once the closing flag is
// set every transformation is a no-op returning the receiver, so teardown
// never pays for recomputation.
type SolutionState struct {
	projects map[domain.ProjectKey]*ProjectState
	open     map[domain.DocumentKey]struct{}
	closing  bool
}

// newSolutionState creates the empty snapshot installed at host startup.
func newSolutionState() *SolutionState {
	return &SolutionState{
		projects: make(map[domain.ProjectKey]*ProjectState),
		open:     make(map[domain.DocumentKey]struct{}),
	}
}

// Project returns the state of the project with the given key.
func (s *SolutionState) Project(key domain.ProjectKey) (*ProjectState, bool) {
	p, ok := s.projects[key]
	return p, ok
}

// ProjectKeys returns the keys of every loaded project, in deterministic order.
func (s *SolutionState) ProjectKeys() []domain.ProjectKey {
	keys := make([]domain.ProjectKey, 0, len(s.projects))
	for key := range s.projects {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b domain.ProjectKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// IsClosing reports whether solution teardown has begun.
func (s *SolutionState) IsClosing() bool {
	return s.closing
}

// IsDocumentOpen reports whether the document is in the open set.
func (s *SolutionState) IsDocumentOpen(key domain.DocumentKey) bool {
	_, ok := s.open[key]
	return ok
}

// OpenDocuments returns the open document keys, in deterministic order.
func (s *SolutionState) OpenDocuments() []domain.DocumentKey {
	keys := make([]domain.DocumentKey, 0, len(s.open))
	for key := range s.open {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b domain.DocumentKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// withProject installs a new state for one project, or the project itself
// when absent before. Returns the receiver when nothing changed.
func (s *SolutionState) withProject(project *ProjectState) *SolutionState {
	if s.closing {
		return s
	}
	key := project.Key()
	if existing, ok := s.projects[key]; ok && existing == project {
		return s
	}
	next := s.clone()
	next.projects = maps.Clone(s.projects)
	next.projects[key] = project
	return next
}

// withoutProject removes a project. No-op if absent. Documents of a removed
// project are dropped from the open set: their open lifetime is bound to the
// project that owns them.
func (s *SolutionState) withoutProject(key domain.ProjectKey) *SolutionState {
	if s.closing {
		return s
	}
	project, ok := s.projects[key]
	if !ok {
		return s
	}
	next := s.clone()
	next.projects = maps.Clone(s.projects)
	delete(next.projects, key)

	open := maps.Clone(s.open)
	for docKey := range s.open {
		if _, owned := project.documents[docKey]; owned {
			delete(open, docKey)
		}
	}
	next.open = open
	return next
}

// transformProject applies a copy-on-write project operation. Returns the
// receiver when the project is absent or the operation was a no-op.
func (s *SolutionState) transformProject(key domain.ProjectKey, op func(*ProjectState) *ProjectState) *SolutionState {
	if s.closing {
		return s
	}
	project, ok := s.projects[key]
	if !ok {
		return s
	}
	replaced := op(project)
	if replaced == project {
		return s
	}
	return s.withProject(replaced)
}

// withDocumentOpen marks a document open and installs the buffer-backed
// document state produced by op.
func (s *SolutionState) withDocumentOpen(key domain.ProjectKey, doc domain.DocumentKey, op func(*ProjectState) *ProjectState) *SolutionState {
	next := s.transformProject(key, op)
	if next.closing {
		return next
	}
	if next.IsDocumentOpen(doc) {
		return next
	}
	project, ok := next.projects[key]
	if !ok {
		return next
	}
	if _, owned := project.documents[doc]; !owned {
		return next
	}
	out := next.clone()
	out.open = maps.Clone(next.open)
	out.open[doc] = struct{}{}
	return out
}

// withDocumentClosed unmarks a document as open and installs the disk-backed
// document state produced by op.
func (s *SolutionState) withDocumentClosed(key domain.ProjectKey, doc domain.DocumentKey, op func(*ProjectState) *ProjectState) *SolutionState {
	next := s.transformProject(key, op)
	if next.closing {
		return next
	}
	if !next.IsDocumentOpen(doc) {
		return next
	}
	out := next.clone()
	out.open = maps.Clone(next.open)
	delete(out.open, doc)
	return out
}

// withClosing flips the closing flag. The flag is terminal for mutations:
// setting it short-circuits every later transformation, while reads continue
// to succeed against the frozen snapshot.
func (s *SolutionState) withClosing(closing bool) *SolutionState {
	if s.closing == closing {
		return s
	}
	next := s.clone()
	next.closing = closing
	return next
}

func (s *SolutionState) clone() *SolutionState {
	next := *s
	return &next
}
