package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
	"go.trai.ch/zerr"
)

// Manager is the single mutable root of the engine. It owns the installed
// SolutionState reference, serializes every mutation through one logical
// writer, and delivers ordered change notifications.
//
// Mutations run to completion one at a time under the writer lock; the lock
// is internal, so callers never coordinate. Readers take the installed
// snapshot under a reader/writer lock and then operate lock-free on the
// immutable state. Notifications drain after the writer lock is released, so
// a handler may issue further mutations without deadlocking; their events are
// appended behind the events already in flight.
type Manager struct {
	compiler ports.Compiler
	resolver ports.ImportResolver
	logger   ports.Logger

	// writerMu is the single logical writer.
	writerMu sync.Mutex

	// stateMu guards only the root swap; readers hold it just long enough to
	// copy the pointer.
	stateMu sync.RWMutex
	current *SolutionState

	queueMu  sync.Mutex
	queue    []ChangeEvent
	draining bool

	subMu       sync.RWMutex
	subscribers []subscription
}

type subscription struct {
	id      uuid.UUID
	handler Handler
}

// NewManager creates a manager with an empty open solution.
func NewManager(compiler ports.Compiler, resolver ports.ImportResolver, logger ports.Logger) *Manager {
	return &Manager{
		compiler: compiler,
		resolver: resolver,
		logger:   logger,
		current:  newSolutionState(),
	}
}

// Subscribe registers a change handler and returns its subscription id.
// Handlers are invoked in subscription order.
func (m *Manager) Subscribe(handler Handler) uuid.UUID {
	id := uuid.New()
	m.subMu.Lock()
	m.subscribers = append(m.subscribers, subscription{id: id, handler: handler})
	m.subMu.Unlock()
	return id
}

// Unsubscribe removes a previously registered handler.
func (m *Manager) Unsubscribe(id uuid.UUID) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for i, sub := range m.subscribers {
		if sub.id == id {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return
		}
	}
}

// CurrentSolution returns the installed snapshot. The result is immutable and
// safe to read from any goroutine; it never observes a partial update.
func (m *Manager) CurrentSolution() *SolutionState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current
}

// update applies one transformation under the writer lock. On an effective
// change (old != new) the new root is installed atomically and exactly one
// event is enqueued; the queue is drained after the lock is released.
func (m *Manager) update(kind ChangeKind, projectKey domain.ProjectKey, documentKey domain.DocumentKey, apply func(*SolutionState) *SolutionState) {
	m.writerMu.Lock()
	older := m.current
	newer := apply(older)
	if newer != older {
		m.stateMu.Lock()
		m.current = newer
		m.stateMu.Unlock()

		m.queueMu.Lock()
		m.queue = append(m.queue, ChangeEvent{
			Kind:              kind,
			Older:             older,
			Newer:             newer,
			ProjectKey:        projectKey,
			DocumentKey:       documentKey,
			SolutionIsClosing: newer.IsClosing(),
		})
		m.queueMu.Unlock()
	}
	m.writerMu.Unlock()

	m.drain()
}

// drain delivers queued events in FIFO order. Only one drainer runs at a
// time: a reentrant call (a handler issuing a mutation) enqueues and returns,
// and the active drainer picks the new event up after the ones in flight.
func (m *Manager) drain() {
	m.queueMu.Lock()
	if m.draining {
		m.queueMu.Unlock()
		return
	}
	m.draining = true
	for len(m.queue) > 0 {
		event := m.queue[0]
		m.queue = m.queue[1:]
		m.queueMu.Unlock()

		m.deliver(event)

		m.queueMu.Lock()
	}
	m.draining = false
	m.queueMu.Unlock()
}

// deliver invokes every subscriber for one event. Handler panics are caught
// and logged so one subscriber cannot block delivery to the rest or to
// subsequent events.
func (m *Manager) deliver(event ChangeEvent) {
	m.subMu.RLock()
	subs := make([]subscription, len(m.subscribers))
	copy(subs, m.subscribers)
	m.subMu.RUnlock()

	for _, sub := range subs {
		m.invoke(sub, event)
	}
}

func (m *Manager) invoke(sub subscription, event ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(zerr.With(zerr.New(fmt.Sprintf("change handler panicked: %v", r)), "kind", string(event.Kind)))
		}
	}()
	sub.handler(event)
}

// ProjectAdded loads a project. No-op if the key is already present.
func (m *Manager) ProjectAdded(host domain.HostProject, workspace domain.WorkspaceState) {
	m.update(KindProjectAdded, host.Key(), domain.DocumentKey{}, func(s *SolutionState) *SolutionState {
		if s.IsClosing() {
			return s
		}
		if _, exists := s.Project(host.Key()); exists {
			return s
		}
		return s.withProject(NewProjectState(m.compiler, m.resolver, host, workspace))
	})
}

// ProjectRemoved unloads a project. No-op if absent.
func (m *Manager) ProjectRemoved(key domain.ProjectKey) {
	m.update(KindProjectRemoved, key, domain.DocumentKey{}, func(s *SolutionState) *SolutionState {
		return s.withoutProject(key)
	})
}

// ProjectConfigurationChanged replaces a project's host record.
func (m *Manager) ProjectConfigurationChanged(host domain.HostProject) {
	m.update(KindProjectChanged, host.Key(), domain.DocumentKey{}, func(s *SolutionState) *SolutionState {
		return s.transformProject(host.Key(), func(p *ProjectState) *ProjectState {
			return p.WithHostProject(host)
		})
	})
}

// WorkspaceStateChanged replaces a project's workspace metadata.
func (m *Manager) WorkspaceStateChanged(key domain.ProjectKey, workspace domain.WorkspaceState) {
	m.update(KindProjectChanged, key, domain.DocumentKey{}, func(s *SolutionState) *SolutionState {
		return s.transformProject(key, func(p *ProjectState) *ProjectState {
			return p.WithWorkspaceState(workspace)
		})
	})
}

// DocumentAdded adds a document to a project. No-op if already present.
func (m *Manager) DocumentAdded(key domain.ProjectKey, host domain.HostDocument, source ports.TextSource) {
	m.update(KindDocumentAdded, key, host.Key(), func(s *SolutionState) *SolutionState {
		return s.transformProject(key, func(p *ProjectState) *ProjectState {
			return p.AddDocument(host, source)
		})
	})
}

// DocumentRemoved removes a document from a project. No-op if absent.
func (m *Manager) DocumentRemoved(key domain.ProjectKey, doc domain.DocumentKey) {
	m.update(KindDocumentRemoved, key, doc, func(s *SolutionState) *SolutionState {
		next := s.transformProject(key, func(p *ProjectState) *ProjectState {
			return p.RemoveDocument(doc)
		})
		if next == s || !next.IsDocumentOpen(doc) {
			return next
		}
		return next.withDocumentClosed(key, doc, func(p *ProjectState) *ProjectState { return p })
	})
}

// DocumentChanged replaces a document's content with host-supplied text.
func (m *Manager) DocumentChanged(key domain.ProjectKey, doc domain.DocumentKey, text string, version domain.VersionStamp) {
	m.update(KindDocumentChanged, key, doc, func(s *SolutionState) *SolutionState {
		return s.transformProject(key, func(p *ProjectState) *ProjectState {
			return p.UpdateDocumentText(doc, text, version)
		})
	})
}

// DocumentSourceChanged replaces a document's text source, e.g. after the
// file changed on disk and must be re-read lazily.
func (m *Manager) DocumentSourceChanged(key domain.ProjectKey, doc domain.DocumentKey, source ports.TextSource) {
	m.update(KindDocumentChanged, key, doc, func(s *SolutionState) *SolutionState {
		return s.transformProject(key, func(p *ProjectState) *ProjectState {
			return p.UpdateDocumentSource(doc, source)
		})
	})
}

// DocumentOpened marks a document open and installs its editor buffer text.
func (m *Manager) DocumentOpened(key domain.ProjectKey, doc domain.DocumentKey, text string, version domain.VersionStamp) {
	m.update(KindDocumentOpened, key, doc, func(s *SolutionState) *SolutionState {
		return s.withDocumentOpen(key, doc, func(p *ProjectState) *ProjectState {
			return p.UpdateDocumentText(doc, text, version)
		})
	})
}

// DocumentClosed marks a document closed and reverts it to the given source,
// typically disk-backed.
func (m *Manager) DocumentClosed(key domain.ProjectKey, doc domain.DocumentKey, source ports.TextSource) {
	m.update(KindDocumentClosed, key, doc, func(s *SolutionState) *SolutionState {
		return s.withDocumentClosed(key, doc, func(p *ProjectState) *ProjectState {
			return p.UpdateDocumentSource(doc, source)
		})
	})
}

// SolutionClosed begins teardown: the closing flag freezes the snapshot and
// every later mutation becomes a no-op until SolutionOpened.
func (m *Manager) SolutionClosed() {
	m.update(KindSolutionClosed, domain.ProjectKey{}, domain.DocumentKey{}, func(s *SolutionState) *SolutionState {
		return s.withClosing(true)
	})
}

// SolutionOpened clears the closing flag after a close, re-enabling mutation.
func (m *Manager) SolutionOpened() {
	m.update(KindSolutionOpened, domain.ProjectKey{}, domain.DocumentKey{}, func(s *SolutionState) *SolutionState {
		return s.withClosing(false)
	})
}

// GetLoadedProject returns the project for key. The caller must know the
// project exists; an unknown key is a precondition violation.
func (m *Manager) GetLoadedProject(key domain.ProjectKey) (*ProjectState, error) {
	project, ok := m.CurrentSolution().Project(key)
	if !ok {
		return nil, zerr.With(domain.ErrProjectNotFound, "project", key.String())
	}
	return project, nil
}

// TryGetProject returns the project for key, if loaded.
func (m *Manager) TryGetProject(key domain.ProjectKey) (*ProjectState, bool) {
	return m.CurrentSolution().Project(key)
}

// GetRequiredDocument returns the document in the given project. Unknown
// keys are precondition violations.
func (m *Manager) GetRequiredDocument(key domain.ProjectKey, doc domain.DocumentKey) (*DocumentState, error) {
	project, err := m.GetLoadedProject(key)
	if err != nil {
		return nil, err
	}
	state, ok := project.Document(doc)
	if !ok {
		return nil, zerr.With(domain.ErrDocumentNotFound, "document", doc.String())
	}
	return state, nil
}

// TryGetDocument returns the document in the given project, if present.
func (m *Manager) TryGetDocument(key domain.ProjectKey, doc domain.DocumentKey) (*DocumentState, bool) {
	project, ok := m.CurrentSolution().Project(key)
	if !ok {
		return nil, false
	}
	return project.Document(doc)
}

// GetOpenDocuments returns the open document keys of the current snapshot.
func (m *Manager) GetOpenDocuments() []domain.DocumentKey {
	return m.CurrentSolution().OpenDocuments()
}

// IsDocumentOpen reports whether the document is open in the current snapshot.
func (m *Manager) IsDocumentOpen(doc domain.DocumentKey) bool {
	return m.CurrentSolution().IsDocumentOpen(doc)
}

// GetGeneratedOutputAndVersion compiles (or returns the memoized output of)
// one document against the current snapshot.
func (m *Manager) GetGeneratedOutputAndVersion(ctx context.Context, key domain.ProjectKey, doc domain.DocumentKey) (*domain.GeneratedOutput, domain.VersionStamp, error) {
	solution := m.CurrentSolution()
	project, ok := solution.Project(key)
	if !ok {
		return nil, domain.VersionStamp{}, zerr.With(domain.ErrProjectNotFound, "project", key.String())
	}
	state, ok := project.Document(doc)
	if !ok {
		return nil, domain.VersionStamp{}, zerr.With(domain.ErrDocumentNotFound, "document", doc.String())
	}
	return state.GeneratedOutput(ctx, project)
}
