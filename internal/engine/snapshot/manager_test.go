package snapshot_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/engine/snapshot"
)

func newTestManager() (*snapshot.Manager, *recordingLogger) {
	logger := &recordingLogger{}
	compiler := &countingCompiler{}
	return snapshot.NewManager(compiler, mapResolver{}, logger), logger
}

func TestManager_ProjectLifecycleEvents(t *testing.T) {
	manager, _ := newTestManager()

	var kinds []snapshot.ChangeKind
	manager.Subscribe(func(e snapshot.ChangeEvent) {
		kinds = append(kinds, e.Kind)
	})

	host := testHostProject()
	doc := hostDoc("pages/index.weft", domain.FileKindTemplate)

	manager.ProjectAdded(host, testWorkspace())
	manager.DocumentAdded(host.Key(), doc, newCountingSource("x"))
	manager.DocumentChanged(host.Key(), doc.Key(), "y", domain.NewVersionStamp())
	manager.DocumentRemoved(host.Key(), doc.Key())
	manager.ProjectRemoved(host.Key())

	require.Equal(t, []snapshot.ChangeKind{
		snapshot.KindProjectAdded,
		snapshot.KindDocumentAdded,
		snapshot.KindDocumentChanged,
		snapshot.KindDocumentRemoved,
		snapshot.KindProjectRemoved,
	}, kinds)
}

func TestManager_NoOpMutationEmitsNoEvent(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	manager.ProjectAdded(host, testWorkspace())

	events := 0
	manager.Subscribe(func(snapshot.ChangeEvent) { events++ })

	before := manager.CurrentSolution()
	manager.ProjectAdded(host, testWorkspace())
	manager.ProjectRemoved(domain.NewProjectKey("/nowhere"))

	require.Same(t, before, manager.CurrentSolution(), "no-op mutations must keep the snapshot pointer")
	require.Zero(t, events)
}

func TestManager_EventCarriesSnapshotPair(t *testing.T) {
	manager, _ := newTestManager()

	var event snapshot.ChangeEvent
	manager.Subscribe(func(e snapshot.ChangeEvent) { event = e })

	before := manager.CurrentSolution()
	host := testHostProject()
	manager.ProjectAdded(host, testWorkspace())

	require.Same(t, before, event.Older)
	require.Same(t, manager.CurrentSolution(), event.Newer)
	require.Equal(t, host.Key(), event.ProjectKey)

	_, ok := event.Older.Project(host.Key())
	require.False(t, ok)
	_, ok = event.Newer.Project(host.Key())
	require.True(t, ok)
}

// A handler that reacts to an event by issuing another mutation must not
// deadlock, and its event must be delivered after the one being handled.
func TestManager_ReentrantMutationKeepsOrder(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	manager.ProjectAdded(host, testWorkspace())

	doc := hostDoc("pages/index.weft", domain.FileKindTemplate)

	var kinds []snapshot.ChangeKind
	manager.Subscribe(func(e snapshot.ChangeEvent) {
		kinds = append(kinds, e.Kind)
		if e.Kind == snapshot.KindDocumentAdded {
			manager.DocumentOpened(host.Key(), e.DocumentKey, "buffer", domain.NewVersionStamp())
		}
	})

	manager.DocumentAdded(host.Key(), doc, newCountingSource("x"))

	require.Equal(t, []snapshot.ChangeKind{
		snapshot.KindDocumentAdded,
		snapshot.KindDocumentOpened,
	}, kinds)
	require.True(t, manager.IsDocumentOpen(doc.Key()))
}

func TestManager_SubscriberOrderAndUnsubscribe(t *testing.T) {
	manager, _ := newTestManager()

	var order []string
	first := manager.Subscribe(func(snapshot.ChangeEvent) { order = append(order, "first") })
	manager.Subscribe(func(snapshot.ChangeEvent) { order = append(order, "second") })

	manager.ProjectAdded(testHostProject(), testWorkspace())
	require.Equal(t, []string{"first", "second"}, order)

	manager.Unsubscribe(first)
	order = nil
	manager.ProjectRemoved(testHostProject().Key())
	require.Equal(t, []string{"second"}, order)
}

func TestManager_HandlerPanicIsIsolated(t *testing.T) {
	manager, logger := newTestManager()

	reached := false
	manager.Subscribe(func(snapshot.ChangeEvent) { panic("boom") })
	manager.Subscribe(func(snapshot.ChangeEvent) { reached = true })

	manager.ProjectAdded(testHostProject(), testWorkspace())

	require.True(t, reached, "a panicking handler must not block the next one")
	require.Equal(t, 1, logger.errorCount())
}

func TestManager_ClosingFreezesMutations(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	doc := hostDoc("pages/index.weft", domain.FileKindTemplate)
	manager.ProjectAdded(host, testWorkspace())
	manager.DocumentAdded(host.Key(), doc, newCountingSource("x"))

	var kinds []snapshot.ChangeKind
	manager.Subscribe(func(e snapshot.ChangeEvent) { kinds = append(kinds, e.Kind) })

	manager.SolutionClosed()
	frozen := manager.CurrentSolution()
	require.True(t, frozen.IsClosing())

	manager.DocumentChanged(host.Key(), doc.Key(), "y", domain.NewVersionStamp())
	manager.ProjectRemoved(host.Key())
	manager.ProjectAdded(domain.HostProject{RootPath: "/work/other"}, testWorkspace())

	require.Same(t, frozen, manager.CurrentSolution(), "mutations while closing must not touch the snapshot")
	require.Equal(t, []snapshot.ChangeKind{snapshot.KindSolutionClosed}, kinds)

	project, ok := frozen.Project(host.Key())
	require.True(t, ok, "the frozen snapshot keeps its contents")
	require.Equal(t, 1, project.DocumentCount())

	manager.SolutionOpened()
	require.False(t, manager.CurrentSolution().IsClosing())
	manager.DocumentChanged(host.Key(), doc.Key(), "y", domain.NewVersionStamp())
	require.Equal(t, []snapshot.ChangeKind{
		snapshot.KindSolutionClosed,
		snapshot.KindSolutionOpened,
		snapshot.KindDocumentChanged,
	}, kinds)
}

func TestManager_ClosedEventSignalsClosing(t *testing.T) {
	manager, _ := newTestManager()

	var event snapshot.ChangeEvent
	manager.Subscribe(func(e snapshot.ChangeEvent) { event = e })

	manager.SolutionClosed()
	require.Equal(t, snapshot.KindSolutionClosed, event.Kind)
	require.True(t, event.SolutionIsClosing)
}

func TestManager_OpenDocumentSemantics(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	doc := hostDoc("pages/index.weft", domain.FileKindTemplate)
	manager.ProjectAdded(host, testWorkspace())
	manager.DocumentAdded(host.Key(), doc, newCountingSource("disk"))

	require.False(t, manager.IsDocumentOpen(doc.Key()))

	manager.DocumentOpened(host.Key(), doc.Key(), "buffer", domain.NewVersionStamp())
	require.True(t, manager.IsDocumentOpen(doc.Key()))
	require.Equal(t, []domain.DocumentKey{doc.Key()}, manager.GetOpenDocuments())

	state, err := manager.GetRequiredDocument(host.Key(), doc.Key())
	require.NoError(t, err)
	text, _, err := state.Text(context.Background())
	require.NoError(t, err)
	require.Equal(t, "buffer", text)

	// Opening an unknown document is a no-op.
	before := manager.CurrentSolution()
	manager.DocumentOpened(host.Key(), domain.NewDocumentKey("/work/site/pages/ghost.weft"), "x", domain.NewVersionStamp())
	require.Same(t, before, manager.CurrentSolution())

	manager.DocumentClosed(host.Key(), doc.Key(), newCountingSource("disk2"))
	require.False(t, manager.IsDocumentOpen(doc.Key()))

	state, err = manager.GetRequiredDocument(host.Key(), doc.Key())
	require.NoError(t, err)
	text, _, err = state.Text(context.Background())
	require.NoError(t, err)
	require.Equal(t, "disk2", text)
}

func TestManager_RemovingOpenDocumentClosesIt(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	doc := hostDoc("pages/index.weft", domain.FileKindTemplate)
	manager.ProjectAdded(host, testWorkspace())
	manager.DocumentAdded(host.Key(), doc, newCountingSource("x"))
	manager.DocumentOpened(host.Key(), doc.Key(), "buffer", domain.NewVersionStamp())

	manager.DocumentRemoved(host.Key(), doc.Key())
	require.False(t, manager.IsDocumentOpen(doc.Key()))
	require.Empty(t, manager.GetOpenDocuments())
}

func TestManager_RemovingProjectClosesItsDocuments(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	doc := hostDoc("pages/index.weft", domain.FileKindTemplate)
	manager.ProjectAdded(host, testWorkspace())
	manager.DocumentAdded(host.Key(), doc, newCountingSource("x"))
	manager.DocumentOpened(host.Key(), doc.Key(), "buffer", domain.NewVersionStamp())

	manager.ProjectRemoved(host.Key())
	require.False(t, manager.IsDocumentOpen(doc.Key()))
}

func TestManager_ReadErrors(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	manager.ProjectAdded(host, testWorkspace())

	_, err := manager.GetLoadedProject(domain.NewProjectKey("/nowhere"))
	require.ErrorIs(t, err, domain.ErrProjectNotFound)

	_, err = manager.GetRequiredDocument(host.Key(), domain.NewDocumentKey("/work/site/pages/ghost.weft"))
	require.ErrorIs(t, err, domain.ErrDocumentNotFound)

	_, ok := manager.TryGetProject(domain.NewProjectKey("/nowhere"))
	require.False(t, ok)

	_, ok = manager.TryGetDocument(host.Key(), domain.NewDocumentKey("/work/site/pages/ghost.weft"))
	require.False(t, ok)

	_, _, err = manager.GetGeneratedOutputAndVersion(context.Background(), domain.NewProjectKey("/nowhere"), domain.DocumentKey{})
	require.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestManager_GetGeneratedOutput(t *testing.T) {
	manager, _ := newTestManager()
	host := testHostProject()
	doc := hostDoc("pages/index.weft", domain.FileKindTemplate)
	manager.ProjectAdded(host, testWorkspace())
	manager.DocumentAdded(host.Key(), doc, newCountingSource("<h1>hi</h1>"))

	out, version, err := manager.GetGeneratedOutputAndVersion(context.Background(), host.Key(), doc.Key())
	require.NoError(t, err)
	require.Contains(t, out.Code, "<h1>hi</h1>")

	again, sameVersion, err := manager.GetGeneratedOutputAndVersion(context.Background(), host.Key(), doc.Key())
	require.NoError(t, err)
	require.Same(t, out, again)
	require.Equal(t, version, sameVersion)
}

// Concurrent writers each observe a consistent older/newer pair: every event's
// Older is the previous event's Newer, forming one linear snapshot chain.
func TestManager_ConcurrentWritersFormLinearHistory(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		manager, _ := newTestManager()
		host := testHostProject()
		manager.ProjectAdded(host, testWorkspace())

		var mu sync.Mutex
		var events []snapshot.ChangeEvent
		manager.Subscribe(func(e snapshot.ChangeEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		})

		var wg sync.WaitGroup
		docs := []domain.HostDocument{
			hostDoc("pages/a.weft", domain.FileKindTemplate),
			hostDoc("pages/b.weft", domain.FileKindTemplate),
			hostDoc("pages/c.weft", domain.FileKindTemplate),
			hostDoc("pages/d.weft", domain.FileKindTemplate),
		}
		for _, doc := range docs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				manager.DocumentAdded(host.Key(), doc, newCountingSource("x"))
			}()
		}
		wg.Wait()
		synctest.Wait()

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, events, len(docs))
		for i := 1; i < len(events); i++ {
			require.Same(t, events[i-1].Newer, events[i].Older, "events must chain through one linear history")
		}
		require.Same(t, manager.CurrentSolution(), events[len(events)-1].Newer)

		project, ok := manager.CurrentSolution().Project(host.Key())
		require.True(t, ok)
		require.Equal(t, len(docs), project.DocumentCount())
	})
}
