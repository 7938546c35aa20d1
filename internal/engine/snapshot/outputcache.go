package snapshot

import (
	"sync"

	"go.trai.ch/loom/internal/core/domain"
)

// OutputEntry is one memoized compilation result: the generated output and
// the composite input version it was computed from. Entries are never mutated
// in place.
type OutputEntry struct {
	Output  *domain.GeneratedOutput
	Version domain.VersionStamp
}

// outputFuture is a single in-flight compilation shared by every concurrent
// caller of one document state. The first caller starts it; the rest await
// done. A caller that cancels abandons only its own wait.
type outputFuture struct {
	version domain.VersionStamp
	done    chan struct{}

	// entry and err are written once, before done is closed.
	entry *OutputEntry
	err   error
}

// outputCache is the per-document memoization handle. Document transitions
// that merely might affect output (configuration, imports, workspace state)
// carry the same handle onto the new immutable document instance, so an
// in-flight computation is adopted instead of duplicated; transitions known
// to affect output (text) allocate a fresh handle.
//
// The stored entry is reclaimable: evict drops it, and callers treat a
// missing entry exactly like one that was never computed.
type outputCache struct {
	mu      sync.Mutex
	entry   *OutputEntry
	pending *outputFuture
}

func newOutputCache() *outputCache {
	return &outputCache{}
}

// get returns the memoized entry iff it was computed from version.
func (c *outputCache) get(version domain.VersionStamp) *OutputEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry != nil && c.entry.Version == version {
		return c.entry
	}
	return nil
}

// peek returns the memoized entry regardless of version, without triggering
// any computation.
func (c *outputCache) peek() *OutputEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

// join returns the in-flight future, creating one for version if none exists.
// started reports whether the caller owns the computation.
func (c *outputCache) join(version domain.VersionStamp) (fut *outputFuture, started bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return c.pending, false
	}
	c.pending = &outputFuture{version: version, done: make(chan struct{})}
	return c.pending, true
}

// complete resolves fut and wakes every waiter. Successful results are
// memoized; failures are not, so the next read retries from scratch.
func (c *outputCache) complete(fut *outputFuture, entry *OutputEntry, err error) {
	c.mu.Lock()
	if err == nil {
		c.entry = entry
	}
	if c.pending == fut {
		c.pending = nil
	}
	c.mu.Unlock()

	fut.entry = entry
	fut.err = err
	close(fut.done)
}

// evict drops the memoized entry. In-flight computations are unaffected.
func (c *outputCache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}
