// Package taghelpers implements the workspace tag-helper provider.
package taghelpers

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/loom/internal/core/domain"
	"go.trai.ch/loom/internal/core/ports"
)

// Static serves a fixed tag-helper set that can be replaced wholesale, e.g.
// after the host rescans its assemblies. The version stamp advances only when
// the set's content hash actually changes, so a redundant replace never
// invalidates downstream caches.
type Static struct {
	mu      sync.RWMutex
	helpers []domain.TagHelper
	hash    uint64
	version domain.VersionStamp
}

// New creates a provider with the given initial set.
func New(helpers []domain.TagHelper) *Static {
	return &Static{
		helpers: helpers,
		hash:    hashHelpers(helpers),
		version: domain.NewVersionStamp(),
	}
}

// TagHelpers returns the current set and its version stamp.
func (s *Static) TagHelpers(_ context.Context) ([]domain.TagHelper, domain.VersionStamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.helpers, s.version, nil
}

// Replace installs a new set. Reports whether the set actually changed.
func (s *Static) Replace(helpers []domain.TagHelper) bool {
	hash := hashHelpers(helpers)

	s.mu.Lock()
	defer s.mu.Unlock()
	if hash == s.hash {
		return false
	}
	s.helpers = helpers
	s.hash = hash
	s.version = s.version.Next()
	return true
}

func hashHelpers(helpers []domain.TagHelper) uint64 {
	digest := xxhash.New()
	for _, helper := range helpers {
		_, _ = digest.WriteString(helper.Name)
		_, _ = digest.WriteString("\x00")
		_, _ = digest.WriteString(helper.Assembly)
		_, _ = digest.WriteString("\x01")
	}
	return digest.Sum64()
}

var _ ports.TagHelperProvider = (*Static)(nil)
