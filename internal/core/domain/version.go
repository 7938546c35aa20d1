package domain

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// versionClock supplies the wall-clock instant for new stamps. Tests swap it
// for a fake via SetVersionClock in export_test.go.
var versionClock clockwork.Clock = clockwork.NewRealClock()

// VersionStamp is an opaque logical clock value. Two stamps taken from the
// same lineage are pairwise comparable via NewestVersion; stamps are not
// required to be globally ordered.
//
// A stamp combines a wall-clock instant with a local disambiguator so that a
// successor produced within the same clock tick still compares strictly newer.
type VersionStamp struct {
	instant time.Time
	local   int
}

// NewVersionStamp returns a fresh stamp for the current instant.
func NewVersionStamp() VersionStamp {
	// UTC() strips the monotonic reading so stamps stay comparable with ==.
	return VersionStamp{instant: versionClock.Now().UTC()}
}

// Next returns a stamp strictly newer than v: the current instant if the
// clock has advanced, otherwise v with its local counter bumped.
func (v VersionStamp) Next() VersionStamp {
	now := versionClock.Now().UTC()
	if now.After(v.instant) {
		return VersionStamp{instant: now}
	}
	return VersionStamp{instant: v.instant, local: v.local + 1}
}

// NewerThan reports whether v is strictly newer than other.
func (v VersionStamp) NewerThan(other VersionStamp) bool {
	if v.instant.Equal(other.instant) {
		return v.local > other.local
	}
	return v.instant.After(other.instant)
}

// NewestVersion returns the newer of the two stamps. When equal, a is returned.
func NewestVersion(a, b VersionStamp) VersionStamp {
	if b.NewerThan(a) {
		return b
	}
	return a
}

// String formats the stamp for logging and span attributes.
func (v VersionStamp) String() string {
	return fmt.Sprintf("%s+%d", v.instant.Format(time.RFC3339Nano), v.local)
}
