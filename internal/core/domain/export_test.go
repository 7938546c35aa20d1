package domain

import "github.com/jonboulle/clockwork"

// SetVersionClock swaps the stamp clock for tests and returns a restore func.
func SetVersionClock(c clockwork.Clock) func() {
	prev := versionClock
	versionClock = c
	return func() { versionClock = prev }
}
