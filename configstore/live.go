package configstore

import (
	"sync/atomic"

	"github.com/pithecene-io/tornado/matcher"
)

// Live holds the in-process matcher snapshot event processing reads from.
// A deploy rebuilds a new Matcher and swaps the pointer as a whole;
// in-flight Process calls that already loaded the old snapshot keep
// running against it (§4.5 "atomic swap", §5 "a process call sees either
// the pre-swap or the post-swap matcher, never a mix").
type Live struct {
	ptr atomic.Pointer[matcher.Matcher]
}

// NewLive returns a Live snapshot holder seeded with m.
func NewLive(m *matcher.Matcher) *Live {
	l := &Live{}
	l.ptr.Store(m)
	return l
}

// Snapshot returns the currently live Matcher.
func (l *Live) Snapshot() *matcher.Matcher {
	return l.ptr.Load()
}

// Swap installs m as the new live Matcher. Called by a Store
// implementation after a deploy has been validated and persisted; not
// meant to be called by ordinary event-processing callers.
func (l *Live) Swap(m *matcher.Matcher) {
	l.ptr.Store(m)
}
