package quiescence

import (
	"sync"
	"time"
)

// Registry maps page-context identities to their trackers for one session.
// Entries are removed explicitly with Discard.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	now      Clock
}

// NewRegistry creates an empty registry
func NewRegistry(now Clock) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		trackers: make(map[string]*Tracker),
		now:      now,
	}
}

// Acquire installs a fresh tracker for id, replacing any previous one
func (r *Registry) Acquire(id string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracker := NewTracker(r.now)
	r.trackers[id] = tracker
	return tracker
}

// Lookup returns the tracker for id, creating one if missing
func (r *Registry) Lookup(id string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tracker, ok := r.trackers[id]; ok {
		return tracker
	}
	tracker := NewTracker(r.now)
	r.trackers[id] = tracker
	return tracker
}

// Discard removes the tracker for id
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, id)
}

// Reset drops every tracker
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackers = make(map[string]*Tracker)
}

// Len returns the number of live trackers
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trackers)
}
