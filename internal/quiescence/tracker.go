package quiescence

import (
	"sync"
	"time"
)

// Clock returns the current time; tests inject a fake one
type Clock func() time.Time

// Observer receives the activity signals a rendered page context emits
type Observer interface {
	RequestStarted()
	RequestFinished()
	StructureMutated()
}

// Activity is a point-in-time view of one page context
type Activity struct {
	Pending      int
	LastNetwork  time.Time
	LastMutation time.Time
}

// Tracker counts in-flight requests and remembers the last network and
// structural activity of one page context.
type Tracker struct {
	mu           sync.Mutex
	pending      int
	lastNetwork  time.Time
	lastMutation time.Time
	now          Clock
}

// NewTracker creates a tracker whose activity timestamps start at creation time
func NewTracker(now Clock) *Tracker {
	if now == nil {
		now = time.Now
	}
	created := now()
	return &Tracker{
		lastNetwork:  created,
		lastMutation: created,
		now:          now,
	}
}

// RequestStarted records a request issued by the context
func (t *Tracker) RequestStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending++
	t.lastNetwork = t.now()
}

// RequestFinished records completion of a request, whether it succeeded or failed
func (t *Tracker) RequestFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending > 0 {
		t.pending--
	}
	t.lastNetwork = t.now()
}

// StructureMutated records a change to the content tree
func (t *Tracker) StructureMutated() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastMutation = t.now()
}

// Snapshot returns the current activity
func (t *Tracker) Snapshot() Activity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Activity{
		Pending:      t.pending,
		LastNetwork:  t.lastNetwork,
		LastMutation: t.lastMutation,
	}
}
