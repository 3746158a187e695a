package crawler

import (
	"time"

	"github.com/aleister1102/snapcrawl/internal/models"
)

// Status returns a snapshot of the session for the control surface
func (e *Engine) Status() models.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.Status{
		SessionID:   e.sessionID,
		State:       e.machine.State(),
		StartURL:    e.startURL,
		Visited:     e.frontier.VisitedCount(),
		Queued:      e.frontier.Len(),
		Elapsed:     e.elapsedLocked(),
		CurrentPage: e.currentPage,
	}
}

// elapsedLocked is wall time since start minus time spent paused
func (e *Engine) elapsedLocked() time.Duration {
	if e.startedAt.IsZero() {
		return 0
	}
	end := e.finishedAt
	if end.IsZero() {
		end = e.now()
	}
	paused := e.pausedTotal
	if !e.pausedAt.IsZero() {
		paused += end.Sub(e.pausedAt)
	}
	elapsed := end.Sub(e.startedAt) - paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
