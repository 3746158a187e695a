package models

import "time"

// SessionState is the lifecycle state of a crawl session
type SessionState string

const (
	SessionIdle     SessionState = "idle"
	SessionRunning  SessionState = "running"
	SessionPaused   SessionState = "paused"
	SessionStopping SessionState = "stopping"
)

// Status is the read-only projection exposed to the control surface
type Status struct {
	SessionID   string        `json:"session_id,omitempty"`
	State       SessionState  `json:"state"`
	StartURL    string        `json:"start_url,omitempty"`
	Visited     int           `json:"visited"`
	Queued      int           `json:"queued"`
	Elapsed     time.Duration `json:"elapsed"`
	CurrentPage string        `json:"current_page,omitempty"`
}
