package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
)

// ErrInvalidTransition is returned when a control operation does not apply to the current state
var ErrInvalidTransition = errors.New("invalid session transition")

// TransitionError describes a rejected control operation
type TransitionError struct {
	Op    string
	State models.SessionState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s rejected in state %s", e.Op, e.State)
}

// Unwrap lets errors.Is match ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Machine holds the session lifecycle state.
// Idle -> Running <-> Paused; Running|Paused -> Stopping -> Idle.
type Machine struct {
	mu     sync.RWMutex
	state  models.SessionState
	logger zerolog.Logger
}

// NewMachine creates a machine in Idle
func NewMachine(logger zerolog.Logger) *Machine {
	return &Machine{
		state:  models.SessionIdle,
		logger: logger.With().Str("component", "SessionMachine").Logger(),
	}
}

// State returns the current state
func (m *Machine) State() models.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Start moves Idle to Running
func (m *Machine) Start() error {
	return m.transition("start", models.SessionRunning, models.SessionIdle)
}

// TogglePause flips between Running and Paused and returns the new state
func (m *Machine) TogglePause() (models.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case models.SessionRunning:
		m.state = models.SessionPaused
	case models.SessionPaused:
		m.state = models.SessionRunning
	default:
		return m.state, m.reject("pause")
	}
	m.logger.Info().Str("state", string(m.state)).Msg("Session pause toggled")
	return m.state, nil
}

// BeginStop moves Running or Paused to Stopping
func (m *Machine) BeginStop() error {
	return m.transition("stop", models.SessionStopping, models.SessionRunning, models.SessionPaused)
}

// FinishStop moves Stopping to Idle
func (m *Machine) FinishStop() error {
	return m.transition("finish-stop", models.SessionIdle, models.SessionStopping)
}

// Complete moves Running to Idle after the frontier drains or the budget is spent
func (m *Machine) Complete() error {
	return m.transition("complete", models.SessionIdle, models.SessionRunning)
}

// Abort forces Idle from any state
func (m *Machine) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != models.SessionIdle {
		m.logger.Warn().Str("from", string(m.state)).Msg("Session aborted")
	}
	m.state = models.SessionIdle
}

func (m *Machine) transition(op string, to models.SessionState, from ...models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range from {
		if m.state == allowed {
			m.logger.Debug().Str("op", op).Str("from", string(m.state)).Str("to", string(to)).Msg("Session transition")
			m.state = to
			return nil
		}
	}
	return m.reject(op)
}

func (m *Machine) reject(op string) error {
	m.logger.Warn().Str("op", op).Str("state", string(m.state)).Msg("Control operation rejected")
	return &TransitionError{Op: op, State: m.state}
}
