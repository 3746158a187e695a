package session

import (
	"testing"

	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_Lifecycle(t *testing.T) {
	m := NewMachine(zerolog.Nop())
	assert.Equal(t, models.SessionIdle, m.State())

	require.NoError(t, m.Start())
	assert.Equal(t, models.SessionRunning, m.State())

	state, err := m.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaused, state)

	state, err = m.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, models.SessionRunning, state)

	require.NoError(t, m.BeginStop())
	assert.Equal(t, models.SessionStopping, m.State())
	require.NoError(t, m.FinishStop())
	assert.Equal(t, models.SessionIdle, m.State())
}

func TestMachine_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
		op    func(m *Machine) error
		want  models.SessionState
	}{
		{
			name:  "start while running",
			setup: func(m *Machine) { _ = m.Start() },
			op:    func(m *Machine) error { return m.Start() },
			want:  models.SessionRunning,
		},
		{
			name: "pause while idle",
			op: func(m *Machine) error {
				_, err := m.TogglePause()
				return err
			},
			want: models.SessionIdle,
		},
		{
			name: "stop while idle",
			op:   func(m *Machine) error { return m.BeginStop() },
			want: models.SessionIdle,
		},
		{
			name: "complete while paused",
			setup: func(m *Machine) {
				_ = m.Start()
				_, _ = m.TogglePause()
			},
			op:   func(m *Machine) error { return m.Complete() },
			want: models.SessionPaused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(zerolog.Nop())
			if tt.setup != nil {
				tt.setup(m)
			}
			err := tt.op(m)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.want, m.State())
		})
	}
}

func TestMachine_StopFromPaused(t *testing.T) {
	m := NewMachine(zerolog.Nop())
	require.NoError(t, m.Start())
	_, err := m.TogglePause()
	require.NoError(t, err)
	require.NoError(t, m.BeginStop())
	require.NoError(t, m.FinishStop())
	assert.Equal(t, models.SessionIdle, m.State())
}

func TestMachine_CompleteAndAbort(t *testing.T) {
	m := NewMachine(zerolog.Nop())
	require.NoError(t, m.Start())
	require.NoError(t, m.Complete())
	assert.Equal(t, models.SessionIdle, m.State())

	require.NoError(t, m.Start())
	m.Abort()
	assert.Equal(t, models.SessionIdle, m.State())
}
