package quiescence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mutatingSource reports a mutation at the current instant on every poll
type mutatingSource struct {
	clock *fakeClock
	polls int
}

func (s *mutatingSource) Snapshot() Activity {
	s.polls++
	now := s.clock.Now()
	return Activity{LastNetwork: now.Add(-time.Hour), LastMutation: now}
}

func testQuiescenceConfig(maxAttempts int) config.QuiescenceConfig {
	return config.QuiescenceConfig{IdleThresholdMs: 1000, PollIntervalMs: 1, MaxAttempts: maxAttempts}
}

func TestDetector_ResolvesOnFirstPoll(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(clock.Now)
	clock.Advance(2 * time.Second)

	detector := NewDetector(testQuiescenceConfig(120), clock.Now, zerolog.Nop())
	result, err := detector.Wait(context.Background(), tracker)
	require.NoError(t, err)
	assert.True(t, result.Settled)
	assert.Equal(t, 1, result.Attempts)
}

func TestDetector_ResolvesAtAttemptCeiling(t *testing.T) {
	clock := newFakeClock()
	source := &mutatingSource{clock: clock}

	detector := NewDetector(testQuiescenceConfig(5), clock.Now, zerolog.Nop())
	result, err := detector.Wait(context.Background(), source)
	require.NoError(t, err)
	assert.False(t, result.Settled)
	assert.Equal(t, 5, result.Attempts)
	assert.Equal(t, 5, source.polls)
}

func TestDetector_PendingRequestsBlockIdle(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(clock.Now)
	tracker.RequestStarted()
	clock.Advance(5 * time.Second)

	detector := NewDetector(testQuiescenceConfig(3), clock.Now, zerolog.Nop())
	assert.False(t, detector.IsQuiet(tracker.Snapshot()))

	tracker.RequestFinished()
	assert.False(t, detector.IsQuiet(tracker.Snapshot()), "finish resets the network idle timer")

	clock.Advance(1001 * time.Millisecond)
	assert.True(t, detector.IsQuiet(tracker.Snapshot()))
}

func TestDetector_StructuralIdleUsesHalfThreshold(t *testing.T) {
	clock := newFakeClock()
	tracker := NewTracker(clock.Now)
	clock.Advance(2 * time.Second)
	tracker.StructureMutated()

	detector := NewDetector(testQuiescenceConfig(3), clock.Now, zerolog.Nop())

	clock.Advance(400 * time.Millisecond)
	assert.False(t, detector.IsQuiet(tracker.Snapshot()))

	clock.Advance(200 * time.Millisecond)
	assert.True(t, detector.IsQuiet(tracker.Snapshot()))
}

func TestDetector_CancelledContext(t *testing.T) {
	clock := newFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	detector := NewDetector(testQuiescenceConfig(100), clock.Now, zerolog.Nop())
	_, err := detector.Wait(ctx, &mutatingSource{clock: clock})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTracker_FinishNeverGoesNegative(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.RequestFinished()
	assert.Equal(t, 0, tracker.Snapshot().Pending)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(nil)

	first := registry.Acquire("ctx-1")
	first.RequestStarted()
	assert.Same(t, first, registry.Lookup("ctx-1"))

	replaced := registry.Acquire("ctx-1")
	assert.NotSame(t, first, replaced)
	assert.Equal(t, 0, replaced.Snapshot().Pending)

	registry.Lookup("ctx-2")
	assert.Equal(t, 2, registry.Len())

	registry.Discard("ctx-1")
	assert.Equal(t, 1, registry.Len())

	registry.Reset()
	assert.Equal(t, 0, registry.Len())
}
