package quiescence

import (
	"context"
	"time"

	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/rs/zerolog"
)

// Source exposes the activity a Detector polls
type Source interface {
	Snapshot() Activity
}

// Result describes how a wait ended
type Result struct {
	Settled  bool
	Attempts int
}

// Detector polls a Source until it is both network and structurally idle,
// giving up after a bounded number of attempts.
type Detector struct {
	idleThreshold time.Duration
	pollInterval  time.Duration
	maxAttempts   int
	now           Clock
	logger        zerolog.Logger
}

// NewDetector creates a detector from cfg
func NewDetector(cfg config.QuiescenceConfig, now Clock, logger zerolog.Logger) *Detector {
	if now == nil {
		now = time.Now
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Detector{
		idleThreshold: cfg.IdleThreshold(),
		pollInterval:  cfg.PollInterval(),
		maxAttempts:   maxAttempts,
		now:           now,
		logger:        logger.With().Str("component", "QuiescenceDetector").Logger(),
	}
}

// IsQuiet reports whether activity satisfies both idle conditions at the current time
func (d *Detector) IsQuiet(activity Activity) bool {
	now := d.now()
	networkIdle := activity.Pending == 0 && now.Sub(activity.LastNetwork) > d.idleThreshold
	structuralIdle := now.Sub(activity.LastMutation) > d.idleThreshold/2
	return networkIdle && structuralIdle
}

// Wait polls source, the first time immediately. It returns Settled=false
// after maxAttempts polls; a timed-out wait is not an error. Only context
// cancellation yields an error.
func (d *Detector) Wait(ctx context.Context, source Source) (Result, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Attempts: attempt - 1}, err
		}

		if d.IsQuiet(source.Snapshot()) {
			return Result{Settled: true, Attempts: attempt}, nil
		}

		if attempt >= d.maxAttempts {
			d.logger.Warn().Int("attempts", attempt).Msg("Page did not settle, proceeding with degraded capture")
			return Result{Settled: false, Attempts: attempt}, nil
		}

		timer := time.NewTimer(d.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Attempts: attempt}, ctx.Err()
		case <-timer.C:
		}
	}
}
