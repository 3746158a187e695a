package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/aleister1102/snapcrawl/internal/allowlist"
	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/aleister1102/snapcrawl/internal/frontier"
	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/aleister1102/snapcrawl/internal/quiescence"
	"github.com/aleister1102/snapcrawl/internal/render"
	"github.com/aleister1102/snapcrawl/internal/rslimiter"
	"github.com/aleister1102/snapcrawl/internal/session"
	"github.com/aleister1102/snapcrawl/internal/urlhandler"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	errRenderFailed  = errors.New("render failed")
	errCaptureFailed = errors.New("capture failed")
)

// Engine runs one crawl session at a time. Control operations and the loop's
// iteration boundaries are serialized by mu; a page visit itself runs unlocked.
type Engine struct {
	mu sync.Mutex

	config     config.CrawlerConfig
	renderer   render.Renderer
	deliverer  Deliverer
	detector   *quiescence.Detector
	registry   *quiescence.Registry
	machine    *session.Machine
	frontier   *frontier.Frontier
	userRules  *allowlist.Set
	rules      *allowlist.Set
	normalizer *urlhandler.URLNormalizer
	guard      *rslimiter.MemoryGuard
	recorder   SessionRecorder
	manifest   ManifestSink
	now        quiescence.Clock
	logger     zerolog.Logger
	baseLogger zerolog.Logger

	sessionID   string
	startURL    string
	startOrigin string
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	loopActive  bool
	startedAt   time.Time
	finishedAt  time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	currentPage string
	records     []models.VisitRecord
}

// Start begins a new session at startURL, or at the configured start URL when empty.
// It is rejected unless the engine is Idle.
func (e *Engine) Start(ctx context.Context, startURL string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if state := e.machine.State(); state != models.SessionIdle {
		e.logger.Warn().Str("state", string(state)).Msg("Start ignored, a session is already active")
		return &session.TransitionError{Op: "start", State: state}
	}

	if startURL == "" {
		startURL = e.config.StartURL
	}
	normalized, err := e.normalizer.NormalizeURL(startURL)
	if err != nil {
		return errorwrapper.NewValidationError("start_url", startURL, err.Error())
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to parse start URL")
	}

	if err := e.machine.Start(); err != nil {
		return err
	}

	e.sessionID = uuid.NewString()
	e.startURL = normalized
	e.startOrigin = urlhandler.Origin(parsed)
	e.frontier.Reset()
	e.registry.Reset()
	e.records = nil
	e.startedAt = e.now()
	e.finishedAt = time.Time{}
	e.pausedAt = time.Time{}
	e.pausedTotal = 0
	e.currentPage = ""
	e.done = make(chan struct{})

	entries := append([]string{}, e.config.Allowlist...)
	entries = append(entries, e.userRules.Entries()...)
	entries = append(entries, parsed.Hostname())
	e.rules.Reset(entries...)

	e.frontier.Enqueue(normalized, 0, nil)
	e.ctx, e.cancel = context.WithCancel(ctx)

	if e.recorder != nil {
		if err := e.recorder.BeginSession(e.ctx, e.sessionID, normalized, e.startedAt); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to record session start")
		}
	}

	e.logger.Info().
		Str("session_id", e.sessionID).
		Str("start_url", normalized).
		Int("max_depth", e.config.MaxDepth).
		Int("max_pages", e.config.MaxPages).
		Strs("allowlist", e.rules.Entries()).
		Msg("Crawl session started")

	e.launchLoopLocked()
	return nil
}

// Pause toggles between Running and Paused. A pause takes effect at the next
// iteration boundary; resuming relaunches the loop if it has parked.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.machine.TogglePause()
	if err != nil {
		return err
	}

	switch state {
	case models.SessionPaused:
		e.pausedAt = e.now()
	case models.SessionRunning:
		if !e.pausedAt.IsZero() {
			e.pausedTotal += e.now().Sub(e.pausedAt)
			e.pausedAt = time.Time{}
		}
		if !e.loopActive {
			e.launchLoopLocked()
		}
	}
	return nil
}

// Stop discards queued work and cancels the in-flight page. The session
// reaches Idle once the loop observes the stop.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.machine.BeginStop(); err != nil {
		return err
	}
	e.frontier.Clear()
	if e.cancel != nil {
		e.cancel()
	}
	e.logger.Info().Str("session_id", e.sessionID).Msg("Stop requested")

	if !e.loopActive {
		e.finishStopLocked()
	}
	return nil
}

// Wait blocks until the current session returns to Idle or ctx is done
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddAllowlistEntry adds entry for this and future sessions; it applies from the next discovery pass
func (e *Engine) AddAllowlistEntry(entry string) error {
	if _, err := allowlist.ParseEntry(entry); err != nil {
		e.logger.Warn().Err(err).Str("entry", entry).Msg("Allowlist entry will never match")
	}
	if !e.userRules.Add(entry) {
		return errorwrapper.NewValidationError("entry", entry, "blank or already present")
	}
	e.rules.Add(entry)
	e.logger.Info().Str("entry", entry).Msg("Allowlist entry added")
	return nil
}

// RemoveAllowlistEntry removes entry from the user entries and the active session
func (e *Engine) RemoveAllowlistEntry(entry string) error {
	removedUser := e.userRules.Remove(entry)
	removedActive := e.rules.Remove(entry)
	if !removedUser && !removedActive {
		return errorwrapper.NewValidationError("entry", entry, "not in allowlist")
	}
	e.logger.Info().Str("entry", entry).Msg("Allowlist entry removed")
	return nil
}

// AllowlistEntries returns the entries the next discovery pass will use
func (e *Engine) AllowlistEntries() []string {
	return e.rules.Entries()
}

// VisitRecords returns a copy of the records of the current or last session
func (e *Engine) VisitRecords() []models.VisitRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.VisitRecord, len(e.records))
	copy(out, e.records)
	return out
}

func (e *Engine) launchLoopLocked() {
	e.loopActive = true
	go e.run(e.ctx)
}

// run visits one entry per iteration until the session parks or ends
func (e *Engine) run(ctx context.Context) {
	for {
		entry, ok := e.next(ctx)
		if !ok {
			return
		}

		if err := e.process(ctx, entry); err != nil && entry.Depth == 0 && errors.Is(err, errRenderFailed) && ctx.Err() == nil {
			e.abort(err)
			return
		}

		e.pace(ctx)
	}
}

// next decides at an iteration boundary whether the loop continues and with which entry
func (e *Engine) next(ctx context.Context) (models.FrontierEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.currentPage = ""
	switch e.machine.State() {
	case models.SessionPaused:
		e.loopActive = false
		e.logger.Info().Int("queued", e.frontier.Len()).Msg("Crawl loop parked while paused")
		return models.FrontierEntry{}, false
	case models.SessionStopping:
		e.finishStopLocked()
		return models.FrontierEntry{}, false
	case models.SessionIdle:
		e.loopActive = false
		return models.FrontierEntry{}, false
	}

	if ctx.Err() != nil {
		// parent context ended without an explicit Stop
		_ = e.machine.BeginStop()
		e.finishStopLocked()
		return models.FrontierEntry{}, false
	}

	if e.guard.Exceeded() {
		if _, err := e.machine.TogglePause(); err == nil {
			e.pausedAt = e.now()
			e.loopActive = false
			e.logger.Warn().Msg("Session paused on memory pressure")
			return models.FrontierEntry{}, false
		}
	}

	for {
		if e.frontier.BudgetExhausted() {
			e.completeLocked("page budget exhausted")
			return models.FrontierEntry{}, false
		}
		entry, ok := e.frontier.Dequeue()
		if !ok {
			e.completeLocked("frontier empty")
			return models.FrontierEntry{}, false
		}
		if e.frontier.IsVisited(entry.URL) || entry.Depth > e.config.MaxDepth {
			e.frontier.Release(entry.URL)
			e.logger.Debug().Str("url", entry.URL).Int("depth", entry.Depth).Msg("Skipping entry")
			continue
		}
		e.currentPage = entry.URL
		return entry, true
	}
}

// process visits one entry. Failures are logged and the entry is marked
// visited, except a seed render failure or a cancelled visit.
func (e *Engine) process(ctx context.Context, entry models.FrontierEntry) (err error) {
	seq := e.frontier.VisitedCount() + 1
	pageLogger := e.logger.With().Str("url", entry.URL).Int("depth", entry.Depth).Int("seq", seq).Logger()

	record := models.VisitRecord{
		SessionID: e.sessionID,
		Seq:       int32(seq),
		URL:       entry.URL,
		Depth:     int32(entry.Depth),
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while visiting %s: %v", entry.URL, r)
		}

		if err != nil {
			if ctx.Err() != nil || (entry.Depth == 0 && errors.Is(err, errRenderFailed)) {
				e.frontier.Release(entry.URL)
				pageLogger.Warn().Err(err).Msg("Visit abandoned")
				return
			}
			pageLogger.Error().Err(err).Msg("Page skipped")
			errText := err.Error()
			record.Error = &errText
			record.Channel = string(models.ChannelFailed)
		}

		e.frontier.MarkVisited(entry.URL)
		record.VisitedAtMs = e.now().UnixMilli()
		e.mu.Lock()
		e.records = append(e.records, record)
		e.mu.Unlock()
	}()

	contextID := uuid.NewString()
	tracker := e.registry.Acquire(contextID)
	defer e.registry.Discard(contextID)

	page, err := e.render(ctx, render.Target{ID: contextID, URL: entry.URL}, tracker)
	if err != nil {
		return fmt.Errorf("%w: %w", errRenderFailed, err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			pageLogger.Debug().Err(closeErr).Msg("Failed to close page")
		}
	}()

	settle, err := e.detector.Wait(ctx, tracker)
	if err != nil {
		return errorwrapper.WrapError(err, "quiescence wait interrupted")
	}
	record.Settled = settle.Settled
	record.PollAttempts = int32(settle.Attempts)

	html, err := page.HTML(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errCaptureFailed, err)
	}
	png, err := page.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errCaptureFailed, err)
	}

	payload := models.NewCapturePayload(page.URL(), e.now(), html, png)
	outcome := e.deliverer.Deliver(ctx, e.sessionID, payload, seq)
	record.Channel = string(outcome.Channel)

	discovered := 0
	if entry.Depth < e.config.MaxDepth {
		discovered = e.discover(html, page.URL(), entry.Depth+1, pageLogger)
	}

	pageLogger.Info().
		Bool("settled", settle.Settled).
		Int("poll_attempts", settle.Attempts).
		Str("channel", string(outcome.Channel)).
		Int("discovered", discovered).
		Msg("Page captured")

	if outcome.Err != nil {
		errText := outcome.Err.Error()
		record.Error = &errText
	}
	return nil
}

// render acquires the page under the hard render timeout
func (e *Engine) render(ctx context.Context, target render.Target, observer quiescence.Observer) (render.Page, error) {
	timeout := e.config.RenderTimeout()
	renderCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := e.renderer.Render(renderCtx, target, observer)
	if err != nil && ctx.Err() == nil && errors.Is(renderCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: render exceeded %s: %w", errorwrapper.ErrTimeout, timeout, err)
	}
	return page, err
}

// pace waits the inter-visit delay unless there is nothing left to visit
func (e *Engine) pace(ctx context.Context) {
	delay := e.config.InterVisitDelay()
	if delay <= 0 || e.frontier.Len() == 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (e *Engine) abort(cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Error().Err(cause).Str("start_url", e.startURL).Msg("Start page could not be rendered, session aborted")
	e.frontier.Reset()
	e.records = nil
	e.machine.Abort()
	e.finishSessionLocked()
}

func (e *Engine) completeLocked(reason string) {
	if err := e.machine.Complete(); err != nil {
		e.logger.Warn().Err(err).Msg("Session could not complete")
	}
	e.logger.Info().Str("reason", reason).Int("visited", e.frontier.VisitedCount()).Msg("Crawl session completed")
	e.finishSessionLocked()
}

func (e *Engine) finishStopLocked() {
	e.frontier.Clear()
	if err := e.machine.FinishStop(); err != nil {
		e.machine.Abort()
	}
	e.logger.Info().Int("visited", e.frontier.VisitedCount()).Msg("Crawl session stopped")
	e.finishSessionLocked()
}

// finishSessionLocked runs once per session when it returns to Idle
func (e *Engine) finishSessionLocked() {
	e.loopActive = false
	e.currentPage = ""
	e.finishedAt = e.now()
	if !e.pausedAt.IsZero() {
		e.pausedTotal += e.finishedAt.Sub(e.pausedAt)
		e.pausedAt = time.Time{}
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.registry.Reset()

	if e.manifest != nil && len(e.records) > 0 {
		if path, err := e.manifest.Write(e.sessionID, e.records); err != nil {
			e.logger.Error().Err(err).Msg("Failed to write session manifest")
		} else {
			e.logger.Info().Str("path", path).Msg("Session manifest saved")
		}
	}
	if e.recorder != nil {
		if err := e.recorder.EndSession(context.Background(), e.frontier.VisitedCount(), e.finishedAt); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to record session end")
		}
	}

	if e.done != nil {
		select {
		case <-e.done:
		default:
			close(e.done)
		}
	}
}
