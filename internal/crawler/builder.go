package crawler

import (
	"context"
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
	"github.com/rs/zerolog"
)

// Deliverer hands a captured payload to its sink
type Deliverer interface {
	Deliver(ctx context.Context, sessionID string, payload *models.CapturePayload, seq int) models.DeliveryOutcome
}

// SessionRecorder persists session boundaries
type SessionRecorder interface {
	BeginSession(ctx context.Context, sessionID, startURL string, startedAt time.Time) error
	EndSession(ctx context.Context, visited int, finishedAt time.Time) error
}

// ManifestSink stores the visit records of a finished session
type ManifestSink interface {
	Write(sessionID string, records []models.VisitRecord) (string, error)
}

// EngineBuilder provides a fluent interface for creating Engine instances
type EngineBuilder struct {
	crawlerConfig    config.CrawlerConfig
	quiescenceConfig config.QuiescenceConfig
	renderer         render.Renderer
	deliverer        Deliverer
	guard            *rslimiter.MemoryGuard
	recorder         SessionRecorder
	manifest         ManifestSink
	now              quiescence.Clock
	logger           zerolog.Logger
}

// NewEngineBuilder creates a builder with default crawler and quiescence settings
func NewEngineBuilder(logger zerolog.Logger) *EngineBuilder {
	return &EngineBuilder{
		crawlerConfig:    config.NewDefaultCrawlerConfig(),
		quiescenceConfig: config.NewDefaultQuiescenceConfig(),
		now:              time.Now,
		logger:           logger,
	}
}

// WithCrawlerConfig sets traversal bounds and the default allowlist
func (b *EngineBuilder) WithCrawlerConfig(cfg config.CrawlerConfig) *EngineBuilder {
	b.crawlerConfig = cfg
	return b
}

// WithQuiescenceConfig sets the settle detection parameters
func (b *EngineBuilder) WithQuiescenceConfig(cfg config.QuiescenceConfig) *EngineBuilder {
	b.quiescenceConfig = cfg
	return b
}

// WithRenderer sets the page renderer
func (b *EngineBuilder) WithRenderer(renderer render.Renderer) *EngineBuilder {
	b.renderer = renderer
	return b
}

// WithDeliverer sets the payload sink
func (b *EngineBuilder) WithDeliverer(deliverer Deliverer) *EngineBuilder {
	b.deliverer = deliverer
	return b
}

// WithMemoryGuard enables auto-pause on memory pressure
func (b *EngineBuilder) WithMemoryGuard(guard *rslimiter.MemoryGuard) *EngineBuilder {
	b.guard = guard
	return b
}

// WithSessionRecorder sets where session boundaries are recorded
func (b *EngineBuilder) WithSessionRecorder(recorder SessionRecorder) *EngineBuilder {
	b.recorder = recorder
	return b
}

// WithManifestSink sets where visit records go when a session ends
func (b *EngineBuilder) WithManifestSink(manifest ManifestSink) *EngineBuilder {
	b.manifest = manifest
	return b
}

// WithClock overrides the time source
func (b *EngineBuilder) WithClock(now quiescence.Clock) *EngineBuilder {
	if now != nil {
		b.now = now
	}
	return b
}

// Build creates the engine in Idle
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.renderer == nil {
		return nil, errorwrapper.NewValidationError("renderer", nil, "renderer cannot be nil")
	}
	if b.deliverer == nil {
		return nil, errorwrapper.NewValidationError("deliverer", nil, "deliverer cannot be nil")
	}
	if b.crawlerConfig.MaxPages < 1 {
		return nil, errorwrapper.NewValidationError("max_pages", b.crawlerConfig.MaxPages, "must be at least 1")
	}
	if b.crawlerConfig.MaxDepth < 0 {
		return nil, errorwrapper.NewValidationError("max_depth", b.crawlerConfig.MaxDepth, "must not be negative")
	}

	logger := b.logger.With().Str("component", "CrawlEngine").Logger()
	return &Engine{
		config:     b.crawlerConfig,
		renderer:   b.renderer,
		deliverer:  b.deliverer,
		detector:   quiescence.NewDetector(b.quiescenceConfig, b.now, b.logger),
		registry:   quiescence.NewRegistry(b.now),
		machine:    session.NewMachine(b.logger),
		frontier:   frontier.New(b.crawlerConfig.MaxDepth, b.crawlerConfig.MaxPages, b.logger),
		userRules:  allowlist.NewSet(),
		rules:      allowlist.NewSet(),
		normalizer: urlhandler.NewURLNormalizer(b.crawlerConfig.URLNormalization),
		guard:      b.guard,
		recorder:   b.recorder,
		manifest:   b.manifest,
		now:        b.now,
		logger:     logger,
		baseLogger: b.logger,
	}, nil
}
