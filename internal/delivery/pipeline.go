package delivery

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
)

// OutcomeRecorder stores delivery outcomes
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome models.DeliveryOutcome) error
}

// Pipeline delivers a payload over the direct channel, then the relay, then
// to local artifacts. Each network channel is tried exactly once.
type Pipeline struct {
	direct   Sender
	relay    Sender
	store    *ArtifactStore
	recorder OutcomeRecorder
	logger   zerolog.Logger
}

// Deliver runs the fallback chain for payload. sessionID and seq name the
// local artifacts. A cancelled ctx aborts the network attempts but not the
// local fallback, so a captured page is never dropped.
func (p *Pipeline) Deliver(ctx context.Context, sessionID string, payload *models.CapturePayload, seq int) models.DeliveryOutcome {
	outcome := p.deliver(ctx, sessionID, payload, seq)

	if p.recorder != nil {
		if err := p.recorder.RecordOutcome(context.WithoutCancel(ctx), outcome); err != nil {
			p.logger.Warn().Err(err).Int("seq", seq).Msg("Failed to record delivery outcome")
		}
	}
	return outcome
}

func (p *Pipeline) deliver(ctx context.Context, sessionID string, payload *models.CapturePayload, seq int) models.DeliveryOutcome {
	outcome := models.DeliveryOutcome{SessionID: sessionID, Seq: seq, URL: payload.URL}
	var networkErrs []error

	if p.direct != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			networkErrs = append(networkErrs, errorwrapper.WrapError(err, "failed to encode payload"))
		} else {
			err := p.direct.Send(ctx, body)
			if err == nil {
				p.logger.Info().Str("url", payload.URL).Int("seq", seq).Msg("Payload delivered")
				outcome.Channel = models.ChannelDirect
				return outcome
			}
			p.logger.Warn().Err(err).Str("url", payload.URL).Msg("Direct delivery failed")
			networkErrs = append(networkErrs, err)

			if p.relay != nil {
				err := p.relay.Send(ctx, body)
				if err == nil {
					p.logger.Info().Str("url", payload.URL).Int("seq", seq).Msg("Payload delivered through relay")
					outcome.Channel = models.ChannelRelay
					return outcome
				}
				p.logger.Warn().Err(err).Str("url", payload.URL).Msg("Relay delivery failed")
				networkErrs = append(networkErrs, err)
			}
		}
	}

	paths, err := p.store.Persist(ctx, sessionID, seq, payload)
	outcome.Paths = paths
	if err != nil {
		outcome.Channel = models.ChannelFailed
		outcome.Err = errors.Join(append(networkErrs, err)...)
		p.logger.Error().Err(outcome.Err).Str("url", payload.URL).Int("seq", seq).Msg("Payload could not be delivered")
		return outcome
	}

	outcome.Channel = models.ChannelLocal
	p.logger.Info().Str("url", payload.URL).Strs("paths", paths).Msg("Payload persisted locally")
	return outcome
}

// PipelineBuilder assembles a Pipeline from configuration
type PipelineBuilder struct {
	deliveryConfig config.DeliveryConfig
	outputDir      string
	userAgent      string
	recorder       OutcomeRecorder
	logger         zerolog.Logger
}

// NewPipelineBuilder creates a builder with default delivery settings
func NewPipelineBuilder(logger zerolog.Logger) *PipelineBuilder {
	return &PipelineBuilder{
		deliveryConfig: config.NewDefaultDeliveryConfig(),
		outputDir:      config.NewDefaultStorageConfig().OutputDir,
		logger:         logger,
	}
}

// WithDeliveryConfig sets the remote channels
func (b *PipelineBuilder) WithDeliveryConfig(cfg config.DeliveryConfig) *PipelineBuilder {
	b.deliveryConfig = cfg
	return b
}

// WithOutputDir sets the directory for local artifacts
func (b *PipelineBuilder) WithOutputDir(dir string) *PipelineBuilder {
	b.outputDir = dir
	return b
}

// WithUserAgent sets the User-Agent of delivery requests
func (b *PipelineBuilder) WithUserAgent(userAgent string) *PipelineBuilder {
	b.userAgent = userAgent
	return b
}

// WithRecorder attaches an outcome recorder
func (b *PipelineBuilder) WithRecorder(recorder OutcomeRecorder) *PipelineBuilder {
	b.recorder = recorder
	return b
}

// Build creates the pipeline. Without an endpoint every payload goes to local artifacts.
func (b *PipelineBuilder) Build() (*Pipeline, error) {
	if b.outputDir == "" {
		return nil, errorwrapper.NewValidationError("output_dir", b.outputDir, "output directory is required")
	}

	logger := b.logger.With().Str("component", "DeliveryPipeline").Logger()
	pipeline := &Pipeline{
		store:    NewArtifactStore(b.outputDir, b.deliveryConfig.Timeout(), b.logger),
		recorder: b.recorder,
		logger:   logger,
	}

	cfg := b.deliveryConfig
	if cfg.Endpoint == "" {
		logger.Info().Str("output_dir", b.outputDir).Msg("No delivery endpoint configured, captures are persisted locally")
		return pipeline, nil
	}

	direct, err := NewHTTPSender(HTTPSenderConfig{
		Endpoint:    cfg.Endpoint,
		Timeout:     cfg.Timeout(),
		EnableHTTP2: cfg.EnableHTTP2,
		Headers:     cfg.Headers,
		UserAgent:   b.userAgent,
	}, logger.With().Str("channel", string(models.ChannelDirect)).Logger())
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to build direct sender")
	}
	pipeline.direct = direct

	if cfg.RelayAvailable() {
		endpoint := cfg.Relay.Endpoint
		if endpoint == "" {
			endpoint = cfg.Endpoint
		}
		headers := make(map[string]string, len(cfg.Headers)+len(cfg.Relay.Headers))
		for key, value := range cfg.Headers {
			headers[key] = value
		}
		for key, value := range cfg.Relay.Headers {
			headers[key] = value
		}

		relay, err := NewHTTPSender(HTTPSenderConfig{
			Endpoint:    endpoint,
			ProxyURL:    cfg.Relay.ProxyURL,
			Timeout:     cfg.Timeout(),
			EnableHTTP2: cfg.EnableHTTP2,
			Headers:     headers,
			UserAgent:   b.userAgent,
		}, logger.With().Str("channel", string(models.ChannelRelay)).Logger())
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to build relay sender")
		}
		pipeline.relay = relay
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Bool("relay", pipeline.relay != nil).Msg("Delivery pipeline ready")
	return pipeline, nil
}
