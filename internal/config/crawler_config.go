package config

import "time"

// URLNormalizationConfig configures how discovered links are canonicalized before dedup
type URLNormalizationConfig struct {
	StripFragments      bool     `json:"strip_fragments" yaml:"strip_fragments"`
	StripTrackingParams bool     `json:"strip_tracking_params" yaml:"strip_tracking_params"`
	CustomStripParams   []string `json:"custom_strip_params,omitempty" yaml:"custom_strip_params,omitempty"`
}

// CrawlerConfig holds the frontier and loop settings of a crawl session
type CrawlerConfig struct {
	StartURL          string                 `json:"start_url,omitempty" yaml:"start_url,omitempty" validate:"omitempty,url"`
	MaxDepth          int                    `json:"max_depth" yaml:"max_depth" validate:"min=0"`
	MaxPages          int                    `json:"max_pages,omitempty" yaml:"max_pages,omitempty" validate:"min=1"`
	InterVisitDelayMs int                    `json:"inter_visit_delay_ms" yaml:"inter_visit_delay_ms" validate:"min=0"`
	RenderTimeoutSecs int                    `json:"render_timeout_secs,omitempty" yaml:"render_timeout_secs,omitempty" validate:"min=1"`
	Allowlist         []string               `json:"allowlist,omitempty" yaml:"allowlist,omitempty" validate:"dive,required"`
	URLNormalization  URLNormalizationConfig `json:"url_normalization,omitempty" yaml:"url_normalization,omitempty"`
}

// NewDefaultCrawlerConfig creates a CrawlerConfig with default values
func NewDefaultCrawlerConfig() CrawlerConfig {
	return CrawlerConfig{
		MaxDepth:          DefaultCrawlerMaxDepth,
		MaxPages:          DefaultCrawlerMaxPages,
		InterVisitDelayMs: DefaultCrawlerInterVisitDelayMs,
		RenderTimeoutSecs: DefaultCrawlerRenderTimeoutSecs,
		Allowlist:         []string{},
		URLNormalization: URLNormalizationConfig{
			StripFragments:      DefaultCrawlerStripFragments,
			StripTrackingParams: DefaultCrawlerStripTrackingParam,
		},
	}
}

// InterVisitDelay returns the pause between two page visits
func (c CrawlerConfig) InterVisitDelay() time.Duration {
	return time.Duration(c.InterVisitDelayMs) * time.Millisecond
}

// RenderTimeout returns the hard ceiling for acquiring a rendered page
func (c CrawlerConfig) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutSecs) * time.Second
}
