package config

import "time"

// QuiescenceConfig tunes when a dynamically rendering page counts as settled
type QuiescenceConfig struct {
	IdleThresholdMs int `json:"idle_threshold_ms,omitempty" yaml:"idle_threshold_ms,omitempty" validate:"min=1"`
	PollIntervalMs  int `json:"poll_interval_ms,omitempty" yaml:"poll_interval_ms,omitempty" validate:"min=1"`
	MaxAttempts     int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"min=1"`
}

// NewDefaultQuiescenceConfig creates default quiescence settings (~30s ceiling)
func NewDefaultQuiescenceConfig() QuiescenceConfig {
	return QuiescenceConfig{
		IdleThresholdMs: DefaultQuiescenceIdleThresholdMs,
		PollIntervalMs:  DefaultQuiescencePollIntervalMs,
		MaxAttempts:     DefaultQuiescenceMaxAttempts,
	}
}

// IdleThreshold returns the network idle threshold
func (c QuiescenceConfig) IdleThreshold() time.Duration {
	return time.Duration(c.IdleThresholdMs) * time.Millisecond
}

// PollInterval returns the delay between two idleness checks
func (c QuiescenceConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
