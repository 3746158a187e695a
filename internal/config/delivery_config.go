package config

import "time"

// RelayConfig describes the privileged fallback channel used when the direct POST fails
type RelayConfig struct {
	Enabled  bool              `json:"enabled" yaml:"enabled"`
	ProxyURL string            `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty" validate:"omitempty,url"`
	Endpoint string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// DeliveryConfig holds the remote sink settings
type DeliveryConfig struct {
	Endpoint    string            `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	TimeoutSecs int               `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=1"`
	EnableHTTP2 bool              `json:"enable_http2" yaml:"enable_http2"`
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Relay       RelayConfig       `json:"relay,omitempty" yaml:"relay,omitempty"`
}

// NewDefaultDeliveryConfig creates delivery settings with no remote endpoint
func NewDefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		TimeoutSecs: DefaultDeliveryTimeoutSecs,
		EnableHTTP2: DefaultDeliveryEnableHTTP2,
		Headers:     make(map[string]string),
	}
}

// Timeout returns the per-request timeout
func (c DeliveryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RelayAvailable reports whether the relay channel can be attempted
func (c DeliveryConfig) RelayAvailable() bool {
	return c.Relay.Enabled && (c.Relay.ProxyURL != "" || c.Relay.Endpoint != "")
}
