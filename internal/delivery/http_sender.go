package delivery

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// maxErrorBodySize caps how much of a failed response body ends up in the error
const maxErrorBodySize = 512

// Sender makes one POST attempt of an encoded payload
type Sender interface {
	Send(ctx context.Context, body []byte) error
}

// HTTPSenderConfig configures one HTTP channel
type HTTPSenderConfig struct {
	Endpoint    string
	ProxyURL    string
	Timeout     time.Duration
	EnableHTTP2 bool
	Headers     map[string]string
	UserAgent   string
}

// HTTPSender POSTs JSON bodies to a fixed endpoint, optionally through a proxy.
// It never retries.
type HTTPSender struct {
	client *http.Client
	config HTTPSenderConfig
	logger zerolog.Logger
}

// NewHTTPSender builds the transport for cfg
func NewHTTPSender(cfg HTTPSenderConfig, logger zerolog.Logger) (*HTTPSender, error) {
	if cfg.Endpoint == "" {
		return nil, errorwrapper.NewValidationError("endpoint", cfg.Endpoint, "endpoint is required")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, errorwrapper.WrapError(err, "invalid endpoint")
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, errorwrapper.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &HTTPSender{
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		config: cfg,
		logger: logger,
	}, nil
}

// Endpoint returns the target URL
func (s *HTTPSender) Endpoint() string {
	return s.config.Endpoint
}

// Send POSTs body once. Any non-2xx status is an *errorwrapper.HTTPError.
func (s *HTTPSender) Send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errorwrapper.WrapError(err, "failed to create delivery request")
	}

	for key, value := range s.config.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.UserAgent != "" {
		req.Header.Set("User-Agent", s.config.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errorwrapper.NewNetworkError(s.config.Endpoint, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, string(respBody), s.config.Endpoint)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
