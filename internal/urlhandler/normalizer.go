package urlhandler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aleister1102/snapcrawl/internal/config"
)

// Common tracking parameters stripped when StripTrackingParams is set
var commonTrackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "msclkid", "_ga", "_gl", "mc_cid", "mc_eid",
}

// URLNormalizer canonicalizes URLs so that dedup compares like with like
type URLNormalizer struct {
	config      config.URLNormalizationConfig
	stripParams map[string]bool
}

// NewURLNormalizer creates a new URL normalizer
func NewURLNormalizer(cfg config.URLNormalizationConfig) *URLNormalizer {
	stripParams := make(map[string]bool)
	if cfg.StripTrackingParams {
		for _, param := range commonTrackingParams {
			stripParams[param] = true
		}
	}
	for _, param := range cfg.CustomStripParams {
		stripParams[param] = true
	}

	return &URLNormalizer{
		config:      cfg,
		stripParams: stripParams,
	}
}

// NormalizeURL returns the canonical absolute form of an http(s) URL
func (un *URLNormalizer) NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("URL is empty or only whitespace")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmed, err)
	}
	return un.normalize(parsed)
}

// ResolveURL resolves href against base and normalizes the result.
// Non-navigational schemes (mailto:, javascript:, ...) are rejected.
func (un *URLNormalizer) ResolveURL(href string, base *url.URL) (string, error) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return "", fmt.Errorf("href is empty")
	}

	var resolved *url.URL
	if base == nil {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("error parsing base-less href '%s': %w", trimmed, err)
		}
		if !parsed.IsAbs() {
			return "", fmt.Errorf("cannot process relative URL '%s' without a base URL", trimmed)
		}
		resolved = parsed
	} else {
		parsed, err := base.Parse(trimmed)
		if err != nil {
			return "", fmt.Errorf("error resolving href '%s' with base '%s': %w", trimmed, base.String(), err)
		}
		resolved = parsed
	}

	return un.normalize(resolved)
}

func (un *URLNormalizer) normalize(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme '%s'", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL lacks a valid hostname")
	}

	normalized := *u
	normalized.Scheme = scheme
	normalized.Host = canonicalHost(scheme, u.Hostname(), u.Port())
	normalized.User = nil
	if normalized.Path == "" {
		normalized.Path = "/"
	}
	if un.config.StripFragments {
		normalized.Fragment = ""
		normalized.RawFragment = ""
	}
	if len(un.stripParams) > 0 && normalized.RawQuery != "" {
		values := normalized.Query()
		for param := range un.stripParams {
			values.Del(param)
		}
		normalized.RawQuery = values.Encode()
	}

	return normalized.String(), nil
}
