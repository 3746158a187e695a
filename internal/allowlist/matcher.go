package allowlist

import (
	"net/url"
	"strings"

	"github.com/aleister1102/snapcrawl/internal/urlhandler"
	"github.com/rs/zerolog"
)

// Matcher decides whether a discovered link stays in scope.
// It is immutable; build a new one when the entries change.
type Matcher struct {
	startOrigin string
	entries     []Entry
	logger      zerolog.Logger
}

// NewMatcher compiles entries against the fixed start origin.
// Malformed patterns are logged and dropped so they never match.
func NewMatcher(startOrigin string, rawEntries []string, logger zerolog.Logger) *Matcher {
	matcherLogger := logger.With().Str("component", "AllowlistMatcher").Logger()

	entries := make([]Entry, 0, len(rawEntries))
	for _, raw := range rawEntries {
		entry, err := ParseEntry(raw)
		if err != nil {
			matcherLogger.Error().Err(err).Str("entry", raw).Msg("Skipping allowlist entry")
			continue
		}
		entries = append(entries, entry)
	}

	return &Matcher{
		startOrigin: startOrigin,
		entries:     entries,
		logger:      matcherLogger,
	}
}

// IsAllowed reports whether rawURL shares the start origin and its hostname matches an entry
func (m *Matcher) IsAllowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return false
	}

	if urlhandler.Origin(parsed) != m.startOrigin {
		m.logger.Debug().Str("url", rawURL).Str("start_origin", m.startOrigin).Msg("Rejected cross-origin URL")
		return false
	}

	hostname := strings.ToLower(parsed.Hostname())
	for _, entry := range m.entries {
		if entry.matches(hostname) {
			return true
		}
	}

	m.logger.Debug().Str("url", rawURL).Msg("URL not matched by any allowlist entry")
	return false
}

// StartOrigin returns the origin every allowed URL must share
func (m *Matcher) StartOrigin() string {
	return m.startOrigin
}
