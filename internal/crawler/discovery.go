package crawler

import (
	"net/url"

	"github.com/aleister1102/snapcrawl/internal/allowlist"
	"github.com/aleister1102/snapcrawl/internal/render"
	"github.com/rs/zerolog"
)

// discover enqueues the allowed anchors of html at depth and returns how many were accepted.
// The matcher is rebuilt on every pass so allowlist edits apply immediately.
func (e *Engine) discover(html, pageURL string, depth int, logger zerolog.Logger) int {
	base, err := url.Parse(pageURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot parse page URL, skipping link discovery")
		return 0
	}

	hrefs, base, err := render.ExtractLinks(html, base)
	if err != nil {
		logger.Warn().Err(err).Msg("Link extraction failed")
		return 0
	}

	matcher := allowlist.NewMatcher(e.startOrigin, e.rules.Entries(), e.baseLogger)
	accepted := 0
	for _, href := range hrefs {
		resolved, err := e.normalizer.ResolveURL(href, base)
		if err != nil {
			logger.Debug().Err(err).Str("href", href).Msg("Ignoring link")
			continue
		}
		if e.frontier.Enqueue(resolved, depth, matcher.IsAllowed) {
			accepted++
		}
	}
	return accepted
}
