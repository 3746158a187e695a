package render

import (
	"context"

	"github.com/aleister1102/snapcrawl/internal/quiescence"
)

// Target identifies one page to render. ID keys the page context's activity tracker.
type Target struct {
	ID  string
	URL string
}

// Page is a rendered page context
type Page interface {
	ID() string
	// URL is the final URL after redirects
	URL() string
	HTML(ctx context.Context) (string, error)
	// Screenshot captures the full, unclipped page as PNG
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Renderer loads targets in a browser, reporting network and DOM activity to observer
type Renderer interface {
	Render(ctx context.Context, target Target, observer quiescence.Observer) (Page, error)
	Close() error
}
