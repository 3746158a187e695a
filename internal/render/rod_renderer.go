package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/aleister1102/snapcrawl/internal/config"
	"github.com/aleister1102/snapcrawl/internal/quiescence"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// RodRenderer renders pages in a Chrome instance driven over CDP
type RodRenderer struct {
	config   config.HeadlessBrowserConfig
	logger   zerolog.Logger
	browser  *rod.Browser
	launcher *launcher.Launcher
	mutex    sync.Mutex
}

// NewRodRenderer creates a renderer; call Start before rendering
func NewRodRenderer(cfg config.HeadlessBrowserConfig, logger zerolog.Logger) *RodRenderer {
	return &RodRenderer{
		config: cfg,
		logger: logger.With().Str("component", "RodRenderer").Logger(),
	}
}

// Start launches Chrome, or connects to ControlURL when one is configured
func (r *RodRenderer) Start() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.browser != nil {
		return nil
	}

	controlURL := r.config.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(r.config.Headless)
		if r.config.ChromePath != "" {
			l = l.Bin(r.config.ChromePath)
		}
		// An existing profile keeps the user's authenticated session
		if r.config.UserDataDir != "" {
			l = l.UserDataDir(r.config.UserDataDir)
		}
		l = l.
			Set("no-sandbox").
			Set("disable-dev-shm-usage").
			Set("disable-gpu").
			Set("no-first-run").
			Set("disable-default-apps").
			Set("disable-sync")
		if r.config.DisableImages {
			l = l.Set("blink-settings", "imagesEnabled=false")
		}

		launchedURL, err := l.Launch()
		if err != nil {
			return errorwrapper.WrapError(err, "failed to launch browser")
		}
		r.launcher = l
		controlURL = launchedURL
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if r.launcher != nil {
			r.launcher.Cleanup()
			r.launcher = nil
		}
		return errorwrapper.WrapError(err, "failed to connect browser")
	}
	r.browser = browser

	r.logger.Info().Bool("headless", r.config.Headless).Str("user_data_dir", r.config.UserDataDir).Msg("Browser started")
	return nil
}

// Close shuts the browser down
func (r *RodRenderer) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	if r.launcher != nil {
		r.launcher.Cleanup()
		r.launcher = nil
	}
	r.logger.Info().Msg("Browser stopped")
	return err
}

// Render opens target in a new tab and waits for the load event.
// Activity observed from the moment the tab exists is forwarded to observer.
func (r *RodRenderer) Render(ctx context.Context, target Target, observer quiescence.Observer) (Page, error) {
	r.mutex.Lock()
	browser := r.browser
	r.mutex.Unlock()
	if browser == nil {
		return nil, errorwrapper.WrapError(errorwrapper.ErrNotConfigured, "browser not started")
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to create page")
	}

	eventsCtx, stopEvents := context.WithCancel(context.Background())
	rp := &rodPage{id: target.ID, url: target.URL, page: page, stopEvents: stopEvents}

	if err := r.preparePage(page, eventsCtx, observer); err != nil {
		_ = rp.Close()
		return nil, err
	}

	navigating := page.Context(ctx)
	if err := navigating.Navigate(target.URL); err != nil {
		_ = rp.Close()
		return nil, errorwrapper.NewNetworkError(target.URL, "navigation failed", err)
	}
	if err := navigating.WaitLoad(); err != nil {
		_ = rp.Close()
		return nil, errorwrapper.NewNetworkError(target.URL, "page load did not complete", err)
	}

	if info, err := page.Info(); err == nil && info.URL != "" {
		rp.url = info.URL
	}

	return rp, nil
}

func (r *RodRenderer) preparePage(page *rod.Page, eventsCtx context.Context, observer quiescence.Observer) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  r.config.WindowWidth,
		Height: r.config.WindowHeight,
	}); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to set viewport")
	}

	if r.config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.config.UserAgent}); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to set user agent")
		}
	}

	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return errorwrapper.WrapError(err, "failed to enable network events")
	}
	if err := (proto.DOMEnable{}).Call(page); err != nil {
		return errorwrapper.WrapError(err, "failed to enable DOM events")
	}

	if observer == nil {
		return nil
	}

	// Chrome only reports mutations of nodes the client has been sent, so the
	// whole tree is requested now and after every document replacement.
	events := page.Context(eventsCtx)
	trackDocument := func() {
		depth := -1
		if _, err := (proto.DOMGetDocument{Depth: &depth, Pierce: true}).Call(events); err != nil {
			r.logger.Debug().Err(err).Msg("Failed to request document tree")
		}
	}
	trackDocument()

	wait := events.EachEvent(newActivityBridge(observer, trackDocument).handlers()...)
	go wait()
	return nil
}

// activityBridge turns CDP events into Observer calls. Redirect hops reuse a
// request ID and must not be counted twice.
type activityBridge struct {
	observer      quiescence.Observer
	trackDocument func()
	mu            sync.Mutex
	inFlight      map[proto.NetworkRequestID]struct{}
}

func newActivityBridge(observer quiescence.Observer, trackDocument func()) *activityBridge {
	return &activityBridge{
		observer:      observer,
		trackDocument: trackDocument,
		inFlight:      make(map[proto.NetworkRequestID]struct{}),
	}
}

func (b *activityBridge) handlers() []interface{} {
	return []interface{}{
		func(e *proto.NetworkRequestWillBeSent) { b.started(e.RequestID) },
		func(e *proto.NetworkLoadingFinished) { b.finished(e.RequestID) },
		func(e *proto.NetworkLoadingFailed) { b.finished(e.RequestID) },
		func(e *proto.DOMDocumentUpdated) { b.documentUpdated() },
		func(e *proto.DOMChildNodeInserted) { b.observer.StructureMutated() },
		func(e *proto.DOMChildNodeRemoved) { b.observer.StructureMutated() },
		func(e *proto.DOMChildNodeCountUpdated) { b.observer.StructureMutated() },
		func(e *proto.DOMAttributeModified) { b.observer.StructureMutated() },
		func(e *proto.DOMCharacterDataModified) { b.observer.StructureMutated() },
	}
}

// documentUpdated re-requests the tree off the event loop, which must not block on a CDP call
func (b *activityBridge) documentUpdated() {
	b.observer.StructureMutated()
	if b.trackDocument != nil {
		go b.trackDocument()
	}
}

func (b *activityBridge) started(id proto.NetworkRequestID) {
	b.mu.Lock()
	_, known := b.inFlight[id]
	b.inFlight[id] = struct{}{}
	b.mu.Unlock()
	if known {
		return
	}
	b.observer.RequestStarted()
}

func (b *activityBridge) finished(id proto.NetworkRequestID) {
	b.mu.Lock()
	_, known := b.inFlight[id]
	delete(b.inFlight, id)
	b.mu.Unlock()
	if !known {
		return
	}
	b.observer.RequestFinished()
}

type rodPage struct {
	id         string
	url        string
	page       *rod.Page
	stopEvents context.CancelFunc
	closeOnce  sync.Once
}

func (p *rodPage) ID() string  { return p.id }
func (p *rodPage) URL() string { return p.url }

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read HTML of %s: %w", p.url, err)
	}
	return html, nil
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	png, err := p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot of %s: %w", p.url, err)
	}
	return png, nil
}

func (p *rodPage) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.stopEvents()
		err = p.page.Close()
	})
	return err
}
