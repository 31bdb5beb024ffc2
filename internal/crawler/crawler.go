package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/v0xg/storygrab/internal/story"
)

// Options configures the browser session
type Options struct {
	Width        int
	Height       int
	NavTimeout   time.Duration
	IdleTimeout  time.Duration // bound on the network-idle wait after load
	PostLoadWait time.Duration
	Headless     bool
	ProfileDir   string // Chrome/Chromium profile directory for authenticated sessions
	RemoteURL    string // connect to a running Chrome instead of launching one
	Logger       *zap.Logger
}

func (o *Options) defaults() {
	if o.Width == 0 {
		o.Width = 1280
	}
	if o.Height == 0 {
		o.Height = 900
	}
	if o.NavTimeout == 0 {
		o.NavTimeout = 90 * time.Second
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = o.NavTimeout
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// NavigationError is returned by Open when the story page did not load.
// The Browser returned alongside it is still usable for diagnostics.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to load story URL %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// Browser wraps the Rod browser and the story page
type Browser struct {
	browser *rod.Browser
	page    *rod.Page
	log     *zap.Logger
}

// Open launches (or connects to) Chrome, opens a stealth page and loads url.
func Open(ctx context.Context, url string, opts Options) (*Browser, error) {
	opts.defaults()

	controlURL := opts.RemoteURL
	if controlURL == "" {
		path, _ := launcher.LookPath()
		l := launcher.New().Bin(path).Headless(opts.Headless)
		if opts.ProfileDir != "" {
			l = l.UserDataDir(opts.ProfileDir)
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	b := &Browser{browser: browser, page: page, log: opts.Logger}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		b.log.Warn("set viewport failed", zap.Error(err))
	}

	if err := b.load(ctx, url, opts); err != nil {
		return b, &NavigationError{URL: url, Err: err}
	}
	return b, nil
}

// load navigates and waits for the page to settle. Only the navigation
// itself can fail; the load and idle waits are best effort.
func (b *Browser) load(ctx context.Context, url string, opts Options) error {
	page := b.page.Context(ctx)

	if err := page.Timeout(opts.NavTimeout).Navigate(url); err != nil {
		return err
	}
	if err := page.Timeout(opts.NavTimeout).WaitLoad(); err != nil {
		b.log.Debug("load wait ended", zap.Error(err))
	}

	// Don't hang on persistent connections (websockets, polling)
	page.Timeout(opts.IdleTimeout).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(opts.PostLoadWait):
	}
	return nil
}

// Document returns the live page as a story document bound to ctx.
func (b *Browser) Document(ctx context.Context) story.Document {
	return &liveDocument{page: b.page.Context(ctx)}
}

// HTML returns the current serialized DOM.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	return b.page.Context(ctx).HTML()
}

// CaptureDiagnostic saves a full-page screenshot for postmortems.
func (b *Browser) CaptureDiagnostic(path string) error {
	if b == nil || b.page == nil {
		return fmt.Errorf("no page to capture")
	}
	data, err := b.page.Timeout(15*time.Second).Screenshot(true, nil)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return writeFile(path, data)
}

// Close cleans up browser resources
func (b *Browser) Close() {
	if b == nil {
		return
	}
	if b.page != nil {
		b.page.Close()
	}
	if b.browser != nil {
		b.browser.Close()
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
