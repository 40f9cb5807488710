// ABOUTME: Headless Chrome rasterizer built on go-rod.
// ABOUTME: Screenshots rendered elements and prints them one image per A4 page.
package report

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// Rasterizer turns report markup into PDF bytes.
type Rasterizer interface {
	// Document captures the first element matching selector onto one portrait page.
	Document(ctx context.Context, html []byte, selector string) ([]byte, error)
	// Slides captures every element matching selector, one landscape page each.
	Slides(ctx context.Context, html []byte, selector string) ([]byte, error)
}

// Chrome rasterizes with a lazily launched headless browser.
type Chrome struct {
	// Bin is the browser executable; empty lets rod find or download one.
	Bin string
	// Timeout bounds one export.
	Timeout time.Duration
	// Width is the CSS viewport width the markup is laid out in.
	Width int

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

var _ Rasterizer = (*Chrome)(nil)

// NewChrome creates a rasterizer; the browser starts on first use.
func NewChrome(bin string) *Chrome {
	return &Chrome{Bin: bin, Timeout: 60 * time.Second, Width: 1200}
}

// Document implements Rasterizer.
func (c *Chrome) Document(ctx context.Context, html []byte, selector string) ([]byte, error) {
	return c.rasterize(ctx, html, selector, false)
}

// Slides implements Rasterizer.
func (c *Chrome) Slides(ctx context.Context, html []byte, selector string) ([]byte, error) {
	return c.rasterize(ctx, html, selector, true)
}

// rasterize holds the lock for the whole export so pages are produced one at a time.
func (c *Chrome) rasterize(ctx context.Context, html []byte, selector string, landscape bool) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if err := c.startLocked(); err != nil {
		return nil, err
	}

	page, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug().Err(err).Msg("close rasterizer page")
		}
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.Width,
		Height:            900,
		DeviceScaleFactor: 2,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := load(page, string(html)); err != nil {
		return nil, err
	}

	els, err := page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selector, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoElements, selector)
	}
	if !landscape {
		els = els[:1]
	}

	images := make([]template.URL, 0, len(els))
	for i, el := range els {
		shot, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			return nil, fmt.Errorf("capture element %d: %w", i+1, err)
		}
		images = append(images, dataURL(shot))
	}

	assembled, err := execute("pages.html.tmpl", struct {
		Landscape bool
		Images    []template.URL
	}{landscape, images})
	if err != nil {
		return nil, err
	}
	if err := load(page, string(assembled)); err != nil {
		return nil, err
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		Landscape:         landscape,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	pdf, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return pdf, nil
}

func load(page *rod.Page, html string) error {
	if err := page.SetDocumentContent(html); err != nil {
		return fmt.Errorf("set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	return nil
}

func (c *Chrome) startLocked() error {
	if c.browser != nil {
		return nil
	}

	l := launcher.New().Headless(true).NoSandbox(true)
	if c.Bin != "" {
		l = l.Bin(c.Bin)
	}
	url, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connect to chrome: %w", err)
	}

	log.Info().Str("control_url", url).Msg("headless chrome started")
	c.launcher = l
	c.browser = browser
	return nil
}

// Close shuts the browser down if it was started.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.launcher.Kill()
	c.launcher.Cleanup()
	c.browser = nil
	c.launcher = nil
	return err
}
