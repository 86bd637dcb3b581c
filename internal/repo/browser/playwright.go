package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
	"go.uber.org/fx"
)

type RenderResult struct {
	// HTTP status of the main document, 0 when unknown
	Status     int
	Title      string
	Screenshot []byte
}

type Renderer interface {
	Render(ctx context.Context, url string) (*RenderResult, error)
}

type playwrightRenderer struct {
	cfg config.CaptureConfig

	// launch by default; replaced in tests
	start func() (playwright.Browser, error)

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewRenderer returns a Chromium-backed renderer. The browser is launched
// lazily on first use and closed when the app stops.
func NewRenderer(lc fx.Lifecycle, conf *config.Config) Renderer {
	r := &playwrightRenderer{cfg: conf.Capture}
	r.start = r.launch
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return r.close()
		},
	})
	return r
}

func (r *playwrightRenderer) launch() (playwright.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil && r.browser.IsConnected() {
		return r.browser, nil
	}
	if r.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("start playwright: %w", err)
		}
		r.pw = pw
	}
	b, err := r.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(r.cfg.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	r.browser = b
	return b, nil
}

func (r *playwrightRenderer) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.browser != nil {
		errs = append(errs, r.browser.Close())
		r.browser = nil
	}
	if r.pw != nil {
		errs = append(errs, r.pw.Stop())
		r.pw = nil
	}
	return errors.Join(errs...)
}

// Render navigates to url, waits for the network to settle and takes one
// full-page screenshot. The whole call is bounded by the context deadline
// or the configured capture timeout, whichever is shorter.
func (r *playwrightRenderer) Render(ctx context.Context, url string) (*RenderResult, error) {
	budget := r.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < budget {
			budget = left
		}
	}
	if budget <= 0 {
		return nil, models.ErrTimeout
	}
	deadline := time.Now().Add(budget)

	b, err := r.start()
	if err != nil {
		return nil, err
	}
	// a cold browser start can eat the whole budget
	if err := checkDeadline(ctx, deadline); err != nil {
		return nil, err
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(r.cfg.UserAgent),
		Viewport: &playwright.Size{
			Width:  r.cfg.ViewportWidth,
			Height: r.cfg.ViewportHeight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	defer func() {
		if err := bctx.Close(); err != nil {
			log.Warnw(ctx, "close browser context", "error", err)
		}
	}()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	if err := checkDeadline(ctx, deadline); err != nil {
		return nil, err
	}

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(remainingMs(deadline)),
	})
	if err != nil {
		return nil, classify(err)
	}

	res := &RenderResult{}
	if resp != nil {
		res.Status = resp.Status()
	}
	if res.Title, err = page.Title(); err != nil {
		log.Debugw(ctx, "read page title", "error", err)
	}

	shot, err := r.screenshot(page, deadline)
	if err != nil {
		return nil, classify(err)
	}
	res.Screenshot = shot
	return res, nil
}

// screenshot goes through a temp file that is removed on every exit path.
func (r *playwrightRenderer) screenshot(page playwright.Page, deadline time.Time) ([]byte, error) {
	f, err := os.CreateTemp(r.cfg.TempDir, "capture-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
		Timeout:  playwright.Float(remainingMs(deadline)),
	}); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return os.ReadFile(path)
}

func checkDeadline(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	if !time.Now().Before(deadline) {
		return fmt.Errorf("%w: capture budget spent before navigation", models.ErrTimeout)
	}
	return nil
}

func remainingMs(deadline time.Time) float64 {
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		return 1
	}
	return ms
}

func classify(err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	return err
}
