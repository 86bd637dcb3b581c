package usecase

import (
	"bytes"
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/repo/browser"
	"github.com/vxgen/ProductCheck/internal/repo/llm"
	"github.com/vxgen/ProductCheck/internal/repo/search"
)

func testConfig() *config.Config {
	return &config.Config{
		Region: "US",
		Search: config.SearchConfig{
			APIKey:         "search-key",
			EngineID:       "cx",
			ResultsPerPage: 10,
			InitialOffsets: []int{1, 11},
			LoadMoreStep:   20,
		},
		Capture: config.CaptureConfig{
			ProxyEndpoint:   "http://proxy.test",
			ProxyAPIKey:     "proxy-key",
			Timeout:         time.Second,
			ThumbnailWidth:  200,
			ThumbnailTop:    0,
			ThumbnailBottom: 0.35,
		},
		Vision: config.VisionConfig{
			GoogleAIAPIKey: "vision-key",
			Model:          "googleai/test",
			NotFoundToken:  "N/A",
			MaxDimension:   256,
			JPEGQuality:    60,
			MaxTokens:      50,
			Timeout:        time.Second,
		},
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 10, G: 120, B: 10, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

type fakeSearch struct {
	mu    sync.Mutex
	pages map[int][]string
	err   error
	calls []search.Request
}

func (f *fakeSearch) Search(_ context.Context, req search.Request) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.pages[req.Start]...), nil
}

type fakeRenderer struct {
	render func(ctx context.Context, url string) (*browser.RenderResult, error)
	urls   []string
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (*browser.RenderResult, error) {
	f.urls = append(f.urls, url)
	return f.render(ctx, url)
}

type fakeVision struct {
	describe func(ctx context.Context, req llm.VisionRequest) (string, error)
	reqs     []llm.VisionRequest
}

func (f *fakeVision) Describe(ctx context.Context, req llm.VisionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.describe(ctx, req)
}

// stepClock advances by step on every read.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

func (p *countingPacer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

// scripted capture/extraction keyed by URL
type fakeCapture struct {
	mu       sync.Mutex
	outcomes map[string]models.Outcome
	block    chan struct{}
	calls    []string
}

func (f *fakeCapture) Capture(ctx context.Context, url string) (CaptureResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if o, ok := f.outcomes[url]; ok && !o.IsOK() {
		return CaptureResult{Outcome: o}, nil
	}
	return CaptureResult{
		Screenshot: []byte("shot:" + url),
		Thumbnail:  []byte("thumb:" + url),
		Outcome:    models.Outcome{Kind: models.OutcomeOK},
	}, nil
}

func (f *fakeCapture) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeExtraction struct {
	prices map[string]models.Outcome
}

func (f *fakeExtraction) Extract(_ context.Context, screenshot []byte, _ string) (models.Outcome, error) {
	url := string(bytes.TrimPrefix(screenshot, []byte("shot:")))
	if o, ok := f.prices[url]; ok {
		return o, nil
	}
	return models.Ok("1.00"), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ScanEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.ScanEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}
