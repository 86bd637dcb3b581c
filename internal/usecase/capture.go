package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/repo/browser"
	"github.com/vxgen/ProductCheck/pkg/imgutil"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
	"github.com/vxgen/ProductCheck/pkg/util"
)

const thumbnailQuality = 80

var blockedStatuses = map[int]struct{}{
	http.StatusUnauthorized:       {},
	http.StatusForbidden:          {},
	http.StatusTooManyRequests:    {},
	http.StatusServiceUnavailable: {},
}

var botWallMarkers = []string{
	"access denied",
	"captcha",
	"are you a robot",
	"attention required",
}

// CaptureResult carries the images of a successful capture, or the
// failure outcome with no images.
type CaptureResult struct {
	Screenshot []byte
	Thumbnail  []byte
	Outcome    models.Outcome
}

func (r CaptureResult) OK() bool {
	return r.Outcome.Kind == models.OutcomeOK
}

type captureService struct {
	conf     *config.Config
	renderer browser.Renderer
	metrics  *prometheus.HistogramVec
}

func NewCaptureService(conf *config.Config, renderer browser.Renderer) (CaptureService, error) {
	metrics, err := util.GetHistogramVec("capture_duration_seconds", "outcome")
	if err != nil {
		return nil, err
	}
	return &captureService{
		conf:     conf,
		renderer: renderer,
		metrics:  metrics,
	}, nil
}

func (s *captureService) Capture(ctx context.Context, target string) (CaptureResult, error) {
	cfg := s.conf.Capture
	if err := config.Validate(cfg); err != nil {
		return CaptureResult{}, err
	}
	proxied, err := browser.ProxyURL(cfg.ProxyEndpoint, cfg.ProxyAPIKey, target, s.conf.Region)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("build proxy url: %w", err)
	}

	start := time.Now()
	res := s.capture(ctx, proxied)
	s.metrics.WithLabelValues(res.Outcome.Kind.String()).Observe(time.Since(start).Seconds())

	if !res.OK() {
		log.Warnw(ctx, "capture failed", "outcome", res.Outcome.Kind.String(), "detail", res.Outcome.Detail)
	}
	return res, nil
}

func (s *captureService) capture(ctx context.Context, proxied string) CaptureResult {
	cfg := s.conf.Capture
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	page, err := s.renderer.Render(ctx, proxied)
	if err != nil {
		return CaptureResult{Outcome: models.Failed(classifyCaptureError(err), err)}
	}
	if err := checkBlocked(page); err != nil {
		return CaptureResult{Outcome: models.Failed(models.OutcomeBlocked, err)}
	}
	if len(page.Screenshot) == 0 {
		return CaptureResult{Outcome: models.Failed(models.OutcomeOtherError, errors.New("empty screenshot"))}
	}

	thumb, err := imgutil.Band(page.Screenshot, cfg.ThumbnailTop, cfg.ThumbnailBottom, cfg.ThumbnailWidth, thumbnailQuality)
	if err != nil {
		log.Warnw(ctx, "thumbnail failed", "error", err)
		thumb = nil
	}
	return CaptureResult{
		Screenshot: page.Screenshot,
		Thumbnail:  thumb,
		Outcome:    models.Outcome{Kind: models.OutcomeOK},
	}
}

func classifyCaptureError(err error) models.OutcomeKind {
	switch {
	case errors.Is(err, models.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.OutcomeTimeout
	case errors.Is(err, models.ErrBlocked):
		return models.OutcomeBlocked
	}
	return models.OutcomeOtherError
}

func checkBlocked(page *browser.RenderResult) error {
	if _, ok := blockedStatuses[page.Status]; ok {
		return fmt.Errorf("%w: status %d", models.ErrBlocked, page.Status)
	}
	title := strings.ToLower(page.Title)
	for _, m := range botWallMarkers {
		if strings.Contains(title, m) {
			return fmt.Errorf("%w: title %q", models.ErrBlocked, page.Title)
		}
	}
	return nil
}
