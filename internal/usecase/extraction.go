package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/repo/llm"
	"github.com/vxgen/ProductCheck/pkg/imgutil"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
	"github.com/vxgen/ProductCheck/pkg/tmplx"
	"github.com/vxgen/ProductCheck/pkg/util"
)

const DefaultPricePrompt = "Find the current sale price for '{{.Product}}' in this image. " +
	"Return only the price (e.g., $99.99). If not found, return '{{.NotFoundToken}}'."

type promptData struct {
	Product       string
	NotFoundToken string
}

type extractionService struct {
	conf    config.VisionConfig
	model   llm.VisionModel
	prompt  *tmplx.Template
	metrics *prometheus.HistogramVec
}

func NewExtractionService(conf *config.Config, model llm.VisionModel) (ExtractionService, error) {
	text := conf.Vision.Prompt
	if strings.TrimSpace(text) == "" {
		text = DefaultPricePrompt
	}
	prompt, err := tmplx.Parse("price_prompt", text,
		tmplx.RequireFields("Product"),
		tmplx.WithSample(promptData{Product: "Sample Product", NotFoundToken: conf.Vision.NotFoundToken}, tmplx.NotEmpty),
	)
	if err != nil {
		return nil, fmt.Errorf("parse price prompt: %w", err)
	}
	metrics, err := util.GetHistogramVec("extraction_duration_seconds", "outcome")
	if err != nil {
		return nil, err
	}
	return &extractionService{
		conf:    conf.Vision,
		model:   model,
		prompt:  prompt,
		metrics: metrics,
	}, nil
}

// Extract asks the vision model for the price of sku in screenshot. The
// answer is kept verbatim; it is never parsed into a number.
func (s *extractionService) Extract(ctx context.Context, screenshot []byte, sku string) (models.Outcome, error) {
	if err := config.Validate(s.conf); err != nil {
		return models.Outcome{}, err
	}

	start := time.Now()
	out := s.extract(ctx, screenshot, sku)
	s.metrics.WithLabelValues(out.Kind.String()).Observe(time.Since(start).Seconds())

	switch {
	case !out.IsOK():
		log.Warnw(ctx, "extraction failed", "outcome", out.Kind.String(), "detail", out.Detail)
	case out.Price != s.conf.NotFoundToken && !models.LooksNumeric(out.Price):
		log.Warnw(ctx, "extracted price does not look numeric", "price", out.Price)
	}
	return out, nil
}

func (s *extractionService) extract(ctx context.Context, screenshot []byte, sku string) models.Outcome {
	img, err := imgutil.Compress(screenshot, s.conf.MaxDimension, s.conf.JPEGQuality)
	if err != nil {
		return models.Failed(models.OutcomeOtherError, err)
	}
	prompt, err := s.prompt.Execute(promptData{Product: sku, NotFoundToken: s.conf.NotFoundToken})
	if err != nil {
		return models.Failed(models.OutcomeOtherError, err)
	}

	if s.conf.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.conf.Timeout)
		defer cancel()
	}
	text, err := s.model.Describe(ctx, llm.VisionRequest{
		Prompt:    prompt,
		Image:     img,
		MimeType:  "image/jpeg",
		MaxTokens: s.conf.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, models.ErrRateLimited) || llm.IsRateLimited(err) {
			return models.Failed(models.OutcomeRateLimited, err)
		}
		return models.Failed(models.OutcomeOtherError, err)
	}

	price := strings.TrimSpace(text)
	if price == "" {
		return models.Failed(models.OutcomeOtherError, errors.New("empty model response"))
	}
	return models.Ok(price)
}
