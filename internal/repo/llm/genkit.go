package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"google.golang.org/genai"
)

type VisionRequest struct {
	Prompt    string
	Image     []byte
	MimeType  string
	MaxTokens int32
}

// VisionModel answers a text prompt about one image.
type VisionModel interface {
	Describe(ctx context.Context, req VisionRequest) (string, error)
}

type genkitVision struct {
	init  func() *genkit.Genkit
	model string
}

func NewGenkit(conf *config.Config) *genkit.Genkit {
	return genkit.Init(context.Background(), genkit.WithPlugins(&googlegenai.GoogleAI{
		APIKey: conf.Vision.GoogleAIAPIKey,
	}))
}

// NewVisionModel defers plugin init to the first call; the plugin refuses
// to start without an API key and the key is only checked when a scan runs.
func NewVisionModel(conf *config.Config) VisionModel {
	return &genkitVision{
		init:  sync.OnceValue(func() *genkit.Genkit { return NewGenkit(conf) }),
		model: conf.Vision.Model,
	}
}

func (v *genkitVision) Describe(ctx context.Context, req VisionRequest) (string, error) {
	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	msg := ai.NewUserMessage(
		ai.NewTextPart(req.Prompt),
		ai.NewMediaPart(mime, DataURI(mime, req.Image)),
	)

	opts := []ai.GenerateOption{
		ai.WithMessages(msg),
		ai.WithModelName(v.model),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, ai.WithConfig(&genai.GenerateContentConfig{
			MaxOutputTokens: req.MaxTokens,
		}))
	}

	resp, err := genkit.Generate(ctx, v.init(), opts...)
	if err != nil {
		if IsRateLimited(err) {
			return "", fmt.Errorf("%w: %v", models.ErrRateLimited, err)
		}
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Text(), nil
}

func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// rateLimitText matches throttling in error text when the typed error was
// lost on the way up. A bare 429 is not enough; it has to be a status.
var rateLimitText = regexp.MustCompile(`(?i)\b(?:error|code|status)\W{0,3}429\b|resource[_ ]exhausted|too many requests`)

// IsRateLimited reports whether err is the provider throttling us. The
// typed error is not always preserved through genkit, so the message is
// checked as well.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, models.ErrRateLimited) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return isRateLimitStatus(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return isRateLimitStatus(*apiErrPtr)
	}
	return rateLimitText.MatchString(err.Error())
}

func isRateLimitStatus(e genai.APIError) bool {
	return e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}
