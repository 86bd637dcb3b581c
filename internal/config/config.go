package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/vxgen/ProductCheck/internal/models"
)

type Config struct {
	Region    string          `env:"REGION" envDefault:"US"`
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Search    SearchConfig    `envPrefix:"SEARCH_"`
	Capture   CaptureConfig   `envPrefix:"CAPTURE_"`
	Vision    VisionConfig    `envPrefix:"VISION_"`
	Scan      ScanConfig      `envPrefix:"SCAN_"`
	Publisher PublisherConfig `envPrefix:"PUBLISHER_"`
	Log       LogConfig       `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Addr        string `env:"ADDR" envDefault:"0.0.0.0:8080"`
	CORSPattern string `env:"CORS_PATTERN" envDefault:"^https?://localhost(:[0-9]+)?$"`
	Pprof       bool   `env:"PPROF" envDefault:"false"`
}

type SearchConfig struct {
	BaseURL        string        `env:"BASE_URL" envDefault:"https://www.googleapis.com/customsearch/v1"`
	APIKey         string        `env:"API_KEY" validate:"required"`
	EngineID       string        `env:"ENGINE_ID" validate:"required"`
	ResultsPerPage int           `env:"RESULTS_PER_PAGE" envDefault:"10"`
	InitialOffsets []int         `env:"INITIAL_OFFSETS" envDefault:"1,11"`
	LoadMoreStep   int           `env:"LOAD_MORE_STEP" envDefault:"20"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"10s"`
	Blacklist      []string      `env:"BLACKLIST" envDefault:"amazon,ebay,facebook,youtube,wikipedia,reddit"`
}

type CaptureConfig struct {
	ProxyEndpoint  string        `env:"PROXY_ENDPOINT" envDefault:"http://api.scraperapi.com"`
	ProxyAPIKey    string        `env:"PROXY_API_KEY" validate:"required"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	Headless       bool          `env:"HEADLESS" envDefault:"true"`
	UserAgent      string        `env:"USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
	ViewportWidth  int           `env:"VIEWPORT_WIDTH" envDefault:"1366"`
	ViewportHeight int           `env:"VIEWPORT_HEIGHT" envDefault:"900"`
	TempDir        string        `env:"TEMP_DIR"`
	ThumbnailWidth int           `env:"THUMBNAIL_WIDTH" envDefault:"800"`
	// vertical band of the page kept for the thumbnail, as fractions of its height
	ThumbnailTop    float64 `env:"THUMBNAIL_TOP" envDefault:"0"`
	ThumbnailBottom float64 `env:"THUMBNAIL_BOTTOM" envDefault:"0.35"`
}

type VisionConfig struct {
	GoogleAIAPIKey string        `env:"GOOGLE_AI_API_KEY" validate:"required"`
	Model          string        `env:"MODEL" envDefault:"googleai/gemini-2.5-flash"`
	Prompt         string        `env:"PROMPT"`
	NotFoundToken  string        `env:"NOT_FOUND_TOKEN" envDefault:"N/A"`
	MaxDimension   int           `env:"MAX_DIMENSION" envDefault:"1024"`
	JPEGQuality    int           `env:"JPEG_QUALITY" envDefault:"60"`
	MaxTokens      int32         `env:"MAX_TOKENS" envDefault:"50"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"45s"`
}

type ScanConfig struct {
	Cooldown time.Duration `env:"COOLDOWN" envDefault:"5s"`
	// fixed | token_bucket
	Pacing string `env:"PACING" envDefault:"fixed"`
}

type PublisherConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
	Topic   string   `env:"TOPIC" envDefault:"price-observations"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	return cfg
}

var validate = newValidator()

// newValidator reports fields by their env variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("env"), ",", 2)[0]
	})
	return v
}

// envPrefix returns the prefix Config nests section under, such as
// "SEARCH_" for a SearchConfig.
func envPrefix(section any) string {
	st := reflect.TypeOf(section)
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	ct := reflect.TypeOf(Config{})
	for i := 0; i < ct.NumField(); i++ {
		if f := ct.Field(i); f.Type == st {
			return f.Tag.Get("envPrefix")
		}
	}
	return ""
}

// Validate checks that a section carries its provider credentials.
// It is called where the credentials are used, so a missing key fails
// the operation that needs it instead of every scanned item. The error
// names the missing variables, e.g. SEARCH_API_KEY.
func Validate(section any) error {
	err := validate.Struct(section)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	prefix := envPrefix(section)
	vars := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		vars = append(vars, prefix+fe.Field())
	}
	return fmt.Errorf("%w: %s", models.ErrMissingCredentials, strings.Join(vars, ", "))
}
