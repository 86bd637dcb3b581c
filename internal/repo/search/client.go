package search

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/pkg/util"
)

// WorldwideRegion disables the country restriction.
const WorldwideRegion = "WW"

type Request struct {
	Query string
	// 1-based result offset
	Start int
	// ISO country code, or WorldwideRegion
	Region string
}

type Client interface {
	Search(ctx context.Context, req Request) ([]string, error)
}

type client struct {
	http     *resty.Client
	baseURL  string
	apiKey   string
	engineID string
	num      int
	metrics  *prometheus.HistogramVec
}

func NewClient(conf *config.Config) (Client, error) {
	cfg := conf.Search
	metrics, err := util.GetHistogramVec("search_request_duration_seconds", "status")
	if err != nil {
		return nil, fmt.Errorf("search metrics: %w", err)
	}
	c := util.NewRestyClient(cfg.Timeout)
	return &client{
		http:     c,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		num:      cfg.ResultsPerPage,
		metrics:  metrics,
	}, nil
}

// Search returns the result links of one page, in provider order.
func (c *client) Search(ctx context.Context, req Request) ([]string, error) {
	params := map[string]string{
		"key":   c.apiKey,
		"cx":    c.engineID,
		"q":     req.Query,
		"start": strconv.Itoa(req.Start),
		"num":   strconv.Itoa(c.num),
	}
	if region := strings.ToUpper(strings.TrimSpace(req.Region)); region != "" && region != WorldwideRegion {
		params["cr"] = "country" + region
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.baseURL)
	if err != nil {
		c.metrics.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("search request: %w", err)
	}
	c.metrics.WithLabelValues(strconv.Itoa(resp.StatusCode())).Observe(time.Since(start).Seconds())

	if resp.StatusCode() != http.StatusOK {
		msg := gjson.GetBytes(resp.Body(), "error.message").String()
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode(), msg)
	}

	links := gjson.GetBytes(resp.Body(), "items.#.link").Array()
	out := make([]string, 0, len(links))
	for _, l := range links {
		if s := l.String(); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
