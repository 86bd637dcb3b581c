package usecase

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/repo/search"
	"github.com/vxgen/ProductCheck/pkg/logger/log"
	"github.com/vxgen/ProductCheck/pkg/util"
	"golang.org/x/net/publicsuffix"
)

type PlanRequest struct {
	Query string
	// 1-based provider offset of the page
	Start     int
	Worldwide bool
	// substrings matched case-insensitively against the registrable domain
	Blacklist []string
}

type queryPlanner struct {
	conf    *config.Config
	client  search.Client
	metrics *prometheus.HistogramVec
}

func NewQueryPlanner(conf *config.Config, client search.Client) (QueryPlanner, error) {
	metrics, err := util.GetHistogramVec("discovery_duration_seconds", "status")
	if err != nil {
		return nil, err
	}
	return &queryPlanner{
		conf:    conf,
		client:  client,
		metrics: metrics,
	}, nil
}

// Plan returns the candidate URLs of one provider page. Provider failures
// yield an empty list; only missing credentials are returned as errors.
func (p *queryPlanner) Plan(ctx context.Context, req PlanRequest) ([]string, error) {
	if err := config.Validate(p.conf.Search); err != nil {
		return nil, err
	}

	region := p.conf.Region
	if req.Worldwide {
		region = search.WorldwideRegion
	}
	start := req.Start
	if start < 1 {
		start = 1
	}

	began := time.Now()
	links, err := p.client.Search(ctx, search.Request{
		Query:  req.Query,
		Start:  start,
		Region: region,
	})
	if err != nil {
		p.metrics.WithLabelValues("error").Observe(time.Since(began).Seconds())
		log.Warnw(ctx, "discovery page failed", "query", req.Query, "start", start, "error", err)
		return []string{}, nil
	}
	p.metrics.WithLabelValues("ok").Observe(time.Since(began).Seconds())

	out := make([]string, 0, len(links))
	for _, link := range links {
		domain, ok := registrableDomain(link)
		if !ok {
			log.Debugw(ctx, "dropping non-web link", "link", link)
			continue
		}
		if blacklisted(domain, req.Blacklist) {
			log.Debugw(ctx, "dropping blacklisted link", "link", link, "domain", domain)
			continue
		}
		out = append(out, link)
	}
	log.Infow(ctx, "discovery page planned", "query", req.Query, "start", start, "returned", len(links), "kept", len(out))
	return out, nil
}

func registrableDomain(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host, true
	}
	return domain, true
}

func blacklisted(domain string, blacklist []string) bool {
	for _, b := range blacklist {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" && strings.Contains(domain, b) {
			return true
		}
	}
	return false
}
