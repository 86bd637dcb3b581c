package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/repo/browser"
)

func TestCaptureSuccess(t *testing.T) {
	shot := testPNG(t, 400, 1000)
	r := &fakeRenderer{render: func(context.Context, string) (*browser.RenderResult, error) {
		return &browser.RenderResult{Status: 200, Title: "Widget X | Shop", Screenshot: shot}, nil
	}}
	svc, err := NewCaptureService(testConfig(), r)
	require.NoError(t, err)

	res, err := svc.Capture(context.Background(), "https://shop.example/w?id=1")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, shot, res.Screenshot)

	thumb, err := imaging.Decode(bytes.NewReader(res.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 200, thumb.Bounds().Dx())
	assert.Equal(t, 175, thumb.Bounds().Dy())

	require.Len(t, r.urls, 1)
	u, err := url.Parse(r.urls[0])
	require.NoError(t, err)
	assert.Equal(t, "proxy.test", u.Host)
	assert.Equal(t, "proxy-key", u.Query().Get("api_key"))
	assert.Equal(t, "https://shop.example/w?id=1", u.Query().Get("url"))
	assert.Equal(t, "true", u.Query().Get("render"))
	assert.Equal(t, "us", u.Query().Get("country_code"))
}

func TestCaptureClassifiesFailures(t *testing.T) {
	shot := testPNG(t, 50, 50)
	tests := []struct {
		name   string
		result *browser.RenderResult
		err    error
		want   models.OutcomeKind
	}{
		{name: "navigation timeout", err: fmt.Errorf("goto: %w", models.ErrTimeout), want: models.OutcomeTimeout},
		{name: "deadline", err: context.DeadlineExceeded, want: models.OutcomeTimeout},
		{name: "renderer blocked", err: models.ErrBlocked, want: models.OutcomeBlocked},
		{name: "forbidden", result: &browser.RenderResult{Status: 403, Screenshot: shot}, want: models.OutcomeBlocked},
		{name: "too many requests", result: &browser.RenderResult{Status: 429, Screenshot: shot}, want: models.OutcomeBlocked},
		{name: "bot wall title", result: &browser.RenderResult{Status: 200, Title: "Attention Required! | Cloudflare", Screenshot: shot}, want: models.OutcomeBlocked},
		{name: "captcha title", result: &browser.RenderResult{Status: 200, Title: "Please solve this CAPTCHA", Screenshot: shot}, want: models.OutcomeBlocked},
		{name: "empty screenshot", result: &browser.RenderResult{Status: 200}, want: models.OutcomeOtherError},
		{name: "browser crash", err: errors.New("target closed"), want: models.OutcomeOtherError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{render: func(context.Context, string) (*browser.RenderResult, error) {
				return tt.result, tt.err
			}}
			svc, err := NewCaptureService(testConfig(), r)
			require.NoError(t, err)

			res, err := svc.Capture(context.Background(), "https://shop.example/w")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Outcome.Kind)
			assert.Nil(t, res.Screenshot)
			assert.Nil(t, res.Thumbnail)
		})
	}
}

func TestCaptureIsBoundedByTimeout(t *testing.T) {
	conf := testConfig()
	conf.Capture.Timeout = 30 * time.Millisecond
	r := &fakeRenderer{render: func(ctx context.Context, _ string) (*browser.RenderResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	svc, err := NewCaptureService(conf, r)
	require.NoError(t, err)

	start := time.Now()
	res, err := svc.Capture(context.Background(), "https://slow.example")
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeTimeout, res.Outcome.Kind)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCaptureKeepsScreenshotWhenThumbnailFails(t *testing.T) {
	r := &fakeRenderer{render: func(context.Context, string) (*browser.RenderResult, error) {
		return &browser.RenderResult{Status: 200, Screenshot: []byte("not an image")}, nil
	}}
	svc, err := NewCaptureService(testConfig(), r)
	require.NoError(t, err)

	res, err := svc.Capture(context.Background(), "https://shop.example/w")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []byte("not an image"), res.Screenshot)
	assert.Nil(t, res.Thumbnail)
}

func TestCaptureMissingCredentials(t *testing.T) {
	conf := testConfig()
	conf.Capture.ProxyAPIKey = ""
	r := &fakeRenderer{}
	svc, err := NewCaptureService(conf, r)
	require.NoError(t, err)

	_, err = svc.Capture(context.Background(), "https://shop.example/w")
	assert.ErrorIs(t, err, models.ErrMissingCredentials)
	assert.Empty(t, r.urls)
}
