package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vxgen/ProductCheck/internal/config"
	"github.com/vxgen/ProductCheck/internal/models"
	"github.com/vxgen/ProductCheck/internal/usecase"
)

type stubWatchlist struct {
	items     []models.WatchItem
	exported  []int
	removed   []int
	thumbnail []byte
}

func (s *stubWatchlist) Discover(_ context.Context, req usecase.DiscoverRequest) (usecase.DiscoverResult, error) {
	return usecase.DiscoverResult{Added: 2}, nil
}

func (s *stubWatchlist) LoadMore(context.Context) (usecase.DiscoverResult, error) {
	return usecase.DiscoverResult{}, models.ErrNoActiveQuery
}

func (s *stubWatchlist) AddManual(_ context.Context, sku, url string) (bool, error) {
	s.items = append(s.items, models.NewWatchItem(sku, url))
	return true, nil
}

func (s *stubWatchlist) List(context.Context) []models.WatchItem { return s.items }

func (s *stubWatchlist) Remove(_ context.Context, positions []int) error {
	s.removed = positions
	return nil
}

func (s *stubWatchlist) Thumbnail(_ context.Context, position int) ([]byte, error) {
	if s.thumbnail == nil {
		return nil, models.ErrNotFound
	}
	return s.thumbnail, nil
}

func (s *stubWatchlist) Export(_ context.Context, w io.Writer, positions []int) error {
	s.exported = positions
	_, err := io.WriteString(w, "sku,price,last_updated,url\n")
	return err
}

type stubScans struct {
	busy    bool
	current *models.ScanStatus
}

func (s *stubScans) Run(context.Context, []int, usecase.ProgressObserver) (models.ScanStatus, error) {
	return models.ScanStatus{}, nil
}

func (s *stubScans) Start(_ context.Context, positions []int) (models.ScanStatus, error) {
	if s.busy {
		return models.ScanStatus{}, models.ErrScanInProgress
	}
	st := models.ScanStatus{ID: "scan-1", State: models.ScanRunning, Positions: positions, Total: len(positions)}
	s.current = &st
	return st, nil
}

func (s *stubScans) Current() (models.ScanStatus, bool) {
	if s.current == nil {
		return models.ScanStatus{}, false
	}
	return *s.current, true
}

func (s *stubScans) Cancel() bool { return s.busy }
func (s *stubScans) Running() bool { return s.busy }

func (s *stubScans) Exclusive(fn func() error) error {
	if s.busy {
		return models.ErrScanInProgress
	}
	return fn()
}

func newTestServer(wl *stubWatchlist, scans *stubScans) http.Handler {
	conf := &config.Config{}
	return NewEcho(conf, NewController(NewWatchlistController(wl), NewScanController(scans)))
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(&stubWatchlist{}, &stubScans{})
	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestListItems(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	ok := models.NewWatchItem("Widget X", "https://a.example/x")
	ok.Outcome = models.Ok("$19.99")
	ok.LastUpdated = &at
	ok.Thumbnail = []byte{1}
	failed := models.NewWatchItem("Widget X", "https://b.example/x")
	failed.Outcome = models.Outcome{Kind: models.OutcomeBlocked}

	h := newTestServer(&stubWatchlist{items: []models.WatchItem{ok, failed}}, &stubScans{})
	rec := do(h, http.MethodGet, "/api/v1/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[
		{"position":0,"sku":"Widget X","url":"https://a.example/x","price":"$19.99","outcome":"ok","last_updated":"2026-03-04 05:06:07","has_thumbnail":true},
		{"position":1,"sku":"Widget X","url":"https://b.example/x","price":"Blocked","outcome":"blocked","last_updated":"Never","has_thumbnail":false}
	]}`, rec.Body.String())
}

func TestAddItemValidatesURL(t *testing.T) {
	wl := &stubWatchlist{}
	h := newTestServer(wl, &stubScans{})

	rec := do(h, http.MethodPost, "/api/v1/watchlist", `{"sku":"W","url":"ftp://x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, wl.items)

	rec = do(h, http.MethodPost, "/api/v1/watchlist", `{"sku":"W","url":"https://shop.example/w"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"inserted":true}}`, rec.Body.String())
	assert.Len(t, wl.items, 1)
}

func TestRemoveItems(t *testing.T) {
	wl := &stubWatchlist{}
	h := newTestServer(wl, &stubScans{})

	rec := do(h, http.MethodDelete, "/api/v1/watchlist", `{"positions":[2,0]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int{2, 0}, wl.removed)

	rec = do(h, http.MethodDelete, "/api/v1/watchlist", `{"positions":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportPositionsFromQuery(t *testing.T) {
	wl := &stubWatchlist{}
	h := newTestServer(wl, &stubScans{})

	rec := do(h, http.MethodGet, "/api/v1/watchlist/export?positions=1,0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{1, 0}, wl.exported)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "watchlist.csv")
	assert.Equal(t, "sku,price,last_updated,url\n", rec.Body.String())
}

func TestThumbnail(t *testing.T) {
	wl := &stubWatchlist{}
	h := newTestServer(wl, &stubScans{})

	rec := do(h, http.MethodGet, "/api/v1/watchlist/0/thumbnail", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	wl.thumbnail = []byte{0xff, 0xd8}
	rec = do(h, http.MethodGet, "/api/v1/watchlist/0/thumbnail", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0xff, 0xd8}, rec.Body.Bytes())
}

func TestScanRoutes(t *testing.T) {
	scans := &stubScans{}
	h := newTestServer(&stubWatchlist{}, scans)

	rec := do(h, http.MethodGet, "/api/v1/scans/current", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/api/v1/scans", `{"positions":[0,1]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"scan-1"`)

	rec = do(h, http.MethodGet, "/api/v1/scans/current", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"running"`)

	scans.busy = true
	rec = do(h, http.MethodPost, "/api/v1/scans", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "scan_in_progress")

	rec = do(h, http.MethodDelete, "/api/v1/scans/current", "")
	assert.JSONEq(t, `{"success":true,"data":{"cancelled":true}}`, rec.Body.String())
}

func TestDiscoverMoreWithoutQuery(t *testing.T) {
	h := newTestServer(&stubWatchlist{}, &stubScans{})
	rec := do(h, http.MethodPost, "/api/v1/discover/more", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(h, http.MethodPost, "/api/v1/discover", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
