package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vxgen/ProductCheck/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&config.Config{Search: config.SearchConfig{
		BaseURL:        srv.URL,
		APIKey:         "key",
		EngineID:       "cx",
		ResultsPerPage: 10,
	}})
	require.NoError(t, err)
	return c
}

func TestSearchParsesLinks(t *testing.T) {
	var (
		mu  sync.Mutex
		got url.Values
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.URL.Query()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"link":"https://a.example/x"},{"title":"no link"},{"link":"https://b.example/y"}]}`))
	})

	links, err := c.Search(context.Background(), Request{Query: "Widget X", Start: 11, Region: "au"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/x", "https://b.example/y"}, links)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Widget X", got.Get("q"))
	assert.Equal(t, "11", got.Get("start"))
	assert.Equal(t, "10", got.Get("num"))
	assert.Equal(t, "key", got.Get("key"))
	assert.Equal(t, "cx", got.Get("cx"))
	assert.Equal(t, "countryAU", got.Get("cr"))
}

func TestSearchWorldwideOmitsCountry(t *testing.T) {
	var cr string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cr = r.URL.Query().Get("cr")
		_, _ = w.Write([]byte(`{}`))
	})

	links, err := c.Search(context.Background(), Request{Query: "q", Start: 1, Region: WorldwideRegion})
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Empty(t, cr)
}

func TestSearchNonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})

	_, err := c.Search(context.Background(), Request{Query: "q", Start: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}
