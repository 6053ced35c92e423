package search_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaines/scout/internal/log"
	"github.com/okaines/scout/internal/search"
)

const cannedResponse = `{
  "query": "zebra",
  "results": [
    {"title": "Zebra - Wikipedia", "url": "https://en.wikipedia.org/wiki/Zebra", "content": "Zebras are African equines.", "engines": ["google"], "score": 1.5},
    {"title": "Zebra facts", "url": "https://example.com/zebra", "content": "Stripes.", "engines": ["duckduckgo"]},
    {"title": "Plains zebra", "url": "https://en.wikipedia.org/wiki/Plains_zebra", "content": "The most common zebra."}
  ]
}`

func newBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch_DecodesNormalizedResults(t *testing.T) {
	var gotForm map[string][]string
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cannedResponse))
	})

	c := search.NewClient(srv.URL, time.Second, log.NewNop())
	results, err := c.Search(context.Background(), search.Query{Text: "zebra", Engines: []string{"google", "duckduckgo"}})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "Zebra - Wikipedia", results[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Zebra", results[0].URL)
	assert.Equal(t, "Zebras are African equines.", results[0].Content)
	assert.Equal(t, []string{"google"}, results[0].Engines)
	assert.InDelta(t, 1.5, results[0].Score, 0.001)

	// Wire format checks: form-encoded q/format/category/engines.
	assert.Equal(t, []string{"zebra"}, gotForm["q"])
	assert.Equal(t, []string{"json"}, gotForm["format"])
	assert.Equal(t, []string{"1"}, gotForm["category_general"])
	assert.Equal(t, []string{"google,duckduckgo"}, gotForm["engines"])
	assert.Equal(t, []string{"auto"}, gotForm["language"])
}

func TestSearch_ImagesCategoryFlag(t *testing.T) {
	var gotForm map[string][]string
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": []}`))
	})

	c := search.NewClient(srv.URL, time.Second, log.NewNop())
	_, err := c.Search(context.Background(), search.Query{Text: "zebra", Categories: []string{"images"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, gotForm["category_images"])
	assert.NotContains(t, gotForm, "category_general")
}

func TestSearch_EmptyQuery_Error(t *testing.T) {
	c := search.NewClient("http://localhost:1", time.Second, log.NewNop())
	_, err := c.Search(context.Background(), search.Query{Text: "  "})
	require.Error(t, err)
}

func TestSearch_BackendError_Error(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	c := search.NewClient(srv.URL, time.Second, log.NewNop())
	_, err := c.Search(context.Background(), search.Query{Text: "zebra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearch_InvalidJSON_Error(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>rate limited</html>"))
	})
	c := search.NewClient(srv.URL, time.Second, log.NewNop())
	_, err := c.Search(context.Background(), search.Query{Text: "zebra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestSearchWikipedia_FiltersAndClips(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("q"), "site:wikipedia.org")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cannedResponse))
	})

	c := search.NewClient(srv.URL, time.Second, log.NewNop())
	results, err := c.SearchWikipedia(context.Background(), "zebra", 1)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Contains(t, results[0].URL, "wikipedia.org")
}

func TestSearchGeneral_ClipsToMax(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cannedResponse))
	})
	c := search.NewClient(srv.URL, time.Second, log.NewNop())
	results, err := c.SearchGeneral(context.Background(), "zebra", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, search.KindGeneral, search.ParseKind(""))
	assert.Equal(t, search.KindGeneral, search.ParseKind("web"))
	assert.Equal(t, search.KindWikipedia, search.ParseKind("Wikipedia"))
	assert.Equal(t, search.KindImages, search.ParseKind(" images "))
}
