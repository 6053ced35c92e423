package download_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaines/scout/internal/download"
	"github.com/okaines/scout/internal/log"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func readMetadata(t *testing.T, path string) download.Metadata {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var m download.Metadata
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestSaveURL_Image_WritesContentAndSidecar(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})

	dir := t.TempDir()
	store := download.New(dir, time.Second, log.NewNop())

	art, err := store.SaveURL(context.Background(), srv.URL+"/zebra.png")
	require.NoError(t, err)

	// Content file exists with the fetched bytes.
	b, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, b)
	assert.True(t, strings.HasPrefix(filepath.Base(art.Path), "image_"))
	assert.True(t, strings.HasSuffix(art.Path, ".png"))

	// Sidecar fields are consistent with the content file.
	meta := readMetadata(t, art.MetadataPath)
	assert.Equal(t, filepath.Base(art.Path), meta.Filename)
	assert.Equal(t, srv.URL+"/zebra.png", meta.URL)
	assert.Equal(t, "image/png", meta.MimeType)
	assert.Equal(t, len(pngBytes), meta.FileSize)
	assert.Equal(t, "image", meta.Type)
	assert.NotEmpty(t, meta.DownloadTimestamp)
}

func TestSaveURL_JpegExtensionNormalised(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write([]byte{0xff, 0xd8})
	})

	store := download.New(t.TempDir(), time.Second, log.NewNop())
	art, err := store.SaveURL(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(art.Path, ".jpg"), "got %s", art.Path)
	assert.Equal(t, "image/jpeg", art.Metadata.MimeType)
}

func TestSaveURL_Website_WritesJSONDocument(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>zebra facts</body></html>"))
	})

	store := download.New(t.TempDir(), time.Second, log.NewNop())
	art, err := store.SaveURL(context.Background(), srv.URL+"/facts")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(art.Path), "website_"))
	assert.True(t, strings.HasSuffix(art.Path, ".json"))
	assert.True(t, strings.HasSuffix(art.MetadataPath, "_meta.json"))

	var doc struct {
		URL        string `json:"url"`
		Content    string `json:"content"`
		MimeType   string `json:"mime_type"`
		StatusCode int    `json:"status_code"`
		Type       string `json:"type"`
	}
	b, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, srv.URL+"/facts", doc.URL)
	assert.Contains(t, doc.Content, "zebra facts")
	assert.Equal(t, "text/html", doc.MimeType)
	assert.Equal(t, http.StatusOK, doc.StatusCode)
	assert.Equal(t, "website", doc.Type)

	meta := readMetadata(t, art.MetadataPath)
	assert.Equal(t, "website", meta.Type)
	assert.Equal(t, filepath.Base(art.Path), meta.Filename)
}

func TestSaveURL_SchemeDefaultsToHTTPS(t *testing.T) {
	store := download.New(t.TempDir(), 100*time.Millisecond, log.NewNop())
	// Unroutable host; we only care that the URL was normalised before the
	// fetch failed.
	_, err := store.SaveURL(context.Background(), "example.invalid/page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://example.invalid")
}

func TestSaveURL_HTTPError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	store := download.New(t.TempDir(), time.Second, log.NewNop())
	_, err := store.SaveURL(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestSaveImages_BatchNamingAndPartialFailure(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})

	dir := t.TempDir()
	store := download.New(dir, time.Second, log.NewNop())

	report, err := store.SaveImages(context.Background(), "zebra herd", []string{
		srv.URL + "/a.png",
		srv.URL + "/bad",
		srv.URL + "/b.png",
	})
	require.NoError(t, err)

	require.Len(t, report.Saved, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, srv.URL+"/bad", report.Failed[0].URL)

	// Filenames carry sanitised topic, 1-based sequence, hash and timestamp.
	first := filepath.Base(report.Saved[0].Path)
	assert.True(t, strings.HasPrefix(first, "zebra_herd_01_"), "got %s", first)
	assert.True(t, strings.HasSuffix(first, ".png"))

	meta := readMetadata(t, report.Saved[0].MetadataPath)
	assert.Equal(t, "zebra_herd", meta.SearchTopic)
	assert.Equal(t, "image", meta.Type)

	// Sequence numbers reflect the original URL ordering, so the failed
	// second URL leaves a gap.
	third := filepath.Base(report.Saved[1].Path)
	assert.True(t, strings.HasPrefix(third, "zebra_herd_03_"), "got %s", third)
}

func TestSaveImages_RejectsUnusableTopic(t *testing.T) {
	store := download.New(t.TempDir(), time.Second, log.NewNop())
	_, err := store.SaveImages(context.Background(), "///", []string{"http://example.com/a.png"})
	require.Error(t, err)
}

func TestSaveImages_HTMLBodySkipped(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not an image</html>"))
	})
	store := download.New(t.TempDir(), time.Second, log.NewNop())
	report, err := store.SaveImages(context.Background(), "zebra", []string{srv.URL})
	require.NoError(t, err)
	assert.Empty(t, report.Saved)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Err.Error(), "HTML")
}
