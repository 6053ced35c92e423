// Package download fetches URLs and writes artifacts into a flat downloads
// directory, each with a JSON metadata sidecar.
package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okaines/scout/internal/log"
	"github.com/okaines/scout/internal/safety"
)

// timestampLayout matches the naming scheme: YYYYMMDD_HHMMSS.
const timestampLayout = "20060102_150405"

// userAgent mirrors the search adapter; some hosts refuse obvious bots.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxBodyBytes caps a single fetched body.
const maxBodyBytes = 64 << 20

// Metadata is the sidecar written next to every artifact.
type Metadata struct {
	Filename          string `json:"filename"`
	URL               string `json:"url"`
	MimeType          string `json:"mime_type"`
	FileSize          int    `json:"file_size"`
	DownloadTimestamp string `json:"download_timestamp"`
	Type              string `json:"type"` // "image" or "website"
	SearchTopic       string `json:"search_topic,omitempty"`
}

// Artifact describes one completed download.
type Artifact struct {
	Path         string
	MetadataPath string
	Metadata     Metadata
}

// Failure records one URL that could not be downloaded in a batch.
type Failure struct {
	URL string
	Err error
}

// Report summarises a batch download.
type Report struct {
	Saved  []Artifact
	Failed []Failure
}

// websiteDocument is the content file written for non-image downloads.
type websiteDocument struct {
	URL               string `json:"url"`
	Content           string `json:"content"`
	MimeType          string `json:"mime_type"`
	StatusCode        int    `json:"status_code"`
	ContentLength     int    `json:"content_length"`
	DownloadTimestamp string `json:"download_timestamp"`
	Type              string `json:"type"`
}

// Store writes artifacts under a single directory.
type Store struct {
	dir    string
	httpc  *http.Client
	logger log.Logger
	now    func() time.Time
}

// New returns a store rooted at dir. The directory is created lazily on the
// first save.
func New(dir string, timeout time.Duration, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		dir:    dir,
		httpc:  &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}
}

// Dir returns the downloads directory path.
func (s *Store) Dir() string { return s.dir }

// SaveURL fetches a single URL and writes either an image artifact or a
// website JSON document, plus the metadata sidecar. A missing scheme
// defaults to https.
func (s *Store) SaveURL(ctx context.Context, rawURL string) (*Artifact, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}

	body, mimeType, status, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	ts := s.now().Format(timestampLayout)
	hash := urlHash(rawURL)

	if strings.HasPrefix(mimeType, "image/") {
		base := fmt.Sprintf("image_%s_%s", hash, ts)
		return s.writeImage(base, rawURL, "", mimeType, ts, body)
	}

	// Everything non-image is stored as a JSON document with the raw body
	// embedded, so the artifact is self-describing.
	doc := websiteDocument{
		URL:               rawURL,
		Content:           string(body),
		MimeType:          mimeType,
		StatusCode:        status,
		ContentLength:     len(body),
		DownloadTimestamp: ts,
		Type:              "website",
	}
	filename := fmt.Sprintf("website_%s_%s.json", hash, ts)
	path, err := s.writeJSON(filename, doc)
	if err != nil {
		return nil, err
	}

	meta := Metadata{
		Filename:          filename,
		URL:               rawURL,
		MimeType:          mimeType,
		FileSize:          len(body),
		DownloadTimestamp: ts,
		Type:              "website",
	}
	metaPath, err := s.writeJSON(fmt.Sprintf("website_%s_%s_meta.json", hash, ts), meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("website downloaded", "url", rawURL, "file", path, "bytes", len(body))
	return &Artifact{Path: path, MetadataPath: metaPath, Metadata: meta}, nil
}

// SaveImages downloads a batch of image URLs under a topic name. Individual
// failures do not abort the batch.
func (s *Store) SaveImages(ctx context.Context, topic string, urls []string) (*Report, error) {
	name, err := safety.SanitizeName(topic)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for i, rawURL := range urls {
		rawURL = strings.TrimSpace(rawURL)
		art, err := s.saveTopicImage(ctx, name, i+1, rawURL)
		if err != nil {
			s.logger.Warn("image download failed", "url", rawURL, "error", err)
			report.Failed = append(report.Failed, Failure{URL: rawURL, Err: err})
			continue
		}
		report.Saved = append(report.Saved, *art)
	}

	s.logger.Info("image batch done", "topic", name, "saved", len(report.Saved), "failed", len(report.Failed))
	return report, nil
}

func (s *Store) saveTopicImage(ctx context.Context, topic string, seq int, rawURL string) (*Artifact, error) {
	body, mimeType, _, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(mimeType, "text/html") {
		return nil, fmt.Errorf("got HTML instead of an image")
	}
	if !strings.HasPrefix(mimeType, "image/") {
		// Some hosts serve images with sloppy types; keep the bytes and
		// fall back to jpg the way a browser save-as would.
		mimeType = "image/jpeg"
	}

	ts := s.now().Format(timestampLayout)
	base := fmt.Sprintf("%s_%02d_%s_%s", topic, seq, urlHash(rawURL), ts)
	return s.writeImage(base, rawURL, topic, mimeType, ts, body)
}

// writeImage writes the image bytes and the sidecar for the given base name.
func (s *Store) writeImage(base, rawURL, topic, mimeType, ts string, body []byte) (*Artifact, error) {
	filename := base + "." + extensionFor(mimeType)
	path, err := s.writeBytes(filename, body)
	if err != nil {
		return nil, err
	}

	meta := Metadata{
		Filename:          filename,
		URL:               rawURL,
		MimeType:          mimeType,
		FileSize:          len(body),
		DownloadTimestamp: ts,
		Type:              "image",
		SearchTopic:       topic,
	}
	metaPath, err := s.writeJSON(base+".json", meta)
	if err != nil {
		return nil, err
	}

	s.logger.Info("image downloaded", "url", rawURL, "file", path, "bytes", len(body))
	return &Artifact{Path: path, MetadataPath: metaPath, Metadata: meta}, nil
}

func (s *Store) fetch(ctx context.Context, rawURL string) (body []byte, mimeType string, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	mimeType = resp.Header.Get("Content-Type")
	if parsed, _, perr := mime.ParseMediaType(mimeType); perr == nil {
		mimeType = parsed
	} else if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	return body, mimeType, resp.StatusCode, nil
}

func (s *Store) writeBytes(filename string, b []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create downloads dir: %w", err)
	}
	absDir, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}
	path, err := safety.ValidatePath(absDir, filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Store) writeJSON(filename string, v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return s.writeBytes(filename, b)
}

// urlHash returns the first 8 hex chars of md5(url); used for naming only.
func urlHash(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:8]
}

// extensionFor maps a MIME type to a filename extension, jpeg normalised
// to jpg.
func extensionFor(mimeType string) string {
	if idx := strings.Index(mimeType, "/"); idx >= 0 {
		ext := mimeType[idx+1:]
		if i := strings.Index(ext, "+"); i >= 0 { // e.g. svg+xml
			ext = ext[:i]
		}
		if ext == "jpeg" {
			return "jpg"
		}
		if ext != "" {
			return ext
		}
	}
	return "jpg"
}
