// Package search is the SearXNG adapter: it turns queries into the backend's
// form-encoded /search call and reshapes the JSON response into a normalized
// result list.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okaines/scout/internal/log"
)

// Kind selects the search behaviour exposed to the model.
type Kind string

const (
	KindGeneral   Kind = "general"
	KindWikipedia Kind = "wikipedia"
	KindImages    Kind = "images"
)

// ParseKind maps a free-form tag onto a Kind, defaulting to general.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindWikipedia:
		return KindWikipedia
	case KindImages:
		return KindImages
	default:
		return KindGeneral
	}
}

// Result is one normalized search hit.
type Result struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Content string   `json:"content"`
	Engines []string `json:"engines,omitempty"`
	Score   float64  `json:"score,omitempty"`
}

// Query describes a single backend request.
type Query struct {
	Text       string
	Categories []string // defaults to ["general"]
	Engines    []string
	Language   string // defaults to "auto"
	SafeSearch int    // 0=off, 1=moderate, 2=strict
	Page       int    // 1-based; omitted when <= 1
}

// userAgent mimics a browser; some SearXNG deployments reject obvious bots.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Client talks to one SearXNG instance.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  log.Logger

	// GeneralEngines and ImageEngines are the engine lists used by the
	// kind-specific helpers. Empty means "let the instance decide".
	GeneralEngines []string
	ImageEngines   []string
}

// NewClient returns a client for the instance at baseURL. The timeout bounds
// every request the client makes, including image HEAD probes.
func NewClient(baseURL string, timeout time.Duration, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Search performs one raw query against the backend.
func (c *Client) Search(ctx context.Context, q Query) ([]Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("search: empty query")
	}

	form := url.Values{}
	form.Set("q", q.Text)
	form.Set("format", "json")
	lang := q.Language
	if lang == "" {
		lang = "auto"
	}
	form.Set("language", lang)
	form.Set("safesearch", strconv.Itoa(q.SafeSearch))
	if q.Page > 1 {
		form.Set("pageno", strconv.Itoa(q.Page))
	}
	cats := q.Categories
	if len(cats) == 0 {
		cats = []string{"general"}
	}
	for _, cat := range cats {
		form.Set("category_"+cat, "1")
	}
	if len(q.Engines) > 0 {
		form.Set("engines", strings.Join(q.Engines, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: backend returned %s", resp.Status)
	}

	var raw struct {
		Results []Result `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("search: invalid JSON response: %w", err)
	}

	c.logger.Debug("search completed", "query", q.Text, "categories", cats, "results", len(raw.Results))
	return raw.Results, nil
}

// SearchGeneral runs a plain web search limited to max results.
func (c *Client) SearchGeneral(ctx context.Context, query string, max int) ([]Result, error) {
	results, err := c.Search(ctx, Query{Text: query, Engines: c.GeneralEngines})
	if err != nil {
		return nil, err
	}
	return clip(results, max), nil
}

// SearchWikipedia rewrites the query with a site: filter and keeps only
// wikipedia.org results.
func (c *Client) SearchWikipedia(ctx context.Context, query string, max int) ([]Result, error) {
	results, err := c.Search(ctx, Query{Text: query + " site:wikipedia.org", Engines: c.GeneralEngines})
	if err != nil {
		return nil, err
	}
	kept := results[:0]
	for _, r := range results {
		if strings.Contains(r.URL, "wikipedia.org") {
			kept = append(kept, r)
		}
	}
	return clip(kept, max), nil
}

// SearchImages runs an image search and filters hits down to direct image
// URLs ready for download.
func (c *Client) SearchImages(ctx context.Context, query string, max int) ([]string, error) {
	results, err := c.Search(ctx, Query{Text: query, Categories: []string{"images"}, Engines: c.ImageEngines})
	if err != nil {
		return nil, err
	}
	return c.FilterDirectImages(ctx, results, max), nil
}

func clip(rs []Result, max int) []Result {
	if max > 0 && len(rs) > max {
		return rs[:max]
	}
	return rs
}
