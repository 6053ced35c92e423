package search

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// imageExtensions are the suffixes accepted when a HEAD probe is unavailable.
var imageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".tiff", ".tif", ".ico",
}

// commonsFileURL matches direct Wikimedia Commons upload URLs inside a
// File: description page.
var commonsFileURL = regexp.MustCompile(`(?i)https://upload\.wikimedia\.org/wikipedia/commons/[^"]*\.(?:jpg|jpeg|png|gif|webp|bmp|svg)`)

// maxCommonsPageBytes caps how much of a File: page is scanned for upload URLs.
const maxCommonsPageBytes = 2 << 20

func hasImageExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ResolveCommonsURL converts a Wikimedia Commons File: page URL into a
// Special:FilePath URL that redirects to the image bytes. Other URLs are
// returned unchanged.
func ResolveCommonsURL(rawURL string) string {
	if idx := strings.Index(rawURL, "commons.wikimedia.org/wiki/File:"); idx >= 0 {
		filename := rawURL[strings.LastIndex(rawURL, "File:")+len("File:"):]
		return "https://commons.wikimedia.org/wiki/Special:FilePath/" + filename
	}
	return rawURL
}

// isDirectImage reports whether rawURL serves image bytes. It issues a HEAD
// request and checks the content type; when the probe fails it falls back to
// a strict file-extension check.
func (c *Client) isDirectImage(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return hasImageExtension(rawURL)
	}
	defer func() { _ = resp.Body.Close() }()
	return strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "image/")
}

// ExtractCommonsImageURL fetches a Commons/Wikipedia File: page and returns
// the upload.wikimedia.org URL of the original image, preferring non-thumb
// variants. ok is false when the page holds no recognisable upload URL.
func (c *Client) ExtractCommonsImageURL(ctx context.Context, pageURL string) (string, bool) {
	if !strings.Contains(pageURL, "commons.wikimedia.org/wiki/File:") &&
		!strings.Contains(pageURL, "wikipedia.org/wiki/File:") {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug("commons page fetch failed", "url", pageURL, "error", err)
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCommonsPageBytes))
	if err != nil {
		return "", false
	}

	matches := commonsFileURL.FindAllString(string(body), -1)
	if len(matches) == 0 {
		return "", false
	}
	for _, m := range matches {
		if !strings.Contains(m, "/thumb/") {
			return m, true
		}
	}
	// No original found; the longest thumbnail URL names the largest size.
	best := matches[0]
	for _, m := range matches[1:] {
		if len(m) > len(best) {
			best = m
		}
	}
	return best, true
}

// FilterDirectImages reduces raw image-search hits to at most max URLs that
// actually serve image bytes, converting Commons File: pages on the way.
func (c *Client) FilterDirectImages(ctx context.Context, results []Result, max int) []string {
	urls := make([]string, 0, max)
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if max > 0 && len(urls) >= max {
			break
		}
		candidate := ResolveCommonsURL(r.URL)
		if c.isDirectImage(ctx, candidate) {
			urls = append(urls, candidate)
			continue
		}
		if direct, ok := c.ExtractCommonsImageURL(ctx, r.URL); ok {
			urls = append(urls, direct)
		}
	}
	c.logger.Debug("image filtering done", "raw", len(results), "direct", len(urls))
	return urls
}
