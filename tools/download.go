package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DownloadInput is the schema the model fills when calling the download tool.
type DownloadInput struct {
	Target string `json:"target" jsonschema_description:"A URL to download directly, or a short topic name to save the images from the most recent image search."`
}

var downloadInputSchema = GenerateSchema[DownloadInput]()

func (tb *Toolbox) downloadDefinition() ToolDefinition {
	return ToolDefinition{
		Name: "download",
		Description: "Download content to the local downloads directory. " +
			"Pass a URL to fetch that page or image directly, or pass a topic name (e.g. \"zebra\") " +
			"after an image search to save every found image under that topic.",
		InputSchema: downloadInputSchema,
		Function:    tb.runDownload,
	}
}

func (tb *Toolbox) runDownload(ctx context.Context, input json.RawMessage) (string, error) {
	var in DownloadInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid download input: %w", err)
	}
	target := strings.TrimSpace(in.Target)
	if target == "" {
		return "", errors.New("target cannot be empty")
	}

	if looksLikeURL(target) {
		return tb.downloadURL(ctx, target)
	}
	return tb.downloadTopic(ctx, target)
}

// looksLikeURL treats anything with a scheme, or a dotted host without
// spaces, as a direct download target. Everything else is a topic name.
func looksLikeURL(s string) bool {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return true
	}
	return strings.Contains(s, ".") && !strings.ContainsAny(s, " \t")
}

func (tb *Toolbox) downloadURL(ctx context.Context, rawURL string) (string, error) {
	art, err := tb.store.SaveURL(ctx, rawURL)
	if err != nil {
		return "", err
	}
	label := "Website content saved"
	if strings.HasPrefix(art.Metadata.MimeType, "image/") {
		label = "Image downloaded"
	}
	return fmt.Sprintf("%s.\nFile: %s\nMetadata: %s\nSize: %d bytes\nMIME type: %s",
		label, art.Path, art.MetadataPath, art.Metadata.FileSize, art.Metadata.MimeType), nil
}

func (tb *Toolbox) downloadTopic(ctx context.Context, topic string) (string, error) {
	_, urls := tb.LastImages()
	if len(urls) == 0 {
		return "No image URLs available. Search for images first, then call download with a topic name.", nil
	}

	report, err := tb.store.SaveImages(ctx, topic, urls)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	total := len(report.Saved) + len(report.Failed)
	fmt.Fprintf(&b, "Downloaded %d out of %d images for topic %q.\n", len(report.Saved), total, topic)
	for _, art := range report.Saved {
		fmt.Fprintf(&b, "- %s (%d bytes, %s)\n", filepath.Base(art.Path), art.Metadata.FileSize, art.Metadata.MimeType)
	}
	if len(report.Failed) > 0 {
		fmt.Fprintf(&b, "\n%d downloads failed:\n", len(report.Failed))
		for _, f := range report.Failed {
			fmt.Fprintf(&b, "- %s: %v\n", f.URL, f.Err)
		}
	}
	fmt.Fprintf(&b, "\nFiles saved in: %s", tb.store.Dir())
	return b.String(), nil
}
