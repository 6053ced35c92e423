package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okaines/scout/internal/search"
)

// SearchInput is the schema the model fills when calling the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema_description:"What to search for."`
	Kind       string `json:"kind,omitempty" jsonschema:"enum=general,enum=wikipedia,enum=images" jsonschema_description:"Search flavour: general web results, Wikipedia articles only, or direct image URLs."`
	MaxResults int    `json:"max_results,omitempty" jsonschema_description:"Maximum number of results to return."`
}

var searchInputSchema = GenerateSchema[SearchInput]()

func (tb *Toolbox) searchDefinition() ToolDefinition {
	return ToolDefinition{
		Name: "search",
		Description: "Search the web through a local SearXNG instance. " +
			"Use kind=general for broad queries, kind=wikipedia to restrict results to Wikipedia articles, " +
			"and kind=images to collect direct image URLs that can then be saved with the download tool.",
		InputSchema: searchInputSchema,
		Function:    tb.runSearch,
	}
}

func (tb *Toolbox) runSearch(ctx context.Context, input json.RawMessage) (string, error) {
	var in SearchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid search input: %w", err)
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return "", errors.New("query cannot be empty")
	}
	kind := search.ParseKind(in.Kind)
	max := in.MaxResults
	if max <= 0 {
		max = tb.defaultMax
	}

	tb.logger.Debug("search tool invoked", "query", query, "kind", string(kind), "max", max)

	switch kind {
	case search.KindImages:
		return tb.searchImages(ctx, query, max)
	case search.KindWikipedia:
		return tb.searchWikipedia(ctx, query, max)
	default:
		return tb.searchGeneral(ctx, query, max)
	}
}

func (tb *Toolbox) searchGeneral(ctx context.Context, query string, max int) (string, error) {
	results, err := tb.searcher.SearchGeneral(ctx, query, max)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for: %s", query), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d results for %q:\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n   %s\n", i+1, r.Title, r.URL, truncate(r.Content, 150))
	}
	return b.String(), nil
}

func (tb *Toolbox) searchWikipedia(ctx context.Context, query string, max int) (string, error) {
	results, err := tb.searcher.SearchWikipedia(ctx, query, max)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No Wikipedia articles found for: %s", query), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d Wikipedia articles about %q:\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   URL: %s\n   %s\n", i+1, r.Title, r.URL, truncate(r.Content, 200))
	}
	return b.String(), nil
}

func (tb *Toolbox) searchImages(ctx context.Context, query string, max int) (string, error) {
	urls, err := tb.searcher.SearchImages(ctx, query, max)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return fmt.Sprintf("No direct image URLs found for %q. Try different search terms.", query), nil
	}
	tb.setLastImages(query, urls)

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d direct image URLs for %q:\n", len(urls), query)
	for i, u := range urls {
		fmt.Fprintf(&b, "%d. %s\n", i+1, u)
	}
	b.WriteString("\nNEXT STEP: call the download tool with a short topic name to save all of these images.")
	return b.String(), nil
}
