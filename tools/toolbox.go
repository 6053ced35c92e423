package tools

import (
	"context"
	"sync"

	"github.com/okaines/scout/internal/download"
	"github.com/okaines/scout/internal/log"
	"github.com/okaines/scout/internal/search"
)

// Searcher is the slice of the search client the tools need.
type Searcher interface {
	SearchGeneral(ctx context.Context, query string, max int) ([]search.Result, error)
	SearchWikipedia(ctx context.Context, query string, max int) ([]search.Result, error)
	SearchImages(ctx context.Context, query string, max int) ([]string, error)
}

// Saver is the slice of the download store the tools need.
type Saver interface {
	SaveURL(ctx context.Context, rawURL string) (*download.Artifact, error)
	SaveImages(ctx context.Context, topic string, urls []string) (*download.Report, error)
	Dir() string
}

// Toolbox holds the tool implementations and the cross-tool state that links
// an image search to a subsequent batch download.
type Toolbox struct {
	searcher   Searcher
	store      Saver
	logger     log.Logger
	defaultMax int

	mu         sync.Mutex
	lastTopic  string
	lastImages []string
}

func NewToolbox(searcher Searcher, store Saver, defaultMax int, logger log.Logger) *Toolbox {
	if defaultMax <= 0 {
		defaultMax = 5
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Toolbox{
		searcher:   searcher,
		store:      store,
		logger:     logger,
		defaultMax: defaultMax,
	}
}

// Definitions returns the tool set offered to the model on every request.
func (tb *Toolbox) Definitions() []ToolDefinition {
	return []ToolDefinition{
		tb.searchDefinition(),
		tb.downloadDefinition(),
	}
}

// LastImages returns the topic and URLs from the most recent image search.
func (tb *Toolbox) LastImages() (string, []string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	urls := make([]string, len(tb.lastImages))
	copy(urls, tb.lastImages)
	return tb.lastTopic, urls
}

func (tb *Toolbox) setLastImages(topic string, urls []string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.lastTopic = topic
	tb.lastImages = append([]string(nil), urls...)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
