// Package cli wires configuration, the Anthropic client, and the tool stack
// into the scout commands.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/okaines/scout/internal/config"
	"github.com/okaines/scout/internal/download"
	"github.com/okaines/scout/internal/log"
	"github.com/okaines/scout/internal/provider"
	"github.com/okaines/scout/internal/runner"
	"github.com/okaines/scout/internal/search"
	"github.com/okaines/scout/tools"
)

const systemPrompt = `You are Scout, a research assistant with two tools: search and download.
Use search with kind=wikipedia for encyclopedic questions, kind=images to collect direct
image URLs, and kind=general for everything else. After an image search, call the download
tool with a short topic name to save every found image. Pass the download tool a URL to
save a single page or picture. Keep answers concise and mention the URLs you relied on.`

// app carries the state shared by all subcommands, populated by the root
// command before any RunE executes.
type app struct {
	cfg    *config.Config
	logger log.Logger
}

func (a *app) searchClient() *search.Client {
	c := search.NewClient(a.cfg.Searx.BaseURL, a.cfg.SearchTimeout(), a.logger)
	c.GeneralEngines = a.cfg.Searx.GeneralEngines
	c.ImageEngines = a.cfg.Searx.ImageEngines
	return c
}

func (a *app) toolbox() *tools.Toolbox {
	store := download.New(a.cfg.Downloads.Dir, a.cfg.DownloadTimeout(), a.logger)
	return tools.NewToolbox(a.searchClient(), store, a.cfg.MaxResults, a.logger)
}

// newAgent resolves a usable model and builds the runner around it.
func (a *app) newAgent(ctx context.Context) (*runner.Runner, anthropic.Model, error) {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, "", errors.New("ANTHROPIC_API_KEY is not set; export it before running")
	}
	client := provider.NewClient()
	model, err := provider.ResolveModel(ctx, client, a.cfg.Models(), a.logger)
	if err != nil {
		return nil, "", err
	}
	r := runner.New(client, a.toolbox().Definitions(), runner.Options{
		TokenBudget: a.cfg.TokenBudget,
		MaxTokens:   int64(a.cfg.MaxTokens),
		System:      systemPrompt,
		Logger:      a.logger,
	})
	return r, model, nil
}
