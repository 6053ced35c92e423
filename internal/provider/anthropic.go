// Package provider wraps construction of the Anthropic client and model
// selection across a fallback chain.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/okaines/scout/internal/log"
)

const DefaultModel = "claude-sonnet-4-5"

// NewClient returns a client using the API key from the env.
func NewClient(opts ...option.RequestOption) *anthropic.Client {
	c := anthropic.NewClient(opts...)
	return &c
}

// ResolveModel probes each candidate with a one-token request and returns the
// first model the API accepts. An account may lack access to newer models, so
// the chain walks from preferred to oldest.
func ResolveModel(ctx context.Context, client *anthropic.Client, candidates []string, logger log.Logger) (anthropic.Model, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if len(candidates) == 0 {
		candidates = []string{DefaultModel}
	}

	var errs []error
	for _, name := range candidates {
		model := anthropic.Model(name)
		_, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     model,
			MaxTokens: 1,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
			},
		})
		if err == nil {
			logger.Info("model resolved", "model", name)
			return model, nil
		}
		logger.Warn("model unavailable, trying next", "model", name, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return "", fmt.Errorf("no usable model in fallback chain: %w", errors.Join(errs...))
}
