package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/okaines/scout/internal/log"
	"github.com/okaines/scout/internal/telemetry"
	"github.com/okaines/scout/internal/windowing"
	"github.com/okaines/scout/tools"
)

const (
	defaultTokenBudget = 16000
	defaultMaxTokens   = 1024
)

// Options configures a Runner. Zero values fall back to sane defaults.
type Options struct {
	TokenBudget int
	MaxTokens   int64
	System      string
	Logger      log.Logger
}

type Runner struct {
	client *anthropic.Client
	tools  []tools.ToolDefinition

	budget    int
	maxTokens int64
	system    string
	logger    log.Logger
}

func New(client *anthropic.Client, toolDefs []tools.ToolDefinition, opts Options) *Runner {
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = defaultTokenBudget
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	return &Runner{
		client:    client,
		tools:     toolDefs,
		budget:    opts.TokenBudget,
		maxTokens: opts.MaxTokens,
		system:    opts.System,
		logger:    opts.Logger,
	}
}

func (r *Runner) anthropicTools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: t.InputSchema,
		}})
	}
	return out
}

// RunOneStep sends the prepared conversation window and executes any tool
// calls in the reply. Tool results are returned for the caller to append as
// the next user message; a non-empty slice means another step is needed.
func (r *Runner) RunOneStep(ctx context.Context, model anthropic.Model, conv []anthropic.MessageParam) (*anthropic.Message, []anthropic.ContentBlockParamUnion, error) {
	counter := windowing.HeuristicCounter{}
	window, stats := windowing.PrepareSendWindow(conv, r.budget, counter)

	turnID, ok := telemetry.TurnIDFromContext(ctx)
	if !ok {
		turnID = telemetry.NewTurnID()
		ctx = telemetry.WithTurnID(ctx, turnID)
	}

	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"model":              string(model),
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	r.logger.Debug("window prepared",
		"model", string(model),
		"budget", stats.Budget,
		"estimated", stats.Total,
		"included", stats.IncludedGroups,
		"skipped", stats.SkippedGroups,
	)

	// The newest group must always fit; anything else means the budget is set
	// far too low for the tool output caps in play.
	if stats.OverBudgetNewest {
		return nil, nil, fmt.Errorf("windowing: newest conversation group exceeds the %d token budget", r.budget)
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: r.maxTokens,
		Messages:  window,
		Tools:     r.anthropicTools(),
	}
	if r.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: r.system}}
	}

	msg, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	toolResults := []anthropic.ContentBlockParamUnion{}
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			input := json.RawMessage(v.JSON.Input.Raw())
			toolResults = append(toolResults, r.execTool(ctx, v.ID, v.Name, input))
		}
	}
	return msg, toolResults, nil
}

func (r *Runner) execTool(ctx context.Context, id, name string, input json.RawMessage) anthropic.ContentBlockParamUnion {
	var def *tools.ToolDefinition
	for i := range r.tools {
		if r.tools[i].Name == name {
			def = &r.tools[i]
			break
		}
	}

	turnID, _ := telemetry.TurnIDFromContext(ctx)

	// Telemetry carries sizes and a generic error tag, never raw payloads.
	emit := func(durationMs int64, inputSize, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   name,
			"duration_ms": durationMs,
			"input_size":  inputSize,
			"output_size": outputSize,
			"turn_id":     turnID,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()
	inSize := len(input)

	if def == nil {
		emit(time.Since(start).Milliseconds(), inSize, 0, "tool not found")
		return anthropic.NewToolResultBlock(id, fmt.Sprintf("tool %q not found", name), true)
	}

	resp, err := def.Function(ctx, input)
	if err != nil {
		emit(time.Since(start).Milliseconds(), inSize, 0, "tool error")
		r.logger.Warn("tool failed", "tool", name, "err", err)
		return anthropic.NewToolResultBlock(id, err.Error(), true)
	}
	emit(time.Since(start).Milliseconds(), inSize, len(resp), "")
	return anthropic.NewToolResultBlock(id, resp, false)
}
