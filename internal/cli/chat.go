package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/okaines/scout/internal/history"
	"github.com/okaines/scout/internal/log"
	"github.com/okaines/scout/internal/runner"
	"github.com/okaines/scout/internal/telemetry"
)

const (
	promptYou   = "[94mYou[0m: "
	promptScout = "[93mScout[0m"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with the research agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

func (a *app) runChat(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, model, err := a.newAgent(ctx)
	if err != nil {
		return err
	}

	hist := history.New()
	var conv []anthropic.MessageParam

	fmt.Println("Chat with Scout (Ctrl-C or /quit to exit, /clear to reset, /history to review)")

	inputCh := readLines(ctx, os.Stdin, a.logger)

outer:
	for {
		fmt.Print(promptYou)
		var (
			user string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Println("\nExiting...")
			break outer
		case user, ok = <-inputCh:
			if !ok {
				break outer
			}
		}

		switch strings.TrimSpace(user) {
		case "":
			continue
		case "/quit", "/exit":
			break outer
		case "/clear":
			hist.Clear()
			conv = nil
			fmt.Println("Conversation history cleared.")
			continue
		case "/history":
			fmt.Println(hist.Render())
			continue
		}

		turnCtx := telemetry.WithTurnID(ctx, telemetry.NewTurnID())
		telemetry.EmitLocalFeatures(turnCtx, user)

		conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(user)))
		assistantText, grown, err := runTurn(turnCtx, r, model, conv)
		conv = grown
		if err != nil {
			if ctx.Err() != nil {
				break outer
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		hist.Append(user, assistantText)
	}
	return nil
}

// readLines streams lines from r until EOF or context cancellation, so an
// interrupt never leaves the reader blocked on a send. The returned channel
// is closed when the goroutine exits.
func readLines(ctx context.Context, r io.Reader, logger log.Logger) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn("input read error", "err", err)
		}
	}()
	return ch
}

// runTurn drives the model until it stops asking for tools, printing each
// visible text block. It returns the accumulated assistant text and the
// conversation including every message exchanged during the turn.
func runTurn(ctx context.Context, r *runner.Runner, model anthropic.Model, conv []anthropic.MessageParam) (string, []anthropic.MessageParam, error) {
	var assistantText string
	for {
		msg, toolResults, err := r.RunOneStep(ctx, model, conv)
		if err != nil {
			return assistantText, conv, err
		}
		conv = append(conv, msg.ToParam())

		for _, b := range msg.Content {
			if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
				fmt.Printf("%s: %s\n", promptScout, tb.Text)
				if assistantText == "" {
					assistantText = tb.Text
				} else {
					assistantText += "\n" + tb.Text
				}
			}
		}

		if len(toolResults) == 0 {
			return assistantText, conv, nil
		}
		conv = append(conv, anthropic.NewUserMessage(toolResults...))
	}
}
