package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/okaines/scout/internal/telemetry"
)

// missionMaxSteps bounds the tool loop for an unattended run.
const missionMaxSteps = 12

func newMissionCmd(a *app) *cobra.Command {
	var images int

	cmd := &cobra.Command{
		Use:   "mission <topic>",
		Short: "Run a one-shot research mission over a topic",
		Long: "mission researches a topic without interaction: it gathers Wikipedia background, " +
			"collects direct image URLs, downloads them under a fitting topic name, and prints a summary.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMission(cmd.Context(), strings.Join(args, " "), images)
		},
	}
	cmd.Flags().IntVar(&images, "images", 3, "number of images to collect and download")
	return cmd
}

func (a *app) runMission(ctx context.Context, topic string, images int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, model, err := a.newAgent(ctx)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf(
		"Research the topic %q. First search Wikipedia for background. "+
			"Then search for up to %d images of it and download them under a short topic name. "+
			"Finish with a brief summary of what you learned and which files were saved.",
		topic, images)

	ctx = telemetry.WithTurnID(ctx, telemetry.NewTurnID())
	conv := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}

	for step := 0; step < missionMaxSteps; step++ {
		msg, toolResults, err := r.RunOneStep(ctx, model, conv)
		if err != nil {
			return err
		}
		conv = append(conv, msg.ToParam())
		for _, b := range msg.Content {
			if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
				fmt.Printf("%s: %s\n", promptScout, tb.Text)
			}
		}
		if len(toolResults) == 0 {
			return nil
		}
		conv = append(conv, anthropic.NewUserMessage(toolResults...))
	}
	return fmt.Errorf("mission did not converge within %d steps", missionMaxSteps)
}
