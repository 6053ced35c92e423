package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/okaines/scout/internal/config"
	"github.com/okaines/scout/internal/log"
)

// NewRootCmd builds the scout command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	var logLevel string
	var logJSON bool

	root := &cobra.Command{
		Use:           "scout",
		Short:         "Conversational research agent over SearXNG and Anthropic",
		Long:          "scout chats with an Anthropic model that can search the web through a local SearXNG instance and download pages and images into a local artifact store.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-json") {
				cfg.Log.JSON = logJSON
			}
			a.cfg = cfg
			a.logger = log.New(log.Config{Level: log.ParseLevel(cfg.Log.Level), JSON: cfg.Log.JSON})
			return nil
		},
		// Bare "scout" drops straight into the chat loop.
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	root.AddCommand(
		newChatCmd(a),
		newMissionCmd(a),
		newSearchCmd(a),
		newVersionCmd(),
	)
	return root, a
}

// Execute runs the CLI with signal-free base context; commands that need
// interrupt handling install it themselves.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
