package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaronsela1/productivity-bot/internal/config"
	"github.com/yaronsela1/productivity-bot/internal/logging"
)

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()

	root := &cobra.Command{
		Use:   "productivity-bot",
		Short: "Sends Slack summaries of important unread Gmail messages",
		Long: `productivity-bot signs users in with Google, stores their sender whitelist
and Slack webhook, and posts a summary of matching unread mail on each
user's chosen interval (1h, 4h or 1d).

Without a subcommand it runs the HTTP server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	root.SetVersionTemplate(`{{printf "productivity-bot version %s\n" .Version}}`)

	root.AddCommand(serveCmd)
	root.AddCommand(newDispatchCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig reads the environment and installs the process logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("productivity-bot version %s\n", version)
		},
	}
}
