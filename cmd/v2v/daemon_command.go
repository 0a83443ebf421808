package main

import (
	"github.com/spf13/cobra"

	"voicetovision/internal/daemon"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var skipPing bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the ingestion daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemon.Run(cmd.Context(), cfg, daemon.Options{
				LogLevel: logLevel,
				SkipPing: skipPing,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&skipPing, "skip-ollama-check", false, "Skip the Ollama reachability check at startup")
	return cmd
}
