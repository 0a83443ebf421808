package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicetovision/internal/auth"
	"voicetovision/internal/config"
	"voicetovision/internal/jobs"
	"voicetovision/internal/logging"
	"voicetovision/internal/notifications"
	"voicetovision/internal/services/ollama"
	"voicetovision/internal/services/whisper"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <audio-file>",
		Short: "Process one audio file into an idea, synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			user := ctx.user()
			if user == "" {
				return fmt.Errorf("--user is required for submit")
			}

			audioPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			store, audit, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			queue := jobs.NewQueue(
				cfg,
				auth.New(cfg),
				whisper.NewService(cfg.Whisper),
				ollama.NewClient(cfg.Ollama),
				store,
				notifications.NewService(cfg),
				logging.NewNop(),
				audit,
			)
			queue.Start(cmd.Context())
			defer queue.Stop()

			job, err := queue.Submit(cmd.Context(), audioPath, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s queued, processing...\n", job.ID)

			done, err := queue.Wait(cmd.Context(), job.ID)
			if err != nil {
				return err
			}
			if done.Status == jobs.StatusFailed {
				return fmt.Errorf("job failed: %s", done.Error)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Idea created: %s (uuid %s)\n", done.IdeaFolder, done.IdeaUUID)
			return nil
		},
	}
	return cmd
}
