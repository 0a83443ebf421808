package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"voicetovision/internal/download"
	"voicetovision/internal/logging"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <uuid-or-folder>",
		Short: "Bundle an idea's files into a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, audit, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			idea, err := resolveIdea(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}

			manifest := make([]string, 0, len(idea.Files))
			dir := store.Dir(idea)
			for _, rel := range idea.Files {
				manifest = append(manifest, filepath.Join(dir, rel))
			}

			manager := download.NewManager(cfg, logging.NewNop(), audit)
			token, err := manager.Issue(manifest, 0)
			if err != nil {
				return err
			}

			archive, err := manager.RedeemToFile(cmd.Context(), token.Value)
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.Rename(archive, output); err != nil {
					return fmt.Errorf("moving archive to %s: %w", output, err)
				}
				archive = output
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes from %d files)\n",
				archive, token.Bytes, len(token.Manifest))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path for the zip archive")
	return cmd
}
