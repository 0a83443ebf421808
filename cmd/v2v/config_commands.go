package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"voicetovision/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigValidateCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an annotated sample configuration file",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			var err error
			if target == "" {
				target, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			} else {
				target, err = config.ExpandPath(target)
				if err != nil {
					return err
				}
			}

			if _, statErr := os.Stat(target); statErr == nil && !overwrite {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace)", target)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o644); err != nil {
				return fmt.Errorf("write config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination path (defaults to the standard location)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolvedPath, exists, err := config.Load(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Configuration file: %s\n\n", resolvedPath)
			} else {
				fmt.Fprintln(out, "No configuration file found; showing defaults.")
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Base folder:        %s\n", cfg.System.BaseFolder)
			fmt.Fprintf(out, "Inbox folder:       %s\n", cfg.System.InboxDir)
			fmt.Fprintf(out, "Temp folder:        %s\n", cfg.System.TempFolder)
			fmt.Fprintf(out, "Log directory:      %s\n", cfg.System.LogDir)
			fmt.Fprintf(out, "Whisper model:      %s\n", cfg.Whisper.Model)
			fmt.Fprintf(out, "Ollama model:       %s\n", cfg.Ollama.Model)
			fmt.Fprintf(out, "Ollama URL:         %s\n", cfg.Ollama.BaseURL)
			fmt.Fprintf(out, "Max audio size:     %d MB\n", cfg.System.MaxAudioSizeMB)
			fmt.Fprintf(out, "Link expiry:        %d minutes\n", cfg.System.LinkExpiryMinutes)
			fmt.Fprintf(out, "Concurrent jobs:    %d\n", cfg.System.MaxConcurrentJobs)
			fmt.Fprintf(out, "Authorized users:   %d\n", len(cfg.Auth.AuthorizedUsers))
			fmt.Fprintf(out, "Admins:             %d\n", len(cfg.Auth.Admins))
			if cfg.Notifications.NtfyTopic != "" {
				fmt.Fprintln(out, "Notifications:      enabled")
			} else {
				fmt.Fprintln(out, "Notifications:      disabled")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Configuration file to inspect")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the configuration file parses and validates",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, resolvedPath, exists, err := config.Load(path)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("no configuration file found (run \"v2v config init\")")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid.\n", resolvedPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Configuration file to validate")
	return cmd
}
