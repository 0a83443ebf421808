package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"voicetovision/internal/auth"
	"voicetovision/internal/ideas"
	"voicetovision/internal/logging"
	"voicetovision/internal/services"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ideas, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.build()
			if err != nil {
				return err
			}
			filter.Limit = limit

			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No ideas stored.")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, idea := range list {
				rows = append(rows, []string{
					idea.FolderName,
					idea.Analysis.Type,
					idea.Analysis.MaturityLevel,
					strconv.Itoa(idea.Analysis.Viability),
					idea.CreatedBy,
					idea.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Folder", "Type", "Maturity", "Viability", "Creator", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows (0 for all)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <uuid-or-folder>",
		Short: "Show one idea in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			idea, err := resolveIdea(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", idea.Analysis.Name)
			fmt.Fprintf(out, "  UUID:       %s\n", idea.UUID)
			fmt.Fprintf(out, "  Folder:     %s\n", idea.FolderName)
			fmt.Fprintf(out, "  Type:       %s\n", idea.Analysis.Type)
			fmt.Fprintf(out, "  Maturity:   %s\n", idea.Analysis.MaturityLevel)
			fmt.Fprintf(out, "  Viability:  %d/10\n", idea.Analysis.Viability)
			fmt.Fprintf(out, "  Creator:    %s\n", idea.CreatedBy)
			fmt.Fprintf(out, "  Created:    %s\n", idea.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  Path:       %s\n", store.Dir(idea))
			if len(idea.Analysis.Tags) > 0 {
				fmt.Fprintf(out, "  Tags:       %s\n", strings.Join(idea.Analysis.Tags, ", "))
			}
			fmt.Fprintf(out, "\n%s\n", idea.Analysis.Summary)
			if len(idea.Analysis.NextSteps) > 0 {
				fmt.Fprintln(out, "\nNext steps:")
				for _, step := range idea.Analysis.NextSteps {
					fmt.Fprintf(out, "  - %s\n", step)
				}
			}
			if len(idea.Analysis.Risks) > 0 {
				fmt.Fprintln(out, "\nRisks:")
				for _, risk := range idea.Analysis.Risks {
					fmt.Fprintf(out, "  - %s\n", risk)
				}
			}
			return nil
		},
	}
	return cmd
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <uuid-or-folder> <new-name>",
		Short: "Rename an idea (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, audit, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := ctx.requireAdmin(audit, "rename"); err != nil {
				return err
			}

			idea, err := resolveIdea(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			renamed, err := store.Rename(cmd.Context(), idea.UUID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", idea.FolderName, renamed.FolderName)
			return nil
		},
	}
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <uuid-or-folder>",
		Short: "Delete an idea and its folder (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, audit, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := ctx.requireAdmin(audit, "delete"); err != nil {
				return err
			}

			idea, err := resolveIdea(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", idea.FolderName)
			}
			if err := store.Delete(cmd.Context(), idea.UUID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", idea.FolderName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

// resolveIdea accepts either a UUID or a folder name.
func resolveIdea(ctx context.Context, store *ideas.Store, ref string) (*ideas.Idea, error) {
	idea, err := store.GetByUUID(ctx, ref)
	if err == nil {
		return idea, nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}
	return store.GetByFolderName(ctx, ref)
}

func (c *commandContext) requireAdmin(audit *logging.Audit, action string) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	user := c.user()
	if user == "" {
		return fmt.Errorf("--user is required for %s", action)
	}
	if !auth.New(cfg).IsAdmin(user) {
		audit.Unauthorized("cli", action, user)
		return services.Wrap(services.ErrSecurity, "cli", action,
			fmt.Sprintf("user %q is not an administrator", user), nil)
	}
	return nil
}
