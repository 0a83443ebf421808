package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voicetovision/internal/ideas"
	"voicetovision/internal/logging"
	"voicetovision/internal/search"
)

type filterFlags struct {
	ideaType  string
	maturity  string
	creator   string
	minViable int
	maxViable int
	after     string
	before    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ideaType, "type", "", "Filter by idea type (App, Negocio, ...)")
	cmd.Flags().StringVar(&f.maturity, "maturity", "", "Filter by maturity level (concepto, desarrollado, avanzado)")
	cmd.Flags().StringVar(&f.creator, "creator", "", "Filter by creator")
	cmd.Flags().IntVar(&f.minViable, "min-viability", -1, "Minimum viability score (0-10)")
	cmd.Flags().IntVar(&f.maxViable, "max-viability", -1, "Maximum viability score (0-10)")
	cmd.Flags().StringVar(&f.after, "after", "", "Created on or after date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.before, "before", "", "Created on or before date (YYYY-MM-DD)")
}

func (f *filterFlags) build() (ideas.Filter, error) {
	filter := ideas.NewFilter()
	filter.Type = strings.TrimSpace(f.ideaType)
	filter.MaturityLevel = strings.TrimSpace(f.maturity)
	filter.Creator = strings.TrimSpace(f.creator)
	filter.MinViability = f.minViable
	filter.MaxViability = f.maxViable

	if f.after != "" {
		t, err := time.Parse("2006-01-02", f.after)
		if err != nil {
			return filter, fmt.Errorf("invalid --after date %q", f.after)
		}
		filter.CreatedAfter = t
	}
	if f.before != "" {
		t, err := time.Parse("2006-01-02", f.before)
		if err != nil {
			return filter, fmt.Errorf("invalid --before date %q", f.before)
		}
		filter.CreatedBefore = t.Add(24*time.Hour - time.Nanosecond)
	}
	return filter, nil
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search ideas by name, tags, and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.build()
			if err != nil {
				return err
			}

			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine := search.New(store, logging.NewNop())
			results, err := engine.Search(cmd.Context(), args[0], filter, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No ideas matched.")
				return nil
			}

			rows := make([][]string, 0, len(results))
			for _, res := range results {
				rows = append(rows, []string{
					strconv.Itoa(res.Score),
					res.Idea.FolderName,
					res.Idea.Analysis.Type,
					strconv.Itoa(res.Idea.Analysis.Viability),
					res.Idea.CreatedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Score", "Folder", "Type", "Viability", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results")
	return cmd
}

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Suggest idea names by prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine := search.New(store, logging.NewNop())
			names, err := engine.Suggest(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum suggestions")
	return cmd
}
