package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"voicetovision/internal/daemon"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the idea index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.CollectStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total ideas: %d\n", stats.Total)
			if !stats.Newest.IsZero() {
				fmt.Fprintf(out, "Newest:      %s\n", stats.Newest.Format("2006-01-02 15:04"))
			}
			if stats.Total == 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				printDaemonStatus(cmd, cfg.System.LogDir)
				return nil
			}

			fmt.Fprintln(out, "\nBy type:")
			fmt.Fprintln(out, renderTable(
				[]string{"Type", "Count"},
				countRows(stats.ByType),
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintln(out, "By maturity:")
			fmt.Fprintln(out, renderTable(
				[]string{"Maturity", "Count"},
				countRows(stats.ByMaturity),
				[]columnAlignment{alignLeft, alignRight},
			))

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			printDaemonStatus(cmd, cfg.System.LogDir)
			return nil
		},
	}
	return cmd
}

// printDaemonStatus reports the counters a running daemon publishes to its
// status file. Queue and download state live in the daemon's memory, so
// without the file there is nothing to show.
func printDaemonStatus(cmd *cobra.Command, logDir string) {
	status, err := daemon.ReadStatus(logDir)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "Daemon: not running (no status file)")
		return
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Daemon status unavailable: %v\n", err)
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Daemon (as of %s):\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Jobs pending:     %d\n", status.Jobs.Pending)
	fmt.Fprintf(out, "  Jobs processing:  %d\n", status.Jobs.Processing)
	fmt.Fprintf(out, "  Jobs completed:   %d\n", status.Jobs.Completed)
	fmt.Fprintf(out, "  Jobs failed:      %d\n", status.Jobs.Failed)
	fmt.Fprintf(out, "  Active downloads: %d (%d bytes)\n",
		status.Downloads.ActiveCount, status.Downloads.ActiveBytes)
}

func countRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, strconv.Itoa(counts[key])})
	}
	return rows
}
