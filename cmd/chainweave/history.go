package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainweave/chainweave/internal/history"
)

type historyOptions struct {
	dir        string
	chainID    string
	limit      int
	jsonOutput bool
}

func newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent chain executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "History directory (defaults to ~/.chainweave)")
	cmd.Flags().StringVar(&opts.chainID, "chain", "", "Only show executions of this chain")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Max records to show")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *historyOptions) error {
	path, _, err := resolveHistoryPath(opts.dir)
	if err != nil {
		return exitWithCode(exitSetupFailed, err)
	}

	store, err := history.NewStore(path)
	if err != nil {
		return exitWithCode(exitSetupFailed, err)
	}

	var records []history.Record
	if opts.chainID != "" {
		records = store.ForChain(opts.chainID)
		if opts.limit > 0 && len(records) > opts.limit {
			records = records[:opts.limit]
		}
	} else {
		records = store.Recent(opts.limit)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No executions recorded yet.")
		return nil
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	return renderHistoryTable(cmd, records)
}

func renderHistoryTable(cmd *cobra.Command, records []history.Record) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "EXECUTION\tCHAIN\tSTATUS\tDURATION\tWHEN\tNODES")

	for _, record := range records {
		status := "✓ success"
		if !record.Success {
			status = "✗ failed"
		}

		fmt.Fprintf(writer, "%s\t%s\t%s\t%.2fs\t%s\t%d\n",
			shortID(record.ExecutionID),
			record.ChainID,
			status,
			record.ExecutionTime,
			formatRelativeTime(record.CompletedAt),
			len(record.NodeSuccess),
		)
	}

	return writer.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRelativeTime(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}

	delta := time.Since(ts)
	if delta < time.Minute {
		return "just now"
	}
	if delta < time.Hour {
		return fmt.Sprintf("%d minutes ago", int(delta.Minutes()))
	}
	if delta < 24*time.Hour {
		return fmt.Sprintf("%d hours ago", int(delta.Hours()))
	}

	return fmt.Sprintf("%d days ago", int(delta.Hours()/24))
}
