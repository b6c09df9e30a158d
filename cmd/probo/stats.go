package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage and cache statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	store := a.Storage.RunStorage()

	count, err := store.CountRuns(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("stored runs: %d (history limit %d)\n", count, config.Storage.Badger.HistoryLimit)

	latest, err := store.ListRuns(ctx, 1)
	if err != nil {
		return err
	}
	if len(latest) > 0 {
		report := latest[0]
		fmt.Printf("latest run: %s", report.ID)
		if report.SuiteName != "" {
			fmt.Printf(" (suite %s)", report.SuiteName)
		}
		fmt.Printf(" at %s\n", report.CreatedAt.Format(time.RFC3339))
		if report.Summary != nil {
			fmt.Printf("  %d records  passed %d  failed %d  skipped %d  errored %d\n",
				report.Summary.Total, report.Summary.Passed, report.Summary.Failed,
				report.Summary.Skipped, report.Summary.Errored)
		}
	}

	// The record cache is per-process, so these counters reflect this
	// invocation only.
	stats := a.Datasets.CacheStats()
	fmt.Printf("record cache: enabled=%t entries=%d records=%d hits=%d misses=%d\n",
		config.Cache.Enabled, stats.Entries, stats.Records, stats.Hits, stats.Misses)
	return nil
}
