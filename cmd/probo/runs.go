package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/probo/internal/models"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored run history",
	Long: `Lists run reports persisted from previous runs, newest first. A single
run's full report prints as JSON with --id.`,
	RunE: runRuns,
}

var (
	runsSuite string
	runsLimit int
	runsID    string
)

func init() {
	runsCmd.Flags().StringVar(&runsSuite, "suite", "", "Only runs for this suite")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Max runs to list; 0 lists all")
	runsCmd.Flags().StringVar(&runsID, "id", "", "Print one run report as JSON")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	store := a.Storage.RunStorage()

	if runsID != "" {
		report, err := store.GetRun(ctx, runsID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	var reports []*models.RunReport
	if runsSuite != "" {
		reports, err = store.ListRunsBySuite(ctx, runsSuite, runsLimit)
	} else {
		reports, err = store.ListRuns(ctx, runsLimit)
	}
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Println("no stored runs")
		return nil
	}

	fmt.Printf("%-40s %-20s %-8s %-8s %-8s %s\n", "ID", "SUITE", "TOTAL", "PASSED", "FAILED", "CREATED")
	for _, report := range reports {
		total, passed, failed := 0, 0, 0
		if report.Summary != nil {
			total = report.Summary.Total
			passed = report.Summary.Passed
			failed = report.Summary.Failed + report.Summary.Errored
		}
		fmt.Printf("%-40s %-20s %-8d %-8d %-8d %s\n",
			report.ID, report.SuiteName, total, passed, failed,
			report.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
