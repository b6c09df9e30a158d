package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/probo/internal/models"
)

var validateCmd = &cobra.Command{
	Use:   "validate <source-file>...",
	Short: "Check data sources for integrity problems",
	Long: `Inspects each source for readability, emptiness, duplicate records, and
inconsistent field sets. Warnings are informational; any error-severity
finding fails the command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sources := make([]models.DataSource, 0, len(args))
	for _, path := range args {
		sources = append(sources, models.DataSource{Path: path})
	}

	report, err := a.Integrity.Check(context.Background(), sources)
	if err != nil {
		return err
	}

	for _, issue := range report.Issues {
		if issue.Index > 0 {
			fmt.Printf("%-7s %s [%d]: %s\n", issue.Severity, issue.Source, issue.Index, issue.Message)
		} else {
			fmt.Printf("%-7s %s: %s\n", issue.Severity, issue.Source, issue.Message)
		}
	}

	fmt.Printf("checked %d source(s), %d record(s), %d issue(s)\n",
		report.Sources, report.Records, len(report.Issues))

	if !report.Valid {
		return fmt.Errorf("integrity check failed")
	}
	fmt.Println("ok")
	return nil
}
