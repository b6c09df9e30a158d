package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/probo/internal/models"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <source-file>",
	Short: "Load a source and show its records",
	Long: `Loads a data source and prints its field names and a sample of records,
one JSON object per line in source field order.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectLimit     int
	inspectSheet     string
	inspectDelimiter string
	inspectFilter    []string
)

func init() {
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 10, "Max records to print; 0 prints all")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "Excel sheet name; default first sheet")
	inspectCmd.Flags().StringVar(&inspectDelimiter, "delimiter", "", "CSV delimiter; default comma")
	inspectCmd.Flags().StringArrayVar(&inspectFilter, "filter", nil, "Filter as field=pattern (repeatable, * wildcard)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	filter, err := parseFilterFlags(inspectFilter)
	if err != nil {
		return err
	}

	source := models.DataSource{
		Path: args[0],
		Options: models.LoadOptions{
			Sheet:     inspectSheet,
			Delimiter: inspectDelimiter,
			Filter:    filter,
		},
	}

	records, err := a.Datasets.Load(context.Background(), source)
	if err != nil {
		return err
	}

	format, _ := source.ResolveFormat()
	fmt.Printf("source: %s (%s)\n", source.Path, format)
	fmt.Printf("records: %d\n", len(records))
	if len(records) == 0 {
		return nil
	}
	fmt.Printf("fields: %s\n\n", strings.Join(records[0].Fields(), ", "))

	limit := inspectLimit
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	for i := 0; i < limit; i++ {
		line, err := json.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("failed to render record %d: %w", i, err)
		}
		fmt.Printf("[%d] %s\n", i, line)
	}
	if limit < len(records) {
		fmt.Printf("... %d more record(s)\n", len(records)-limit)
	}
	return nil
}
