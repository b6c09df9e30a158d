// Probo command line: runs data-driven suites, validates and exports data
// sources, and browses stored run history.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/app"
	"github.com/ternarybob/probo/internal/common"
)

// Shared runtime populated by initRuntime before any subcommand runs.
var (
	config *common.Config
	logger arbor.ILogger
)

var (
	configFiles []string
	flagWorkers int
	reportsDir  string
)

var rootCmd = &cobra.Command{
	Use:   "probo",
	Short: "Data-driven test pipeline",
	Long: `Probo loads records from CSV, Excel, and JSON sources and drives each one
through a test function, with filtering, sampling, parallel execution,
report artifacts, and run history.`,
	Version: common.GetFullVersion(),
	// Errors from RunE are runtime failures, not usage mistakes
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("probo version %s\n", common.GetFullVersion()))

	rootCmd.PersistentFlags().StringArrayVar(&configFiles, "config", nil, "Config file (repeatable; later files override earlier)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Max parallel workers (overrides config)")
	rootCmd.PersistentFlags().StringVar(&reportsDir, "reports-dir", "", "Directory for report artifacts (overrides config)")
}

// initRuntime loads configuration and builds the logger every subcommand
// shares. Explicit --config paths win; otherwise known locations are tried.
func initRuntime(cmd *cobra.Command, args []string) error {
	paths := configFiles
	if len(paths) == 0 {
		paths = discoverConfigFiles()
	}

	var err error
	config, err = common.LoadFromFiles(paths...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	common.ApplyFlagOverrides(config, flagWorkers, reportsDir)

	logger = common.InitLogger(config)
	common.InstallCrashHandler("logs")
	return nil
}

// discoverConfigFiles returns config files found in conventional locations.
// Missing files are fine; defaults apply.
func discoverConfigFiles() []string {
	var paths []string
	for _, candidate := range []string{"probo.toml", "config/probo.toml"} {
		if _, err := os.Stat(candidate); err == nil {
			paths = append(paths, candidate)
		}
	}
	return paths
}

// newApp builds the full application from the shared config and logger.
// Callers own the returned app and must Close it.
func newApp() (*app.App, error) {
	a, err := app.New(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, nil
}
