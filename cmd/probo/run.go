package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/models"
)

var runCmd = &cobra.Command{
	Use:   "run [suite-file...]",
	Short: "Run data-driven suites",
	Long: `Runs one or more suite files. With no arguments every suite in the
configured suites directory runs. Each suite loads its sources, drives every
record through the suite's checks, writes report artifacts, and stores the
run in history.`,
	RunE: runRun,
}

var (
	runSuiteName  string
	runParallel   bool
	runNoProgress bool
)

func init() {
	runCmd.Flags().StringVar(&runSuiteName, "suite", "", "Run only the suite with this name")
	runCmd.Flags().BoolVar(&runParallel, "parallel", false, "Force parallel execution regardless of suite settings")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "Disable the progress bar")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	defer common.RecoverWithCrashFile()
	common.PrintBanner(common.GetVersion())

	suites, err := collectSuites(args)
	if err != nil {
		return err
	}
	if len(suites) == 0 {
		return errors.New("no suites to run")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bar *progressbar.ProgressBar
	currentSuite := ""
	if !runNoProgress {
		// The runner delivers results from a single collector goroutine, so
		// driving the bar from the callback is safe. A fresh bar starts with
		// each source's first result.
		a.Runner.Progress = func(completed, total int, result models.RecordResult) {
			if completed == 1 {
				bar = newRunProgressBar(total, currentSuite)
			}
			if bar != nil {
				bar.Set(completed)
				if completed == total {
					bar.Finish()
				}
			}
		}
	}

	totals := models.ExecutionSummary{}
	var runErrs []error
	for _, suite := range suites {
		if suite.Disabled {
			logger.Info().Str("suite", suite.Name).Msg("Suite disabled, skipping")
			continue
		}
		if runParallel {
			suite.Execution.Parallel = true
		}
		currentSuite = suite.Name

		runReport, err := a.RunSuite(ctx, suite)
		if err != nil {
			runErrs = append(runErrs, fmt.Errorf("suite %s: %w", suite.Name, err))
			fmt.Printf("suite %s: error: %v\n", suite.Name, err)
			continue
		}
		printSuiteResult(suite.Name, runReport.Summary)

		totals.Total += runReport.Summary.Total
		totals.Passed += runReport.Summary.Passed
		totals.Failed += runReport.Summary.Failed
		totals.Skipped += runReport.Summary.Skipped
		totals.Errored += runReport.Summary.Errored

		if ctx.Err() != nil {
			fmt.Println("interrupted")
			break
		}
	}

	if len(suites) > 1 {
		fmt.Printf("\ntotal: %d records  passed %d  failed %d  skipped %d  errored %d\n",
			totals.Total, totals.Passed, totals.Failed, totals.Skipped, totals.Errored)
	}

	if len(runErrs) > 0 {
		return errors.Join(runErrs...)
	}
	if notPassed := totals.Failed + totals.Errored; notPassed > 0 {
		return fmt.Errorf("run finished: %d of %d records did not pass", notPassed, totals.Total)
	}
	return nil
}

// collectSuites loads suites from explicit file arguments, or from the
// configured suites directory when none are given. The --suite flag narrows
// the set by name.
func collectSuites(args []string) ([]*models.Suite, error) {
	var suites []*models.Suite
	if len(args) > 0 {
		for _, path := range args {
			suite, err := models.LoadSuite(path)
			if err != nil {
				return nil, err
			}
			suites = append(suites, suite)
		}
	} else {
		var err error
		suites, err = models.LoadSuiteDir(config.Suites.Dir)
		if err != nil {
			return nil, err
		}
	}

	if runSuiteName == "" {
		return suites, nil
	}
	for _, suite := range suites {
		if suite.Name == runSuiteName {
			return []*models.Suite{suite}, nil
		}
	}
	return nil, fmt.Errorf("no suite named %q found", runSuiteName)
}

// printSuiteResult writes one suite's outcome with a line per failure.
func printSuiteResult(name string, summary *models.ExecutionSummary) {
	fmt.Printf("suite %s: %d records  passed %d  failed %d  skipped %d  errored %d  (%s)\n",
		name, summary.Total, summary.Passed, summary.Failed, summary.Skipped, summary.Errored,
		summary.Duration.Round(time.Millisecond))
	if summary.Stopped {
		fmt.Println("  run stopped early")
	}
	for _, result := range summary.Results {
		if result.Status != models.StatusFailed && result.Status != models.StatusErrored {
			continue
		}
		label := result.Source
		if label == "" {
			label = "records"
		}
		fmt.Printf("  %s  %s[%d]: %s\n", result.Status, label, result.Index, result.Message)
	}
}

func newRunProgressBar(total int, suite string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(fmt.Sprintf("running %s", suite)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
