package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/models"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path...]",
	Short: "Watch data files and invalidate cached records on change",
	Long: `Watches the given paths (default: the configured data directory) and
invalidates cache entries when files change. With --schedule, suites that
declare a cron schedule also run on their schedule until interrupted.`,
	RunE: runWatch,
}

var watchSchedule bool

func init() {
	watchCmd.Flags().BoolVar(&watchSchedule, "schedule", false, "Also run scheduled suites on their cron expressions")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	defer common.RecoverWithCrashFile()
	common.PrintBanner(common.GetVersion())

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := args
	if len(paths) == 0 {
		paths = []string{config.Data.Dir}
	}

	watcher, err := a.StartWatcher(ctx, paths)
	if err != nil {
		return err
	}
	defer watcher.Close()

	if watchSchedule {
		suites, err := models.LoadSuiteDir(config.Suites.Dir)
		if err != nil {
			return err
		}
		registered, err := a.ScheduleSuites(ctx, suites)
		if err != nil {
			return err
		}
		fmt.Printf("scheduled %d suite(s)\n", registered)
	}

	fmt.Printf("watching %s\n", strings.Join(paths, ", "))
	fmt.Println("Press Ctrl+C to stop")

	<-ctx.Done()

	logger.Info().Msg("Watch stopped")
	fmt.Println("\nstopped")
	return nil
}
