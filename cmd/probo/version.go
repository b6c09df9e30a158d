package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ternarybob/probo/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("probo version %s\n", common.GetFullVersion())
	fmt.Printf("go version %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
