package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("server %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}
