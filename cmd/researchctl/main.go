// Package main implements researchctl, the operator CLI for the research store.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// version is overridden at build time with -ldflags.
	version = "dev"

	noColor bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "researchctl",
	Short: "Operator commands for the research assistant backend",
	Long: `researchctl talks to the research store directly, using the same
environment (.env) as the REST server. It covers housekeeping that should not
wait for an HTTP call: retention cleanup, reviewer digests and quick inspection.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(cleanupCmd, configCmd, statsCmd, digestCmd, pendingCmd)
}
