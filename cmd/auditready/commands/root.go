package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	snapshotSource string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "auditready",
	Short: "Audit readiness scoring for hospitality outlets",
	Long: `AuditReady Unified CLI

Scores outlets on material, menu, documentation and alert compliance
and produces an improvement plan when the readiness goal is missed.

Usage:
  go run ./cmd/auditready [command]

Examples:
  go run ./cmd/auditready outlets
  go run ./cmd/auditready run 2
  go run ./cmd/auditready api
  go run ./cmd/auditready scheduler run readiness_sweep
  go run ./cmd/auditready test-db --seed`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&snapshotSource, "source", "", "snapshot source override (demo|postgres)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
