package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - multi-provider LLM gateway",
	Long: `Meridian is a multi-provider LLM gateway core.

It maps canonical model identifiers onto provider-native models and
provides:
  - Provider selection by priority, cost, latency, or a balanced score
  - Automatic failover with per-(model, provider) circuit breakers
  - Token and cost accounting with layered pricing sources
  - Periodic provider catalog synchronization`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
