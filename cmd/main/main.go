package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bubble-model",
		Short: "Recursive price-bubble simulator",
		Long: `bubble-model simulates a commodity price driven by an equilibrium
trend, damping, and speculation on its own momentum and on auxiliary
asset prices (doi:10.1073/pnas.1413108112).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log_level from the config")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newServeCmd(),
		newFetchCmd(),
	)
	return rootCmd
}
