package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	knobsFile string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "MarketLens screener backend",
	Long: `MarketLens screener CLI

Criteria-based screening over the asset corpus: bound resolution,
criterion storage, single and combined matching.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener api
  go run ./cmd/screener warm
  go run ./cmd/screener attrs`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&knobsFile, "knobs", "", "screening knob file (default from SCREENER_KNOBS)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
