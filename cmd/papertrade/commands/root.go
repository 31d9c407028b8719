package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "Paper trading platform with live quotes and stock analysis",
	Long: `Papertrade CLI

Simulated stock trading backed by live market data: a cash/positions
ledger in PostgreSQL, Yahoo Finance quotes, a technical analysis engine
and an optional AI narrator for recommendations.

Usage:
  go run ./cmd/papertrade [command]

Examples:
  go run ./cmd/papertrade api
  go run ./cmd/papertrade analyze PLTR
  go run ./cmd/papertrade picks
  go run ./cmd/papertrade test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
