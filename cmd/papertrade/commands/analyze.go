package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/microcap/papertrade/internal/advisor"
	"github.com/microcap/papertrade/internal/analysis"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/config"
	"github.com/microcap/papertrade/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze SYMBOL",
	Short: "Analyze a stock from the command line",
	Long: `Runs the full technical and narrative analysis for one symbol and
prints the result as JSON.

Example:
  go run ./cmd/papertrade analyze PLTR`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	yahoo := market.NewClient(cfg, log)
	adv := advisor.NewGemini(ctx, cfg, log)
	engine := analysis.NewEngine(yahoo, adv, log)

	result, err := engine.AnalyzeStock(ctx, symbol)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", symbol, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
