package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/microcap/papertrade/internal/advisor"
	"github.com/microcap/papertrade/internal/analysis"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/internal/picks"
	"github.com/microcap/papertrade/pkg/config"
	"github.com/microcap/papertrade/pkg/logger"
)

// picksCmd represents the picks command
var picksCmd = &cobra.Command{
	Use:   "picks [SYMBOL...]",
	Short: "Scan the watchlist and print ranked picks",
	Long: `Analyzes the built-in small-cap watchlist (or the symbols given as
arguments) and prints the results ranked by score.

Example:
  go run ./cmd/papertrade picks
  go run ./cmd/papertrade picks UPST SOFI HOOD`,
	RunE: runPicks,
}

func init() {
	rootCmd.AddCommand(picksCmd)
}

func runPicks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	yahoo := market.NewClient(cfg, log)
	adv := advisor.NewGemini(ctx, cfg, log)
	engine := analysis.NewEngine(yahoo, adv, log)
	ranker := picks.NewRanker(engine, cfg, log)

	symbols := make([]string, 0, len(args))
	for _, arg := range args {
		symbols = append(symbols, strings.ToUpper(arg))
	}

	results, err := ranker.TopPicks(ctx, symbols)
	if err != nil {
		return fmt.Errorf("top picks: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No symbols could be analyzed.")
		return nil
	}

	fmt.Printf("%-4s %-6s %-10s %-10s %-8s %s\n", "#", "SYMBOL", "PRICE", "ACTION", "CONF", "SCORE")
	for i, result := range results {
		fmt.Printf("%-4d %-6s $%-9.2f %-10s %-8s %d\n",
			i+1,
			result.Symbol,
			result.CurrentPrice,
			result.Recommendation.Action,
			result.Recommendation.Confidence,
			picks.Score(result),
		)
	}

	return nil
}
