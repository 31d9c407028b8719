package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/microcap/papertrade/internal/ledger"
	"github.com/microcap/papertrade/pkg/config"
	"github.com/microcap/papertrade/pkg/database"
	"github.com/microcap/papertrade/pkg/logger"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record today's portfolio snapshot",
	Long: `Writes today's cash balance and positions into portfolio history.
The same snapshot also runs automatically after every trade and on the
daily schedule; this command is for backfilling by hand.

Example:
  go run ./cmd/papertrade snapshot`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := ledger.NewRepository(db.Pool, log)
	if err := repo.Init(ctx); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	if err := repo.SaveSnapshot(ctx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	fmt.Println("✅ Snapshot recorded")
	return nil
}
