package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/microcap/papertrade/internal/advisor"
	"github.com/microcap/papertrade/internal/analysis"
	"github.com/microcap/papertrade/internal/api"
	"github.com/microcap/papertrade/internal/api/handlers"
	"github.com/microcap/papertrade/internal/ledger"
	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/internal/picks"
	"github.com/microcap/papertrade/internal/scheduler"
	"github.com/microcap/papertrade/internal/scheduler/jobs"
	"github.com/microcap/papertrade/pkg/config"
	"github.com/microcap/papertrade/pkg/database"
	"github.com/microcap/papertrade/pkg/logger"
	"github.com/microcap/papertrade/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                        - Health check
  GET  /api/portfolio                 - Portfolio summary with live prices
  GET  /api/portfolio/positions       - Raw positions and cash
  GET  /api/portfolio/history         - Daily snapshots
  POST /api/portfolio/cash            - Set cash balance
  POST /api/trades/buy                - Buy at the live quote
  POST /api/trades/sell               - Sell at the live quote
  GET  /api/trades/history            - Trade log
  GET  /api/stocks/quote/{symbol}     - Single quote
  POST /api/stocks/quotes             - Multiple quotes
  GET  /api/stocks/search?q=          - Symbol search
  GET  /api/stocks/history/{symbol}   - Daily bars
  GET  /api/stocks/analyze/{symbol}   - Full analysis
  GET  /api/stocks/top-picks          - Ranked watchlist scan
  GET  /api/stocks/stream             - WebSocket quote stream

Example:
  go run ./cmd/papertrade api
  go run ./cmd/papertrade api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Papertrade API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database and ensure the ledger schema exists
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	repo := ledger.NewRepository(db.Pool, log)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Init(initCtx); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}

	// 4. Optional Redis quote cache
	var marketOpts []market.Option
	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, quote caching is in-memory only")
	} else {
		defer rdb.Close()
		if rdb.Enabled() {
			marketOpts = append(marketOpts, market.WithRedisCache(redis.NewCache(rdb, "papertrade")))
			log.Info("Redis quote cache enabled")
		}
	}

	// 5. Market data client
	yahoo := market.NewClient(cfg, log, marketOpts...)

	// 6. Analysis engine + advisor
	adv := advisor.NewGemini(context.Background(), cfg, log)
	engine := analysis.NewEngine(yahoo, adv, log)
	ranker := picks.NewRanker(engine, cfg, log)

	// 7. Handlers and router
	router := api.NewRouter(api.Handlers{
		Portfolio: handlers.NewPortfolioHandler(repo, yahoo, log),
		Trades:    handlers.NewTradesHandler(repo, yahoo, log),
		Stocks:    handlers.NewStocksHandler(yahoo, engine, ranker, log),
		Stream:    handlers.NewStreamHandler(yahoo, log),
	}, db, log)

	// 8. Background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewSnapshotJob(repo, log)); err != nil {
		return fmt.Errorf("schedule snapshot job: %w", err)
	}
	if err := sched.AddJob(jobs.NewCacheCleanupJob(yahoo, log)); err != nil {
		return fmt.Errorf("schedule cache cleanup job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 9. Start server with graceful shutdown
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
