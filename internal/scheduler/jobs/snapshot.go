// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"

	"github.com/microcap/papertrade/internal/ledger"
	"github.com/microcap/papertrade/pkg/logger"
)

// SnapshotJob records the daily portfolio snapshot so history stays
// continuous even on days without trades.
type SnapshotJob struct {
	repo   *ledger.Repository
	logger *logger.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(repo *ledger.Repository, log *logger.Logger) *SnapshotJob {
	return &SnapshotJob{
		repo:   repo,
		logger: log,
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "portfolio_snapshot"
}

// Schedule returns the cron schedule (daily after US market close, UTC)
func (j *SnapshotJob) Schedule() string {
	return "0 30 21 * * *"
}

// Run records today's snapshot
func (j *SnapshotJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled portfolio snapshot")
	return j.repo.SaveSnapshot(ctx)
}
