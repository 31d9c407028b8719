package jobs

import (
	"context"

	"github.com/microcap/papertrade/internal/market"
	"github.com/microcap/papertrade/pkg/logger"
)

// CacheCleanupJob evicts expired quotes from the in-memory cache.
type CacheCleanupJob struct {
	client *market.Client
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(client *market.Client, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		client: client,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "quote_cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	count := j.client.CleanStaleQuotes()
	if count > 0 {
		j.logger.WithField("removed", count).Info("Quote cache cleanup completed")
	}
	return nil
}
