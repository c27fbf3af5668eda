package jobs

import (
	"context"

	"github.com/wonny/cnquant/internal/realtime/cache"
	"github.com/wonny/cnquant/pkg/logger"
)

// CacheCleanupJob drops stale quotes from the stream cache
type CacheCleanupJob struct {
	cache  *cache.QuoteCache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(quoteCache *cache.QuoteCache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  quoteCache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	count := j.cache.CleanStale()
	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}
	return nil
}
