package cache

import (
	"sync"
	"time"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/realtime"
	"github.com/wonny/cnquant/pkg/logger"
)

// QuoteCache is an in-memory cache of the latest streamed quotes
// ⭐ SSOT: 실시간 시세 캐싱은 이 구조체에서만
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]*realtime.QuoteTick
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// NewQuoteCache creates a new quote cache
func NewQuoteCache(ttl time.Duration, log *logger.Logger) *QuoteCache {
	return &QuoteCache{
		quotes: make(map[string]*realtime.QuoteTick),
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// Update stores tick unless the cache already holds newer data.
// Same-instant updates are only accepted from a higher priority source.
func (c *QuoteCache) Update(tick realtime.QuoteTick) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.quotes[tick.Code]; ok {
		if tick.ReceivedAt.Before(existing.ReceivedAt) {
			c.logger.WithFields(map[string]interface{}{
				"code":       tick.Code,
				"new_time":   tick.ReceivedAt,
				"old_time":   existing.ReceivedAt,
				"new_source": tick.Quote.Source,
				"old_source": existing.Quote.Source,
			}).Debug("Rejected older quote")
			return false
		}
		if tick.ReceivedAt.Equal(existing.ReceivedAt) &&
			realtime.SourcePriority(tick.Quote.Source) <= realtime.SourcePriority(existing.Quote.Source) {
			return false
		}
	}

	tick.IsStale = c.now().Sub(tick.ReceivedAt) > c.ttl
	c.quotes[tick.Code] = &tick
	return true
}

// Get retrieves a quote from cache
func (c *QuoteCache) Get(code string) (realtime.QuoteTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tick, ok := c.quotes[code]
	if !ok {
		return realtime.QuoteTick{}, false
	}
	return c.view(tick), true
}

// GetMany returns cached quotes in the order of codes, plus the codes not cached
func (c *QuoteCache) GetMany(codes []string) ([]realtime.QuoteTick, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	found := make([]realtime.QuoteTick, 0, len(codes))
	var missing []string
	for _, code := range codes {
		if tick, ok := c.quotes[code]; ok {
			found = append(found, c.view(tick))
		} else {
			missing = append(missing, code)
		}
	}
	return found, missing
}

// view returns a copy with staleness evaluated now
func (c *QuoteCache) view(tick *realtime.QuoteTick) realtime.QuoteTick {
	out := *tick
	out.IsStale = c.now().Sub(tick.ReceivedAt) > c.ttl
	return out
}

// Delete removes a quote from cache
func (c *QuoteCache) Delete(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.quotes, code)
}

// Clear clears all quotes from cache
func (c *QuoteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes = make(map[string]*realtime.QuoteTick)
	c.logger.Info("Cleared quote cache")
}

// Len returns the number of cached quotes
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.quotes)
}

// CleanStale removes quotes older than the TTL and returns how many were dropped
func (c *QuoteCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for code, tick := range c.quotes {
		if now.Sub(tick.ReceivedAt) > c.ttl {
			delete(c.quotes, code)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale quotes from cache")
	}
	return count
}

// Stats returns cache statistics
func (c *QuoteCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{TotalCount: len(c.quotes)}
	now := c.now()
	for _, tick := range c.quotes {
		if now.Sub(tick.ReceivedAt) > c.ttl {
			stats.StaleCount++
		}
		switch tick.Quote.Source {
		case contracts.SourceTencent:
			stats.TencentCount++
		case contracts.SourceSina:
			stats.SinaCount++
		}
	}
	stats.FreshCount = stats.TotalCount - stats.StaleCount

	return stats
}

// CacheStats represents cache statistics
type CacheStats struct {
	TotalCount   int `json:"total_count"`
	FreshCount   int `json:"fresh_count"`
	StaleCount   int `json:"stale_count"`
	TencentCount int `json:"tencent_count"`
	SinaCount    int `json:"sina_count"`
}
