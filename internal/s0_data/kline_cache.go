package s0_data

import (
	"context"
	"time"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/redis"
)

var shanghai = loadShanghai()

func loadShanghai() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// CachedKlineSource memoizes price history per symbol and trading date.
// Empty or failed fetches are never cached.
type CachedKlineSource struct {
	source contracts.KlineSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// NewCachedKlineSource wraps source with cache. A disabled cache passes through.
func NewCachedKlineSource(source contracts.KlineSource, cache *redis.Cache, log *logger.Logger) *CachedKlineSource {
	return &CachedKlineSource{
		source: source,
		cache:  cache,
		ttl:    redis.TTLLong,
		logger: log.WithField("module", "kline_cache"),
		now:    time.Now,
	}
}

// GetKline implements contracts.KlineSource
func (s *CachedKlineSource) GetKline(ctx context.Context, code string, period contracts.KlinePeriod, days int) ([]contracts.PricePoint, error) {
	scale, _ := period.Scale()
	key := redis.KlineKey(contracts.Qualify(code), scale, days, s.now().In(shanghai).Format("2006-01-02"))

	var cached []contracts.PricePoint
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).Debug("Kline cache read failed")
	} else if found && len(cached) > 0 {
		return cached, nil
	}

	points, err := s.source.GetKline(ctx, code, period, days)
	if err != nil {
		return nil, err
	}
	if len(points) > 0 {
		if err := s.cache.Set(ctx, key, points, s.ttl); err != nil {
			s.logger.WithError(err).Debug("Kline cache write failed")
		}
	}
	return points, nil
}
