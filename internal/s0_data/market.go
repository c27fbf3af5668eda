package s0_data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/external/sina"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/redis"
)

// errEmptySnapshot keeps empty upstream answers out of the cache
var errEmptySnapshot = errors.New("empty snapshot")

// IndexSource returns market index snapshots (nil codes = defaults)
type IndexSource interface {
	GetIndexQuotes(ctx context.Context, codes []string) ([]contracts.IndexQuote, error)
}

// SectorSource ranks industry or concept boards by change
type SectorSource interface {
	GetSectorRotation(ctx context.Context, kind sina.SectorKind, limit int) ([]contracts.SectorQuote, error)
}

// MarketService serves index and sector snapshots through the shared cache.
// Errors and empty snapshots are never cached.
// ⭐ SSOT: 지수/섹터 조회는 이 서비스를 통해서만
type MarketService struct {
	indices IndexSource
	sectors SectorSource
	cache   *redis.Cache
	ttl     time.Duration
	logger  *logger.Logger
}

// NewMarketService creates a market service. A disabled cache passes through.
func NewMarketService(indices IndexSource, sectors SectorSource, cache *redis.Cache, log *logger.Logger) *MarketService {
	return &MarketService{
		indices: indices,
		sectors: sectors,
		cache:   cache,
		ttl:     redis.TTLMedium,
		logger:  log.WithField("module", "market"),
	}
}

// GetIndexQuotes implements IndexSource
func (s *MarketService) GetIndexQuotes(ctx context.Context, codes []string) ([]contracts.IndexQuote, error) {
	key := "index:default"
	if len(codes) > 0 {
		key = "index:" + strings.Join(codes, ",")
	}
	quotes, err := redis.Remember(ctx, s.cache, key, s.ttl, func() ([]contracts.IndexQuote, error) {
		quotes, err := s.indices.GetIndexQuotes(ctx, codes)
		if err == nil && len(quotes) == 0 {
			return nil, errEmptySnapshot
		}
		return quotes, err
	})
	if errors.Is(err, errEmptySnapshot) {
		s.logger.WithField("key", key).Debug("Empty index snapshot, not cached")
		return nil, nil
	}
	return quotes, err
}

// GetSectorRotation implements SectorSource
func (s *MarketService) GetSectorRotation(ctx context.Context, kind sina.SectorKind, limit int) ([]contracts.SectorQuote, error) {
	key := fmt.Sprintf("sector:%s:%d", kind, limit)
	sectors, err := redis.Remember(ctx, s.cache, key, s.ttl, func() ([]contracts.SectorQuote, error) {
		sectors, err := s.sectors.GetSectorRotation(ctx, kind, limit)
		if err == nil && len(sectors) == 0 {
			return nil, errEmptySnapshot
		}
		return sectors, err
	})
	if errors.Is(err, errEmptySnapshot) {
		s.logger.WithField("key", key).Debug("Empty sector snapshot, not cached")
		return nil, nil
	}
	return sectors, err
}
