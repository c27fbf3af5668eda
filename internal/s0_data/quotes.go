package s0_data

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/logger"
)

// ErrNoQuotes is returned when neither source produced a quote
var ErrNoQuotes = errors.New("no quotes available")

// QuoteService merges a primary and a fallback quote provider.
// Codes the primary misses or reports without a price are asked of the fallback.
// ⭐ SSOT: 실시간 시세 조회는 이 서비스를 통해서만
type QuoteService struct {
	primary  contracts.QuoteProvider
	fallback contracts.QuoteProvider
	logger   *logger.Logger
}

// NewQuoteService creates a quote service. fallback may be nil.
func NewQuoteService(primary, fallback contracts.QuoteProvider, log *logger.Logger) *QuoteService {
	return &QuoteService{
		primary:  primary,
		fallback: fallback,
		logger:   log.WithField("module", "quotes"),
	}
}

// GetQuotes returns the best available quote per code
func (s *QuoteService) GetQuotes(ctx context.Context, codes []string) (map[string]contracts.Quote, error) {
	if len(codes) == 0 {
		return map[string]contracts.Quote{}, nil
	}

	quotes, primaryErr := s.primary.GetQuotes(ctx, codes)
	if primaryErr != nil {
		s.logger.WithError(primaryErr).Warn("Primary quote source failed")
	}
	if quotes == nil {
		quotes = make(map[string]contracts.Quote, len(codes))
	}

	missing := make([]string, 0)
	for _, code := range codes {
		if q, ok := quotes[code]; !ok || !q.Tradable() {
			missing = append(missing, code)
		}
	}

	if len(missing) > 0 && s.fallback != nil {
		s.logger.WithField("missing", len(missing)).Debug("Asking fallback quote source")

		extra, err := s.fallback.GetQuotes(ctx, missing)
		if err != nil {
			s.logger.WithError(err).Warn("Fallback quote source failed")
		}
		for code, q := range extra {
			// 가격 없는 fallback 결과로 기존 값을 덮어쓰지 않음
			if existing, ok := quotes[code]; ok && !q.Tradable() && existing.Price != nil {
				continue
			}
			quotes[code] = q
		}
	}

	if len(quotes) == 0 {
		if primaryErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoQuotes, primaryErr)
		}
		return nil, ErrNoQuotes
	}
	return quotes, nil
}
