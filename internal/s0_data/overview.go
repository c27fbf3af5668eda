package s0_data

import (
	"context"
	"fmt"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/s2_signals"
	"github.com/wonny/cnquant/pkg/logger"
)

// Overview is the single-stock view: symbol facts, live quote and indicators
type Overview struct {
	Symbol    contracts.Symbol              `json:"symbol"`
	Quote     *contracts.Quote              `json:"quote,omitempty"`
	Technical contracts.TechnicalIndicators `json:"technical"`
	Errors    []string                      `json:"errors,omitempty"`
}

// OverviewService assembles stock overviews
type OverviewService struct {
	quotes contracts.QuoteProvider
	klines contracts.KlineSource
	calc   *s2_signals.TechnicalCalculator
	days   int
	logger *logger.Logger
}

// NewOverviewService creates a new overview service
func NewOverviewService(quotes contracts.QuoteProvider, klines contracts.KlineSource, days int, log *logger.Logger) *OverviewService {
	if days <= 0 {
		days = s2_signals.DefaultKlineDays
	}
	return &OverviewService{
		quotes: quotes,
		klines: klines,
		calc:   s2_signals.NewTechnicalCalculator(),
		days:   days,
		logger: log.WithField("module", "overview"),
	}
}

// Get returns what could be collected; partial failures land in Errors.
// Only a total failure (no quote and no history) is an error.
func (s *OverviewService) Get(ctx context.Context, code string) (*Overview, error) {
	ov := &Overview{Symbol: contracts.ParseSymbol(code)}

	quotes, err := s.quotes.GetQuotes(ctx, []string{code})
	if err != nil {
		ov.Errors = append(ov.Errors, fmt.Sprintf("quote: %v", err))
	} else if q, ok := quotes[code]; ok {
		ov.Quote = &q
	}

	points, err := s.klines.GetKline(ctx, code, contracts.PeriodDaily, s.days)
	if err != nil {
		ov.Errors = append(ov.Errors, fmt.Sprintf("kline: %v", err))
	} else {
		ov.Technical = s.calc.Calculate(points)
	}

	if ov.Quote == nil && ov.Technical.Empty() {
		return nil, fmt.Errorf("overview %s: %v", code, ov.Errors)
	}
	return ov, nil
}
