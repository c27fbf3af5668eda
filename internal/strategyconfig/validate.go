package strategyconfig

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is wrapped by every weight-sum failure
var ErrInvalidWeights = errors.New("weights must sum to 1")

const weightTolerance = 1e-6

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Hard filter ===
	if cfg.HardFilter.PriceMin < 0 {
		return ValidationError{"hard_filter.price_min", "must be >= 0"}
	}
	if cfg.HardFilter.MarketCapMinWan < 0 {
		return ValidationError{"hard_filter.market_cap_min_wan", "must be >= 0"}
	}
	if cfg.HardFilter.AmountMin < 0 {
		return ValidationError{"hard_filter.amount_min", "must be >= 0"}
	}

	// === Weights ===
	if err := validateWeights("weights", []float64{
		cfg.Weights.Growth, cfg.Weights.Valuation, cfg.Weights.Quality,
		cfg.Weights.Safety, cfg.Weights.Momentum,
	}); err != nil {
		return err
	}
	if err := validateWeights("deep_weights", []float64{
		cfg.DeepWeights.Growth, cfg.DeepWeights.Valuation, cfg.DeepWeights.CapitalFlow,
		cfg.DeepWeights.Catalyst, cfg.DeepWeights.Technical, cfg.DeepWeights.Conviction,
	}); err != nil {
		return err
	}

	// === Enrichment ===
	if cfg.Enrichment.TopK <= 0 {
		return ValidationError{"enrichment.top_k", "must be > 0"}
	}
	if cfg.Enrichment.Workers <= 0 || cfg.Enrichment.Workers > 32 {
		return ValidationError{"enrichment.workers", "must be in [1, 32]"}
	}
	if cfg.Enrichment.KlineDays < 20 {
		return ValidationError{"enrichment.kline_days", "must be >= 20"}
	}

	// === Quality ===
	for field, v := range map[string]float64{
		"quality.min_price_coverage":      cfg.Quality.MinPriceCoverage,
		"quality.min_market_cap_coverage": cfg.Quality.MinMarketCapCoverage,
		"quality.min_pe_coverage":         cfg.Quality.MinPECoverage,
		"quality.min_amount_coverage":     cfg.Quality.MinAmountCoverage,
	} {
		if v < 0 || v > 1 {
			return ValidationError{field, "must be in [0, 1]"}
		}
	}

	return nil
}

func validateWeights(field string, weights []float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return ValidationError{field, "must be non-negative"}
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: %s sums to %.6f", ErrInvalidWeights, field, sum)
	}
	return nil
}
