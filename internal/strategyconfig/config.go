package strategyconfig

import (
	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/s0_data/quality"
)

// Config는 스크리닝 전략의 전체 설정
type Config struct {
	Meta        Meta                    `yaml:"meta" json:"meta"`
	HardFilter  HardFilter              `yaml:"hard_filter" json:"hard_filter"`
	Weights     contracts.ScreenWeights `yaml:"weights" json:"weights"`
	DeepWeights contracts.DeepWeights   `yaml:"deep_weights" json:"deep_weights"`
	Enrichment  Enrichment              `yaml:"enrichment" json:"enrichment"`
	Quality     quality.Config          `yaml:"quality" json:"quality"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// HardFilter S1: 하드 필터 기준
type HardFilter struct {
	NameMarkers       []string `yaml:"name_markers" json:"name_markers"`             // ST / 退市
	PriceMin          float64  `yaml:"price_min" json:"price_min"`                   // 元
	MarketCapMinWan   float64  `yaml:"market_cap_min_wan" json:"market_cap_min_wan"` // 万元
	RequirePositivePE bool     `yaml:"require_positive_pe" json:"require_positive_pe"`
	AmountMin         float64  `yaml:"amount_min" json:"amount_min"` // 元, 0 disables
}

// Enrichment S2: 기술적 지표 보강
type Enrichment struct {
	TopK      int `yaml:"top_k" json:"top_k"`
	Workers   int `yaml:"workers" json:"workers"`
	KlineDays int `yaml:"kline_days" json:"kline_days"`
}

// Default returns the built-in CN A-share strategy
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "cn_full_screen",
			Version:    "1",
			Timezone:   "Asia/Shanghai",
		},
		HardFilter: HardFilter{
			NameMarkers:       []string{"ST", "退"},
			PriceMin:          3,
			MarketCapMinWan:   500000,
			RequirePositivePE: true,
			AmountMin:         5e7,
		},
		Weights: contracts.ScreenWeights{
			Growth:    0.30,
			Valuation: 0.25,
			Quality:   0.20,
			Safety:    0.15,
			Momentum:  0.10,
		},
		DeepWeights: contracts.DeepWeights{
			Growth:      0.25,
			Valuation:   0.20,
			CapitalFlow: 0.15,
			Catalyst:    0.15,
			Technical:   0.10,
			Conviction:  0.15,
		},
		Enrichment: Enrichment{
			TopK:      200,
			Workers:   6,
			KlineDays: 120,
		},
		Quality: quality.DefaultConfig(),
	}
}
