package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, Validate(cfg))
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.InDelta(t, 1.0, cfg.DeepWeights.Sum(), 1e-9)
	assert.Equal(t, 200, cfg.Enrichment.TopK)
	assert.Equal(t, []string{"ST", "退"}, cfg.HardFilter.NameMarkers)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
hard_filter:
  price_min: 5
weights:
  growth: 0.2
  valuation: 0.3
  quality: 0.2
  safety: 0.2
  momentum: 0.1
enrichment:
  workers: 8
`))

	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.HardFilter.PriceMin)
	assert.Equal(t, 500000.0, cfg.HardFilter.MarketCapMinWan)
	assert.Equal(t, 0.3, cfg.Weights.Valuation)
	assert.Equal(t, 8, cfg.Enrichment.Workers)
	assert.Equal(t, 200, cfg.Enrichment.TopK)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("hard_filter:\n  price_minimum: 5\n"))
	assert.Error(t, err)
}

func TestParse_WeightsMustSumToOne(t *testing.T) {
	_, err := Parse([]byte(`
weights:
  growth: 0.5
  valuation: 0.25
  quality: 0.2
  safety: 0.15
  momentum: 0.1
`))

	assert.True(t, errors.Is(err, ErrInvalidWeights))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"negative price", func(c *Config) { c.HardFilter.PriceMin = -1 }, "hard_filter.price_min"},
		{"zero top k", func(c *Config) { c.Enrichment.TopK = 0 }, "enrichment.top_k"},
		{"too many workers", func(c *Config) { c.Enrichment.Workers = 64 }, "enrichment.workers"},
		{"short history", func(c *Config) { c.Enrichment.KlineDays = 10 }, "enrichment.kline_days"},
		{"coverage over 1", func(c *Config) { c.Quality.MinPECoverage = 1.5 }, "quality.min_pe_coverage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			var vErr ValidationError
			require.True(t, errors.As(Validate(cfg), &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meta:\n  strategy_id: cn_value_tilt\n"), 0o644))

	cfg, raw, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "cn_value_tilt", cfg.Meta.StrategyID)
	assert.NotEmpty(t, raw)
}

func TestLoadOrDefault_Empty(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, _ := Hash(Default())
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.HardFilter.PriceMin = 4
	h3, _ := Hash(changed)
	assert.NotEqual(t, h1, h3)
}
