package brain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/s0_data"
	"github.com/wonny/cnquant/internal/selection"
	"github.com/wonny/cnquant/internal/strategyconfig"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/numutil"
)

type fakeOverview struct {
	overview *s0_data.Overview
	err      error
}

func (f fakeOverview) Get(ctx context.Context, code string) (*s0_data.Overview, error) {
	return f.overview, f.err
}

type fakeNews struct {
	items []contracts.NewsItem
	err   error
}

func (f fakeNews) Search(ctx context.Context, code string, limit int) ([]contracts.NewsItem, error) {
	return f.items, f.err
}

func moutaiOverview() *s0_data.Overview {
	return &s0_data.Overview{
		Symbol: contracts.ParseSymbol("600519"),
		Quote:  &contracts.Quote{Code: "600519", Name: "贵州茅台", Price: numutil.Ptr(1466)},
		Technical: contracts.TechnicalIndicators{
			RSI14:     numutil.Ptr(28),
			VsMA20Pct: numutil.Ptr(6),
		},
	}
}

func researchInputs() selection.DeepInputs {
	days := 5
	return selection.DeepInputs{
		RevenueGrowthPct: numutil.Ptr(35),
		PEG:              numutil.Ptr(0.7),
		NorthNetFlowM:    numutil.Ptr(25),
		DaysToEvent:      &days,
		NewsCount:        7,
		BullPct:          numutil.Ptr(80),
	}
}

func TestDeepAnalyzer_LiveInputs(t *testing.T) {
	weights := strategyconfig.Default().DeepWeights
	news := fakeNews{items: []contracts.NewsItem{{Title: "a"}, {Title: "b"}}}
	analyzer := NewDeepAnalyzer(fakeOverview{overview: moutaiOverview()}, news, weights, logger.Nop())

	report, err := analyzer.Analyze(context.Background(), "600519", researchInputs())

	require.NoError(t, err)
	assert.Equal(t, "贵州茅台", report.Name)
	assert.Equal(t, "主板", report.Board)
	assert.Equal(t, 2, report.Inputs.NewsCount, "live headline count replaces the supplied one")
	assert.Equal(t, 28.0, *report.Inputs.RSI14)

	assert.Equal(t, 4.0, report.Scores.Growth)
	assert.Equal(t, 4.5, report.Scores.Valuation)
	assert.Equal(t, 4.0, report.Scores.CapitalFlow)
	assert.Equal(t, 5.0, report.Scores.Catalyst)
	assert.Equal(t, 5.0, report.Scores.Technical)
	assert.Equal(t, 4.0, report.Scores.Conviction)
	assert.InDelta(t, 4.35, report.Scores.Composite, 0.001)
	assert.Equal(t, weights, report.Weights)
	assert.Empty(t, report.Errors)
}

func TestDeepAnalyzer_WeightsFromStrategy(t *testing.T) {
	weights := contracts.DeepWeights{Technical: 1}
	analyzer := NewDeepAnalyzer(fakeOverview{overview: moutaiOverview()}, nil, weights, logger.Nop())

	report, err := analyzer.Analyze(context.Background(), "600519", selection.DeepInputs{})

	require.NoError(t, err)
	assert.Equal(t, 5.0, report.Scores.Composite)
}

func TestDeepAnalyzer_NewsFailureKeepsSuppliedCount(t *testing.T) {
	analyzer := NewDeepAnalyzer(fakeOverview{overview: moutaiOverview()}, fakeNews{err: errors.New("sina 503")}, strategyconfig.Default().DeepWeights, logger.Nop())

	report, err := analyzer.Analyze(context.Background(), "600519", researchInputs())

	require.NoError(t, err)
	assert.Equal(t, 7, report.Inputs.NewsCount)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "sina 503")
}

func TestDeepAnalyzer_OverviewFailure(t *testing.T) {
	analyzer := NewDeepAnalyzer(fakeOverview{err: errors.New("no data")}, nil, strategyconfig.Default().DeepWeights, logger.Nop())

	_, err := analyzer.Analyze(context.Background(), "600519", selection.DeepInputs{})

	assert.ErrorContains(t, err, "no data")
}
