package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/internal/strategyconfig"
	"github.com/wonny/cnquant/pkg/logger"
	"github.com/wonny/cnquant/pkg/numutil"
)

func p(v float64) *float64 { return numutil.Ptr(v) }

func defaultScorer() *Scorer {
	return NewScorer(strategyconfig.Default().Weights)
}

func TestScore_CompliantRowWithoutTech(t *testing.T) {
	entry := contracts.UniverseEntry{
		Code:         "600100",
		Price:        p(50),
		PE:           p(12),
		PB:           p(1.5),
		MktCapWan:    p(600000),
		MktCapYi:     p(60),
		Amount:       p(80000000),
		TurnoverRate: p(2.1),
		ChangePct:    p(3.0),
	}

	scores := defaultScorer().Score(entry)

	assert.Equal(t, 65.0, scores.Growth)
	assert.Equal(t, 80.0, scores.Valuation)
	assert.Equal(t, 55.0, scores.Quality)
	// 60亿 is the smallest tier (-5), turnover 2.1 adds 10
	assert.Equal(t, 55.0, scores.Safety)
	assert.Equal(t, 50.0, scores.Momentum)
	assert.Equal(t, 63.75, scores.Composite)
}

func TestScore_AllAbsentIsNeutral(t *testing.T) {
	scores := defaultScorer().Score(contracts.UniverseEntry{Code: "600000"})

	assert.Equal(t, contracts.FactorScores{
		Growth: 50, Valuation: 50, Quality: 50, Safety: 50, Momentum: 50, Composite: 50,
	}, scores)
}

func TestScore_StrongProfile(t *testing.T) {
	entry := contracts.UniverseEntry{
		PE:           p(5),
		PB:           p(0.8),
		ChangePct:    p(9.9),
		TurnoverRate: p(12),
		MktCapYi:     p(18000),
		Tech: contracts.TechnicalIndicators{
			RSI14:      p(55),
			OffHighPct: p(-40),
			VsMA20Pct:  p(8),
			VsMA60Pct:  p(15),
		},
	}

	scores := defaultScorer().Score(entry)

	assert.Equal(t, 95.0, scores.Growth)
	assert.Equal(t, 95.0, scores.Valuation)
	assert.Equal(t, 65.0, scores.Quality) // implied roe 16
	assert.Equal(t, 90.0, scores.Safety)
	assert.Equal(t, 75.0, scores.Momentum)
	for _, v := range []float64{scores.Growth, scores.Valuation, scores.Quality, scores.Safety, scores.Momentum} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestScore_Bands(t *testing.T) {
	tests := []struct {
		name  string
		entry contracts.UniverseEntry
		field func(contracts.FactorScores) float64
		want  float64
	}{
		{"pe 15-25", contracts.UniverseEntry{PE: p(20)}, valuation, 60},
		{"pe 25-40", contracts.UniverseEntry{PE: p(30)}, valuation, 50},
		{"pe 40-80", contracts.UniverseEntry{PE: p(60)}, valuation, 40},
		{"pe over 80", contracts.UniverseEntry{PE: p(120)}, valuation, 25},
		{"negative pe", contracts.UniverseEntry{PE: p(-8)}, valuation, 80},
		{"negative pe no roe", contracts.UniverseEntry{PE: p(-8), PB: p(3)}, quality, 50},
		{"pb over 10", contracts.UniverseEntry{PB: p(12)}, valuation, 35},
		{"pb 5-10 neutral", contracts.UniverseEntry{PB: p(7)}, valuation, 50},
		{"roe over 20", contracts.UniverseEntry{PE: p(10), PB: p(2.5)}, quality, 75},
		{"roe under 5", contracts.UniverseEntry{PE: p(50), PB: p(2)}, quality, 35},
		{"roe 5-10 neutral", contracts.UniverseEntry{PE: p(25), PB: p(2)}, quality, 50},
		{"change below -5", contracts.UniverseEntry{ChangePct: p(-7)}, growth, 40},
		{"rsi overheated", contracts.UniverseEntry{Tech: contracts.TechnicalIndicators{RSI14: p(80)}}, growth, 45},
		{"rsi 65-75 neutral", contracts.UniverseEntry{Tech: contracts.TechnicalIndicators{RSI14: p(70)}}, growth, 50},
		{"mega cap", contracts.UniverseEntry{MktCapYi: p(2500)}, safety, 70},
		{"large cap", contracts.UniverseEntry{MktCapYi: p(800)}, safety, 65},
		{"mid cap", contracts.UniverseEntry{MktCapYi: p(150)}, safety, 55},
		{"illiquid", contracts.UniverseEntry{TurnoverRate: p(0.2)}, safety, 40},
		{"near high", contracts.UniverseEntry{Tech: contracts.TechnicalIndicators{OffHighPct: p(-2)}}, safety, 45},
		{"below ma20 deep", contracts.UniverseEntry{Tech: contracts.TechnicalIndicators{VsMA20Pct: p(-12)}}, momentum, 35},
		{"below ma20", contracts.UniverseEntry{Tech: contracts.TechnicalIndicators{VsMA20Pct: p(-3)}}, momentum, 45},
		{"above ma60", contracts.UniverseEntry{Tech: contracts.TechnicalIndicators{VsMA60Pct: p(4)}}, momentum, 55},
		{"below ma60 deep", contracts.UniverseEntry{Tech: contracts.TechnicalIndicators{VsMA60Pct: p(-25)}}, momentum, 40},
	}

	scorer := defaultScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field(scorer.Score(tt.entry)))
		})
	}
}

func growth(s contracts.FactorScores) float64    { return s.Growth }
func valuation(s contracts.FactorScores) float64 { return s.Valuation }
func quality(s contracts.FactorScores) float64   { return s.Quality }
func safety(s contracts.FactorScores) float64    { return s.Safety }
func momentum(s contracts.FactorScores) float64  { return s.Momentum }

func TestScore_Deterministic(t *testing.T) {
	entry := contracts.UniverseEntry{PE: p(17.3), PB: p(3.1), ChangePct: p(1.2), MktCapYi: p(420)}
	scorer := defaultScorer()
	assert.Equal(t, scorer.Score(entry), scorer.Score(entry))
}

func TestDeepScorer_AllMissingIsMidpoint(t *testing.T) {
	scores := NewDeepScorer(strategyconfig.Default().DeepWeights).Score(DeepInputs{})

	assert.Equal(t, 3.0, scores.Growth)
	assert.Equal(t, 3.0, scores.Valuation)
	assert.Equal(t, 3.0, scores.CapitalFlow)
	assert.Equal(t, 2.5, scores.Catalyst) // no event and no news
	assert.Equal(t, 3.0, scores.Technical)
	assert.Equal(t, 3.0, scores.Conviction)
	assert.InDelta(t, 2.925, scores.Composite, 0.006)
}

func TestDeepScorer_Composite(t *testing.T) {
	days := 5
	scores := NewDeepScorer(strategyconfig.Default().DeepWeights).Score(DeepInputs{
		RevenueGrowthPct: p(35),
		PEG:              p(0.7),
		NorthNetFlowM:    p(150),
		DaysToEvent:      &days,
		NewsCount:        4,
		RSI14:            p(28),
		VsMA20Pct:        p(6),
		BullPct:          p(80),
	})

	assert.Equal(t, 4.0, scores.Growth)
	assert.Equal(t, 4.5, scores.Valuation)
	assert.Equal(t, 5.0, scores.CapitalFlow)
	assert.Equal(t, 5.0, scores.Catalyst)
	assert.Equal(t, 5.0, scores.Technical)
	assert.Equal(t, 4.0, scores.Conviction)
	// 1.0 + 0.9 + 0.75 + 0.75 + 0.5 + 0.6
	assert.Equal(t, 4.5, scores.Composite)
}

func TestDeepScorer_Bands(t *testing.T) {
	assert.Equal(t, 1.0, ScoreGrowth(p(2)))
	assert.Equal(t, 2.0, ScoreGrowth(p(5)))
	assert.Equal(t, 5.0, ScoreValuation(p(0.5)))
	assert.Equal(t, 4.0, ScoreValuation(p(1.2)))
	assert.Equal(t, 2.0, ScoreValuation(p(3)))
	assert.Equal(t, 1.0, ScoreValuation(p(5)))
	assert.Equal(t, 3.0, ScoreCapitalFlow(p(-20)))
	assert.Equal(t, 1.0, ScoreCapitalFlow(p(-150)))
	assert.Equal(t, 2.0, ScoreConviction(p(50)))
	assert.Equal(t, 1.0, ScoreConviction(p(10)))

	far := 40
	assert.Equal(t, 2.0, ScoreCatalyst(&far, 1))
	assert.Equal(t, 3.5, ScoreCatalyst(nil, 3))
	assert.Equal(t, 3.0, ScoreCatalyst(nil, 1))

	assert.Equal(t, 1.5, ScoreTechnical(p(80), p(-6)))
	assert.Equal(t, 3.25, ScoreTechnical(nil, p(1)))
	assert.Equal(t, 4.0, ScoreTechnical(p(40), p(-2)))
}

func TestAssessEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		trend   FlowTrend
		sh      *float64
		signal  Signal
		reasons []string
	}{
		{"no data", TrendNeutral, nil, SignalYellow, []string{"数据不足，默认黄灯"}},
		{"heavy outflow", TrendHeavyOutflow, nil, SignalRed, []string{"北向资金连续大额流出"}},
		{"outflow", TrendOutflow, p(0.3), SignalYellow, []string{"北向资金连续流出"}},
		{"inflow", TrendInflow, p(1.5), SignalGreen, []string{"北向资金连续流入", "上证上涨 +1.5%"}},
		{"inflow capped by crash", TrendInflow, p(-2.4), SignalYellow, []string{"北向资金连续流入", "上证大跌 -2.4%"}},
		{"crash keeps red", TrendHeavyOutflow, p(-3), SignalRed, []string{"北向资金连续大额流出", "上证大跌 -3.0%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := AssessEnvironment(tt.trend, tt.sh)
			assert.Equal(t, tt.signal, env.Signal)
			assert.Equal(t, tt.reasons, env.Reasons)
		})
	}
}

func TestParseFlowTrend(t *testing.T) {
	assert.Equal(t, TrendInflow, ParseFlowTrend("连续流入"))
	assert.Equal(t, TrendHeavyOutflow, ParseFlowTrend("heavy_outflow"))
	assert.Equal(t, TrendNeutral, ParseFlowTrend("sideways"))
}

func TestRanker_Rank(t *testing.T) {
	entries := []contracts.UniverseEntry{
		{Code: "A", Board: contracts.BoardMain, Scores: contracts.FactorScores{Composite: 55}},
		{Code: "B", Board: contracts.BoardGrowth, Scores: contracts.FactorScores{Composite: 71.2}},
		{Code: "C", Board: contracts.BoardInnovation, Scores: contracts.FactorScores{Composite: 55}},
		{Code: "D", Board: contracts.BoardMain, Scores: contracts.FactorScores{Composite: 62}},
	}

	results := NewRanker(logger.Nop()).Rank(entries, 3)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"B", "D", "A"}, []string{results[0].Code, results[1].Code, results[2].Code})
	assert.Equal(t, []int{1, 2, 3}, []int{results[0].Rank, results[1].Rank, results[2].Rank})
	assert.Equal(t, "创业板", results[0].Board)
	assert.Equal(t, 71.2, results[0].Composite)
}

func TestTopK(t *testing.T) {
	entries := []contracts.UniverseEntry{
		{Code: "A", Scores: contracts.FactorScores{Composite: 1}},
		{Code: "B", Scores: contracts.FactorScores{Composite: 3}},
	}

	assert.Len(t, TopK(entries, 0), 2)
	assert.Len(t, TopK(entries, 5), 2)
	top := TopK(entries, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "B", top[0].Code)
}
