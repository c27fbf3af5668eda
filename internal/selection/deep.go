package selection

import (
	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/numutil"
)

const (
	deepMin     = 1.0
	deepMax     = 5.0
	deepNeutral = 3.0
)

// DeepInputs are the research inputs of one stock. Nil means unknown.
type DeepInputs struct {
	RevenueGrowthPct *float64 `json:"revenue_growth_pct,omitempty"`
	PEG              *float64 `json:"peg,omitempty"`
	NorthNetFlowM    *float64 `json:"north_net_flow_m,omitempty"` // 百万元
	DaysToEvent      *int     `json:"days_to_event,omitempty"`
	NewsCount        int      `json:"news_count"`
	RSI14            *float64 `json:"rsi14,omitempty"`
	VsMA20Pct        *float64 `json:"vs_ma20_pct,omitempty"`
	BullPct          *float64 `json:"bull_pct,omitempty"`
}

// DeepScorer scores six research factors on a 1–5 scale
type DeepScorer struct {
	weights contracts.DeepWeights
}

// NewDeepScorer creates a new deep scorer
func NewDeepScorer(weights contracts.DeepWeights) *DeepScorer {
	return &DeepScorer{weights: weights}
}

// Score computes every factor and the weighted composite (2 places)
func (s *DeepScorer) Score(in DeepInputs) contracts.DeepScores {
	scores := contracts.DeepScores{
		Growth:      ScoreGrowth(in.RevenueGrowthPct),
		Valuation:   ScoreValuation(in.PEG),
		CapitalFlow: ScoreCapitalFlow(in.NorthNetFlowM),
		Catalyst:    ScoreCatalyst(in.DaysToEvent, in.NewsCount),
		Technical:   ScoreTechnical(in.RSI14, in.VsMA20Pct),
		Conviction:  ScoreConviction(in.BullPct),
	}
	scores.Composite = numutil.Round(
		scores.Growth*s.weights.Growth+
			scores.Valuation*s.weights.Valuation+
			scores.CapitalFlow*s.weights.CapitalFlow+
			scores.Catalyst*s.weights.Catalyst+
			scores.Technical*s.weights.Technical+
			scores.Conviction*s.weights.Conviction, 2)
	return scores
}

// ScoreGrowth bands revenue growth (%)
func ScoreGrowth(pct *float64) float64 {
	if pct == nil {
		return deepNeutral
	}
	switch v := *pct; {
	case v >= 50:
		return 5
	case v >= 30:
		return 4
	case v >= 15:
		return 3
	case v >= 5:
		return 2
	default:
		return 1
	}
}

// ScoreValuation bands PEG
func ScoreValuation(peg *float64) float64 {
	if peg == nil {
		return deepNeutral
	}
	switch v := *peg; {
	case v <= 0.5:
		return 5
	case v <= 0.8:
		return 4.5
	case v <= 1.2:
		return 4
	case v <= 2.0:
		return 3
	case v <= 4.0:
		return 2
	default:
		return 1
	}
}

// ScoreCapitalFlow bands northbound net flow (百万元)
func ScoreCapitalFlow(flow *float64) float64 {
	if flow == nil {
		return deepNeutral
	}
	switch v := *flow; {
	case v >= 100:
		return 5
	case v >= 20:
		return 4
	case v >= -20:
		return 3
	case v >= -100:
		return 2
	default:
		return 1
	}
}

// ScoreCatalyst rewards near events and news volume
func ScoreCatalyst(daysToEvent *int, newsCount int) float64 {
	base := deepNeutral
	if daysToEvent != nil {
		switch d := *daysToEvent; {
		case d <= 7:
			base = 5
		case d <= 14:
			base = 4
		case d <= 28:
			base = 3
		default:
			base = 2
		}
	}
	if newsCount >= 3 {
		base += 0.5
	} else if newsCount == 0 && daysToEvent == nil {
		base -= 0.5
	}
	return numutil.Clamp(base, deepMin, deepMax)
}

// ScoreTechnical favors oversold RSI and price above MA20
func ScoreTechnical(rsi, vsMA20 *float64) float64 {
	if rsi == nil && vsMA20 == nil {
		return deepNeutral
	}
	base := deepNeutral
	if rsi != nil {
		switch v := *rsi; {
		case v <= 30:
			base = 4.5 // 超卖
		case v <= 45:
			base = 4
		case v <= 70:
			base = 3
		default:
			base = 2 // 过热
		}
	}
	if vsMA20 != nil {
		switch v := *vsMA20; {
		case v >= 5:
			base += 0.5
		case v >= 0:
			base += 0.25
		case v <= -5:
			base -= 0.5
		}
	}
	return numutil.Clamp(base, deepMin, deepMax)
}

// ScoreConviction bands the share of bullish views (%)
func ScoreConviction(bullPct *float64) float64 {
	if bullPct == nil {
		return deepNeutral
	}
	switch v := *bullPct; {
	case v >= 90:
		return 5
	case v >= 75:
		return 4
	case v >= 60:
		return 3
	case v >= 45:
		return 2
	default:
		return 1
	}
}
