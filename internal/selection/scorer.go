package selection

import (
	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/numutil"
)

const (
	baseScore = 50.0
	minScore  = 0.0
	maxScore  = 100.0
)

// Scorer computes the five screening factors on a 0–100 scale.
// Absent inputs leave the factor at the neutral baseline.
// ⭐ SSOT: 스크린 팩터 점수 계산은 여기서만
type Scorer struct {
	weights contracts.ScreenWeights
}

// NewScorer creates a new scorer
func NewScorer(weights contracts.ScreenWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Weights returns the composite weights in use
func (s *Scorer) Weights() contracts.ScreenWeights {
	return s.weights
}

// Score is pure: identical entries always produce identical scores.
// entry.Tech may be empty (prelim pass or failed enrichment).
func (s *Scorer) Score(entry contracts.UniverseEntry) contracts.FactorScores {
	scores := contracts.FactorScores{
		Growth:    clampScore(growthScore(entry)),
		Valuation: clampScore(valuationScore(entry)),
		Quality:   clampScore(qualityScore(entry)),
		Safety:    clampScore(safetyScore(entry)),
		Momentum:  clampScore(momentumScore(entry)),
	}
	scores.Composite = numutil.Round(
		scores.Growth*s.weights.Growth+
			scores.Valuation*s.weights.Valuation+
			scores.Quality*s.weights.Quality+
			scores.Safety*s.weights.Safety+
			scores.Momentum*s.weights.Momentum, 2)
	return scores
}

// growthScore uses 1-day change, turnover and the RSI band as proxies
func growthScore(e contracts.UniverseEntry) float64 {
	score := baseScore
	if v := e.ChangePct; v != nil {
		switch {
		case *v > 5:
			score += 20
		case *v > 2:
			score += 10
		case *v < -5:
			score -= 10
		}
	}
	if v := e.TurnoverRate; v != nil {
		switch {
		case *v > 5:
			score += 15
		case *v > 2:
			score += 5
		}
	}
	if v := e.Tech.RSI14; v != nil {
		switch {
		case *v > 40 && *v < 65:
			score += 10 // 健康区间
		case *v > 75:
			score -= 5 // 过热
		}
	}
	return score
}

func valuationScore(e contracts.UniverseEntry) float64 {
	score := baseScore
	if v := e.PE; v != nil {
		switch {
		case *v < 10: // 적자(PE<0) 포함
			score += 30
		case *v < 15:
			score += 20
		case *v < 25:
			score += 10
		case *v < 40:
		case *v < 80:
			score -= 10
		default:
			score -= 25
		}
	}
	if v := e.PB; v != nil {
		switch {
		case *v < 1:
			score += 15
		case *v < 2:
			score += 10
		case *v < 5:
		case *v > 10:
			score -= 15
		}
	}
	return score
}

// qualityScore uses implied ROE = PB / PE × 100
func qualityScore(e contracts.UniverseEntry) float64 {
	score := baseScore
	if e.PE == nil || e.PB == nil || *e.PE <= 0 {
		return score
	}
	roe := *e.PB / *e.PE * 100
	switch {
	case roe > 20:
		score += 25
	case roe > 15:
		score += 15
	case roe > 10:
		score += 5
	case roe < 5:
		score -= 15
	}
	return score
}

func safetyScore(e contracts.UniverseEntry) float64 {
	score := baseScore
	if v := e.MktCapYi; v != nil {
		switch {
		case *v > 2000:
			score += 20
		case *v > 500:
			score += 15
		case *v > 100:
			score += 5
		default:
			score -= 5
		}
	}
	if v := e.TurnoverRate; v != nil {
		switch {
		case *v > 1:
			score += 10
		case *v < 0.3:
			score -= 10
		}
	}
	if v := e.Tech.OffHighPct; v != nil {
		switch {
		case *v < -30:
			score += 10 // 고점 대비 충분히 하락
		case *v > -5:
			score -= 5
		}
	}
	return score
}

func momentumScore(e contracts.UniverseEntry) float64 {
	score := baseScore
	if v := e.Tech.VsMA20Pct; v != nil {
		switch {
		case *v > 5:
			score += 15
		case *v > 0:
			score += 10
		case *v < -10:
			score -= 15
		case *v < 0:
			score -= 5
		}
	}
	if v := e.Tech.VsMA60Pct; v != nil {
		switch {
		case *v > 10:
			score += 10
		case *v > 0:
			score += 5
		case *v < -20:
			score -= 10
		}
	}
	return score
}

func clampScore(v float64) float64 {
	return numutil.Clamp(v, minScore, maxScore)
}
