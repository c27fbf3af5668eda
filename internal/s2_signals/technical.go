package s2_signals

import (
	"math"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/numutil"
)

const (
	minCloses = 20
	rsiPeriod = 14
)

// TechnicalCalculator derives indicators from a chronological price series
// ⭐ SSOT: 기술적 지표 계산은 여기서만
type TechnicalCalculator struct{}

// NewTechnicalCalculator creates a new technical calculator
func NewTechnicalCalculator() *TechnicalCalculator {
	return &TechnicalCalculator{}
}

// Calculate returns indicators for points (oldest first).
// Fewer than 20 bars or 20 usable closes yields the empty result.
func (c *TechnicalCalculator) Calculate(points []contracts.PricePoint) contracts.TechnicalIndicators {
	var out contracts.TechnicalIndicators
	if len(points) < minCloses {
		return out
	}

	closes := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Close != nil {
			closes = append(closes, *p.Close)
		}
	}
	if len(closes) < minCloses {
		return out
	}

	last := closes[len(closes)-1]
	out.Latest = numutil.Ptr(last)
	out.MA5 = numutil.Ptr(numutil.Round(mean(closes[len(closes)-5:]), 3))
	out.MA20 = numutil.Ptr(numutil.Round(mean(closes[len(closes)-20:]), 3))
	if len(closes) >= 60 {
		out.MA60 = numutil.Ptr(numutil.Round(mean(closes[len(closes)-60:]), 3))
	}

	if len(closes) >= rsiPeriod+1 {
		out.RSI14 = numutil.Ptr(rsi(closes[len(closes)-rsiPeriod-1:]))
	}

	out.VsMA20Pct = pctFrom(last, out.MA20)
	out.VsMA60Pct = pctFrom(last, out.MA60)

	high, low := closes[0], closes[0]
	for _, v := range closes[1:] {
		high = math.Max(high, v)
		low = math.Min(low, v)
	}
	out.HighPeriod = numutil.Ptr(high)
	out.LowPeriod = numutil.Ptr(low)
	if high != 0 {
		out.OffHighPct = numutil.Ptr(numutil.Round((last-high)/high*100, 2))
	}

	return out
}

// rsi uses simple averages of the gains and losses over the transitions
// in window (len = period+1). Zero average loss is 100.
func rsi(window []float64) float64 {
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		diff := window[i] - window[i-1]
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}

	n := float64(len(window) - 1)
	avgGain, avgLoss := gains/n, losses/n
	if avgLoss <= 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return numutil.Round(100-100/(1+rs), 2)
}

// pctFrom returns (last-ma)/ma*100 rounded to 2 places, nil when ma is absent or zero
func pctFrom(last float64, ma *float64) *float64 {
	if ma == nil || *ma == 0 {
		return nil
	}
	return numutil.Ptr(numutil.Round((last-*ma) / *ma * 100, 2))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
