package s2_signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/internal/contracts"
	"github.com/wonny/cnquant/pkg/numutil"
)

func series(closes ...float64) []contracts.PricePoint {
	points := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = contracts.PricePoint{Close: numutil.Ptr(c)}
	}
	return points
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestCalculate_TooShort(t *testing.T) {
	calc := NewTechnicalCalculator()

	tech := calc.Calculate(series(ramp(19, 10, 0.1)...))

	assert.True(t, tech.Empty())
	assert.Nil(t, tech.MA5)
	assert.Nil(t, tech.MA20)
	assert.Nil(t, tech.MA60)
}

func TestCalculate_TooFewCloses(t *testing.T) {
	points := series(ramp(25, 10, 0.1)...)
	for i := 0; i < 6; i++ {
		points[i].Close = nil
	}

	assert.True(t, NewTechnicalCalculator().Calculate(points).Empty())
}

func TestCalculate_Ramp20(t *testing.T) {
	// closes 1..20
	tech := NewTechnicalCalculator().Calculate(series(ramp(20, 1, 1)...))

	require.False(t, tech.Empty())
	assert.Equal(t, 20.0, *tech.Latest)
	assert.Equal(t, 18.0, *tech.MA5)
	assert.Equal(t, 10.5, *tech.MA20)
	assert.Nil(t, tech.MA60)
	assert.Nil(t, tech.VsMA60Pct)
	assert.Equal(t, 100.0, *tech.RSI14)
	assert.Equal(t, 90.48, *tech.VsMA20Pct) // (20-10.5)/10.5*100
	assert.Equal(t, 20.0, *tech.HighPeriod)
	assert.Equal(t, 1.0, *tech.LowPeriod)
	assert.Equal(t, 0.0, *tech.OffHighPct)
}

func TestCalculate_MA60AndOffHigh(t *testing.T) {
	closes := append(ramp(40, 10, 0.5), ramp(25, 29.5, -0.2)...) // peak 29.5 then decline
	tech := NewTechnicalCalculator().Calculate(series(closes...))

	require.NotNil(t, tech.MA60)
	require.NotNil(t, tech.VsMA60Pct)
	assert.Equal(t, 29.5, *tech.HighPeriod)
	assert.Equal(t, 10.0, *tech.LowPeriod)

	last := closes[len(closes)-1]
	assert.Equal(t, numutil.Round((last-29.5)/29.5*100, 2), *tech.OffHighPct)
	assert.Equal(t, 0.0, *tech.RSI14) // 14 straight losses
}

func TestCalculate_NonDecreasingRSIIs100(t *testing.T) {
	closes := []float64{10, 10, 10.2, 10.2, 10.5, 10.5, 10.5, 11, 11, 11.3, 11.3, 11.4, 11.9, 12, 12,
		12, 12.1, 12.1, 12.4, 12.4}
	tech := NewTechnicalCalculator().Calculate(series(closes...))

	require.NotNil(t, tech.RSI14)
	assert.Equal(t, 100.0, *tech.RSI14)
}

func TestRSI_Mixed(t *testing.T) {
	// 15 closes: 7 gains of +1, 7 losses of -0.5 → rs = 2 → 66.67
	window := []float64{10}
	for i := 0; i < 7; i++ {
		window = append(window, window[len(window)-1]+1, window[len(window)-1]+0.5)
	}
	require.Len(t, window, 15)

	assert.Equal(t, 66.67, rsi(window))
}

func TestCalculate_Deterministic(t *testing.T) {
	closes := append(ramp(30, 8, 0.13), ramp(40, 11.9, -0.07)...)
	calc := NewTechnicalCalculator()

	assert.Equal(t, calc.Calculate(series(closes...)), calc.Calculate(series(closes...)))
}

func TestCalculate_GoldenRounding(t *testing.T) {
	closes := []float64{9.07, 9.05, 9.93, 9.64, 9.76, 10.78, 10.05, 10.12, 9.47, 9.05,
		9.65, 9.27, 10.02, 11.0, 10.35, 9.36, 10.79, 10.59, 10.47, 10.81}

	tech := NewTechnicalCalculator().Calculate(series(closes...))

	require.False(t, tech.Empty())
	assert.Equal(t, 10.404, *tech.MA5)
	assert.Equal(t, 9.961, *tech.MA20) // sum 199.23 / 20 sits just below the tie
	assert.Equal(t, 50.18, *tech.RSI14)
	assert.Equal(t, 8.52, *tech.VsMA20Pct)
	assert.Equal(t, 11.0, *tech.HighPeriod)
	assert.Equal(t, -1.73, *tech.OffHighPct)
}
