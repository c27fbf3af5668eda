package numutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"1466.00", Ptr(1466)},
		{" 12.5 ", Ptr(12.5)},
		{"1,234,567", Ptr(1234567)},
		{"-3.21%", Ptr(-3.21)},
		{"0", Ptr(0)},
		{"0.000", nil},
		{"", nil},
		{"-", nil},
		{"--", nil},
		{"None", nil},
		{"null", nil},
		{"N/A", nil},
		{"nan", nil},
		{"NaN", nil},
		{"inf", nil},
		{"abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFloat(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 63.75, Round(63.75, 2))
	assert.Equal(t, 1.235, Round(1.23456, 3))
	assert.Equal(t, -4.57, Round(-4.5678, 2))
	assert.Equal(t, 60.0, Round(600000.0/10000, 2))
}

func TestRound_BinaryTies(t *testing.T) {
	tests := []struct {
		v    float64
		dp   int
		want float64
	}{
		{199.23 / 20, 3, 9.961}, // 9.96149999... in binary
		{2.675, 2, 2.67},
		{0.125, 2, 0.12},
		{0.375, 2, 0.38},
		{-0.125, 2, -0.12},
		{1.5, 0, 2},
		{2.5, 0, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.v, tt.dp), "Round(%v, %d)", tt.v, tt.dp)
	}
}

func TestRoundPtr(t *testing.T) {
	assert.Nil(t, RoundPtr(nil, 2))
	assert.Equal(t, 3.14, *RoundPtr(Ptr(3.14159), 2))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 100.0, Clamp(135, 0, 100))
	assert.Equal(t, 0.0, Clamp(-5, 0, 100))
	assert.Equal(t, 3.5, Clamp(3.5, 1, 5))
}
