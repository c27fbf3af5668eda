// Package numutil coerces loosely formatted upstream numbers.
package numutil

import (
	"math"
	"strconv"
	"strings"
)

// placeholders are values upstreams use for "no data"
var placeholders = map[string]bool{
	"":      true,
	"-":     true,
	"--":    true,
	"None":  true,
	"null":  true,
	"N/A":   true,
	"nan":   true,
	"0.000": true, // 정지/미거래 종목 가격
}

// ParseFloat parses s after stripping whitespace, thousands separators and
// percent signs. Placeholders, garbage, NaN and Inf yield nil.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	if placeholders[s] {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Round rounds the exact binary value of v to dp decimals.
// Exact ties go to even, so 2.675 → 2.67 and 9.9615 → 9.961.
func Round(v float64, dp int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', dp, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Ptr returns a pointer to v
func Ptr(v float64) *float64 {
	return &v
}

// RoundPtr rounds *v, keeping nil as nil
func RoundPtr(v *float64, dp int) *float64 {
	if v == nil {
		return nil
	}
	return Ptr(Round(*v, dp))
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
