package contracts

// KlinePeriod selects the bar size of a price history request
type KlinePeriod string

const (
	PeriodDaily  KlinePeriod = "daily"
	PeriodWeekly KlinePeriod = "weekly"
	Period60Min  KlinePeriod = "60min"
	Period30Min  KlinePeriod = "30min"
)

// Scale returns the upstream scale parameter in minutes
func (p KlinePeriod) Scale() (int, bool) {
	switch p {
	case PeriodDaily:
		return 240, true
	case PeriodWeekly:
		return 1680, true
	case Period60Min:
		return 60, true
	case Period30Min:
		return 30, true
	default:
		return 0, false
	}
}

// PricePoint is one bar of a chronological price history
type PricePoint struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// TechnicalIndicators is derived from a PricePoint sequence.
// The zero value is the empty result (too little history).
type TechnicalIndicators struct {
	Latest     *float64 `json:"latest,omitempty"`
	MA5        *float64 `json:"ma5,omitempty"`
	MA20       *float64 `json:"ma20,omitempty"`
	MA60       *float64 `json:"ma60,omitempty"`
	RSI14      *float64 `json:"rsi14,omitempty"`
	VsMA20Pct  *float64 `json:"vs_ma20_pct,omitempty"`
	VsMA60Pct  *float64 `json:"vs_ma60_pct,omitempty"`
	HighPeriod *float64 `json:"high_period,omitempty"`
	LowPeriod  *float64 `json:"low_period,omitempty"`
	OffHighPct *float64 `json:"off_high_pct,omitempty"`
}

// Empty reports whether no indicator could be derived
func (t TechnicalIndicators) Empty() bool {
	return t.Latest == nil
}

// Summary keeps the indicators carried in screen reports
func (t TechnicalIndicators) Summary() TechSummary {
	return TechSummary{
		RSI14:      t.RSI14,
		VsMA20Pct:  t.VsMA20Pct,
		VsMA60Pct:  t.VsMA60Pct,
		OffHighPct: t.OffHighPct,
	}
}

// TechSummary is the report subset of TechnicalIndicators
type TechSummary struct {
	RSI14      *float64 `json:"rsi14,omitempty"`
	VsMA20Pct  *float64 `json:"vs_ma20_pct,omitempty"`
	VsMA60Pct  *float64 `json:"vs_ma60_pct,omitempty"`
	OffHighPct *float64 `json:"off_high_pct,omitempty"`
}
