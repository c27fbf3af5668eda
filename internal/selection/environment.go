package selection

import "fmt"

// Signal is the market environment light
type Signal string

const (
	SignalGreen  Signal = "绿灯"
	SignalYellow Signal = "黄灯"
	SignalRed    Signal = "红灯"
)

// FlowTrend summarizes recent northbound capital flow
type FlowTrend string

const (
	TrendNeutral      FlowTrend = "中性"
	TrendInflow       FlowTrend = "连续流入"
	TrendOutflow      FlowTrend = "连续流出"
	TrendHeavyOutflow FlowTrend = "连续大额流出"
)

// ParseFlowTrend accepts the Chinese label or its English alias; anything else is neutral
func ParseFlowTrend(s string) FlowTrend {
	switch s {
	case string(TrendInflow), "inflow":
		return TrendInflow
	case string(TrendOutflow), "outflow":
		return TrendOutflow
	case string(TrendHeavyOutflow), "heavy_outflow":
		return TrendHeavyOutflow
	default:
		return TrendNeutral
	}
}

// Environment is the outcome of AssessEnvironment
type Environment struct {
	Signal  Signal   `json:"signal"`
	Reasons []string `json:"reasons"`
}

// AssessEnvironment combines the flow trend with the Shanghai index move.
// shChangePct may be nil. A sharp index drop caps green at yellow.
func AssessEnvironment(trend FlowTrend, shChangePct *float64) Environment {
	env := Environment{Signal: SignalYellow, Reasons: []string{}}

	switch trend {
	case TrendHeavyOutflow:
		env.Signal = SignalRed
		env.Reasons = append(env.Reasons, "北向资金连续大额流出")
	case TrendOutflow:
		env.Signal = SignalYellow
		env.Reasons = append(env.Reasons, "北向资金连续流出")
	case TrendInflow:
		env.Signal = SignalGreen
		env.Reasons = append(env.Reasons, "北向资金连续流入")
	}

	if shChangePct != nil {
		switch v := *shChangePct; {
		case v < -2:
			if env.Signal == SignalGreen {
				env.Signal = SignalYellow
			}
			env.Reasons = append(env.Reasons, fmt.Sprintf("上证大跌 %.1f%%", v))
		case v > 1:
			env.Reasons = append(env.Reasons, fmt.Sprintf("上证上涨 %+.1f%%", v))
		}
	}

	if len(env.Reasons) == 0 {
		env.Reasons = append(env.Reasons, "数据不足，默认黄灯")
	}
	return env
}
