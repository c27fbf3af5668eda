package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/s0_data"
	"github.com/wonny/cnquant/internal/selection"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [code]",
	Short: "六因子深度评分",
	Long: `종목의 6팩터 심층 점수(1–5)를 계산합니다.
RSI14 / vs MA20 / 뉴스 건수는 실시간으로 채우고,
성장률·PEG·북향자금·이벤트·강세 비율은 플래그로 입력합니다.
가중치는 전략 파일의 deep_weights를 따릅니다.

Example:
  go run ./cmd/quant score 600519
  go run ./cmd/quant score 600519 --revenue-growth 35 --peg 0.7 --days-to-event 5
  go run ./cmd/quant score 600519 --strategy strategy.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

var (
	scoreRevenueGrowth float64
	scorePEG           float64
	scoreNorthFlow     float64
	scoreDaysToEvent   int
	scoreBullPct       float64
	scoreNews          int
	scoreStrategy      string
	scoreJSON          bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().Float64Var(&scoreRevenueGrowth, "revenue-growth", 0, "revenue growth % (YoY)")
	scoreCmd.Flags().Float64Var(&scorePEG, "peg", 0, "PEG ratio")
	scoreCmd.Flags().Float64Var(&scoreNorthFlow, "north-flow", 0, "northbound net flow (百万元)")
	scoreCmd.Flags().IntVar(&scoreDaysToEvent, "days-to-event", 0, "days to the next catalyst event")
	scoreCmd.Flags().Float64Var(&scoreBullPct, "bull-pct", 0, "share of bullish views %")
	scoreCmd.Flags().IntVar(&scoreNews, "news", 0, "news count when the live lookup fails")
	scoreCmd.Flags().StringVar(&scoreStrategy, "strategy", "", "strategy YAML (deep_weights)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print JSON")
}

// scoreInputs keeps only the flags the user actually set
func scoreInputs(cmd *cobra.Command) selection.DeepInputs {
	flags := cmd.Flags()
	inputs := selection.DeepInputs{NewsCount: scoreNews}
	if flags.Changed("revenue-growth") {
		v := scoreRevenueGrowth
		inputs.RevenueGrowthPct = &v
	}
	if flags.Changed("peg") {
		v := scorePEG
		inputs.PEG = &v
	}
	if flags.Changed("north-flow") {
		v := scoreNorthFlow
		inputs.NorthNetFlowM = &v
	}
	if flags.Changed("days-to-event") {
		v := scoreDaysToEvent
		inputs.DaysToEvent = &v
	}
	if flags.Changed("bull-pct") {
		v := scoreBullPct
		inputs.BullPct = &v
	}
	return inputs
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	strat, _, err := a.loadStrategy(scoreStrategy)
	if err != nil {
		return err
	}

	overview := s0_data.NewOverviewService(a.quotes, a.klines, a.cfg.Screen.KlineDays, a.log)
	analyzer := brain.NewDeepAnalyzer(overview, a.sina, strat.DeepWeights, a.log)

	report, err := analyzer.Analyze(ctx, args[0], scoreInputs(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		data, err := brain.MarshalReport(report)
		if err != nil {
			return err
		}
		_, err = out.Write(append(data, '\n'))
		return err
	}

	printDeepReport(out, report)
	return nil
}

func printDeepReport(w io.Writer, r *brain.DeepReport) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "🧭 %s %s (%s)\n", r.Code, r.Name, r.Board)
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")

	rows := []struct {
		label  string
		score  float64
		weight float64
	}{
		{"成长", r.Scores.Growth, r.Weights.Growth},
		{"估值", r.Scores.Valuation, r.Weights.Valuation},
		{"资金", r.Scores.CapitalFlow, r.Weights.CapitalFlow},
		{"催化", r.Scores.Catalyst, r.Weights.Catalyst},
		{"技术", r.Scores.Technical, r.Weights.Technical},
		{"信心", r.Scores.Conviction, r.Weights.Conviction},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "   %-6s : %.1f  (w %.2f)\n", row.label, row.score, row.weight)
	}
	fmt.Fprintf(w, "   %-6s : %.2f\n", "综合", r.Scores.Composite)
	fmt.Fprintf(w, "   %-6s : RSI14 %s / vs MA20 %s / news %d\n", "输入",
		num(r.Inputs.RSI14, 2), num(r.Inputs.VsMA20Pct, 2), r.Inputs.NewsCount)

	for _, e := range r.Errors {
		fmt.Fprintf(w, "   ⚠️  %s\n", e)
	}
}
