package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cnquant/internal/external/sina"
	"github.com/wonny/cnquant/internal/selection"
)

// marketCmd represents the market command
var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "大盘概览 (지수, 섹터, 시장 환경)",
	Long: `주요 지수, 섹터 순위와 시장 환경 신호를 출력합니다.

Example:
  go run ./cmd/quant market
  go run ./cmd/quant market --kind concept --limit 20
  go run ./cmd/quant market --trend inflow`,
	RunE: runMarket,
}

var (
	marketKind  string
	marketLimit int
	marketTrend string
)

func init() {
	rootCmd.AddCommand(marketCmd)

	marketCmd.Flags().StringVar(&marketKind, "kind", "industry", "sector ranking (industry|concept)")
	marketCmd.Flags().IntVar(&marketLimit, "limit", 10, "sectors to show")
	marketCmd.Flags().StringVar(&marketTrend, "trend", "", "northbound flow trend (inflow|outflow|heavy_outflow)")
}

func runMarket(cmd *cobra.Command, args []string) error {
	kind := sina.SectorIndustry
	switch marketKind {
	case "industry":
	case "concept":
		kind = sina.SectorConcept
	default:
		return fmt.Errorf("unknown --kind %q (industry|concept)", marketKind)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	var shChange *float64
	indices, err := a.market.GetIndexQuotes(ctx, nil)
	if err != nil {
		PrintWarning(fmt.Sprintf("指数获取失败: %v", err))
	}
	fmt.Fprintln(out, "\n📊 主要指数")
	PrintSeparator()
	for _, idx := range indices {
		fmt.Fprintf(out, "   %-8s %-8s %10s %8s%%\n", idx.Code, idx.Name, num(idx.Price, 2), num(idx.ChangePct, 2))
		if idx.Code == "000001" {
			shChange = idx.ChangePct
		}
	}

	sectors, err := a.market.GetSectorRotation(ctx, kind, marketLimit)
	if err != nil {
		PrintWarning(fmt.Sprintf("板块获取失败: %v", err))
	}
	fmt.Fprintf(out, "\n🔥 板块涨幅 Top %d (%s)\n", marketLimit, marketKind)
	PrintSeparator()
	for i, s := range sectors {
		fmt.Fprintf(out, "   %2d. %-12s %8s%%\n", i+1, s.Name, num(s.ChangePct, 2))
	}

	envSignal := selection.AssessEnvironment(selection.ParseFlowTrend(marketTrend), shChange)
	fmt.Fprintf(out, "\n🚦 市场环境: %s\n", envSignal.Signal)
	PrintList(envSignal.Reasons)
	fmt.Fprintln(out)

	return nil
}
