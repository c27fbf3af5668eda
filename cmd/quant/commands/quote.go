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
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote [code...]",
	Short: "个股概览 (시세 + 기술 지표)",
	Long: `종목 시세와 기술 지표를 조회합니다.
Tencent 우선, 가격이 없으면 Sina로 보완합니다.

Example:
  go run ./cmd/quant quote 600519
  go run ./cmd/quant quote 600519 000858 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

var quoteJSON bool

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print JSON")
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	service := s0_data.NewOverviewService(a.quotes, a.klines, a.cfg.Screen.KlineDays, a.log)
	out := cmd.OutOrStdout()

	overviews := make([]*s0_data.Overview, 0, len(args))
	for _, code := range args {
		overview, err := service.Get(ctx, code)
		if err != nil {
			PrintError(fmt.Sprintf("%s: %v", code, err))
			continue
		}
		overviews = append(overviews, overview)
	}
	if len(overviews) == 0 {
		return fmt.Errorf("no data for %v", args)
	}

	if quoteJSON {
		data, err := brain.MarshalReport(overviews)
		if err != nil {
			return err
		}
		_, err = out.Write(append(data, '\n'))
		return err
	}

	for _, o := range overviews {
		printOverview(out, o)
	}
	return nil
}

func printOverview(w io.Writer, o *s0_data.Overview) {
	name := ""
	if o.Quote != nil {
		name = o.Quote.Name
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "📈 %s %s (%s, %s)\n", o.Symbol.Qualified(), name, o.Symbol.Board.Label(), pct(o.Symbol.PriceLimit*100))
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")

	if q := o.Quote; q != nil {
		fmt.Fprintf(w, "   %-10s : %s\n", "价格", num(q.Price, 2))
		fmt.Fprintf(w, "   %-10s : %s\n", "涨跌%", num(q.ChangePct, 2))
		fmt.Fprintf(w, "   %-10s : %s / %s\n", "PE / PB", num(q.PE, 2), num(q.PB, 2))
		fmt.Fprintf(w, "   %-10s : %s\n", "总市值(亿)", num(q.MarketCap, 2))
		fmt.Fprintf(w, "   %-10s : %s\n", "换手率%", num(q.TurnoverRate, 2))
		fmt.Fprintf(w, "   %-10s : %s\n", "来源", q.Source)
	}

	t := o.Technical
	if !t.Empty() {
		fmt.Fprintf(w, "   %-10s : %s / %s / %s\n", "MA5/20/60", num(t.MA5, 2), num(t.MA20, 2), num(t.MA60, 2))
		fmt.Fprintf(w, "   %-10s : %s\n", "RSI14", num(t.RSI14, 2))
		fmt.Fprintf(w, "   %-10s : %s / %s\n", "vs MA20/60", num(t.VsMA20Pct, 2), num(t.VsMA60Pct, 2))
		fmt.Fprintf(w, "   %-10s : %s\n", "距高点%", num(t.OffHighPct, 2))
	}

	for _, e := range o.Errors {
		fmt.Fprintf(w, "   ⚠️  %s\n", e)
	}
}

// num formats an optional number, "-" when absent
func num(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}

func pct(v float64) string {
	return fmt.Sprintf("±%.0f%%", v)
}
