package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/contracts"
)

// klineCmd represents the kline command
var klineCmd = &cobra.Command{
	Use:   "kline [code]",
	Short: "K线 조회",
	Long: `Sina K선 데이터를 조회합니다.

Periods: daily, weekly, 60min, 30min

Example:
  go run ./cmd/quant kline 600519
  go run ./cmd/quant kline 300750 --period weekly --days 52 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runKline,
}

var (
	klinePeriod string
	klineDays   int
	klineJSON   bool
)

func init() {
	rootCmd.AddCommand(klineCmd)

	klineCmd.Flags().StringVar(&klinePeriod, "period", string(contracts.PeriodDaily), "bar period (daily|weekly|60min|30min)")
	klineCmd.Flags().IntVar(&klineDays, "days", 60, "number of bars")
	klineCmd.Flags().BoolVar(&klineJSON, "json", false, "print JSON")
}

func runKline(cmd *cobra.Command, args []string) error {
	period := contracts.KlinePeriod(klinePeriod)
	if _, ok := period.Scale(); !ok {
		return fmt.Errorf("unknown period %q (daily|weekly|60min|30min)", klinePeriod)
	}
	if klineDays <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	code := args[0]
	points, err := a.klines.GetKline(ctx, code, period, klineDays)
	if err != nil {
		return fmt.Errorf("kline %s: %w", code, err)
	}
	if len(points) == 0 {
		return fmt.Errorf("no kline data for %s", code)
	}

	out := cmd.OutOrStdout()
	if klineJSON {
		data, err := brain.MarshalReport(points)
		if err != nil {
			return err
		}
		_, err = out.Write(append(data, '\n'))
		return err
	}

	fmt.Fprintf(out, "\n📊 %s %s (%d bars)\n\n", contracts.Qualify(code), period, len(points))
	fmt.Fprintf(out, "%-20s %10s %10s %10s %10s %14s\n", "date", "open", "high", "low", "close", "volume")
	for _, p := range points {
		fmt.Fprintf(out, "%-20s %10s %10s %10s %10s %14s\n",
			p.Date, num(p.Open, 2), num(p.High, 2), num(p.Low, 2), num(p.Close, 2), num(p.Volume, 0))
	}
	return nil
}
