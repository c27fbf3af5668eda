package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cnquant/internal/brain"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [code...]",
	Short: "研究报告数据 (지수/섹터/종목 상세)",
	Long: `리서치 리포트 데이터를 수집해 JSON으로 저장합니다.
종목을 생략하면 REPORT_SYMBOLS를 사용합니다.

수집 항목:
  - 주요 지수, 섹터 Top 10, 일괄 시세
  - 종목별 기술 지표와 뉴스

Example:
  go run ./cmd/quant report 600519 000858
  go run ./cmd/quant report -o /tmp/report.json`,
	RunE: runReport,
}

var reportOutput string

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "/tmp/report_data_cn.json", "JSON output path")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := args
	if len(symbols) == 0 {
		symbols = a.cfg.Report.Symbols
	}
	output := reportOutput
	if !cmd.Flags().Changed("output") {
		output = a.cfg.Report.Output
	}

	rep, err := a.newReportGenerator().Generate(ctx, symbols)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := brain.WriteJSON(output, rep); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n✅ 报告完成: %d只 | 指数 %d | 板块 %d\n", len(rep.Stocks), len(rep.Indices), len(rep.SectorsTop10))
	if len(rep.Errors) > 0 {
		fmt.Fprintf(out, "⚠️  %d errors:\n", len(rep.Errors))
		PrintList(rep.Errors)
	}
	fmt.Fprintf(out, "📁 结果: %s\n\n", output)
	return nil
}
