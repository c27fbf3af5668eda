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

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "全市场选股 (전체 시장 스크린)",
	Long: `A股 전체 시장을 스크린합니다.

단계:
  universe     - Sina 목록 API 페이지 수집 (~5,500 종목)
  hard_filter  - ST/退市, 가격, 시가총액, PE, 거래대금 필터
  prelim_score - 5-factor 1차 점수
  select       - 상위 K개 선택 (기본 200)
  enrich       - K선 기반 기술 지표 (워커 풀)
  final_score  - 최종 점수 및 순위
  emit         - JSON 파일 + 표 출력

Example:
  go run ./cmd/quant screen
  go run ./cmd/quant screen --top 30 -o /tmp/screen.json
  go run ./cmd/quant screen --strategy strategy.yaml --save`,
	RunE: runScreen,
}

var (
	screenTop       int
	screenOutput    string
	screenSector    string
	screenWorkers   int
	screenEnrichTop int
	screenMaxPages  int
	screenStrategy  string
	screenSave      bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().IntVar(&screenTop, "top", 50, "number of results to emit")
	screenCmd.Flags().StringVarP(&screenOutput, "output", "o", "/tmp/cn_screen_full.json", "JSON output path")
	screenCmd.Flags().StringVar(&screenSector, "sector", "", "industry filter (accepted, not applied)")
	screenCmd.Flags().IntVar(&screenWorkers, "workers", 0, "enrichment workers (default from config)")
	screenCmd.Flags().IntVar(&screenEnrichTop, "enrich-top", 0, "candidates to enrich (default from config)")
	screenCmd.Flags().IntVar(&screenMaxPages, "max-pages", 0, "listing pages to fetch (default from config)")
	screenCmd.Flags().StringVar(&screenStrategy, "strategy", "", "strategy YAML (thresholds and weights)")
	screenCmd.Flags().BoolVar(&screenSave, "save", false, "store the run in PostgreSQL (requires DATABASE_URL)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, screenSave)
	if err != nil {
		return err
	}
	defer a.Close()

	strat, fromFile, err := a.loadStrategy(screenStrategy)
	if err != nil {
		return err
	}

	settings := a.defaultScreenSettings(strat, fromFile)
	if screenWorkers > 0 {
		settings.Workers = screenWorkers
	}
	if screenEnrichTop > 0 {
		settings.TopK = screenEnrichTop
	}
	if screenMaxPages > 0 {
		settings.MaxPages = screenMaxPages
	}

	var recorder brain.RunRecorder
	if screenSave {
		repo, err := a.runRepository(ctx)
		if err != nil {
			return err
		}
		if repo == nil {
			a.log.Warn("--save requested but DATABASE_URL is not set")
		} else {
			recorder = repo
		}
	}

	orchestrator, err := a.newScreenOrchestrator(strat, settings, recorder)
	if err != nil {
		return err
	}

	top := screenTop
	if !cmd.Flags().Changed("top") {
		top = a.cfg.Screen.TopN
	}
	output := screenOutput
	if !cmd.Flags().Changed("output") {
		output = a.cfg.Screen.Output
	}

	result, err := orchestrator.Run(ctx, brain.RunConfig{
		TopN:       top,
		EnrichTopK: settings.TopK,
		Output:     output,
		Sector:     screenSector,
	})
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	out := cmd.OutOrStdout()
	brain.RenderTable(out, result.Report)
	brain.RenderSummary(out, result.Report, result.OutputPath)
	if result.RunID > 0 {
		fmt.Fprintf(out, "🗄  run #%d saved\n", result.RunID)
	}
	return nil
}
