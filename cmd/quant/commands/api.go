package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/cnquant/internal/api"
	"github.com/wonny/cnquant/internal/api/handlers"
	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/realtime/cache"
	"github.com/wonny/cnquant/internal/realtime/feed"
	"github.com/wonny/cnquant/internal/s0_data"
	"github.com/wonny/cnquant/internal/scheduler"
	"github.com/wonny/cnquant/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버와 실시간 시세 스트림을 시작합니다.

Endpoints:
  GET  /health                       - Health check (+ DB)
  GET  /api/quotes?codes=600519,...   - 실시간 시세 (Tencent → Sina)
  GET  /api/stocks/{code}/overview   - 시세 + 기술 지표
  GET  /api/stocks/{code}/score      - 6팩터 심층 점수
  GET  /api/screen/latest            - 최근 스크린 결과
  GET  /api/market/indices           - 주요 지수
  GET  /api/market/sectors           - 업종/개념 순위
  GET  /api/market/environment       - 시장 환경 신호
  GET  /api/jobs                     - 스케줄 작업 상태
  POST /api/jobs/{name}/run          - 작업 즉시 실행
  WS   /ws/quotes?codes=...          - 시세 스트림

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080 --with-screen`,
	RunE: runAPIServer,
}

var (
	apiPort       string
	apiWithScreen bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본 PORT)")
	apiCmd.Flags().BoolVar(&apiWithScreen, "with-screen", false, "스크린/리포트 작업도 함께 스케줄")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== cnquant API Server ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Shared dependencies
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"env":  a.cfg.Env,
	}).Info("Initializing API server")

	// 2. Quote stream
	quoteCache := cache.NewQuoteCache(a.cfg.Stream.StaleAfter, a.log)
	poller := feed.NewPoller(a.quotes, quoteCache, a.cfg.Stream.PollInterval, a.log)

	// 3. Scheduler
	sched, err := newAPIScheduler(ctx, a, quoteCache)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// 4. Handlers
	repo, err := a.runRepository(ctx)
	if err != nil {
		return err
	}
	var store handlers.LatestRunStore
	if repo != nil {
		store = repo
	}

	strat, _, err := a.loadStrategy("")
	if err != nil {
		return err
	}
	overview := s0_data.NewOverviewService(a.quotes, a.klines, a.cfg.Screen.KlineDays, a.log)

	var health api.HealthChecker
	if a.db != nil {
		health = a.db
	}

	router := api.NewRouter(api.Handlers{
		Quotes: handlers.NewQuoteHandler(a.quotes, overview, a.log),
		Screen: handlers.NewScreenHandler(store, a.cfg.Screen.Output, a.log),
		Market: handlers.NewMarketHandler(a.market, a.market, a.log),
		Score:  handlers.NewScoreHandler(brain.NewDeepAnalyzer(overview, a.sina, strat.DeepWeights, a.log), a.log),
		Stream: handlers.NewStreamHandler(poller, a.log),
		Jobs:   handlers.NewJobHandler(sched, a.log),
		DB:     health,
	}, a.log)

	server := api.New(a.cfg, a.log, router)

	// 5. Start
	poller.Start(ctx)
	sched.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Error("Server shutdown failed")
	}
	sched.Stop()
	poller.Stop()

	if serveErr != nil {
		return fmt.Errorf("server: %w", serveErr)
	}

	a.log.Info("Server stopped")
	return nil
}

// newAPIScheduler always runs the cache cleanup; the screen and report
// jobs join only with --with-screen
func newAPIScheduler(ctx context.Context, a *app, quoteCache *cache.QuoteCache) (*scheduler.Scheduler, error) {
	if apiWithScreen {
		return initScheduler(ctx, a, quoteCache)
	}

	sched := scheduler.New(a.log.WithField("module", "scheduler"), scheduler.DefaultOptions())
	if err := sched.AddJob(jobs.NewCacheCleanupJob(quoteCache, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}
