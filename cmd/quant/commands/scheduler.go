package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/realtime/cache"
	"github.com/wonny/cnquant/internal/scheduler"
	"github.com/wonny/cnquant/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run screen`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다 (Asia/Shanghai).

등록되는 작업:
- screen: SCREEN_CRON (기본 평일 15:40, 장 마감 후 전체 시장 스크린)
- report: REPORT_CRON (기본 평일 16:00, REPORT_SYMBOLS가 있을 때만)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers the pipeline jobs. quoteCache is optional and
// adds the stream cache cleanup job.
func initScheduler(ctx context.Context, a *app, quoteCache *cache.QuoteCache) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log.WithField("module", "scheduler"), scheduler.DefaultOptions())

	strat, fromFile, err := a.loadStrategy("")
	if err != nil {
		return nil, err
	}
	settings := a.defaultScreenSettings(strat, fromFile)

	var recorder brain.RunRecorder
	repo, err := a.runRepository(ctx)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		recorder = repo
	}

	orchestrator, err := a.newScreenOrchestrator(strat, settings, recorder)
	if err != nil {
		return nil, err
	}

	screenJob := jobs.NewScreenJob(orchestrator, brain.RunConfig{
		TopN:       a.cfg.Screen.TopN,
		EnrichTopK: settings.TopK,
		Output:     a.cfg.Screen.Output,
	}, a.cfg.Screen.Cron, a.log)
	if err := sched.AddJob(screenJob); err != nil {
		return nil, err
	}

	if len(a.cfg.Report.Symbols) > 0 {
		reportJob := jobs.NewReportJob(a.newReportGenerator(), a.cfg.Report.Symbols, a.cfg.Report.Output, a.cfg.Report.Cron, a.log)
		if err := sched.AddJob(reportJob); err != nil {
			return nil, err
		}
	}

	if quoteCache != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(quoteCache, a.log)); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== cnquant Scheduler ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintSuccess("Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(ctx, a, nil)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Ctrl+C 시 실행 중인 작업 취소
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	PrintInfo("Running job: " + jobName)
	result, err := sched.RunJobSync(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempts: %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess(fmt.Sprintf("%s completed in %.1fs", jobName, result.Duration.Seconds()))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nRegistered jobs:")
	for _, name := range names {
		stat := stats[name]
		line := fmt.Sprintf("%-14s %s", name, stat.Schedule)
		if stat.NextRun != nil {
			line += "  next " + stat.NextRun.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  - %s\n", line)
	}
}
