package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/pkg/logger"
)

// DefaultScreenSchedule runs on weekdays at 15:40, after the close
const DefaultScreenSchedule = "0 40 15 * * 1-5"

// ScreenRunner runs one full-market screen
type ScreenRunner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// ScreenJob runs the full-market screen on a schedule
type ScreenJob struct {
	runner   ScreenRunner
	config   brain.RunConfig
	schedule string
	logger   *logger.Logger
}

// NewScreenJob creates a new screen job. An empty schedule uses DefaultScreenSchedule.
func NewScreenJob(runner ScreenRunner, cfg brain.RunConfig, schedule string, log *logger.Logger) *ScreenJob {
	if schedule == "" {
		schedule = DefaultScreenSchedule
	}
	return &ScreenJob{
		runner:   runner,
		config:   cfg,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreenJob) Name() string {
	return "screen"
}

// Schedule returns the cron schedule
func (j *ScreenJob) Schedule() string {
	return j.schedule
}

// Run executes the screen
func (j *ScreenJob) Run(ctx context.Context) error {
	result, err := j.runner.Run(ctx, j.config)
	if err != nil {
		return fmt.Errorf("screen run failed: %w", err)
	}

	fields := map[string]interface{}{
		"output": result.OutputPath,
		"run_id": result.RunID,
	}
	if result.Report != nil {
		fields["universe"] = result.Report.UniverseSize
		fields["after_filter"] = result.Report.AfterFilter
		fields["results"] = len(result.Report.Results)
	}
	j.logger.WithFields(fields).Info("Scheduled screen completed")

	return nil
}
