package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/cnquant/internal/brain"
	"github.com/wonny/cnquant/internal/report"
	"github.com/wonny/cnquant/pkg/logger"
)

// DefaultReportSchedule runs on weekdays at 16:00
const DefaultReportSchedule = "0 0 16 * * 1-5"

// ReportGenerator builds a research report
type ReportGenerator interface {
	Generate(ctx context.Context, symbols []string) (*report.Report, error)
}

// ReportJob writes the research report for the tracked symbols
type ReportJob struct {
	generator ReportGenerator
	symbols   []string
	output    string
	schedule  string
	logger    *logger.Logger
}

// NewReportJob creates a new report job
func NewReportJob(generator ReportGenerator, symbols []string, output, schedule string, log *logger.Logger) *ReportJob {
	if schedule == "" {
		schedule = DefaultReportSchedule
	}
	return &ReportJob{
		generator: generator,
		symbols:   symbols,
		output:    output,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *ReportJob) Name() string {
	return "report"
}

// Schedule returns the cron schedule
func (j *ReportJob) Schedule() string {
	return j.schedule
}

// Run generates and writes the report
func (j *ReportJob) Run(ctx context.Context) error {
	rep, err := j.generator.Generate(ctx, j.symbols)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}
	if err := brain.WriteJSON(j.output, rep); err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols": len(rep.Symbols),
		"errors":  len(rep.Errors),
		"output":  j.output,
	}).Info("Scheduled report written")

	return nil
}
