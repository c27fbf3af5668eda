package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/cnquant/pkg/logger"
)

// DefaultTimezone is the exchange timezone schedules are evaluated in
const DefaultTimezone = "Asia/Shanghai"

// Options controls retry and timezone behavior
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	Location   *time.Location
}

// DefaultOptions returns 3 retries one minute apart in Asia/Shanghai
func DefaultOptions() Options {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}
	return Options{
		MaxRetries: 3,
		RetryDelay: 1 * time.Minute,
		Location:   loc,
	}
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
	mu      sync.RWMutex

	// Retry configuration
	maxRetries int
	retryDelay time.Duration

	// 실행 중인 작업 취소용
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler
func New(log *logger.Logger, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = DefaultOptions().Location
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(opts.Location)),
		logger:     log,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*JobHistory),
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()

	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	entryID, err := s.cron.AddFunc(job.Schedule(), func() {
		s.execute(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = entryID
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob unschedules a job and drops its history
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.entries[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(entryID)
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	delete(s.history, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler, cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns the next activation time of a job (zero before Start)
func (s *Scheduler) NextRun(jobName string) (time.Time, error) {
	s.mu.RLock()
	entryID, exists := s.entries[jobName]
	s.mu.RUnlock()

	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", jobName)
	}
	return s.cron.Entry(entryID).Next, nil
}

// RunJob runs a specific job immediately (outside of schedule)
func (s *Scheduler) RunJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	go s.execute(job)
	return nil
}

// RunJobSync runs a job now on the caller's goroutine and returns its result
func (s *Scheduler) RunJobSync(jobName string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", jobName)
	}
	return s.execute(job), nil
}

// execute runs a job with retry logic and records the result
func (s *Scheduler) execute(job Job) JobResult {
	s.wg.Add(1)
	defer s.wg.Done()

	jobName := job.Name()
	startTime := time.Now()

	s.logger.WithField("job", jobName).Info("Job started")

	var lastErr error
	var success bool
	attempts := 0

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if s.ctx.Err() != nil {
			lastErr = s.ctx.Err()
			break
		}

		attempts++
		err := s.runOnce(job)
		if err == nil {
			success = true
			break
		}

		lastErr = err
		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Job execution failed")

		if attempt < s.maxRetries {
			select {
			case <-s.ctx.Done():
			case <-time.After(s.retryDelay):
			}
		}
	}

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	result := JobResult{
		JobName:   jobName,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Attempts:  attempts,
		Success:   success,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	if success {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration,
			"attempts": attempts,
		}).Info("Job completed successfully")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration,
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}

	return result
}

// runOnce converts a job panic into an error
func (s *Scheduler) runOnce(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(s.ctx)
}

// GetJobHistory returns a copy of the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return &JobHistory{Results: append([]JobResult(nil), history.Results...)}, nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)

	for jobName, history := range s.history {
		latestResults := history.GetLatestResults(1)
		failedResults := history.GetFailedResults()

		var lastRun, lastSuccess, lastFailure *time.Time
		if len(latestResults) > 0 {
			last := latestResults[0]
			lastRun = &last.StartTime
			if last.Success {
				lastSuccess = &last.StartTime
			} else {
				lastFailure = &last.StartTime
			}
		}

		var nextRun *time.Time
		if next := s.cron.Entry(s.entries[jobName]).Next; !next.IsZero() {
			nextRun = &next
		}

		stats[jobName] = JobStats{
			JobName:      jobName,
			Schedule:     s.jobs[jobName].Schedule(),
			TotalRuns:    len(history.Results),
			SuccessCount: len(history.Results) - len(failedResults),
			FailureCount: len(failedResults),
			SuccessRate:  history.GetSuccessRate(),
			LastRun:      lastRun,
			LastSuccess:  lastSuccess,
			LastFailure:  lastFailure,
			NextRun:      nextRun,
		}
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}
