package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/cnquant/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    int32
	panics   bool
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if j.panics {
		panic("boom")
	}
	if n <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func testScheduler(retries int) *Scheduler {
	opts := DefaultOptions()
	opts.MaxRetries = retries
	opts.RetryDelay = time.Millisecond
	return New(logger.Nop(), opts)
}

func TestAddJob_DuplicateAndInvalid(t *testing.T) {
	s := testScheduler(0)

	require.NoError(t, s.AddJob(&fakeJob{name: "screen", schedule: "0 40 15 * * 1-5"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "screen", schedule: "@daily"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a cron"}))

	assert.Equal(t, []string{"screen"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := testScheduler(0)
	require.NoError(t, s.AddJob(&fakeJob{name: "screen", schedule: "@daily"}))

	require.NoError(t, s.RemoveJob("screen"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("screen"))

	// re-adding after removal is allowed
	assert.NoError(t, s.AddJob(&fakeJob{name: "screen", schedule: "@daily"}))
}

func TestRunJobSync_RetriesUntilSuccess(t *testing.T) {
	s := testScheduler(3)
	job := &fakeJob{name: "screen", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("screen")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)

	history, err := s.GetJobHistory("screen")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.Equal(t, 1.0, history.GetSuccessRate())
}

func TestRunJobSync_GivesUp(t *testing.T) {
	s := testScheduler(1)
	job := &fakeJob{name: "screen", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("screen")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "upstream unavailable", result.Error)

	stats := s.GetJobStats()["screen"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobSync_RecoversPanic(t *testing.T) {
	s := testScheduler(0)
	require.NoError(t, s.AddJob(&fakeJob{name: "screen", schedule: "@daily", panics: true}))

	result, err := s.RunJobSync("screen")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panicked")
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := testScheduler(0)
	assert.Error(t, s.RunJob("missing"))
	_, err := s.RunJobSync("missing")
	assert.Error(t, err)
	_, err = s.NextRun("missing")
	assert.Error(t, err)
}

func TestRunJob_Async(t *testing.T) {
	s := testScheduler(0)
	job := &fakeJob{name: "screen", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("screen"))
	assert.Eventually(t, func() bool {
		h, _ := s.GetJobHistory("screen")
		return len(h.Results) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStop_CancelsRetryWait(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxRetries = 5
	opts.RetryDelay = time.Hour
	s := New(logger.Nop(), opts)
	require.NoError(t, s.AddJob(&fakeJob{name: "screen", schedule: "@daily", failures: 100}))
	s.Start()

	done := make(chan JobResult, 1)
	go func() {
		result, _ := s.RunJobSync("screen")
		done <- result
	}()

	time.Sleep(20 * time.Millisecond)
	s.Stop()

	select {
	case result := <-done:
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.Attempts)
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
}

func TestNextRun_AfterStart(t *testing.T) {
	s := testScheduler(0)
	require.NoError(t, s.AddJob(&fakeJob{name: "screen", schedule: "0 40 15 * * 1-5"}))
	s.Start()
	defer s.Stop()

	next, err := s.NextRun("screen")
	require.NoError(t, err)
	require.False(t, next.IsZero())

	local := next.In(DefaultOptions().Location)
	assert.Equal(t, 15, local.Hour())
	assert.Equal(t, 40, local.Minute())
	assert.NotEqual(t, time.Saturday, local.Weekday())
	assert.NotEqual(t, time.Sunday, local.Weekday())
}

func TestJobHistory_Cap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
