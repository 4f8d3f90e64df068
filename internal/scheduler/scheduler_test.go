package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescope/backend/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // number of leading runs that fail
	calls    int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), time.UTC).WithRetry(2, 0)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "0 0 16 * * MON-FRI"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 30 17 * * *"}))

	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 1 * * *"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "c", schedule: "not a schedule"}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.JobNames())
}

func TestRunNow_Retries(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		wantSuccess  bool
		wantAttempts int
	}{
		{"first try", 0, true, 1},
		{"recovers on retry", 2, true, 3},
		{"exhausts retries", 5, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler()
			job := &fakeJob{name: "job", schedule: "@daily", failures: tt.failures}
			require.NoError(t, s.AddJob(job))

			res, err := s.RunNow(context.Background(), "job")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantAttempts, res.Attempts)
			if !tt.wantSuccess {
				assert.Equal(t, "boom", res.Error)
			}
		})
	}
}

func TestRunNow_UnknownJob(t *testing.T) {
	_, err := newTestScheduler().RunNow(context.Background(), "missing")
	assert.Error(t, err)
	assert.Error(t, newTestScheduler().Trigger("missing"))
}

func TestRunNow_CancelledStopsRetrying(t *testing.T) {
	s := New(logger.Nop(), time.UTC).WithRetry(3, time.Hour)
	job := &fakeJob{name: "job", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.RunNow(ctx, "job")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
}

func TestStatsAndHistory(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "job", schedule: "0 0 16 * * MON-FRI", failures: 3}
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunNow(context.Background(), "job") // fails 3 times
	_, _ = s.RunNow(context.Background(), "job") // succeeds

	history, err := s.History("job", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].Success)
	assert.True(t, history[1].Success)

	stats := s.Stats()
	require.Len(t, stats, 1)
	st := stats[0]
	assert.Equal(t, "job", st.JobName)
	assert.Equal(t, 2, st.TotalRuns)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 1, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	assert.Equal(t, "boom", st.LastError)
	require.NotNil(t, st.LastSuccess)
	assert.Equal(t, st.LastRun, st.LastSuccess)

	_, err = s.History("missing", 1)
	assert.Error(t, err)
}

func TestJobHistory_Bounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historySize+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0, Attempts: i})
	}

	assert.Len(t, h.Results, historySize)
	assert.Equal(t, 20, h.Results[0].Attempts)
	assert.Equal(t, historySize/2, h.Failures())
	assert.Len(t, h.Latest(3), 3)
	assert.Len(t, h.Latest(1000), historySize)
	assert.Equal(t, 0.0, (&JobHistory{}).SuccessRate())
}

func TestLocation(t *testing.T) {
	loc := Location()
	_, offset := time.Date(2024, 7, 1, 12, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*60*60, offset)
}

func TestStats_NextRunBeforeStart(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "job", schedule: "0 0 16 * * MON-FRI"}))

	stats := s.Stats()
	require.Len(t, stats, 1)
	require.NotNil(t, stats[0].NextRun)
	assert.True(t, stats[0].NextRun.After(time.Now()))
	assert.Equal(t, 16, stats[0].NextRun.In(time.UTC).Hour())
}
