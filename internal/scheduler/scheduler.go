package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/valuescope/backend/pkg/logger"
)

// Timezone all jobs are scheduled in
const Timezone = "Asia/Shanghai"

// Location returns the exchange timezone, falling back to a fixed UTC+8
// when the tz database is unavailable
func Location() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}

type entry struct {
	job     Job
	id      cron.EntryID
	history *JobHistory
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	logger  *logger.Logger
	entries map[string]*entry
	mu      sync.RWMutex

	// Retry configuration
	maxRetries int
	retryDelay time.Duration

	// ctx is cancelled by Stop so running jobs can bail out
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler running in loc (Location() when nil)
func New(log *logger.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = Location()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		loc:        loc,
		logger:     log.WithField("module", "scheduler"),
		entries:    make(map[string]*entry),
		maxRetries: 3,
		retryDelay: time.Minute,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// WithRetry overrides the retry policy
func (s *Scheduler) WithRetry(maxRetries int, delay time.Duration) *Scheduler {
	s.maxRetries = maxRetries
	s.retryDelay = delay
	return s
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	e := &entry{job: job, history: &JobHistory{}}
	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.execute(s.ctx, e)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	e.id = id
	s.entries[name] = e

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(e.id)
	delete(s.entries, name)
	s.logger.WithField("job", name).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Trigger runs a job in the background outside of its schedule
func (s *Scheduler) Trigger(name string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	go s.execute(s.ctx, e)
	return nil
}

// RunNow runs a job synchronously and returns its result
func (s *Scheduler) RunNow(ctx context.Context, name string) (JobResult, error) {
	e, err := s.lookup(name)
	if err != nil {
		return JobResult{}, err
	}
	return s.execute(ctx, e), nil
}

func (s *Scheduler) lookup(name string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return e, nil
}

// execute runs a job with retry logic and records the result
func (s *Scheduler) execute(ctx context.Context, e *entry) JobResult {
	name := e.job.Name()
	log := s.logger.WithField("job", name)
	result := JobResult{JobName: name, StartTime: time.Now()}

	log.Info("Job started")

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		lastErr = e.job.Run(ctx)
		if lastErr == nil {
			result.Success = true
			break
		}
		if ctx.Err() != nil {
			break
		}

		log.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed, retrying")

		if attempt < s.maxRetries && !sleep(ctx, s.retryDelay) {
			break
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if !result.Success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	e.history.AddResult(result)
	s.mu.Unlock()

	if result.Success {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration,
			"attempts": result.Attempts,
		}).Info("Job completed successfully")
	} else {
		log.WithFields(map[string]interface{}{
			"duration": result.Duration,
			"attempts": result.Attempts,
			"error":    result.Error,
		}).Error("Job failed after all retries")
	}

	return result
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// History returns the latest n results of a job, oldest first
func (s *Scheduler) History(name string, n int) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return e.history.Latest(n), nil
}

// JobNames returns the registered job names, sorted
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns statistics of every job, sorted by name
func (s *Scheduler) Stats() []JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]JobStats, 0, len(s.entries))
	for name, e := range s.entries {
		h := e.history
		failures := h.Failures()
		st := JobStats{
			JobName:      name,
			Schedule:     e.job.Schedule(),
			TotalRuns:    len(h.Results),
			SuccessCount: len(h.Results) - failures,
			FailureCount: failures,
			SuccessRate:  h.SuccessRate(),
		}

		// Next is only filled in once the cron loop runs
		if ent := s.cron.Entry(e.id); ent.Valid() {
			next := ent.Next
			if next.IsZero() {
				next = ent.Schedule.Next(time.Now().In(s.loc))
			}
			st.NextRun = &next
		}

		for _, r := range h.Results {
			started := r.StartTime
			st.LastRun = &started
			if r.Success {
				st.LastSuccess = &started
			} else {
				st.LastFailure = &started
				st.LastError = r.Error
			}
		}

		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].JobName < stats[j].JobName })
	return stats
}
