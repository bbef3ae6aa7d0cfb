// Package scheduler runs periodic maintenance jobs such as expiring unpaid
// orders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrJobNotFound is returned by RunNow for an unknown job name
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidJob is returned when a job is registered without a name,
	// interval or task
	ErrInvalidJob = errors.New("invalid job")
	// ErrAlreadyRunning is returned when Register is called after Start
	ErrAlreadyRunning = errors.New("scheduler already running")
)

// Task performs one run of a job and returns how many items it handled
type Task func(ctx context.Context) (int, error)

// Job is a named task run every Interval
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero means the scheduler default
	Timeout time.Duration
	Task    Task
	// RunOnStart runs the task immediately instead of after one interval
	RunOnStart bool
}

// JobStats describes the runs of one job
type JobStats struct {
	Name        string        `json:"name"`
	Interval    time.Duration `json:"interval"`
	Runs        int64         `json:"runs"`
	Failures    int64         `json:"failures"`
	Processed   int64         `json:"processed"`
	LastRunAt   *time.Time    `json:"last_run_at,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	LastElapsed time.Duration `json:"last_elapsed"`
}

// Config holds scheduler settings
type Config struct {
	Enabled        bool
	DefaultTimeout time.Duration
}

// Scheduler runs registered jobs on fixed intervals. Runs of the same job
// never overlap.
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*registeredJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

type registeredJob struct {
	job   Job
	run   sync.Mutex
	stats JobStats
}

// New creates a scheduler
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Interval <= 0 || job.Task == nil {
		return fmt.Errorf("%w: %q", ErrInvalidJob, job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrAlreadyRunning
	}
	s.jobs[job.Name] = &registeredJob{
		job:   job,
		stats: JobStats{Name: job.Name, Interval: job.Interval},
	}
	return nil
}

// Start launches one goroutine per job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, rj := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, rj)
	}

	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels the jobs and waits for in-flight runs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, rj *registeredJob) {
	defer s.wg.Done()

	if rj.job.RunOnStart {
		s.execute(ctx, rj)
	}

	ticker := time.NewTicker(rj.job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, rj)
		}
	}
}

// RunNow runs a job synchronously, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	rj, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, rj)
}

func (s *Scheduler) execute(ctx context.Context, rj *registeredJob) (n int, err error) {
	rj.run.Lock()
	defer rj.run.Unlock()

	timeout := rj.job.Timeout
	if timeout <= 0 {
		timeout = s.config.DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		s.record(rj, start, n, err)
	}()

	return rj.job.Task(runCtx)
}

func (s *Scheduler) record(rj *registeredJob, start time.Time, n int, err error) {
	elapsed := time.Since(start)

	s.mu.Lock()
	rj.stats.Runs++
	rj.stats.Processed += int64(n)
	rj.stats.LastRunAt = &start
	rj.stats.LastElapsed = elapsed
	rj.stats.LastError = ""
	if err != nil {
		rj.stats.Failures++
		rj.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled job failed",
			zap.String("job", rj.job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Scheduled job completed",
			zap.String("job", rj.job.Name),
			zap.Int("processed", n),
			zap.Duration("elapsed", elapsed))
	}
}

// Stats returns a snapshot of every job's statistics sorted by name
func (s *Scheduler) Stats() []JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStats, 0, len(s.jobs))
	for _, rj := range s.jobs {
		out = append(out, rj.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsRunning reports whether the scheduler was started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
