package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blog-social/infrastructure/logger"

	"github.com/robfig/cron/v3"
)

// Job is a periodic task; its context is cancelled on Stop or after the job timeout.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron schedules. A job never overlaps with itself.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration

	mu     sync.Mutex
	jobs   map[string]cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
}

func New(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		jobs:    make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob registers job under name. Schedule accepts the standard five-field
// format and descriptors such as "@every 30s".
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.mu.Lock()
	s.jobs[name] = entryID
	s.mu.Unlock()
	logger.GetLogger().WithField("job", name).WithField("schedule", schedule).Info("Scheduled job added")
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().WithField("job", name).WithField("error", r).Error("Scheduled job panic recovered")
		}
	}()

	start := time.Now()
	if err := job(ctx); err != nil {
		logger.GetLogger().WithField("job", name).WithField("error", err).Error("Scheduled job failed")
		return
	}
	logger.GetLogger().WithField("job", name).WithField("duration", time.Since(start).String()).Debug("Scheduled job completed")
}

// RunNow executes job synchronously with the same timeout and recovery as a scheduled run.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
	}
}

// NextRun returns the next activation of the named job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

func (s *Scheduler) Start() {
	logger.GetLogger().Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	logger.GetLogger().Info("Stopping scheduler")
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
