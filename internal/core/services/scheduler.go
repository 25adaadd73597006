package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler polls for due agent jobs and enqueues their tasks. It seeds
// the built-in jobs on start and runs a single poll loop per instance;
// when several instances share a queue, a DistributedLock keeps them
// from enqueuing the same job twice.
type Scheduler struct {
	store         driven.SchedulerStore
	taskQueue     driven.TaskQueue
	settingsStore driven.SettingsStore
	lock          driven.DistributedLock
	logger        *slog.Logger

	interval     time.Duration
	lockTTL      time.Duration
	lockRequired bool

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Store         driven.SchedulerStore
	TaskQueue     driven.TaskQueue
	SettingsStore driven.SettingsStore   // optional, gates the ingestion sweep via SweepEnabled
	Lock          driven.DistributedLock // optional, coordinates multiple instances
	Logger        *slog.Logger
	PollInterval  time.Duration // default 30s
	LockTTL       time.Duration // default 60s
	LockRequired  bool          // skip the cycle when the lock cannot be acquired
}

// NewScheduler creates a scheduler. When a lock is configured it is
// required unless the caller says otherwise; a lock that exists but is
// optional only makes sense for single-instance deployments.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = 60 * time.Second
	}
	if cfg.Lock != nil {
		cfg.LockRequired = true
	}

	return &Scheduler{
		store:         cfg.Store,
		taskQueue:     cfg.TaskQueue,
		settingsStore: cfg.SettingsStore,
		lock:          cfg.Lock,
		logger:        cfg.Logger,
		interval:      cfg.PollInterval,
		lockTTL:       cfg.LockTTL,
		lockRequired:  cfg.LockRequired,
	}
}

// Start seeds the default agent jobs and launches the poll loop.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.seedDefaultJobs(ctx); err != nil {
		s.logger.Warn("failed to seed default jobs", "error", err)
	}

	s.logger.Info("scheduler starting", "poll_interval", s.interval)

	go s.run(ctx)

	return nil
}

// Stop cancels the poll loop and waits for it to exit, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.mu.Unlock()

	select {
	case <-s.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
	return nil
}

// seedDefaultJobs creates the built-in agent jobs that do not exist yet:
// the ingestion sweep, the retention cleanup and the knowledge refresh.
func (s *Scheduler) seedDefaultJobs(ctx context.Context) error {
	for _, job := range domain.DefaultSchedulerConfig() {
		_, err := s.store.GetScheduledJob(ctx, job.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := s.store.SaveScheduledJob(ctx, job); err != nil {
			return fmt.Errorf("failed to seed job %s: %w", job.ID, err)
		}
		s.logger.Info("seeded scheduled job", "job_id", job.ID, "type", job.Type)
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First check happens immediately, not one interval in
	s.checkAndEnqueue(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndEnqueue(ctx)
		}
	}
}

// checkAndEnqueue runs one scheduling cycle: take the lock, collect the
// due jobs, enqueue a task for each.
func (s *Scheduler) checkAndEnqueue(ctx context.Context) {
	release, ok := s.acquireCycleLock(ctx)
	if !ok {
		return
	}
	defer release()

	jobs, err := s.store.GetDueScheduledJobs(ctx)
	if err != nil {
		s.logger.Error("failed to get due scheduled jobs", "error", err)
		return
	}

	for _, job := range jobs {
		if !job.Enabled || !job.IsDue() {
			continue
		}
		s.dispatch(ctx, job)
	}
}

// acquireCycleLock takes the scheduler lock when one is configured. The
// returned release func is always safe to call; ok is false when this
// cycle must be skipped because another instance holds the lock.
func (s *Scheduler) acquireCycleLock(ctx context.Context) (release func(), ok bool) {
	noop := func() {}
	if s.lock == nil {
		return noop, true
	}

	acquired, err := s.lock.Acquire(ctx, "scheduler", s.lockTTL)
	if err != nil {
		s.logger.Warn("failed to acquire scheduler lock", "error", err)
		// A broken lock backend stops a required-lock deployment; a
		// single-instance one keeps scheduling
		return noop, !s.lockRequired
	}
	if !acquired {
		s.logger.Debug("scheduler lock held by another instance, skipping cycle")
		return noop, false
	}

	return func() {
		if err := s.lock.Release(ctx, "scheduler"); err != nil {
			s.logger.Warn("failed to release scheduler lock", "error", err)
		}
	}, true
}

// dispatch enqueues the task for one due job and advances its schedule.
func (s *Scheduler) dispatch(ctx context.Context, job *domain.ScheduledJob) {
	if s.suppressed(ctx, job) {
		// Advance the schedule so a disabled sweep does not pile up
		if err := s.store.UpdateLastRun(ctx, job.ID, ""); err != nil {
			s.logger.Warn("failed to advance suppressed job", "job_id", job.ID, "error", err)
		}
		return
	}

	task := taskForJob(job)

	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		s.logger.Error("failed to enqueue scheduled task", "job_id", job.ID, "error", err)
		_ = s.store.UpdateLastRun(ctx, job.ID, err.Error())
		return
	}

	s.logger.Info("enqueued scheduled task",
		"job_id", job.ID,
		"task_id", task.ID,
		"task_type", task.Type,
	)

	if err := s.store.UpdateLastRun(ctx, job.ID, ""); err != nil {
		s.logger.Warn("failed to update scheduled job last run", "job_id", job.ID, "error", err)
	}
}

// suppressed reports whether agent settings veto a due job.
// Only the ingestion sweep is gated; cleanup and refresh always run.
func (s *Scheduler) suppressed(ctx context.Context, job *domain.ScheduledJob) bool {
	if job.Type != domain.TaskTypeIngestionSweep || s.settingsStore == nil {
		return false
	}
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		return false
	}
	return !settings.SweepEnabled
}

// taskForJob creates a queue task for a scheduled job.
func taskForJob(job *domain.ScheduledJob) *domain.Task {
	switch job.Type {
	case domain.TaskTypeIngestionSweep:
		return domain.NewIngestionSweepTask()
	case domain.TaskTypeRetentionCleanup:
		return domain.NewRetentionCleanupTask()
	case domain.TaskTypeKnowledgeRefresh:
		return domain.NewKnowledgeRefreshTask()
	default:
		return domain.NewTask(job.Type, nil)
	}
}

// ListJobs returns all configured scheduled jobs.
func (s *Scheduler) ListJobs(ctx context.Context) ([]*domain.ScheduledJob, error) {
	return s.store.ListScheduledJobs(ctx)
}

// TriggerJob immediately enqueues a job's task, outside its schedule.
func (s *Scheduler) TriggerJob(ctx context.Context, jobID string) error {
	job, err := s.store.GetScheduledJob(ctx, jobID)
	if err != nil {
		return err
	}

	task := taskForJob(job)

	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	s.logger.Info("manually triggered scheduled job",
		"job_id", job.ID,
		"task_id", task.ID,
	)

	return nil
}

// SetEnabled enables or disables a scheduled job.
func (s *Scheduler) SetEnabled(ctx context.Context, jobID string, enabled bool) error {
	job, err := s.store.GetScheduledJob(ctx, jobID)
	if err != nil {
		return err
	}
	job.Enabled = enabled
	return s.store.SaveScheduledJob(ctx, job)
}
