package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven/mocks"
)

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	if s.interval != 30*time.Second {
		t.Errorf("expected default interval 30s, got %v", s.interval)
	}
	if s.logger == nil {
		t.Error("expected default logger")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:        mocks.NewMockSchedulerStore(),
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}

	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		t.Error("expected scheduler to be running")
	}

	// Start again should be a no-op
	if err := s.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("failed to stop scheduler: %v", err)
	}

	s.mu.RLock()
	running = s.running
	s.mu.RUnlock()
	if running {
		t.Error("expected scheduler to be stopped")
	}

	// Stop again should be a no-op
	if err := s.Stop(ctx); err != nil {
		t.Errorf("second stop should not error: %v", err)
	}
}

func TestScheduler_SeedsDefaultJobs(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: time.Hour,
	})

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start scheduler: %v", err)
	}
	defer s.Stop(ctx)

	jobs, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("failed to list jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 seeded jobs, got %d", len(jobs))
	}

	byID := make(map[string]*domain.ScheduledJob)
	for _, job := range jobs {
		byID[job.ID] = job
	}
	for _, id := range []string{"ingestion-sweep", "retention-cleanup", "knowledge-refresh"} {
		if byID[id] == nil {
			t.Errorf("expected seeded job %q", id)
		}
	}
}

func TestScheduler_SeedKeepsExistingJobs(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	ctx := context.Background()

	// Pre-existing customised job must survive seeding
	custom := domain.NewScheduledJob("ingestion-sweep", "Custom Sweep",
		domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Minute})
	custom.Enabled = false
	if err := store.SaveScheduledJob(ctx, custom); err != nil {
		t.Fatalf("failed to save job: %v", err)
	}

	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    mocks.NewMockTaskQueue(),
		PollInterval: time.Hour,
	})
	if err := s.seedDefaultJobs(ctx); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	job, err := store.GetScheduledJob(ctx, "ingestion-sweep")
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if job.Name != "Custom Sweep" || job.Enabled {
		t.Error("seeding overwrote an existing job")
	}
}

func TestScheduler_CheckAndEnqueue(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	ctx := context.Background()

	due := domain.NewScheduledJob("due", "Due", domain.TaskTypeRetentionCleanup,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	due.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, due)

	notDue := domain.NewScheduledJob("not-due", "Not Due", domain.TaskTypeKnowledgeRefresh,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	notDue.NextRun = time.Now().Add(time.Hour)
	store.SaveScheduledJob(ctx, notDue)

	disabled := domain.NewScheduledJob("disabled", "Disabled", domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	disabled.Enabled = false
	disabled.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, disabled)

	s := NewScheduler(SchedulerConfig{Store: store, TaskQueue: queue, PollInterval: time.Hour})
	s.checkAndEnqueue(ctx)

	pending := queue.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(pending))
	}
	if pending[0].Type != domain.TaskTypeRetentionCleanup {
		t.Errorf("expected retention cleanup task, got %s", pending[0].Type)
	}

	// The due job's schedule must advance
	job, _ := store.GetScheduledJob(ctx, "due")
	if !job.NextRun.After(time.Now()) {
		t.Error("expected next run to advance past now")
	}
}

func TestScheduler_SweepSuppressedWhenDisabled(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	settingsStore := mocks.NewMockSettingsStore()
	ctx := context.Background()

	settings := domain.DefaultSettings()
	settings.SweepEnabled = false
	settingsStore.SaveSettings(ctx, settings)

	sweep := domain.NewScheduledJob("ingestion-sweep", "Sweep", domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	sweep.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, sweep)

	cleanup := domain.NewScheduledJob("retention-cleanup", "Cleanup", domain.TaskTypeRetentionCleanup,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	cleanup.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, cleanup)

	s := NewScheduler(SchedulerConfig{
		Store:         store,
		TaskQueue:     queue,
		SettingsStore: settingsStore,
		PollInterval:  time.Hour,
	})
	s.checkAndEnqueue(ctx)

	pending := queue.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected only the cleanup task, got %d tasks", len(pending))
	}
	if pending[0].Type != domain.TaskTypeRetentionCleanup {
		t.Errorf("expected retention cleanup task, got %s", pending[0].Type)
	}

	// Suppressed sweep still advances so it does not pile up
	job, _ := store.GetScheduledJob(ctx, "ingestion-sweep")
	if !job.NextRun.After(time.Now()) {
		t.Error("expected suppressed sweep schedule to advance")
	}
}

func TestScheduler_LockHeldSkipsCycle(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	lock := mocks.NewMockDistributedLock()
	ctx := context.Background()

	due := domain.NewScheduledJob("due", "Due", domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	due.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, due)

	lock.SetHeld("scheduler", time.Minute)

	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    queue,
		Lock:         lock,
		PollInterval: time.Hour,
	})
	s.checkAndEnqueue(ctx)

	if pending := queue.Pending(); len(pending) != 0 {
		t.Errorf("expected no tasks while another instance holds the lock, got %d", len(pending))
	}
}

func TestScheduler_LockAcquiredAndReleased(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	lock := mocks.NewMockDistributedLock()
	ctx := context.Background()

	due := domain.NewScheduledJob("due", "Due", domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	due.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, due)

	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    queue,
		Lock:         lock,
		PollInterval: time.Hour,
	})
	s.checkAndEnqueue(ctx)

	if pending := queue.Pending(); len(pending) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(pending))
	}
	if lock.IsHeld("scheduler") {
		t.Error("expected lock released after the cycle")
	}
}

func TestScheduler_LockErrorSkipsCycleWhenRequired(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	lock := mocks.NewMockDistributedLock()
	ctx := context.Background()

	due := domain.NewScheduledJob("due", "Due", domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	due.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, due)

	lock.SetFailNext(errors.New("redis down"))

	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    queue,
		Lock:         lock,
		LockRequired: true,
		PollInterval: time.Hour,
	})
	s.checkAndEnqueue(ctx)

	if pending := queue.Pending(); len(pending) != 0 {
		t.Errorf("expected no tasks when the lock backend fails, got %d", len(pending))
	}
}

func TestScheduler_EnqueueErrorRecorded(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	ctx := context.Background()

	job := domain.NewScheduledJob("due", "Due", domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	job.NextRun = time.Now().Add(-time.Minute)
	store.SaveScheduledJob(ctx, job)

	s := NewScheduler(SchedulerConfig{
		Store:        store,
		TaskQueue:    &failingTaskQueue{mocks.NewMockTaskQueue()},
		PollInterval: time.Hour,
	})
	s.checkAndEnqueue(ctx)

	saved, _ := store.GetScheduledJob(ctx, "due")
	if saved.LastError != "queue unavailable" {
		t.Errorf("expected last error recorded, got %q", saved.LastError)
	}
}

func TestScheduler_TriggerJob(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	queue := mocks.NewMockTaskQueue()
	ctx := context.Background()

	job := domain.NewScheduledJob("knowledge-refresh", "Refresh", domain.TaskTypeKnowledgeRefresh,
		domain.TriggerSpec{Kind: domain.TriggerCron, CronExpr: "0 3 * * 0"})
	store.SaveScheduledJob(ctx, job)

	s := NewScheduler(SchedulerConfig{Store: store, TaskQueue: queue, PollInterval: time.Hour})

	if err := s.TriggerJob(ctx, "knowledge-refresh"); err != nil {
		t.Fatalf("failed to trigger job: %v", err)
	}

	pending := queue.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(pending))
	}
	if pending[0].Type != domain.TaskTypeKnowledgeRefresh {
		t.Errorf("expected knowledge refresh task, got %s", pending[0].Type)
	}
}

func TestScheduler_TriggerJob_NotFound(t *testing.T) {
	s := NewScheduler(SchedulerConfig{
		Store:     mocks.NewMockSchedulerStore(),
		TaskQueue: mocks.NewMockTaskQueue(),
	})

	err := s.TriggerJob(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduler_SetEnabled(t *testing.T) {
	store := mocks.NewMockSchedulerStore()
	ctx := context.Background()

	job := domain.NewScheduledJob("ingestion-sweep", "Sweep", domain.TaskTypeIngestionSweep,
		domain.TriggerSpec{Kind: domain.TriggerInterval, Interval: time.Hour})
	store.SaveScheduledJob(ctx, job)

	s := NewScheduler(SchedulerConfig{Store: store, TaskQueue: mocks.NewMockTaskQueue()})

	if err := s.SetEnabled(ctx, "ingestion-sweep", false); err != nil {
		t.Fatalf("failed to disable: %v", err)
	}
	saved, _ := store.GetScheduledJob(ctx, "ingestion-sweep")
	if saved.Enabled {
		t.Error("expected job disabled")
	}

	if err := s.SetEnabled(ctx, "ingestion-sweep", true); err != nil {
		t.Fatalf("failed to enable: %v", err)
	}
	saved, _ = store.GetScheduledJob(ctx, "ingestion-sweep")
	if !saved.Enabled {
		t.Error("expected job enabled")
	}
}

// failingTaskQueue wraps the mock queue and fails every enqueue.
type failingTaskQueue struct {
	*mocks.MockTaskQueue
}

func (q *failingTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	return errors.New("queue unavailable")
}
