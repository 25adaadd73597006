package domain

import (
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id1, id2 := GenerateID(), GenerateID()

	if id1 == "" || id2 == "" {
		t.Fatal("expected non-empty IDs")
	}
	if id1 == id2 {
		t.Error("expected unique IDs")
	}
	// 16 random bytes, base64url without padding
	if len(id1) != 22 {
		t.Errorf("expected ID length 22, got %d", len(id1))
	}
}

func TestNewTask_Defaults(t *testing.T) {
	task := NewTask(TaskTypeIngestionSweep, nil)

	if task.ID == "" {
		t.Error("expected non-empty ID")
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected pending task, got %s", task.Status)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("expected 3 max attempts, got %d", task.MaxAttempts)
	}
	if task.ScheduledFor.IsZero() {
		t.Error("expected ScheduledFor set to now")
	}
	// ScheduledFor is set to creation time, so the task becomes ready
	// as soon as the clock moves past it
	time.Sleep(time.Millisecond)
	if !task.IsReady() {
		t.Error("expected a fresh task to be ready")
	}
}

func TestTaskConstructors(t *testing.T) {
	email := NewProcessEmailTask("em-456")
	if email.Type != TaskTypeProcessEmail || email.EmailID() != "em-456" {
		t.Errorf("unexpected process email task: %+v", email)
	}

	send := NewSendResponseTask("resp-789")
	if send.Type != TaskTypeSendResponse || send.ResponseID() != "resp-789" {
		t.Errorf("unexpected send response task: %+v", send)
	}

	// Scheduler tasks carry no payload; the ID accessors stay safe
	sweep := NewIngestionSweepTask()
	if sweep.Type != TaskTypeIngestionSweep || sweep.EmailID() != "" {
		t.Errorf("unexpected sweep task: %+v", sweep)
	}
	if NewRetentionCleanupTask().Type != TaskTypeRetentionCleanup {
		t.Error("unexpected cleanup task type")
	}
	if NewKnowledgeRefreshTask().Type != TaskTypeKnowledgeRefresh {
		t.Error("unexpected refresh task type")
	}
}

func TestTask_CanRetry(t *testing.T) {
	task := &Task{MaxAttempts: 3}

	for attempts := 0; attempts < 3; attempts++ {
		task.Attempts = attempts
		if !task.CanRetry() {
			t.Errorf("expected retry allowed at %d attempts", attempts)
		}
	}
	task.Attempts = 3
	if task.CanRetry() {
		t.Error("expected no retry at max attempts")
	}
}

func TestTask_IsReady(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name         string
		status       TaskStatus
		scheduledFor time.Time
		expected     bool
	}{
		{"pending and due", TaskStatusPending, past, true},
		{"pending but delayed", TaskStatusPending, future, false},
		{"processing", TaskStatusProcessing, past, false},
		{"completed", TaskStatusCompleted, past, false},
		{"failed", TaskStatusFailed, past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Status: tt.status, ScheduledFor: tt.scheduledFor}
			if got := task.IsReady(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := NewProcessEmailTask("em-1")

	task.MarkProcessing()
	if task.Status != TaskStatusProcessing || task.StartedAt == nil {
		t.Errorf("unexpected state after pickup: %+v", task)
	}
	if task.Attempts != 1 {
		t.Errorf("expected pickup to count as an attempt, got %d", task.Attempts)
	}

	task.Error = "transient failure from a previous attempt"
	task.MarkCompleted()
	if task.Status != TaskStatusCompleted || task.CompletedAt == nil {
		t.Errorf("unexpected state after completion: %+v", task)
	}
	if task.Error != "" {
		t.Error("expected completion to clear the error")
	}

	task.MarkFailed("provider unreachable")
	if task.Status != TaskStatusFailed || task.Error != "provider unreachable" {
		t.Errorf("unexpected state after failure: %+v", task)
	}
}

func TestTask_Retry_ExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		backoff  time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 5 * time.Minute}, // cap
	}

	for _, tt := range tests {
		task := NewProcessEmailTask("em-1")
		task.Attempts = tt.attempts
		before := time.Now()

		task.Retry("provider unreachable")

		if task.Status != TaskStatusPending {
			t.Errorf("attempts=%d: expected pending, got %s", tt.attempts, task.Status)
		}

		min := before.Add(tt.backoff)
		max := before.Add(tt.backoff + time.Second)
		if task.ScheduledFor.Before(min) || task.ScheduledFor.After(max) {
			t.Errorf("attempts=%d: expected backoff near %v, got %v",
				tt.attempts, tt.backoff, task.ScheduledFor.Sub(before))
		}
	}
}

func TestTriggerSpec_NextAfter_Interval(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	trigger := TriggerSpec{Kind: TriggerInterval, Interval: 5 * time.Minute}

	next := trigger.NextAfter(base)

	if !next.Equal(base.Add(5 * time.Minute)) {
		t.Errorf("expected %v, got %v", base.Add(5*time.Minute), next)
	}
}

func TestTriggerSpec_NextAfter_Cron(t *testing.T) {
	// Monday 10:30 UTC; daily-at-02:00 should fire Tuesday 02:00
	base := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	trigger := TriggerSpec{Kind: TriggerCron, CronExpr: "0 2 * * *"}

	next := trigger.NextAfter(base)

	expected := time.Date(2025, 6, 3, 2, 0, 0, 0, time.UTC)
	if !next.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, next)
	}
}

func TestTriggerSpec_NextAfter_WeeklyCron(t *testing.T) {
	// Monday; Sunday-03:00 job should fire the following Sunday
	base := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	trigger := TriggerSpec{Kind: TriggerCron, CronExpr: "0 3 * * 0"}

	next := trigger.NextAfter(base)

	expected := time.Date(2025, 6, 8, 3, 0, 0, 0, time.UTC)
	if !next.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, next)
	}
}

func TestTriggerSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		trigger TriggerSpec
		wantErr bool
	}{
		{"valid interval", TriggerSpec{Kind: TriggerInterval, Interval: time.Minute}, false},
		{"zero interval", TriggerSpec{Kind: TriggerInterval}, true},
		{"valid cron", TriggerSpec{Kind: TriggerCron, CronExpr: "0 2 * * *"}, false},
		{"bad cron", TriggerSpec{Kind: TriggerCron, CronExpr: "not a cron"}, true},
		{"unknown kind", TriggerSpec{Kind: "nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trigger.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected wantErr=%v, got err=%v", tt.wantErr, err)
			}
		})
	}
}

func TestScheduledJob_IsDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		enabled  bool
		nextRun  time.Time
		expected bool
	}{
		{"enabled and past", true, past, true},
		{"enabled and future", true, future, false},
		{"disabled and past", false, past, false},
		{"disabled and future", false, future, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &ScheduledJob{Enabled: tt.enabled, NextRun: tt.nextRun}
			if got := job.IsDue(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestScheduledJob_UpdateNextRun(t *testing.T) {
	interval := 30 * time.Minute
	job := &ScheduledJob{
		Trigger: TriggerSpec{Kind: TriggerInterval, Interval: interval},
	}

	before := time.Now()
	job.UpdateNextRun()
	after := time.Now()

	if job.LastRun == nil {
		t.Error("expected LastRun to be set")
	}
	if job.LastRun.Before(before) || job.LastRun.After(after) {
		t.Error("expected LastRun to be around now")
	}

	expectedNextRun := job.LastRun.Add(interval)
	if !job.NextRun.Equal(expectedNextRun) {
		t.Errorf("expected NextRun %v, got %v", expectedNextRun, job.NextRun)
	}
}

func TestDefaultSchedulerConfig(t *testing.T) {
	configs := DefaultSchedulerConfig()

	if len(configs) != 3 {
		t.Fatalf("expected 3 default jobs, got %d", len(configs))
	}

	byID := make(map[string]*ScheduledJob)
	for _, config := range configs {
		byID[config.ID] = config
	}

	sweep, ok := byID["ingestion-sweep"]
	if !ok {
		t.Fatal("expected to find ingestion-sweep job")
	}
	if sweep.Type != TaskTypeIngestionSweep {
		t.Errorf("expected type %s, got %s", TaskTypeIngestionSweep, sweep.Type)
	}
	if sweep.Trigger.Interval != 5*time.Minute {
		t.Errorf("expected interval 5m, got %v", sweep.Trigger.Interval)
	}

	cleanup, ok := byID["retention-cleanup"]
	if !ok {
		t.Fatal("expected to find retention-cleanup job")
	}
	if cleanup.Trigger.CronExpr != "0 2 * * *" {
		t.Errorf("expected daily 2am cron, got %s", cleanup.Trigger.CronExpr)
	}

	refresh, ok := byID["knowledge-refresh"]
	if !ok {
		t.Fatal("expected to find knowledge-refresh job")
	}
	if refresh.Trigger.CronExpr != "0 3 * * 0" {
		t.Errorf("expected weekly Sunday 3am cron, got %s", refresh.Trigger.CronExpr)
	}

	for _, config := range configs {
		if !config.Enabled {
			t.Errorf("expected job %s to be enabled", config.ID)
		}
		if err := config.Trigger.Validate(); err != nil {
			t.Errorf("expected job %s trigger to validate, got %v", config.ID, err)
		}
	}
}
