package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/robfig/cron/v3"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// TaskType identifies a kind of background work.
type TaskType string

// The agent's five task types. The sweep, cleanup and refresh are
// enqueued by the scheduler; process_email and send_response are fanned
// out per record.
const (
	TaskTypeProcessEmail     TaskType = "process_email"
	TaskTypeIngestionSweep   TaskType = "ingestion_sweep"
	TaskTypeRetentionCleanup TaskType = "retention_cleanup"
	TaskTypeKnowledgeRefresh TaskType = "knowledge_refresh"
	TaskTypeSendResponse     TaskType = "send_response"
)

// TaskStatus is the queue-side state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is one unit of queued work. The payload carries the target
// record's ID where one exists ("email_id" for process_email,
// "response_id" for send_response); sweep, cleanup and refresh tasks
// carry an empty payload. ScheduledFor delays pickup, which is how
// retries back off.
type Task struct {
	ID           string            `json:"id"`
	Type         TaskType          `json:"type"`
	Payload      map[string]string `json:"payload"`
	Status       TaskStatus        `json:"status"`
	Priority     int               `json:"priority"` // higher first, -100..100
	Attempts     int               `json:"attempts"`
	MaxAttempts  int               `json:"max_attempts"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	ScheduledFor time.Time         `json:"scheduled_for"`
}

// NewTask creates a pending task, ready immediately, with three
// attempts allowed.
func NewTask(taskType TaskType, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewProcessEmailTask creates a task to run the pipeline for one email record.
func NewProcessEmailTask(emailID string) *Task {
	return NewTask(TaskTypeProcessEmail, map[string]string{"email_id": emailID})
}

// NewSendResponseTask creates a task to dispatch a stored response.
func NewSendResponseTask(responseID string) *Task {
	return NewTask(TaskTypeSendResponse, map[string]string{"response_id": responseID})
}

// NewIngestionSweepTask creates a task to fetch and process a batch of unread mail.
func NewIngestionSweepTask() *Task {
	return NewTask(TaskTypeIngestionSweep, nil)
}

// NewRetentionCleanupTask creates a task to delete expired read records.
func NewRetentionCleanupTask() *Task {
	return NewTask(TaskTypeRetentionCleanup, nil)
}

// NewKnowledgeRefreshTask creates a task to re-index recent responded threads.
func NewKnowledgeRefreshTask() *Task {
	return NewTask(TaskTypeKnowledgeRefresh, nil)
}

// EmailID returns the payload's email_id, or "" when absent.
func (t *Task) EmailID() string {
	return t.Payload["email_id"]
}

// ResponseID returns the payload's response_id, or "" when absent.
func (t *Task) ResponseID() string {
	return t.Payload["response_id"]
}

// CanRetry reports whether the task has attempts left.
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady reports whether a pending task's scheduled time has passed.
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && time.Now().After(t.ScheduledFor)
}

// MarkProcessing records a pickup, counting it as an attempt.
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted records success and clears any earlier attempt's error.
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed records a terminal failure.
func (t *Task) MarkFailed(err string) {
	t.Status = TaskStatusFailed
	t.UpdatedAt = time.Now()
	t.Error = err
}

// Retry re-pends the task with exponential backoff, doubling per
// attempt and capped at five minutes.
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err

	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	t.ScheduledFor = now.Add(backoff)
}

// TaskResult is the recorded outcome of one task run.
type TaskResult struct {
	TaskID      string        `json:"task_id"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	ItemsCount  int           `json:"items_count,omitempty"`
	ErrorsCount int           `json:"errors_count,omitempty"`
}

// TriggerKind selects how a scheduled job computes its next run
type TriggerKind string

const (
	// TriggerInterval fires at a fixed duration from the previous run
	TriggerInterval TriggerKind = "interval"
	// TriggerCron fires per a standard 5-field cron expression
	TriggerCron TriggerKind = "cron"
)

// TriggerSpec describes when a scheduled job fires.
// Exactly one of Interval or CronExpr is used, selected by Kind.
type TriggerSpec struct {
	Kind     TriggerKind   `json:"kind"`
	Interval time.Duration `json:"interval,omitempty"`
	CronExpr string        `json:"cron_expr,omitempty"`
}

// NextAfter computes the next fire time strictly after t.
// Invalid cron expressions return the zero time; schedules are validated on save.
func (ts TriggerSpec) NextAfter(t time.Time) time.Time {
	switch ts.Kind {
	case TriggerCron:
		sched, err := cron.ParseStandard(ts.CronExpr)
		if err != nil {
			return time.Time{}
		}
		return sched.Next(t)
	default:
		return t.Add(ts.Interval)
	}
}

// Validate checks that the trigger has a usable configuration
func (ts TriggerSpec) Validate() error {
	switch ts.Kind {
	case TriggerInterval:
		if ts.Interval <= 0 {
			return ErrInvalidInput
		}
	case TriggerCron:
		if _, err := cron.ParseStandard(ts.CronExpr); err != nil {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	return nil
}

// ScheduledJob is a recurring task definition: what to enqueue and
// when. LastError holds the most recent enqueue failure, cleared on the
// next successful run.
type ScheduledJob struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      TaskType    `json:"type"`
	Trigger   TriggerSpec `json:"trigger"`
	Enabled   bool        `json:"enabled"`
	LastRun   *time.Time  `json:"last_run,omitempty"`
	NextRun   time.Time   `json:"next_run"`
	LastError string      `json:"last_error,omitempty"`
}

// NewScheduledJob creates an enabled job with its first run computed
// from the trigger.
func NewScheduledJob(id, name string, taskType TaskType, trigger TriggerSpec) *ScheduledJob {
	return &ScheduledJob{
		ID:      id,
		Name:    name,
		Type:    taskType,
		Trigger: trigger,
		Enabled: true,
		NextRun: trigger.NextAfter(time.Now()),
	}
}

// IsDue reports whether an enabled job's next run has passed.
func (s *ScheduledJob) IsDue() bool {
	return s.Enabled && time.Now().After(s.NextRun)
}

// UpdateNextRun records a run and advances the schedule.
func (s *ScheduledJob) UpdateNextRun() {
	now := time.Now()
	s.LastRun = &now
	s.NextRun = s.Trigger.NextAfter(now)
}

// DefaultSchedulerConfig returns the default scheduled jobs:
// mail ingestion every five minutes, retention cleanup daily at 02:00,
// knowledge refresh weekly on Sunday at 03:00.
func DefaultSchedulerConfig() []*ScheduledJob {
	return []*ScheduledJob{
		NewScheduledJob(
			"ingestion-sweep",
			"Mail Ingestion Sweep",
			TaskTypeIngestionSweep,
			TriggerSpec{Kind: TriggerInterval, Interval: 5 * time.Minute},
		),
		NewScheduledJob(
			"retention-cleanup",
			"Retention Cleanup",
			TaskTypeRetentionCleanup,
			TriggerSpec{Kind: TriggerCron, CronExpr: "0 2 * * *"},
		),
		NewScheduledJob(
			"knowledge-refresh",
			"Knowledge Refresh",
			TaskTypeKnowledgeRefresh,
			TriggerSpec{Kind: TriggerCron, CronExpr: "0 3 * * 0"},
		),
	}
}
