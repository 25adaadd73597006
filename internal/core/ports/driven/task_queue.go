package driven

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// TaskQueue is the background work queue. The Redis implementation is
// the primary one; the Postgres implementation covers deployments
// without Redis. Dequeued tasks are invisible to other workers until
// acked or nacked.
type TaskQueue interface {
	// Enqueue adds a task; workers pick it up by priority once its
	// scheduled time passes.
	Enqueue(ctx context.Context, task *domain.Task) error

	// EnqueueBatch adds several tasks atomically. All or none.
	EnqueueBatch(ctx context.Context, tasks []*domain.Task) error

	// Dequeue returns the next ready task, or nil, nil when the
	// implementation does not block and nothing is ready.
	Dequeue(ctx context.Context) (*domain.Task, error)

	// DequeueWithTimeout waits up to timeout seconds for a task.
	// Returns nil, nil on timeout.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack settles a task as completed.
	Ack(ctx context.Context, taskID string) error

	// Nack records a failure. The task is re-pended with backoff while
	// attempts remain, and marked failed once they run out.
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// ListTasks retrieves tasks matching the filter.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// CancelTask drops a pending task. Tasks already picked up or
	// finished cannot be cancelled.
	CancelTask(ctx context.Context, taskID string) error

	// PurgeTasks removes settled tasks older than olderThan seconds and
	// returns how many went.
	PurgeTasks(ctx context.Context, olderThan int) (int, error)

	// Stats returns queue depth counters.
	Stats(ctx context.Context) (*QueueStats, error)

	// Ping checks that the queue backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// TaskFilter narrows ListTasks. Zero values mean no constraint.
type TaskFilter struct {
	Status domain.TaskStatus
	Type   domain.TaskType
	Limit  int
	Offset int
}

// QueueStats is a point-in-time snapshot of queue depth.
type QueueStats struct {
	PendingCount    int64 `json:"pending_count"`
	ProcessingCount int64 `json:"processing_count"`
	CompletedCount  int64 `json:"completed_count"`
	FailedCount     int64 `json:"failed_count"`

	// OldestPendingAge is seconds since the oldest pending task was
	// enqueued; a growing value means workers are not keeping up.
	OldestPendingAge int64 `json:"oldest_pending_age"`
}

// SchedulerStore persists scheduled job definitions. Jobs are
// configuration rather than queue items, so they live apart from the
// TaskQueue.
type SchedulerStore interface {
	GetScheduledJob(ctx context.Context, id string) (*domain.ScheduledJob, error)
	ListScheduledJobs(ctx context.Context) ([]*domain.ScheduledJob, error)
	SaveScheduledJob(ctx context.Context, job *domain.ScheduledJob) error
	DeleteScheduledJob(ctx context.Context, id string) error

	// GetDueScheduledJobs returns the enabled jobs whose next run has passed.
	GetDueScheduledJobs(ctx context.Context) ([]*domain.ScheduledJob, error)

	// UpdateLastRun records a run (or its enqueue error) and advances
	// the job's schedule.
	UpdateLastRun(ctx context.Context, id string, lastError string) error
}
