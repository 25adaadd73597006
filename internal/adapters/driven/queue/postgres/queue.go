package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var _ driven.TaskQueue = (*Queue)(nil)

// taskColumns is the column list shared by every task SELECT. scanTask
// and insertTask depend on this order.
const taskColumns = `id, type, status, priority, payload,
	attempts, max_attempts, error, scheduled_for,
	started_at, completed_at, created_at, updated_at`

// maxRetryBackoff caps the exponential retry delay.
const maxRetryBackoff = 5 * time.Minute

// Queue is the Postgres task queue, used when Redis is not configured.
// SELECT ... FOR UPDATE SKIP LOCKED hands each pending row to exactly one
// worker without blocking the others. The tasks table lives in the shared
// schema applied at startup.
type Queue struct {
	db *sql.DB
}

// NewQueue creates a Postgres-backed task queue on an existing pool.
func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db}
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanTask reads one task row, decoding the JSON payload and the nullable
// timestamps. The destinations follow taskColumns.
func scanTask(s rowScanner) (*domain.Task, error) {
	var t domain.Task
	var rawPayload []byte
	var startedAt, completedAt sql.NullTime

	err := s.Scan(
		&t.ID, &t.Type, &t.Status, &t.Priority, &rawPayload,
		&t.Attempts, &t.MaxAttempts, &t.Error, &t.ScheduledFor,
		&startedAt, &completedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(rawPayload) > 0 {
		if err := json.Unmarshal(rawPayload, &t.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	if startedAt.Valid {
		t.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}

	return &t, nil
}

// insertTask writes one task row. Shared by Enqueue and EnqueueBatch so
// the column list exists in exactly one place.
func insertTask(ctx context.Context, e execer, t *domain.Task) error {
	rawPayload, err := json.Marshal(t.Payload)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", t.ID, err)
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO tasks (
			id, type, status, priority, payload,
			attempts, max_attempts, error, scheduled_for,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.Type, t.Status, t.Priority, rawPayload,
		t.Attempts, t.MaxAttempts, t.Error, t.ScheduledFor,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.ID, err)
	}
	return nil
}

// Enqueue inserts a task row.
func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	return insertTask(ctx, q.db, task)
}

// EnqueueBatch inserts multiple tasks in a single transaction.
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, task := range tasks {
		if err := insertTask(ctx, tx, task); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Dequeue claims the next pending task, returning nil when none is due.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	return q.claimNext(ctx, 0)
}

// DequeueWithTimeout claims the next task, polling once more after
// timeout seconds if the queue is empty.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	return q.claimNext(ctx, timeout)
}

func (q *Queue) claimNext(ctx context.Context, timeoutSeconds int) (*domain.Task, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = $1
		  AND scheduled_for <= NOW()
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`,
		domain.TaskStatusPending,
	)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()

		// Redis blocks on BRPOP here; Postgres can only sleep and retry
		// once before handing control back to the worker loop.
		if timeoutSeconds > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(timeoutSeconds) * time.Second):
				return q.claimNext(ctx, 0)
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, started_at = $2, updated_at = $3, attempts = attempts + 1
		WHERE id = $4`,
		domain.TaskStatusProcessing, now, now, task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	task.Status = domain.TaskStatusProcessing
	task.StartedAt = &now
	task.UpdatedAt = now
	task.Attempts++

	return task, nil
}

// Ack marks a task as completed.
func (q *Queue) Ack(ctx context.Context, taskID string) error {
	now := time.Now()
	result, err := q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, completed_at = $2, updated_at = $3, error = ''
		WHERE id = $4`,
		domain.TaskStatusCompleted, now, now, taskID,
	)
	if err != nil {
		return fmt.Errorf("ack %s: %w", taskID, err)
	}
	return requireRow(result, domain.ErrNotFound)
}

// Nack records a failure. Tasks with attempts left are rescheduled with
// exponential backoff; exhausted tasks are marked failed.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("nack %s: %w", taskID, err)
	}

	now := time.Now()

	if !task.CanRetry() {
		_, err = q.db.ExecContext(ctx, `
			UPDATE tasks
			SET status = $1, error = $2, updated_at = $3
			WHERE id = $4`,
			domain.TaskStatusFailed, reason, now, taskID,
		)
		if err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		return nil
	}

	backoff := time.Duration(1<<task.Attempts) * time.Second
	if backoff > maxRetryBackoff {
		backoff = maxRetryBackoff
	}

	_, err = q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, error = $2, updated_at = $3, scheduled_for = $4
		WHERE id = $5`,
		domain.TaskStatusPending, reason, now, now.Add(backoff), taskID,
	)
	if err != nil {
		return fmt.Errorf("reschedule: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1`,
		taskID,
	)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", taskID, err)
	}
	return task, nil
}

// ListTasks retrieves tasks matching the filter, newest first.
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	conds := []string{"TRUE"}
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CancelTask cancels a task that is still pending.
func (q *Queue) CancelTask(ctx context.Context, taskID string) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, updated_at = $2, error = 'cancelled'
		WHERE id = $3 AND status = $4`,
		domain.TaskStatusFailed, time.Now(), taskID, domain.TaskStatusPending,
	)
	if err != nil {
		return fmt.Errorf("cancel %s: %w", taskID, err)
	}
	return requireRow(result, errors.New("task not found or not pending"))
}

// PurgeTasks deletes settled tasks older than the cutoff.
func (q *Queue) PurgeTasks(ctx context.Context, olderThanSeconds int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)

	result, err := q.db.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE status IN ($1, $2)
		  AND updated_at < $3`,
		domain.TaskStatusCompleted, domain.TaskStatusFailed, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge tasks: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(purged), nil
}

// Stats reports per-status counts and the age of the oldest pending task.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}
	counters := map[domain.TaskStatus]*int64{
		domain.TaskStatusPending:    &stats.PendingCount,
		domain.TaskStatusProcessing: &stats.ProcessingCount,
		domain.TaskStatusCompleted:  &stats.CompletedCount,
		domain.TaskStatusFailed:     &stats.FailedCount,
	}

	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status domain.TaskStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		if counter, ok := counters[status]; ok {
			*counter = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var oldest sql.NullInt64
	err = q.db.QueryRowContext(ctx, `
		SELECT EXTRACT(EPOCH FROM (NOW() - MIN(created_at)))::bigint
		FROM tasks
		WHERE status = $1`,
		domain.TaskStatusPending,
	).Scan(&oldest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("oldest pending: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingAge = oldest.Int64
	}

	return stats, nil
}

// requireRow maps a zero-row update to the given error.
func requireRow(result sql.Result, missing error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return missing
	}
	return nil
}

// Ping checks database connectivity.
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op; the DB handle is owned by the caller.
func (q *Queue) Close() error {
	return nil
}
