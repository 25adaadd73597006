package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var _ driven.SchedulerStore = (*SchedulerStore)(nil)

const scheduledJobColumns = `id, name, type, trigger_kind, interval_ns, cron_expr, enabled, next_run, last_run, last_error`

// SchedulerStore keeps scheduled jobs in Postgres. The trigger is
// flattened into the row: interval triggers store their duration in
// nanoseconds, cron triggers their expression.
type SchedulerStore struct {
	db *DB
}

// NewSchedulerStore creates a new SchedulerStore.
func NewSchedulerStore(db *DB) *SchedulerStore {
	return &SchedulerStore{db: db}
}

// GetScheduledJob retrieves a scheduled job by ID.
func (s *SchedulerStore) GetScheduledJob(ctx context.Context, id string) (*domain.ScheduledJob, error) {
	query := `SELECT ` + scheduledJobColumns + ` FROM scheduled_jobs WHERE id = $1`

	job, err := scanScheduledJob(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListScheduledJobs retrieves all scheduled jobs, soonest first.
func (s *SchedulerStore) ListScheduledJobs(ctx context.Context) ([]*domain.ScheduledJob, error) {
	query := `SELECT ` + scheduledJobColumns + ` FROM scheduled_jobs ORDER BY next_run ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScheduledJobs(rows)
}

// SaveScheduledJob creates or updates a scheduled job.
func (s *SchedulerStore) SaveScheduledJob(ctx context.Context, job *domain.ScheduledJob) error {
	query := `
		INSERT INTO scheduled_jobs (` + scheduledJobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			trigger_kind = EXCLUDED.trigger_kind,
			interval_ns = EXCLUDED.interval_ns,
			cron_expr = EXCLUDED.cron_expr,
			enabled = EXCLUDED.enabled,
			next_run = EXCLUDED.next_run,
			last_run = EXCLUDED.last_run,
			last_error = EXCLUDED.last_error
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Name,
		string(job.Type),
		string(job.Trigger.Kind),
		int64(job.Trigger.Interval),
		job.Trigger.CronExpr,
		job.Enabled,
		job.NextRun,
		NullTime(job.LastRun),
		job.LastError,
	)
	return err
}

// DeleteScheduledJob removes a scheduled job.
func (s *SchedulerStore) DeleteScheduledJob(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// GetDueScheduledJobs retrieves the enabled jobs whose next run has
// passed, soonest first.
func (s *SchedulerStore) GetDueScheduledJobs(ctx context.Context) ([]*domain.ScheduledJob, error) {
	query := `
		SELECT ` + scheduledJobColumns + `
		FROM scheduled_jobs
		WHERE enabled = true AND next_run <= $1
		ORDER BY next_run ASC
	`

	rows, err := s.db.QueryContext(ctx, query, time.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScheduledJobs(rows)
}

// UpdateLastRun records a run (or its error) and advances next_run
// according to the job's trigger.
func (s *SchedulerStore) UpdateLastRun(ctx context.Context, id string, lastError string) error {
	job, err := s.GetScheduledJob(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	nextRun := job.Trigger.NextAfter(now)

	query := `
		UPDATE scheduled_jobs
		SET last_run = $1, next_run = $2, last_error = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, now, nextRun, lastError, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func scanScheduledJob(s rowScanner) (*domain.ScheduledJob, error) {
	var job domain.ScheduledJob
	var lastRun sql.NullTime
	var lastError, cronExpr sql.NullString
	var intervalNs int64

	err := s.Scan(
		&job.ID,
		&job.Name,
		&job.Type,
		&job.Trigger.Kind,
		&intervalNs,
		&cronExpr,
		&job.Enabled,
		&job.NextRun,
		&lastRun,
		&lastError,
	)
	if err != nil {
		return nil, err
	}

	job.Trigger.Interval = time.Duration(intervalNs)
	job.Trigger.CronExpr = cronExpr.String
	job.LastRun = TimePtr(lastRun)
	job.LastError = lastError.String

	return &job, nil
}

func collectScheduledJobs(rows *sql.Rows) ([]*domain.ScheduledJob, error) {
	var jobs []*domain.ScheduledJob
	for rows.Next() {
		job, err := scanScheduledJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
