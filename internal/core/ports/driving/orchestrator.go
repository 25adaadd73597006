package driving

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// AgentOrchestrator coordinates the periodic agent jobs: mail ingestion,
// retention cleanup and knowledge refresh.
type AgentOrchestrator interface {
	// RunSweep fetches a batch of unread mail and processes each message.
	// One failed message never aborts the batch. Returns ErrSweepInProgress
	// if a sweep is already running.
	RunSweep(ctx context.Context) (*domain.SweepResult, error)

	// RunCleanup deletes read records older than the retention window.
	// Urgent records are exempt regardless of age.
	RunCleanup(ctx context.Context) (*domain.CleanupResult, error)

	// RunRefresh feeds recently responded threads back into the knowledge base
	RunRefresh(ctx context.Context) (*domain.RefreshResult, error)

	// SweepState returns the state of the most recent sweep
	SweepState(ctx context.Context) (*domain.SweepState, error)
}

// Scheduler manages periodic job scheduling
type Scheduler interface {
	// Start begins the scheduler loop
	Start(ctx context.Context) error

	// Stop stops the scheduler
	Stop(ctx context.Context) error

	// ListJobs returns all configured scheduled jobs
	ListJobs(ctx context.Context) ([]*domain.ScheduledJob, error)

	// TriggerJob enqueues a job's task immediately, outside its schedule
	TriggerJob(ctx context.Context, jobID string) error

	// SetEnabled enables or disables a scheduled job
	SetEnabled(ctx context.Context, jobID string, enabled bool) error
}
