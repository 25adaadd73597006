package driven

import (
	"context"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// EmailFilter specifies criteria for listing email records
type EmailFilter struct {
	// Status filters by record status (optional, empty means all)
	Status domain.EmailStatus

	// Priority filters by priority (optional, empty means all)
	Priority domain.Priority

	// Sender filters by sender address (optional, exact match)
	Sender string

	// Limit is the maximum number of records to return
	Limit int

	// Offset is the number of records to skip (for pagination)
	Offset int
}

// EmailStore handles email record persistence (PostgreSQL)
type EmailStore interface {
	// Save creates or updates an email record
	Save(ctx context.Context, rec *domain.EmailRecord) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id string) (*domain.EmailRecord, error)

	// GetByExternalID retrieves a record by its source message ID
	GetByExternalID(ctx context.Context, externalID string) (*domain.EmailRecord, error)

	// ExistsByExternalID reports whether a record exists for the source message ID
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)

	// List retrieves records matching the filter, newest first
	List(ctx context.Context, filter EmailFilter) ([]*domain.EmailRecord, error)

	// ListProcessedBefore retrieves terminally processed records whose
	// processing finished before the cutoff. Used by retention cleanup;
	// urgent exemption is applied by the caller.
	ListProcessedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.EmailRecord, error)

	// ListRespondedSince retrieves responded records processed after the cutoff.
	// Used by the knowledge refresh job.
	ListRespondedSince(ctx context.Context, cutoff time.Time, limit int) ([]*domain.EmailRecord, error)

	// Delete deletes a record
	Delete(ctx context.Context, id string) error

	// Count returns the number of records matching the filter
	Count(ctx context.Context, filter EmailFilter) (int, error)

	// Stats returns aggregate counts for the dashboard
	Stats(ctx context.Context) (*domain.EmailStats, error)
}

// ResponseStore handles response record persistence (PostgreSQL)
type ResponseStore interface {
	// Save creates or updates a response record
	Save(ctx context.Context, rec *domain.ResponseRecord) error

	// Get retrieves a response by ID
	Get(ctx context.Context, id string) (*domain.ResponseRecord, error)

	// GetByEmail retrieves all responses for an email, newest first
	GetByEmail(ctx context.Context, emailID string) ([]*domain.ResponseRecord, error)

	// GetLatestByEmail retrieves the most recent response for an email
	GetLatestByEmail(ctx context.Context, emailID string) (*domain.ResponseRecord, error)

	// MarkSent marks a response as dispatched. The flag is monotonic:
	// marking an already-sent response is a no-op.
	MarkSent(ctx context.Context, id string) error

	// DeleteByEmail deletes all responses for an email
	DeleteByEmail(ctx context.Context, emailID string) error

	// Count returns total and sent response counts
	Count(ctx context.Context) (total int, sent int, err error)
}
