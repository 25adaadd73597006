package driven

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// KnowledgeStore handles knowledge document persistence (PostgreSQL)
type KnowledgeStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.KnowledgeDocument) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error)

	// List retrieves documents with pagination, newest first.
	// activeOnly limits results to active documents.
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.KnowledgeDocument, error)

	// ListActiveIDs returns the IDs of all active documents.
	// Search uses this set to drop hits from deactivated documents.
	ListActiveIDs(ctx context.Context) (map[string]bool, error)

	// SetActive flips the active flag on a document
	SetActive(ctx context.Context, id string, active bool) error

	// Delete removes a document permanently
	Delete(ctx context.Context, id string) error

	// Count returns total and active document counts
	Count(ctx context.Context) (total int, active int, err error)

	// CategoryCounts returns a histogram of document categories
	CategoryCounts(ctx context.Context) (map[string]int, error)
}
