package driving

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// AddDocumentRequest represents a request to add a knowledge document
type AddDocumentRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// KnowledgeService manages the knowledge base: documents, their chunks and
// the vector index over them.
type KnowledgeService interface {
	// AddDocument stores a document, chunks it, embeds the chunks and
	// indexes them. Returns the stored document.
	AddDocument(ctx context.Context, req AddDocumentRequest) (*domain.KnowledgeDocument, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error)

	// List retrieves documents with pagination, newest first
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.KnowledgeDocument, error)

	// Search returns the most relevant chunks for a query.
	// Chunks of deactivated documents are excluded.
	Search(ctx context.Context, query string, topK int) ([]*domain.SearchHit, error)

	// SearchContext returns search results formatted as context for
	// response generation. Empty when nothing relevant is found.
	SearchContext(ctx context.Context, query string, topK int) (string, error)

	// Deactivate soft-deletes a document: it stays stored but its chunks
	// no longer appear in search results.
	Deactivate(ctx context.Context, id string) error

	// Reactivate makes a deactivated document searchable again
	Reactivate(ctx context.Context, id string) error

	// Rebuild re-chunks and re-embeds every active document into a fresh index.
	// Used after deactivations accumulate or when the embedding model changes.
	Rebuild(ctx context.Context) (int, error)

	// Stats summarises the knowledge base
	Stats(ctx context.Context) (*domain.KnowledgeStats, error)
}
