package driven

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// KnowledgeIndex is the vector index over knowledge chunks.
// Vector i and metadata entry i always refer to the same chunk; implementations
// reject writes that would break the pairing and persist both sides atomically.
type KnowledgeIndex interface {
	// Add appends vectors with their chunk metadata and persists the index.
	// len(vectors) must equal len(metas) and every vector must match the
	// index dimension.
	Add(ctx context.Context, vectors [][]float32, metas []*domain.ChunkMeta) error

	// Search returns the k nearest chunks to the query vector by L2 distance,
	// closest first. k is capped at the index size; an empty index returns
	// no hits.
	Search(ctx context.Context, query []float32, k int) ([]*domain.SearchHit, error)

	// Reset discards all vectors and metadata, keeping the dimension.
	// Used by full rebuilds.
	Reset(ctx context.Context) error

	// Count returns the number of indexed chunks
	Count(ctx context.Context) (int, error)

	// Dimension returns the embedding dimension the index was created with
	Dimension() int

	// HealthCheck verifies the index backing storage is usable
	HealthCheck(ctx context.Context) error

	// Close persists any pending state and releases resources
	Close() error
}
