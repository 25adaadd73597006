package driven

import (
	"context"
)

// EmbeddingService turns text into vectors for the knowledge index.
// Document chunks and search queries go through the same service so their
// vectors live in the same space.
type EmbeddingService interface {
	// Embed generates one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a vector for a search query. Providers may use
	// query-optimised parameters; the dimension must match Embed's.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the vector dimension this service produces.
	// The knowledge index is sized from this value.
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is reachable
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
