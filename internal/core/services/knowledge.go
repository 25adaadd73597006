package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/runtime"
)

// Ensure knowledgeService implements KnowledgeService
var _ driving.KnowledgeService = (*knowledgeService)(nil)

// searchOverfetch is how many extra candidates a search pulls from the index
// so that hits from deactivated documents can be dropped without starving topK.
const searchOverfetch = 4

// knowledgeService implements the KnowledgeService interface.
// Documents live in the store; their chunks live in the vector index.
// Deactivation only flips the store flag, so searches filter hits against
// the active document set until the next Rebuild compacts the index.
type knowledgeService struct {
	store    driven.KnowledgeStore
	index    driven.KnowledgeIndex
	pipeline driven.PostProcessorPipeline
	services *runtime.Services
	logger   *slog.Logger
}

// KnowledgeServiceConfig holds dependencies for the knowledge service.
type KnowledgeServiceConfig struct {
	Store    driven.KnowledgeStore
	Index    driven.KnowledgeIndex
	Pipeline driven.PostProcessorPipeline
	Services *runtime.Services
	Logger   *slog.Logger
}

// NewKnowledgeService creates a new KnowledgeService.
func NewKnowledgeService(cfg KnowledgeServiceConfig) driving.KnowledgeService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &knowledgeService{
		store:    cfg.Store,
		index:    cfg.Index,
		pipeline: cfg.Pipeline,
		services: cfg.Services,
		logger:   logger,
	}
}

// AddDocument stores a document, chunks it, embeds the chunks and indexes them.
func (s *knowledgeService) AddDocument(ctx context.Context, req driving.AddDocumentRequest) (*domain.KnowledgeDocument, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("title and content are required: %w", domain.ErrInvalidInput)
	}

	doc := domain.NewKnowledgeDocument(req.Title, req.Content, req.Category, req.Tags)

	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	if err := s.indexDocument(ctx, doc); err != nil {
		// The document is stored; indexing can be recovered via Rebuild
		s.logger.Warn("failed to index document", "doc_id", doc.ID, "error", err)
		return doc, nil
	}

	doc.IndexedAt = time.Now()
	if err := s.store.Save(ctx, doc); err != nil {
		s.logger.Warn("failed to record index time", "doc_id", doc.ID, "error", err)
	}

	s.logger.Info("knowledge document added", "doc_id", doc.ID, "title", doc.Title)
	return doc, nil
}

// indexDocument chunks, embeds and indexes one document's content.
func (s *knowledgeService) indexDocument(ctx context.Context, doc *domain.KnowledgeDocument) error {
	chunks := s.pipeline.Process(doc.Content)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := s.embedTexts(ctx, texts)
	if err != nil {
		return err
	}

	now := time.Now()
	metas := make([]*domain.ChunkMeta, len(chunks))
	for i, chunk := range chunks {
		metas[i] = &domain.ChunkMeta{
			ID:         fmt.Sprintf("%s-chunk-%d", doc.ID, i),
			DocumentID: doc.ID,
			Title:      doc.Title,
			Content:    chunk.Content,
			Position:   chunk.Position,
			CreatedAt:  now,
		}
	}

	if err := s.index.Add(ctx, vectors, metas); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	return nil
}

// embedTexts embeds every text, substituting a zero vector for texts the
// embedding service fails on so chunk positions stay aligned with the index.
func (s *knowledgeService) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embeddingService := s.services.EmbeddingService()
	if embeddingService == nil {
		return nil, fmt.Errorf("embedding service not configured: %w", domain.ErrServiceUnavailable)
	}

	vectors, err := embeddingService.Embed(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, nil
	}
	if err != nil {
		s.logger.Warn("batch embedding failed, falling back to zero vectors", "error", err)
	}

	dim := s.index.Dimension()
	vectors = make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, dim)
	}
	return vectors, nil
}

// Get retrieves a document by ID.
func (s *knowledgeService) Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	return s.store.Get(ctx, id)
}

// List retrieves documents with pagination, newest first.
func (s *knowledgeService) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.KnowledgeDocument, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.List(ctx, activeOnly, limit, offset)
}

// Search returns the most relevant chunks for a query.
// Chunks of deactivated documents are excluded.
func (s *knowledgeService) Search(ctx context.Context, query string, topK int) ([]*domain.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = 3
	}

	embeddingService := s.services.EmbeddingService()
	if embeddingService == nil {
		return nil, fmt.Errorf("embedding service not configured: %w", domain.ErrServiceUnavailable)
	}

	queryVector, err := embeddingService.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Overfetch so filtering out deactivated documents still yields topK
	candidates, err := s.index.Search(ctx, queryVector, topK*searchOverfetch)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	activeIDs, err := s.store.ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active documents: %w", err)
	}

	hits := make([]*domain.SearchHit, 0, topK)
	for _, hit := range candidates {
		if !activeIDs[hit.Chunk.DocumentID] {
			continue
		}
		hits = append(hits, hit)
		if len(hits) == topK {
			break
		}
	}
	return hits, nil
}

// SearchContext returns search results formatted as context for response
// generation. Empty when nothing relevant is found.
func (s *knowledgeService) SearchContext(ctx context.Context, query string, topK int) (string, error) {
	hits, err := s.Search(ctx, query, topK)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Relevant information:\n")
	for _, hit := range hits {
		b.WriteString(fmt.Sprintf("\nFrom '%s':\n%s\n", hit.Chunk.Title, hit.Chunk.Content))
	}
	return b.String(), nil
}

// Deactivate soft-deletes a document.
func (s *knowledgeService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("failed to deactivate document: %w", err)
	}
	s.logger.Info("knowledge document deactivated", "doc_id", id)
	return nil
}

// Reactivate makes a deactivated document searchable again.
func (s *knowledgeService) Reactivate(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("failed to reactivate document: %w", err)
	}
	s.logger.Info("knowledge document reactivated", "doc_id", id)
	return nil
}

// Rebuild re-chunks and re-embeds every active document into a fresh index.
func (s *knowledgeService) Rebuild(ctx context.Context) (int, error) {
	if err := s.index.Reset(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset index: %w", err)
	}

	const pageSize = 100
	indexed := 0
	for offset := 0; ; offset += pageSize {
		docs, err := s.store.List(ctx, true, pageSize, offset)
		if err != nil {
			return indexed, fmt.Errorf("failed to list documents: %w", err)
		}
		if len(docs) == 0 {
			break
		}

		for _, doc := range docs {
			if err := s.indexDocument(ctx, doc); err != nil {
				s.logger.Warn("failed to reindex document", "doc_id", doc.ID, "error", err)
				continue
			}
			doc.IndexedAt = time.Now()
			if err := s.store.Save(ctx, doc); err != nil {
				s.logger.Warn("failed to record index time", "doc_id", doc.ID, "error", err)
			}
			indexed++
		}

		if len(docs) < pageSize {
			break
		}
	}

	s.logger.Info("knowledge index rebuilt", "documents", indexed)
	return indexed, nil
}

// Stats summarises the knowledge base.
func (s *knowledgeService) Stats(ctx context.Context) (*domain.KnowledgeStats, error) {
	total, active, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	categories, err := s.store.CategoryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	chunks, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count indexed chunks: %w", err)
	}

	return &domain.KnowledgeStats{
		TotalDocuments:  total,
		ActiveDocuments: active,
		IndexedChunks:   chunks,
		Categories:      categories,
		Dimension:       s.index.Dimension(),
	}, nil
}
