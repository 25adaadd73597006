package domain

import "time"

// KnowledgeDocument represents one document in the knowledge base.
// Deactivation is soft: inactive documents stay stored but their chunks
// are excluded from search results.
type KnowledgeDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IndexedAt time.Time `json:"indexed_at"`
}

// NewKnowledgeDocument creates an active document ready for indexing
func NewKnowledgeDocument(title, content, category string, tags []string) *KnowledgeDocument {
	now := time.Now()
	return &KnowledgeDocument{
		ID:        GenerateID(),
		Title:     title,
		Content:   content,
		Category:  category,
		Tags:      tags,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChunkMeta is the metadata stored alongside one index vector.
// Position i in the metadata list corresponds to vector i in the index;
// the pairing is the integrity invariant the persistence layer enforces.
type ChunkMeta struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchHit is one chunk returned from a knowledge search
type SearchHit struct {
	Chunk    *ChunkMeta `json:"chunk"`
	Distance float32    `json:"distance"`
}

// KnowledgeStats summarises the knowledge base for the dashboard
type KnowledgeStats struct {
	TotalDocuments  int            `json:"total_documents"`
	ActiveDocuments int            `json:"active_documents"`
	IndexedChunks   int            `json:"indexed_chunks"`
	Categories      map[string]int `json:"categories"`
	Dimension       int            `json:"dimension"`
}
