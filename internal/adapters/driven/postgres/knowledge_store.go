package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore implements driven.KnowledgeStore using PostgreSQL.
// Documents are the source of truth; the vector index is derived from
// them and can always be rebuilt.
type KnowledgeStore struct {
	db *DB
}

// NewKnowledgeStore creates a new KnowledgeStore
func NewKnowledgeStore(db *DB) *KnowledgeStore {
	return &KnowledgeStore{db: db}
}

const knowledgeColumns = `id, title, content, category, tags, active, created_at, updated_at, indexed_at`

// Save creates or updates a document
func (s *KnowledgeStore) Save(ctx context.Context, doc *domain.KnowledgeDocument) error {
	query := `
		INSERT INTO knowledge_documents (` + knowledgeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at,
			indexed_at = EXCLUDED.indexed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Category,
		pq.Array(doc.Tags),
		doc.Active,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.IndexedAt,
	)
	return err
}

// Get retrieves a document by ID
func (s *KnowledgeStore) Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_documents WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	doc, err := scanKnowledgeDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List retrieves documents with pagination, newest first
func (s *KnowledgeStore) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.KnowledgeDocument, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_documents`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY created_at DESC`

	var args []any
	argIndex := 1
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
		argIndex++
	}
	if offset > 0 {
		if argIndex == 2 {
			query += ` OFFSET $2`
		} else {
			query += ` OFFSET $1`
		}
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.KnowledgeDocument
	for rows.Next() {
		doc, err := scanKnowledgeDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// ListActiveIDs returns the IDs of all active documents
func (s *KnowledgeStore) ListActiveIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM knowledge_documents WHERE active = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// SetActive flips the active flag on a document
func (s *KnowledgeStore) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE knowledge_documents SET active = $1, updated_at = $2 WHERE id = $3`

	result, err := s.db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes a document permanently
func (s *KnowledgeStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Count returns total and active document counts
func (s *KnowledgeStore) Count(ctx context.Context) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE active) FROM knowledge_documents`

	var total, active int
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// CategoryCounts returns a histogram of document categories
func (s *KnowledgeStore) CategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM knowledge_documents WHERE category != '' GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func scanKnowledgeDocument(scan func(...any) error) (*domain.KnowledgeDocument, error) {
	var doc domain.KnowledgeDocument
	var tags pq.StringArray
	var category sql.NullString

	err := scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&category,
		&tags,
		&doc.Active,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.IndexedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Category = category.String
	doc.Tags = tags
	return &doc, nil
}
