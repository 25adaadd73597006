package postgres

import (
	"context"
	"database/sql"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResponseStore = (*ResponseStore)(nil)

// ResponseStore implements driven.ResponseStore using PostgreSQL
type ResponseStore struct {
	db *DB
}

// NewResponseStore creates a new ResponseStore
func NewResponseStore(db *DB) *ResponseStore {
	return &ResponseStore{db: db}
}

const responseColumns = `id, email_id, text, type, confidence, model_used, sent, sent_at, created_at`

// Save creates or updates a response record
func (s *ResponseStore) Save(ctx context.Context, rec *domain.ResponseRecord) error {
	query := `
		INSERT INTO responses (` + responseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			type = EXCLUDED.type,
			confidence = EXCLUDED.confidence,
			model_used = EXCLUDED.model_used,
			sent = EXCLUDED.sent,
			sent_at = EXCLUDED.sent_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.EmailID,
		rec.Text,
		string(rec.Type),
		rec.Confidence,
		rec.ModelUsed,
		rec.Sent,
		NullTime(rec.SentAt),
		rec.CreatedAt,
	)
	return err
}

// Get retrieves a response by ID
func (s *ResponseStore) Get(ctx context.Context, id string) (*domain.ResponseRecord, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	rec, err := scanResponseRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByEmail retrieves all responses for an email, newest first
func (s *ResponseStore) GetByEmail(ctx context.Context, emailID string) ([]*domain.ResponseRecord, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM responses
		WHERE email_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ResponseRecord
	for rows.Next() {
		rec, err := scanResponseRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// GetLatestByEmail retrieves the most recent response for an email
func (s *ResponseStore) GetLatestByEmail(ctx context.Context, emailID string) (*domain.ResponseRecord, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM responses
		WHERE email_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, emailID)
	rec, err := scanResponseRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkSent marks a response as dispatched. Already-sent rows are untouched,
// so sent_at keeps the first dispatch time.
func (s *ResponseStore) MarkSent(ctx context.Context, id string) error {
	query := `
		UPDATE responses
		SET sent = true, sent_at = NOW()
		WHERE id = $1 AND sent = false
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Either already sent (fine) or missing
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM responses WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
	}

	return nil
}

// DeleteByEmail deletes all responses for an email
func (s *ResponseStore) DeleteByEmail(ctx context.Context, emailID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE email_id = $1`, emailID)
	return err
}

// Count returns total and sent response counts
func (s *ResponseStore) Count(ctx context.Context) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE sent) FROM responses`

	var total, sent int
	if err := s.db.QueryRowContext(ctx, query).Scan(&total, &sent); err != nil {
		return 0, 0, err
	}
	return total, sent, nil
}

func scanResponseRecord(scan func(...any) error) (*domain.ResponseRecord, error) {
	var rec domain.ResponseRecord
	var sentAt sql.NullTime

	err := scan(
		&rec.ID,
		&rec.EmailID,
		&rec.Text,
		&rec.Type,
		&rec.Confidence,
		&rec.ModelUsed,
		&rec.Sent,
		&sentAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SentAt = TimePtr(sentAt)
	return &rec, nil
}
