package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmailStore = (*EmailStore)(nil)

// EmailStore implements driven.EmailStore using PostgreSQL.
// Dedup by external ID is enforced with a unique index on external_id.
type EmailStore struct {
	db *DB
}

// NewEmailStore creates a new EmailStore
func NewEmailStore(db *DB) *EmailStore {
	return &EmailStore{db: db}
}

const emailColumns = `id, external_id, thread_id, subject, sender, recipient, body, labels,
	   status, priority, category, keywords, key_info, last_error,
	   received_at, created_at, updated_at, processed_at`

// Save creates or updates an email record
func (s *EmailStore) Save(ctx context.Context, rec *domain.EmailRecord) error {
	var keyInfo []byte
	if rec.KeyInfo != nil {
		var err error
		keyInfo, err = json.Marshal(rec.KeyInfo)
		if err != nil {
			return fmt.Errorf("marshal key info: %w", err)
		}
	}

	query := `
		INSERT INTO emails (` + emailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			labels = EXCLUDED.labels,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			category = EXCLUDED.category,
			keywords = EXCLUDED.keywords,
			key_info = EXCLUDED.key_info,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at,
			processed_at = EXCLUDED.processed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.ExternalID,
		rec.ThreadID,
		rec.Subject,
		rec.Sender,
		rec.Recipient,
		rec.Body,
		pq.Array(rec.Labels),
		string(rec.Status),
		string(rec.Priority),
		rec.Category,
		pq.Array(rec.Keywords),
		keyInfo,
		rec.LastError,
		rec.ReceivedAt,
		rec.CreatedAt,
		rec.UpdatedAt,
		NullTime(rec.ProcessedAt),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// Get retrieves a record by ID
func (s *EmailStore) Get(ctx context.Context, id string) (*domain.EmailRecord, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)
	rec, err := scanEmailRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByExternalID retrieves a record by its source message ID
func (s *EmailStore) GetByExternalID(ctx context.Context, externalID string) (*domain.EmailRecord, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE external_id = $1`

	row := s.db.QueryRowContext(ctx, query, externalID)
	rec, err := scanEmailRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ExistsByExternalID reports whether a record exists for the source message ID
func (s *EmailStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM emails WHERE external_id = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, externalID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// List retrieves records matching the filter, newest first
func (s *EmailStore) List(ctx context.Context, filter driven.EmailFilter) ([]*domain.EmailRecord, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE 1=1`
	var args []any
	argIndex := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(filter.Status))
		argIndex++
	}
	if filter.Priority != "" {
		query += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, string(filter.Priority))
		argIndex++
	}
	if filter.Sender != "" {
		query += fmt.Sprintf(" AND sender = $%d", argIndex)
		args = append(args, filter.Sender)
		argIndex++
	}

	query += " ORDER BY received_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmailRecords(rows)
}

// ListProcessedBefore retrieves terminal records processed before the cutoff.
// The age key is processed_at, so a record is only reclaimed once its own
// retention window has elapsed, however long ago it was received. Records
// re-triggered back into processing keep their old processed_at and are
// excluded by the status filter.
func (s *EmailStore) ListProcessedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.EmailRecord, error) {
	query := `
		SELECT ` + emailColumns + `
		FROM emails
		WHERE processed_at < $1 AND status = ANY($2)
		ORDER BY processed_at ASC
		LIMIT $3
	`

	terminal := []string{
		string(domain.EmailStatusRead),
		string(domain.EmailStatusResponded),
		string(domain.EmailStatusFailed),
	}
	rows, err := s.db.QueryContext(ctx, query, cutoff, pq.Array(terminal), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmailRecords(rows)
}

// ListRespondedSince retrieves responded records processed after the cutoff
func (s *EmailStore) ListRespondedSince(ctx context.Context, cutoff time.Time, limit int) ([]*domain.EmailRecord, error) {
	query := `
		SELECT ` + emailColumns + `
		FROM emails
		WHERE status = $1 AND processed_at > $2
		ORDER BY processed_at DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, string(domain.EmailStatusResponded), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmailRecords(rows)
}

// Delete deletes a record
func (s *EmailStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM emails WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Count returns the number of records matching the filter
func (s *EmailStore) Count(ctx context.Context, filter driven.EmailFilter) (int, error) {
	query := `SELECT COUNT(*) FROM emails WHERE 1=1`
	var args []any
	argIndex := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(filter.Status))
		argIndex++
	}
	if filter.Priority != "" {
		query += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, string(filter.Priority))
		argIndex++
	}
	if filter.Sender != "" {
		query += fmt.Sprintf(" AND sender = $%d", argIndex)
		args = append(args, filter.Sender)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Stats returns aggregate counts for the dashboard
func (s *EmailStore) Stats(ctx context.Context) (*domain.EmailStats, error) {
	stats := &domain.EmailStats{
		ByStatus:   make(map[domain.EmailStatus]int),
		ByPriority: make(map[domain.Priority]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, priority, COUNT(*) FROM emails GROUP BY status, priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority string
		var count int
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByStatus[domain.EmailStatus(status)] += count
		stats.ByPriority[domain.Priority(priority)] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func scanEmailRecord(scan func(...any) error) (*domain.EmailRecord, error) {
	var rec domain.EmailRecord
	var labels, keywords pq.StringArray
	var keyInfo []byte
	var category, lastError sql.NullString
	var processedAt sql.NullTime

	err := scan(
		&rec.ID,
		&rec.ExternalID,
		&rec.ThreadID,
		&rec.Subject,
		&rec.Sender,
		&rec.Recipient,
		&rec.Body,
		&labels,
		&rec.Status,
		&rec.Priority,
		&category,
		&keywords,
		&keyInfo,
		&lastError,
		&rec.ReceivedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Labels = labels
	rec.Keywords = keywords
	rec.Category = category.String
	rec.LastError = lastError.String
	rec.ProcessedAt = TimePtr(processedAt)

	if len(keyInfo) > 0 {
		var info domain.KeyInfo
		if err := json.Unmarshal(keyInfo, &info); err != nil {
			return nil, fmt.Errorf("unmarshal key info: %w", err)
		}
		rec.KeyInfo = &info
	}

	return &rec, nil
}

func scanEmailRecords(rows *sql.Rows) ([]*domain.EmailRecord, error) {
	var records []*domain.EmailRecord
	for rows.Next() {
		rec, err := scanEmailRecord(rows.Scan)
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
