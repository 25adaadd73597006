package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var _ driven.SessionStore = (*SessionStore)(nil)

const sessionColumns = `id, user_id, token, refresh_token, expires_at, created_at, user_agent, ip_address`

// SessionStore keeps dashboard sessions in Postgres. Unlike the Redis
// store there is no TTL; expired rows are filtered on read.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(s rowScanner) (*domain.Session, error) {
	var sess domain.Session
	err := s.Scan(
		&sess.ID, &sess.UserID, &sess.Token, &sess.RefreshToken,
		&sess.ExpiresAt, &sess.CreatedAt, &sess.UserAgent, &sess.IPAddress,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) getWhere(ctx context.Context, column, value string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE `+column+` = $1`, value)
	return scanSession(row)
}

// Save upserts a session row. CreatedAt and UserID never change on
// conflict; a refresh rotates only the tokens and the deadline.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			token = EXCLUDED.token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address`,
		session.ID, session.UserID, session.Token, session.RefreshToken,
		session.ExpiresAt, session.CreatedAt, session.UserAgent, session.IPAddress,
	)
	return err
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.getWhere(ctx, "id", id)
}

// GetByToken retrieves a session by its access token.
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	return s.getWhere(ctx, "token", token)
}

// GetByRefreshToken retrieves a session by its refresh token.
func (s *SessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return s.getWhere(ctx, "refresh_token", refreshToken)
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteByToken removes the session behind an access token. Unknown
// tokens are a no-op; logout must succeed either way.
func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// DeleteByUser removes every session for a user.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// ListByUser returns the user's live sessions, newest first.
func (s *SessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
