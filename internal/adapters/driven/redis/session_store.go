package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

var _ driven.SessionStore = (*SessionStore)(nil)

const (
	sessionPrefix        = "session:"
	sessionTokenPrefix   = "session:token:"
	sessionRefreshPrefix = "session:refresh:"
	sessionUserPrefix    = "session:user:"

	// userSetTTL bounds how long a user's session-ID set can outlive its
	// members; stale IDs inside it are pruned on ListByUser
	userSetTTL = 30 * 24 * time.Hour
)

// SessionStore keeps dashboard sessions in Redis. The record expires via
// TTL at the session deadline, and two secondary keys (token, refresh
// token) plus a per-user set allow every lookup the auth service needs.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(id string) string { return sessionPrefix + id }

func tokenKey(token string) string { return sessionTokenPrefix + token }

func refreshKey(token string) string { return sessionRefreshPrefix + token }

func userSetKey(userID string) string { return sessionUserPrefix + userID }

// Save stores a session and its lookup indexes, all with the session's
// remaining lifetime as TTL. Already-expired sessions are dropped.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, ttl)
	pipe.Set(ctx, tokenKey(session.Token), session.ID, ttl)
	pipe.Set(ctx, refreshKey(session.RefreshToken), session.ID, ttl)
	pipe.SAdd(ctx, userSetKey(session.UserID), session.ID)
	pipe.Expire(ctx, userSetKey(session.UserID), userSetTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// resolve follows a secondary index key to the session it points at.
// A dangling index (session TTL fired first) reads as not found.
func (s *SessionStore) resolve(ctx context.Context, indexKey string) (*domain.Session, error) {
	sessionID, err := s.client.Get(ctx, indexKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session index: %w", err)
	}
	return s.Get(ctx, sessionID)
}

// GetByToken retrieves a session by its access token.
func (s *SessionStore) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	return s.resolve(ctx, tokenKey(token))
}

// GetByRefreshToken retrieves a session by its refresh token.
func (s *SessionStore) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return s.resolve(ctx, refreshKey(refreshToken))
}

// Delete removes a session. Deleting an absent session is a no-op.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	session, err := s.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.deleteSession(ctx, session)
}

// DeleteByToken removes the session behind an access token.
func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	session, err := s.GetByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.deleteSession(ctx, session)
}

// DeleteByUser removes every session for a user. Sessions that fail to
// delete individually (usually already expired) are skipped.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	sessionIDs, err := s.client.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	for _, sessionID := range sessionIDs {
		if err := s.Delete(ctx, sessionID); err != nil {
			continue
		}
	}

	s.client.Del(ctx, userSetKey(userID))
	return nil
}

// ListByUser returns the user's live sessions and prunes expired IDs out
// of the user set as a side effect.
func (s *SessionStore) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	sessionIDs, err := s.client.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	var sessions []*domain.Session
	var staleIDs []string

	for _, sessionID := range sessionIDs {
		session, err := s.Get(ctx, sessionID)
		if errors.Is(err, domain.ErrNotFound) {
			staleIDs = append(staleIDs, sessionID)
			continue
		}
		if err != nil {
			return nil, err
		}

		// TTL and ExpiresAt can disagree by a moment; trust ExpiresAt
		if session.IsExpired() {
			staleIDs = append(staleIDs, sessionID)
			continue
		}
		sessions = append(sessions, session)
	}

	if len(staleIDs) > 0 {
		s.client.SRem(ctx, userSetKey(userID), staleIDs)
	}

	return sessions, nil
}

func (s *SessionStore) deleteSession(ctx context.Context, session *domain.Session) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(session.ID))
	pipe.Del(ctx, tokenKey(session.Token))
	pipe.Del(ctx, refreshKey(session.RefreshToken))
	pipe.SRem(ctx, userSetKey(session.UserID), session.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
