package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

func setupTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return NewSessionStore(client), mr, func() {
		client.Close()
		mr.Close()
	}
}

func mustSave(t *testing.T, store *SessionStore, sessions ...*domain.Session) {
	t.Helper()
	for _, session := range sessions {
		if err := store.Save(context.Background(), session); err != nil {
			t.Fatalf("save session %s: %v", session.ID, err)
		}
	}
}

// agentSession builds a session the way the auth service does, with
// distinct token and refresh token values derived from the id.
func agentSession(id, userID string) *domain.Session {
	return &domain.Session{
		ID:           id,
		UserID:       userID,
		Token:        "tok-" + id,
		RefreshToken: "ref-" + id,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		CreatedAt:    time.Now(),
		UserAgent:    "agent-dashboard/1.0",
		IPAddress:    "10.0.0.5",
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	retrieved, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("failed to retrieve saved session: %v", err)
	}
	if retrieved.UserID != "admin-1" || retrieved.Token != "tok-s1" {
		t.Errorf("unexpected session %+v", retrieved)
	}
}

func TestSessionStore_Save_AlreadyExpired(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	session.ExpiresAt = time.Now().Add(-time.Hour)
	mustSave(t, store, session)

	// An expired session never lands in Redis
	if _, err := store.Get(ctx, "s1"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound for expired session, got %v", err)
	}
}

func TestSessionStore_Save_CreatesIndexes(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	if !mr.Exists(sessionTokenPrefix + session.Token) {
		t.Error("expected token index to exist")
	}
	if !mr.Exists(sessionRefreshPrefix + session.RefreshToken) {
		t.Error("expected refresh token index to exist")
	}

	members, err := mr.Members(sessionUserPrefix + session.UserID)
	if err != nil {
		t.Fatalf("failed to read user set: %v", err)
	}
	if len(members) != 1 || members[0] != session.ID {
		t.Errorf("expected session ID in user set, got %v", members)
	}
}

func TestSessionStore_Save_Update(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	session.UserAgent = "agent-dashboard/2.0"
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("unexpected error updating session: %v", err)
	}

	retrieved, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("failed to retrieve session: %v", err)
	}
	if retrieved.UserAgent != "agent-dashboard/2.0" {
		t.Errorf("expected updated user agent, got %s", retrieved.UserAgent)
	}

	// Re-saving must not duplicate the user set entry
	sessions, err := store.ListByUser(ctx, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("expected 1 session, got %d", len(sessions))
	}
}

func TestSessionStore_Get_NotFound(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()

	if _, err := store.Get(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_Get_CorruptData(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()

	_ = mr.Set(sessionPrefix+"bad", "not json")

	if _, err := store.Get(context.Background(), "bad"); err == nil {
		t.Error("expected error unmarshaling corrupt session")
	}
}

func TestSessionStore_GetByToken(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	retrieved, err := store.GetByToken(ctx, "tok-s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved.ID != "s1" {
		t.Errorf("expected s1, got %s", retrieved.ID)
	}

	if _, err := store.GetByToken(ctx, "unknown"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_GetByRefreshToken(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	retrieved, err := store.GetByRefreshToken(ctx, "ref-s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved.ID != "s1" {
		t.Errorf("expected s1, got %s", retrieved.ID)
	}

	if _, err := store.GetByRefreshToken(ctx, "unknown"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_StaleTokenIndex(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	// Session TTL fired but the token indexes have not expired yet
	mr.Del(sessionPrefix + session.ID)

	if _, err := store.GetByToken(ctx, session.Token); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound via stale token index, got %v", err)
	}
	if _, err := store.GetByRefreshToken(ctx, session.RefreshToken); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound via stale refresh index, got %v", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error deleting session: %v", err)
	}

	if _, err := store.Get(ctx, "s1"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound after deletion, got %v", err)
	}

	// Indexes go with the session
	if mr.Exists(sessionTokenPrefix + session.Token) {
		t.Error("expected token index removed")
	}
	if mr.Exists(sessionRefreshPrefix + session.RefreshToken) {
		t.Error("expected refresh token index removed")
	}
	if _, err := store.GetByToken(ctx, session.Token); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound by token after delete, got %v", err)
	}
}

func TestSessionStore_Delete_Missing(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()

	// Logout of an already-gone session is a no-op
	if err := store.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("unexpected error deleting missing session: %v", err)
	}
}

func TestSessionStore_DeleteByToken(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	if err := store.DeleteByToken(ctx, "tok-s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.DeleteByToken(ctx, "unknown"); err != nil {
		t.Errorf("unexpected error for unknown token: %v", err)
	}
}

func TestSessionStore_DeleteByUser(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	// Admin logged in from two browsers, member from one
	mustSave(t, store,
		agentSession("s1", "admin-1"),
		agentSession("s2", "admin-1"),
		agentSession("s3", "member-1"),
	)

	if err := store.DeleteByUser(ctx, "admin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, id := range []string{"s1", "s2"} {
		if _, err := store.Get(ctx, id); err != domain.ErrNotFound {
			t.Errorf("expected %s deleted, got %v", id, err)
		}
	}

	// The other user's session survives
	if _, err := store.Get(ctx, "s3"); err != nil {
		t.Errorf("expected member session to remain: %v", err)
	}
}

func TestSessionStore_DeleteByUser_NoSessions(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()

	if err := store.DeleteByUser(context.Background(), "nobody"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSessionStore_DeleteByUser_SkipsCorrupt(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	s1 := agentSession("s1", "admin-1")
	s2 := agentSession("s2", "admin-1")
	mustSave(t, store, s1, s2)

	// Corrupt one entry; the sweep must still clear the rest
	_ = mr.Set(sessionPrefix+"s1", "corrupted")

	if err := store.DeleteByUser(ctx, "admin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "s2"); err != domain.ErrNotFound {
		t.Errorf("expected s2 deleted, got %v", err)
	}
}

func TestSessionStore_ListByUser(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	mustSave(t, store,
		agentSession("s1", "admin-1"),
		agentSession("s2", "admin-1"),
	)

	sessions, err := store.ListByUser(ctx, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}

	empty, err := store.ListByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no sessions, got %d", len(empty))
	}
}

func TestSessionStore_ListByUser_CleansExpiredIDs(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	mustSave(t, store, session)

	// Simulate the session TTL firing while the user set entry remains
	mr.Del(sessionPrefix + session.ID)

	sessions, err := store.ListByUser(ctx, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected 0 sessions, got %d", len(sessions))
	}

	if mr.Exists(sessionUserPrefix + "admin-1") {
		members, _ := mr.Members(sessionUserPrefix + "admin-1")
		if len(members) != 0 {
			t.Errorf("expected user set cleaned, got %v", members)
		}
	}
}

func TestSessionStore_ListByUser_FiltersExpiredByTime(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	live := agentSession("s1", "admin-1")
	mustSave(t, store, live)

	// Write an already-expired session directly, bypassing Save's TTL check
	expired := agentSession("s2", "admin-1")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	data, _ := json.Marshal(expired)
	store.client.Set(ctx, sessionPrefix+expired.ID, data, 10*time.Second)
	store.client.SAdd(ctx, sessionUserPrefix+expired.UserID, expired.ID)

	sessions, err := store.ListByUser(ctx, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" {
		t.Errorf("expected only the live session, got %+v", sessions)
	}
}

func TestSessionStore_ListByUser_CorruptEntry(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	mustSave(t, store, agentSession("s1", "admin-1"))

	_ = mr.Set(sessionPrefix+"bad", "not json")
	_, _ = mr.SAdd(sessionUserPrefix+"admin-1", "bad")

	if _, err := store.ListByUser(ctx, "admin-1"); err == nil {
		t.Error("expected error when listing with corrupt session data")
	}
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	session := agentSession("s1", "admin-1")
	session.ExpiresAt = time.Now().Add(2 * time.Second)
	mustSave(t, store, session)

	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error before expiry: %v", err)
	}

	mr.FastForward(3 * time.Second)

	if _, err := store.Get(ctx, "s1"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestSessionStore_RedisDown(t *testing.T) {
	store, mr, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	mr.Close()

	// Backend failures must surface as errors, never as ErrNotFound
	if _, err := store.Get(ctx, "s1"); err == nil || err == domain.ErrNotFound {
		t.Errorf("expected backend error, got %v", err)
	}
	if _, err := store.GetByToken(ctx, "tok"); err == nil || err == domain.ErrNotFound {
		t.Errorf("expected backend error, got %v", err)
	}
	if _, err := store.GetByRefreshToken(ctx, "ref"); err == nil || err == domain.ErrNotFound {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestSessionStore_ContextCancelled(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Save(ctx, agentSession("s1", "admin-1")); err == nil {
		t.Error("expected error with cancelled context")
	}
}

func TestSessionStore_TimeFieldsSurviveRoundTrip(t *testing.T) {
	store, _, cleanup := setupTestSessionStore(t)
	defer cleanup()
	ctx := context.Background()

	createdAt := time.Now().Add(-time.Hour)
	expiresAt := time.Now().Add(24 * time.Hour)

	session := agentSession("s1", "admin-1")
	session.CreatedAt = createdAt
	session.ExpiresAt = expiresAt
	mustSave(t, store, session)

	retrieved, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !retrieved.CreatedAt.Truncate(time.Second).Equal(createdAt.Truncate(time.Second)) {
		t.Errorf("CreatedAt not preserved: %v vs %v", retrieved.CreatedAt, createdAt)
	}
	if !retrieved.ExpiresAt.Truncate(time.Second).Equal(expiresAt.Truncate(time.Second)) {
		t.Errorf("ExpiresAt not preserved: %v vs %v", retrieved.ExpiresAt, expiresAt)
	}
}
