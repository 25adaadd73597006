package postgres

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock backs DistributedLock with Postgres advisory locks, for
// deployments that run without Redis.
//
// Advisory locks are connection-scoped rather than TTL-based: the ttl
// arguments are ignored, Extend is a no-op, and a lost connection
// releases everything it held. Good enough for the scheduler's
// leader-style locks; prefer the Redis lock when Redis is available.
type AdvisoryLock struct {
	db *DB
}

// NewAdvisoryLock creates a Postgres advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db}
}

// lockID hashes a lock name into the int64 keyspace advisory locks use.
func lockID(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("emailagent:lock:" + name))
	return int64(h.Sum64())
}

// Acquire tries to take the named lock without blocking. The ttl is
// ignored; the lock is held until Release or connection loss.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID(name)).Scan(&acquired)
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// Release drops the named lock. Releasing a lock we do not hold
// returns false from Postgres but is not treated as an error.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	var released bool
	return l.db.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockID(name)).Scan(&released)
}

// Extend is a no-op: advisory locks have no TTL to extend.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	return nil
}

// Ping checks if the Postgres backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
