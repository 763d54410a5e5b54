// Package store defines the session persistence interface. Concrete drivers
// (memory, sqlite, redis) live under drivers/.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
)

var ErrNotFound = errors.New("store: not found")

// Sessions is the data access interface for Discord session records. Put is
// an upsert keyed by identity, so a re-login or token refresh replaces the
// stored pair wholesale.
type Sessions interface {
	Put(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, identity string) (domain.Session, error)
	Delete(ctx context.Context, identity string) error

	// DeleteStale removes sessions not updated since cutoff and reports how
	// many were removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)

	// Ping verifies the backing store is still reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
