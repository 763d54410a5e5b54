// Package redis stores sessions in Redis, for deployments where several
// dashboard instances share one session pool.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
	"github.com/hollybot/dashboard/internal/dashboard/store"
)

const keyPrefix = "session:"

type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL applied to every session key. Redis expires stale sessions on its
	// own, so DeleteStale is a no-op for this driver.
	TTL time.Duration
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ store.Sessions = (*Store)(nil)

func NewStore(cfg Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: client, ttl: cfg.TTL}
}

func (s *Store) Put(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis: marshal session: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+session.Identity, payload, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, identity string) (domain.Session, error) {
	payload, err := s.client.Get(ctx, keyPrefix+identity).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return domain.Session{}, fmt.Errorf("redis: unmarshal session: %w", err)
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, identity string) error {
	return s.client.Del(ctx, keyPrefix+identity).Err()
}

// DeleteStale is a no-op: the per-key TTL set on Put already expires stale
// sessions server-side.
func (s *Store) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.client.Close() }
