// Package sqlite persists sessions in a local SQLite database, surviving
// process restarts without any external service.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
	"github.com/hollybot/dashboard/internal/dashboard/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ store.Sessions = (*Store)(nil)

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer at a time keeps modernc's driver away from SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Put(ctx context.Context, session domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (identity, username, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET
			username      = excluded.username,
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at    = excluded.expires_at,
			updated_at    = excluded.updated_at`,
		session.Identity,
		session.Username,
		session.AccessToken,
		session.RefreshToken,
		session.ExpiresAt.Unix(),
		session.CreatedAt.Unix(),
		session.UpdatedAt.Unix(),
	)
	return err
}

func (s *Store) Get(ctx context.Context, identity string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT identity, username, access_token, refresh_token, expires_at, created_at, updated_at
		FROM sessions WHERE identity = ?`, identity)

	var (
		session                         domain.Session
		expiresAt, createdAt, updatedAt int64
	)
	err := row.Scan(
		&session.Identity,
		&session.Username,
		&session.AccessToken,
		&session.RefreshToken,
		&expiresAt,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	session.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	session.CreatedAt = time.Unix(createdAt, 0).UTC()
	session.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return session, nil
}

func (s *Store) Delete(ctx context.Context, identity string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE identity = ?`, identity)
	return err
}

func (s *Store) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
