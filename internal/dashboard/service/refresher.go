package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
	"github.com/hollybot/dashboard/internal/dashboard/store"
	"github.com/hollybot/dashboard/pkg/discord"
	"github.com/hollybot/dashboard/pkg/slogx"
)

// ErrSessionExpired means the stored Discord tokens are no longer usable and
// the user must log in again.
var ErrSessionExpired = errors.New("service: session expired")

// TokenRefresher hands out valid Discord access tokens, refreshing the
// stored pair lazily when it has expired. Refreshes for the same identity are
// serialised so concurrent requests burn at most one refresh grant.
type TokenRefresher struct {
	Sessions store.Sessions
	Discord  *discord.Client

	// Now is swappable for tests. Defaults to time.Now.
	Now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTokenRefresher(sessions store.Sessions, client *discord.Client) *TokenRefresher {
	return &TokenRefresher{
		Sessions: sessions,
		Discord:  client,
		Now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// ValidAccessToken returns an access token for identity that is valid right
// now, refreshing the stored pair first if needed. A refresh the
// authorization server rejects deletes the session and returns
// ErrSessionExpired; transient failures leave the stored pair untouched.
func (r *TokenRefresher) ValidAccessToken(ctx context.Context, identity string) (string, error) {
	session, err := r.Sessions.Get(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", err
	}

	if session.TokenValid(r.Now()) {
		return session.AccessToken, nil
	}

	lock := r.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock: a concurrent caller may have refreshed while
	// we waited.
	session, err = r.Sessions.Get(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrSessionExpired
	}
	if err != nil {
		return "", err
	}
	if session.TokenValid(r.Now()) {
		return session.AccessToken, nil
	}

	return r.refresh(ctx, session)
}

func (r *TokenRefresher) refresh(ctx context.Context, session domain.Session) (string, error) {
	log := slogx.FromContext(ctx)

	token, err := r.Discord.RefreshToken(ctx, session.RefreshToken)
	if err != nil {
		var oauthErr *discord.OAuthError
		if errors.As(err, &oauthErr) && oauthErr.GrantRejected() {
			// The refresh token is dead (revoked, rotated elsewhere). Drop
			// the session so the user is sent back through login.
			log.Warn("discord refresh rejected, deleting session",
				"identity", session.Identity,
				"oauth_error", oauthErr.Code,
			)
			if delErr := r.Sessions.Delete(ctx, session.Identity); delErr != nil {
				log.Error("failed to delete expired session", "identity", session.Identity, "error", delErr)
			}
			return "", ErrSessionExpired
		}
		return "", fmt.Errorf("service: refresh token: %w", err)
	}

	now := r.Now()
	session.AccessToken = token.AccessToken
	session.RefreshToken = token.RefreshToken
	session.ExpiresAt = now.Add(time.Duration(token.ExpiresIn) * time.Second)
	session.UpdatedAt = now

	if err := r.Sessions.Put(ctx, session); err != nil {
		return "", fmt.Errorf("service: store refreshed session: %w", err)
	}

	log.Info("discord tokens refreshed", "identity", session.Identity)
	return session.AccessToken, nil
}

func (r *TokenRefresher) identityLock(identity string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[identity]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[identity] = lock
	}
	return lock
}
