// Package service implements the dashboard's business logic between the HTTP
// layer and the session store.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
	"github.com/hollybot/dashboard/internal/dashboard/store"
	"github.com/hollybot/dashboard/pkg/discord"
	"github.com/hollybot/dashboard/pkg/jwtx"
	"github.com/hollybot/dashboard/pkg/slogx"
)

// OAuthService runs the Discord login flow: building the authorization URL,
// redeeming callback codes and minting the signed session credential.
type OAuthService struct {
	Sessions store.Sessions
	Discord  *discord.Client
	Signer   jwtx.Signer

	// RedirectURI is the absolute callback URL registered with Discord.
	RedirectURI string

	// Issuer and SessionTTL shape the minted credential.
	Issuer     string
	SessionTTL time.Duration

	Now func() time.Time
}

func NewOAuthService(sessions store.Sessions, client *discord.Client, signer jwtx.Signer, redirectURI, issuer string, sessionTTL time.Duration) *OAuthService {
	return &OAuthService{
		Sessions:    sessions,
		Discord:     client,
		Signer:      signer,
		RedirectURI: redirectURI,
		Issuer:      issuer,
		SessionTTL:  sessionTTL,
		Now:         time.Now,
	}
}

// LoginURL builds the Discord authorization URL for a login attempt.
func (s *OAuthService) LoginURL(state string) string {
	return s.Discord.AuthorizeURL(s.RedirectURI, state)
}

// HandleCallback redeems a callback code, stores the resulting token pair
// keyed by the user's Discord id and returns a signed session credential.
// Nothing is stored when any step fails.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (string, domain.Session, error) {
	log := slogx.FromContext(ctx)

	token, err := s.Discord.ExchangeCode(ctx, code, s.RedirectURI)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("service: exchange code: %w", err)
	}

	user, err := s.Discord.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("service: fetch user: %w", err)
	}

	now := s.Now()
	session := domain.Session{
		Identity:     user.ID,
		Username:     user.Username,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(token.ExpiresIn) * time.Second),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Sessions.Put(ctx, session); err != nil {
		return "", domain.Session{}, fmt.Errorf("service: store session: %w", err)
	}

	credential, err := s.Signer.Sign(jwtx.NewSessionClaims(user.ID, user.Username, s.Issuer, s.SessionTTL, now))
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("service: sign credential: %w", err)
	}

	log.Info("user logged in", "identity", user.ID, "username", user.Username)
	return credential, session, nil
}

// Logout drops the stored token pair for identity. Unknown identities are not
// an error, logout is idempotent.
func (s *OAuthService) Logout(ctx context.Context, identity string) error {
	return s.Sessions.Delete(ctx, identity)
}
