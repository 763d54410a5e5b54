// Package domain holds the dashboard's core types, shared by the store,
// service and transport layers.
package domain

import "time"

// Session pairs a Discord identity with its OAuth2 token pair. The stored
// access token has its own expiry, independent of the signed credential the
// browser holds.
type Session struct {
	Identity     string    `json:"identity"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenValid reports whether the stored access token is still usable at now.
// Expiry is a strict cutoff, there is no early-refresh buffer.
func (s Session) TokenValid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
