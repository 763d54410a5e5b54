package discord

import (
	"fmt"
	"strconv"
)

// PermissionManageGuild is the MANAGE_GUILD bit of the Discord permission
// bitmask. Guilds carrying it are the ones the bot dashboard can configure.
const PermissionManageGuild = 0x20

// User is the subset of the Discord user object the dashboard consumes.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	GlobalName    string `json:"global_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Locale        string `json:"locale,omitempty"`
}

// Guild is a partial guild as returned by /users/@me/guilds.
type Guild struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Owner  bool   `json:"owner"`
	Banner string `json:"banner,omitempty"`

	// Permissions is the caller's permission bitmask in the guild. The
	// current API serialises it as a decimal string.
	Permissions string `json:"permissions"`
}

// Manageable reports whether the user holds MANAGE_GUILD in this guild.
func (g Guild) Manageable() bool {
	bits, err := strconv.ParseUint(g.Permissions, 10, 64)
	if err != nil {
		return false
	}
	return bits&PermissionManageGuild != 0
}

// TokenResponse is the body of a successful token-endpoint exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// OAuthError is a token-endpoint rejection (RFC 6749 error body). A 4xx
// status means Discord refused the grant itself; anything else is transient.
type OAuthError struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("discord: token endpoint %d %s: %s", e.Status, e.Code, e.Description)
}

// GrantRejected reports whether the error is a definitive refusal (invalid
// code, revoked refresh token) rather than a transient upstream failure.
func (e *OAuthError) GrantRejected() bool {
	return e.Status >= 400 && e.Status < 500
}

// APIError is a non-2xx response from a regular API route.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("discord: api status %d", e.Status)
	}
	return fmt.Sprintf("discord: api status %d: %s (code %d)", e.Status, e.Message, e.Code)
}
