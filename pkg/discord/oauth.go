package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Scopes requested at login. "identify" covers /users/@me, "guilds" covers
// /users/@me/guilds.
const Scopes = "identify guilds"

// AuthorizeURL builds the authorization URL a login request redirects to.
func (c *Client) AuthorizeURL(redirectURI, state string) string {
	q := url.Values{
		"client_id":     {c.ClientID},
		"redirect_uri":  {redirectURI},
		"response_type": {"code"},
		"scope":         {Scopes},
	}
	if state != "" {
		q.Set("state", state)
	}
	return c.BaseURL + "/oauth2/authorize?" + q.Encode()
}

// ExchangeCode redeems a single-use authorization code for a token pair.
// Discord enforces single use: replaying a code yields an OAuthError with
// GrantRejected true.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	data := url.Values{
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	return c.token(ctx, data)
}

// RefreshToken redeems a refresh token for a fresh token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.token(ctx, data)
}

// token posts to the token endpoint through Do, so token traffic shares the
// process-wide rate-limit budget with regular API calls.
func (c *Client) token(ctx context.Context, data url.Values) (*TokenResponse, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Do(ctx, http.MethodPost, "/oauth2/token", []byte(data.Encode()), header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("discord: read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		oauthErr := &OAuthError{Status: resp.StatusCode}
		_ = json.Unmarshal(bodyBytes, oauthErr)
		return nil, oauthErr
	}

	var token TokenResponse
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, fmt.Errorf("discord: decode token response: %w", err)
	}
	return &token, nil
}
