package http

import (
	"errors"
	"net/http"

	"github.com/hollybot/dashboard/internal/dashboard/service"
	"github.com/hollybot/dashboard/pkg/discord"
	"github.com/hollybot/dashboard/pkg/httpx"
	"github.com/hollybot/dashboard/pkg/slogx"
)

// UserHandler serves the logged-in user's profile and guild list, proxied
// from Discord with the session's access token.
type UserHandler struct {
	Discord        *discord.Client
	Refresher      *service.TokenRefresher
	PremiumUserIDs map[string]bool

	// ExposeErrorDetails includes upstream error text in discord_error
	// responses. Dev only; production bodies carry the code alone.
	ExposeErrorDetails bool
}

// UserResponse is the Discord profile plus the dashboard's own plan field.
type UserResponse struct {
	discord.User
	Plan string `json:"plan"`
}

func (h *UserHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	identity := httpx.IdentityFromContext(r.Context())

	accessToken, err := h.Refresher.ValidAccessToken(r.Context(), identity)
	if err != nil {
		h.writeTokenError(w, r, err)
		return
	}

	user, err := h.Discord.CurrentUser(r.Context(), accessToken)
	if err != nil {
		h.writeDiscordError(w, r, err)
		return
	}

	plan := "free"
	if h.PremiumUserIDs[identity] {
		plan = "premium"
	}

	httpx.WriteJSON(w, http.StatusOK, UserResponse{User: user, Plan: plan})
}

// HandleGuilds lists only the guilds the user can manage, judged by the
// MANAGE_GUILD permission bit.
func (h *UserHandler) HandleGuilds(w http.ResponseWriter, r *http.Request) {
	identity := httpx.IdentityFromContext(r.Context())

	accessToken, err := h.Refresher.ValidAccessToken(r.Context(), identity)
	if err != nil {
		h.writeTokenError(w, r, err)
		return
	}

	guilds, err := h.Discord.CurrentUserGuilds(r.Context(), accessToken)
	if err != nil {
		h.writeDiscordError(w, r, err)
		return
	}

	manageable := make([]discord.Guild, 0, len(guilds))
	for _, g := range guilds {
		if g.Manageable() {
			manageable = append(manageable, g)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, manageable)
}

func (h *UserHandler) writeTokenError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrSessionExpired) {
		// The stored pair is gone or unrefreshable; the caller must log in
		// again even though the browser credential still verifies.
		httpx.WriteError(w, http.StatusUnauthorized, "session_expired")
		return
	}
	slogx.FromContext(r.Context()).Error("token refresh failed", "error", err)
	h.writeUpstreamError(w, err)
}

func (h *UserHandler) writeDiscordError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("discord request failed", "error", err)

	var apiErr *discord.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		// The token was valid by expiry but Discord rejected it anyway,
		// likely revoked from the user's side.
		httpx.WriteError(w, http.StatusUnauthorized, "session_expired")
		return
	}
	h.writeUpstreamError(w, err)
}

func (h *UserHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	if h.ExposeErrorDetails {
		httpx.WriteErrorDetails(w, http.StatusInternalServerError, "discord_error", err.Error())
		return
	}
	httpx.WriteError(w, http.StatusInternalServerError, "discord_error")
}
