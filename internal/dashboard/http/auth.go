package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/service"
	"github.com/hollybot/dashboard/pkg/cryptox"
	"github.com/hollybot/dashboard/pkg/httpx"
	"github.com/hollybot/dashboard/pkg/jwtx"
	"github.com/hollybot/dashboard/pkg/slogx"
)

const (
	// SessionCookie carries the signed session credential.
	SessionCookie = "session_token"

	// stateCookie pins the OAuth state parameter to the browser that
	// started the login, so a callback forged for another browser fails.
	stateCookie  = "oauth_state"
	stateMaxAge  = 10 * time.Minute
	dashboardURL = "/dashboard.html"
)

// AuthHandler serves the Discord login flow and logout.
type AuthHandler struct {
	OAuthService *service.OAuthService
	Verifier     jwtx.Verifier
	FrontendURL  string
	CookieSecure bool
	SessionTTL   time.Duration
}

// HandleLogin starts the login flow: mint a state value, pin it to the
// browser and redirect to Discord's consent screen.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.OAuthService.LoginURL(state), http.StatusFound)
}

// HandleCallback finishes the login flow. Every failure redirects back to
// the frontend with an error marker; the signed credential travels only in
// the cookie, never in a URL.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	q := r.URL.Query()

	h.clearCookie(w, stateCookie)

	if errCode := q.Get("error"); errCode != "" {
		log.Warn("discord authorization denied", "oauth_error", errCode)
		h.redirectError(w, r, "auth_failed")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.redirectError(w, r, "no_code")
		return
	}

	stateCookieVal, err := r.Cookie(stateCookie)
	if err != nil || stateCookieVal.Value == "" || stateCookieVal.Value != q.Get("state") {
		log.Warn("oauth state mismatch")
		h.redirectError(w, r, "auth_failed")
		return
	}

	credential, session, err := h.OAuthService.HandleCallback(r.Context(), code)
	if err != nil {
		log.Error("discord callback failed", "error", err)
		h.redirectError(w, r, "auth_failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    credential,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("login complete", "identity", session.Identity)
	http.Redirect(w, r, h.FrontendURL+dashboardURL, http.StatusFound)
}

// HandleLogout drops the stored Discord tokens and clears the cookie. It
// answers 200 whether or not a valid credential was presented, so a client
// with a broken cookie can always reset itself.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	// Best effort: verify the credential if one is present so the stored
	// tokens can be dropped, but never fail the request over it.
	if raw := extractCredential(r); raw != "" {
		if claims, err := h.Verifier.Verify(raw); err == nil {
			if err := h.OAuthService.Logout(r.Context(), claims.Subject); err != nil {
				slogx.FromContext(r.Context()).Error("logout delete failed", "identity", claims.Subject, "error", err)
			}
		}
	}

	h.clearCookie(w, SessionCookie)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.FrontendURL+dashboardURL+"?error="+url.QueryEscape(code), http.StatusFound)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
