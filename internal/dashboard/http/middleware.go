package http

import (
	"net/http"
	"strings"

	"github.com/hollybot/dashboard/pkg/httpx"
	"github.com/hollybot/dashboard/pkg/jwtx"
	"github.com/hollybot/dashboard/pkg/slogx"
)

// SessionAuthMiddleware authenticates requests against the signed session
// credential. An absent credential is 401, a credential that fails
// verification is 403. On success the Discord identity is attached to the
// request context.
func SessionAuthMiddleware(verifier jwtx.Verifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractCredential(r)
			if raw == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("session credential rejected", "error", err)
				httpx.WriteError(w, http.StatusForbidden, "invalid_session")
				return
			}

			ctx := httpx.ContextWithIdentity(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractCredential finds the session credential, preferring the cookie the
// callback set. The Authorization header and query parameter exist for
// non-browser clients.
func extractCredential(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("session_token")
}
