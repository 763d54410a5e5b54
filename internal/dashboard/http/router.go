// Package http wires the dashboard's HTTP surface: the Discord login flow,
// the session-authenticated API and the health probes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/service"
	"github.com/hollybot/dashboard/internal/dashboard/store"
	"github.com/hollybot/dashboard/pkg/discord"
	"github.com/hollybot/dashboard/pkg/httpx"
	"github.com/hollybot/dashboard/pkg/jwtx"
	"github.com/hollybot/dashboard/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	sessions store.Sessions

	// FrontendURL is where the callback redirects after login. CookieSecure
	// marks the session cookie Secure in production deployments.
	FrontendURL  string
	CookieSecure bool
	SessionTTL   time.Duration

	// PremiumUserIDs are the identities served the premium plan.
	PremiumUserIDs map[string]bool

	// ExposeErrorDetails attaches upstream error text to API error bodies.
	// Only enabled in dev; production responses stay code-only.
	ExposeErrorDetails bool

	Discord      *discord.Client
	OAuthService *service.OAuthService
	Refresher    *service.TokenRefresher
	StatsService *service.StatsService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	sessions store.Sessions,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		sessions:     sessions,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// Use appends outer middleware, such as CORS, ahead of routing.
func (r *Router) Use(mw ...httpx.Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAPI()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		OAuthService: r.OAuthService,
		Verifier:     r.verifier,
		FrontendURL:  r.FrontendURL,
		CookieSecure: r.CookieSecure,
		SessionTTL:   r.SessionTTL,
	}

	// Login and callback are unauthenticated and drive Discord round trips,
	// so they get the strict per-IP limit.
	r.Mux.Handle("GET /auth/discord",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /auth/discord/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Logout succeeds with or without a valid credential.
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAPI() {
	userHandler := &UserHandler{
		Discord:            r.Discord,
		Refresher:          r.Refresher,
		PremiumUserIDs:     r.PremiumUserIDs,
		ExposeErrorDetails: r.ExposeErrorDetails,
	}

	r.Mux.Handle("GET /api/user",
		httpx.Chain(http.HandlerFunc(userHandler.HandleUser),
			SessionAuthMiddleware(r.verifier),
			httpx.RateLimitBySession(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /api/user/guilds",
		httpx.Chain(http.HandlerFunc(userHandler.HandleGuilds),
			SessionAuthMiddleware(r.verifier),
			httpx.RateLimitBySession(httpx.LenientLimit),
		),
	)

	// Stats are public, the frontend shows them on the landing page.
	statsHandler := &StatsHandler{StatsService: r.StatsService}
	r.Mux.Handle("GET /api/stats",
		httpx.Chain(statsHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.sessions))
}
