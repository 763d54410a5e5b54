// Package app assembles the dashboard service: configuration, session store,
// Discord client, services, HTTP server and lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/hollybot/dashboard/internal/dashboard/http"
	"github.com/hollybot/dashboard/internal/dashboard/service"
	"github.com/hollybot/dashboard/internal/dashboard/store"
	"github.com/hollybot/dashboard/internal/dashboard/store/drivers/memory"
	redisstore "github.com/hollybot/dashboard/internal/dashboard/store/drivers/redis"
	"github.com/hollybot/dashboard/internal/dashboard/store/drivers/sqlite"
	"github.com/hollybot/dashboard/pkg/cryptox"
	"github.com/hollybot/dashboard/pkg/discord"
	"github.com/hollybot/dashboard/pkg/httpx"
	"github.com/hollybot/dashboard/pkg/jwtx"
	"github.com/hollybot/dashboard/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	// issuer claim for minted session credentials.
	issuer = "hollybot-dashboard"
)

// Application encapsulates the dashboard service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	sessions store.Sessions
	discord  *discord.Client

	oauthService        *service.OAuthService
	refresher           *service.TokenRefresher
	statsService        *service.StatsService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dashboard",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if app.cfg.SessionSecret == "" {
		// Usable for development, but every restart invalidates all
		// sessions.
		app.cfg.SessionSecret = cryptox.MustGenerateToken(cryptox.TokenSize256)
		app.logger.Warn("SESSION_SECRET not set, generated a random one; sessions will not survive restarts")
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	codec, err := jwtx.NewHS256Codec([]byte(app.cfg.SessionSecret), issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session codec: %w", err)
	}

	app.initDiscord()
	app.initServices(codec)
	app.initHTTP(codec)

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("dashboard starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down dashboard...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.sessions.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("dashboard stopped")
	return nil
}

// initStore picks the session store driver from configuration.
func (app *Application) initStore() error {
	switch app.cfg.SessionStore {
	case "memory", "":
		app.sessions = memory.New()

	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		app.logger.Info("database migrations applied successfully")
		app.sessions = db

	case "redis":
		if app.cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set for the redis session store")
		}
		app.sessions = redisstore.NewStore(redisstore.Config{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPass,
			DB:       app.cfg.RedisDB,
			TTL:      app.cfg.SessionTTL,
		})

	default:
		return fmt.Errorf("unknown session store %q (want memory, sqlite or redis)", app.cfg.SessionStore)
	}

	app.logger.Info("session store initialized", "driver", app.cfg.SessionStore)
	return nil
}

func (app *Application) initDiscord() {
	app.discord = discord.NewClient(app.cfg.DiscordClientID, app.cfg.DiscordClientSecret)
	if app.cfg.DiscordAPIBase != "" {
		app.discord.BaseURL = app.cfg.DiscordAPIBase
	}
}

func (app *Application) initServices(codec *jwtx.HS256Codec) {
	app.oauthService = service.NewOAuthService(
		app.sessions,
		app.discord,
		codec,
		app.cfg.RedirectURI(),
		issuer,
		app.cfg.SessionTTL,
	)
	app.refresher = service.NewTokenRefresher(app.sessions, app.discord)
	app.statsService = service.NewStatsService(0)

	app.housekeepingService = service.NewHousekeepingService(
		app.sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.SessionTTL,
	)
}

func (app *Application) initHTTP(codec *jwtx.HS256Codec) {
	router := httpapi.NewRouter(codec, BuildVersion, app.sessions, app.logger)

	router.FrontendURL = app.cfg.FrontendURL
	router.CookieSecure = app.cfg.Env != "dev"
	router.ExposeErrorDetails = app.cfg.Env == "dev"
	router.SessionTTL = app.cfg.SessionTTL
	router.PremiumUserIDs = make(map[string]bool, len(app.cfg.PremiumUserIDs))
	for _, id := range app.cfg.PremiumUserIDs {
		router.PremiumUserIDs[id] = true
	}

	router.Discord = app.discord
	router.OAuthService = app.oauthService
	router.Refresher = app.refresher
	router.StatsService = app.statsService

	router.Use(httpx.CORS(app.cfg.FrontendURL))
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
