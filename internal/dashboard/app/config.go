package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DiscordClientID     string // Required: Discord application client id
	DiscordClientSecret string // Required: Discord application client secret
	DiscordAPIBase      string // Optional: Discord API base URL override (tests)

	BaseURL     string // Public URL of this service, builds the OAuth callback URL
	FrontendURL string // Where the browser lands after login; also the CORS origin

	SessionSecret string        // HS256 signing secret; random (and warned about) when unset
	SessionTTL    time.Duration // Lifetime of the browser session credential (default: 7 days)

	SessionStore string // Session store driver (memory, sqlite, redis) (default: memory)
	DatabaseFile string // Path to SQLite database file (default: ./dashboard.db)
	RedisAddr    string // Redis address (required for the redis driver)
	RedisPass    string // Optional Redis password
	RedisDB      int    // Redis database number

	PremiumUserIDs []string // Identities served the premium plan

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 3000)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Session sweep interval (default: 1h)
}

// LoadConfig reads configuration from the environment, after loading an
// optional .env file. The Discord credentials are the only hard requirement.
func LoadConfig() (Config, error) {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg := Config{
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordAPIBase:      os.Getenv("DISCORD_API_BASE"),

		BaseURL: getEnvOrDefault("BASE_URL", "http://localhost:3000"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("SESSION_TTL", 7*24*time.Hour),

		SessionStore: getEnvOrDefault("SESSION_STORE", "memory"),
		DatabaseFile: getEnvOrDefault("DASH_DATABASE_FILE", "dashboard.db"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:      getEnvIntOrDefault("REDIS_DB", 0),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	cfg.FrontendURL = getEnvOrDefault("FRONTEND_URL", cfg.BaseURL)

	if ids := os.Getenv("PREMIUM_USER_IDS"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.PremiumUserIDs = append(cfg.PremiumUserIDs, id)
			}
		}
	}

	if cfg.DiscordClientID == "" || cfg.DiscordClientSecret == "" {
		return Config{}, fmt.Errorf("DISCORD_CLIENT_ID and DISCORD_CLIENT_SECRET must be set")
	}

	return cfg, nil
}

// RedirectURI is the OAuth callback URL registered with Discord.
func (c Config) RedirectURI() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/auth/discord/callback"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are taken as hours, matching the session TTL's unit.
	if hours, err := strconv.Atoi(value); err == nil {
		return time.Duration(hours) * time.Hour
	}

	return defaultValue
}
