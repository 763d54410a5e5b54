package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DISCORD_CLIENT_ID", "cid")
	t.Setenv("DISCORD_CLIENT_SECRET", "csecret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:3000", cfg.BaseURL)
	require.Equal(t, cfg.BaseURL, cfg.FrontendURL)
	require.Equal(t, "http://localhost:3000/auth/discord/callback", cfg.RedirectURI())
	require.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	require.Equal(t, "memory", cfg.SessionStore)
	require.Equal(t, 3000, cfg.Port)
	require.Empty(t, cfg.PremiumUserIDs)
}

func TestLoadConfigRequiresDiscordCredentials(t *testing.T) {
	t.Setenv("DISCORD_CLIENT_ID", "")
	t.Setenv("DISCORD_CLIENT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigPremiumList(t *testing.T) {
	t.Setenv("DISCORD_CLIENT_ID", "cid")
	t.Setenv("DISCORD_CLIENT_SECRET", "csecret")
	t.Setenv("PREMIUM_USER_IDS", "111, 222 ,,333")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"111", "222", "333"}, cfg.PremiumUserIDs)
}

func TestLoadConfigTrimsBaseURL(t *testing.T) {
	t.Setenv("DISCORD_CLIENT_ID", "cid")
	t.Setenv("DISCORD_CLIENT_SECRET", "csecret")
	t.Setenv("BASE_URL", "https://dash.example.com/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "https://dash.example.com/auth/discord/callback", cfg.RedirectURI())
}
