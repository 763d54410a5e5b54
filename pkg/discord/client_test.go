package discord_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hollybot/dashboard/pkg/discord"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *discord.Client {
	c := discord.NewClient("client-id", "client-secret")
	c.BaseURL = baseURL
	return c
}

func TestDoTracksRateLimitHeaders(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("X-RateLimit-Remaining", "5")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Minute).Unix()))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	// Plenty of budget left: calls must not be delayed.
	start := time.Now()
	for range 3 {
		resp, err := c.Do(context.Background(), http.MethodGet, "/users/@me", nil, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	require.Less(t, time.Since(start), time.Second)
	require.EqualValues(t, 3, calls.Load())
}

func TestDoSuspendsWhenBudgetExhausted(t *testing.T) {
	reset := time.Now().Add(300 * time.Millisecond)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "1")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%.3f", float64(reset.UnixNano())/1e9))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	// First call records remaining=1.
	resp, err := c.Do(context.Background(), http.MethodGet, "/users/@me", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	// Second call must wait until the reset before sending.
	start := time.Now()
	resp, err = c.Do(context.Background(), http.MethodGet, "/users/@me", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestDoSkipsWaitsBeyondCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.MaxWait = 100 * time.Millisecond

	resp, err := c.Do(context.Background(), http.MethodGet, "/users/@me", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	// The hour-long wait exceeds the cap and is skipped.
	start := time.Now()
	resp, err = c.Do(context.Background(), http.MethodGet, "/users/@me", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Less(t, time.Since(start), time.Second)
}

func TestDoRetriesOnceGivenA429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0.05")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	resp, err := c.Do(context.Background(), http.MethodGet, "/users/@me", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 2, calls.Load())
}

func TestDoRetriesAgainForEach429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	resp, err := c.Do(context.Background(), http.MethodGet, "/users/@me", nil, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 3, calls.Load())
}

func TestDoHonoursContextCancellationDuringWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, http.MethodGet, "/users/@me", nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/@me", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"123","username":"alice","discriminator":"0"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	user, err := c.CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, "123", user.ID)
	require.Equal(t, "alice", user.Username)
}

func TestCurrentUserSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"401: Unauthorized","code":0}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.CurrentUser(context.Background(), "bad")
	var apiErr *discord.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestGuildManageable(t *testing.T) {
	require.True(t, discord.Guild{Permissions: "32"}.Manageable())          // exactly MANAGE_GUILD
	require.True(t, discord.Guild{Permissions: "2147483647"}.Manageable()) // all legacy bits
	require.False(t, discord.Guild{Permissions: "8192"}.Manageable())
	require.False(t, discord.Guild{Permissions: "0"}.Manageable())
	require.False(t, discord.Guild{Permissions: ""}.Manageable())
	require.False(t, discord.Guild{Permissions: "garbage"}.Manageable())
}
