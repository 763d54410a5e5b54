// Package discord is a minimal Discord REST and OAuth2 client with global
// rate-limit tracking. All outbound Discord traffic for the dashboard goes
// through one Client so the shared request budget is honoured.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hollybot/dashboard/pkg/slogx"
)

const (
	// DefaultBaseURL is the Discord REST API root.
	DefaultBaseURL = "https://discord.com/api"

	// DefaultTimeout bounds every outbound call.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxWait caps rate-limit suspensions. A wait longer than this is
	// skipped with a warning: the call proceeds and may itself be 429'd,
	// which beats blocking a request handler for an unbounded time.
	DefaultMaxWait = 10 * time.Minute
)

// limitState tracks Discord's global request budget as reported by response
// headers. Process-wide and last-write-wins: stale values only make
// throttling slightly conservative.
type limitState struct {
	mu        sync.Mutex
	remaining int
	resetAt   time.Time
	known     bool
}

func (ls *limitState) observe(remaining int, resetAt time.Time) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.remaining = remaining
	ls.resetAt = resetAt
	ls.known = true
}

func (ls *limitState) snapshot() (remaining int, resetAt time.Time, known bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.remaining, ls.resetAt, ls.known
}

// Client calls the Discord API on behalf of dashboard sessions.
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	ClientID     string
	ClientSecret string

	// MaxWait caps both the pre-flight budget wait and the 429 retry wait.
	MaxWait time.Duration

	limit limitState
}

// NewClient builds a client with the default base URL and timeout.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		BaseURL:      DefaultBaseURL,
		HTTPClient:   &http.Client{Timeout: DefaultTimeout},
		ClientID:     clientID,
		ClientSecret: clientSecret,
		MaxWait:      DefaultMaxWait,
	}
}

// Do performs a request against the Discord API, suspending first if the
// shared budget is exhausted and retrying once per 429 received. The body is
// taken as bytes so the request can be replayed on retry.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	log := slogx.FromContext(ctx)

	c.awaitBudget(ctx, log)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("discord: build request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord: %s %s: %w", method, path, err)
	}

	c.observeHeaders(resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp)
		_ = resp.Body.Close()

		log.Warn("discord rate limited, retrying",
			"method", method,
			"path", path,
			"retry_after", retryAfter.String(),
		)
		if err := c.sleep(ctx, retryAfter, log); err != nil {
			return nil, err
		}

		// One retry per 429 received; a second 429 recurses through the
		// same capped wait.
		return c.Do(ctx, method, path, body, header)
	}

	return resp, nil
}

// awaitBudget suspends until the reported budget resets when the next call
// would exhaust it. Waits beyond MaxWait are skipped with a warning.
func (c *Client) awaitBudget(ctx context.Context, log *slog.Logger) {
	remaining, resetAt, known := c.limit.snapshot()
	if !known || remaining > 1 {
		return
	}

	wait := time.Until(resetAt)
	if wait <= 0 {
		return
	}
	if wait > c.MaxWait {
		log.Warn("discord rate-limit wait exceeds cap, proceeding without waiting",
			"wait", wait.String(),
			"cap", c.MaxWait.String(),
		)
		return
	}

	_ = c.sleep(ctx, wait, log)
}

// sleep waits for d or until the context is done, skipping waits beyond the
// cap.
func (c *Client) sleep(ctx context.Context, d time.Duration, log *slog.Logger) error {
	if d <= 0 {
		return nil
	}
	if d > c.MaxWait {
		log.Warn("discord wait exceeds cap, proceeding without waiting",
			"wait", d.String(),
			"cap", c.MaxWait.String(),
		)
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// observeHeaders folds the rate-limit headers of a response into the shared
// state. Responses without the headers leave the state untouched.
func (c *Client) observeHeaders(resp *http.Response) {
	remainingHdr := resp.Header.Get("X-RateLimit-Remaining")
	resetHdr := resp.Header.Get("X-RateLimit-Reset")
	if remainingHdr == "" || resetHdr == "" {
		return
	}

	remaining, err := strconv.Atoi(remainingHdr)
	if err != nil {
		return
	}

	// X-RateLimit-Reset is a unix epoch, possibly fractional.
	resetUnix, err := strconv.ParseFloat(resetHdr, 64)
	if err != nil {
		return
	}
	sec := int64(resetUnix)
	nsec := int64((resetUnix - float64(sec)) * float64(time.Second))

	c.limit.observe(remaining, time.Unix(sec, nsec))
}

func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return time.Second
	}
	secs, err := strconv.ParseFloat(ra, 64)
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

// getJSON performs a bearer-authenticated GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path, accessToken string, v any) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.Do(ctx, http.MethodGet, path, nil, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("discord: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(bodyBytes, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, v); err != nil {
		return fmt.Errorf("discord: decode response: %w", err)
	}
	return nil
}

// CurrentUser fetches the profile of the user the access token belongs to.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (User, error) {
	var u User
	if err := c.getJSON(ctx, "/users/@me", accessToken, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// CurrentUserGuilds fetches the guilds the user is a member of.
func (c *Client) CurrentUserGuilds(ctx context.Context, accessToken string) ([]Guild, error) {
	var guilds []Guild
	if err := c.getJSON(ctx, "/users/@me/guilds", accessToken, &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}
