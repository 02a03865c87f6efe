// Package upstream implements the catalog API client the freshness
// controller pulls from.
package upstream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hideoutdb/searchd/internal/errors"
	"github.com/hideoutdb/searchd/pkg/version"
)

// sessionLeeway is how close to expiry a session token is still considered
// valid. Refreshing slightly early avoids racing the server clock.
const sessionLeeway = 30 * time.Second

// Config configures the catalog client.
type Config struct {
	// Origin is the API base URL, e.g. https://catalog.example.com/v2.
	Origin string
	// Token is the initial session token.
	Token string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// Client talks to the upstream catalog API. Safe for concurrent use; in
// practice the freshness controller is the only caller.
type Client struct {
	origin    string
	userAgent string
	http      *http.Client

	mu    sync.RWMutex
	token string

	breaker *errors.CircuitBreaker
	retry   errors.RetryConfig
}

// NewClient creates a catalog client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		origin:    strings.TrimRight(cfg.Origin, "/"),
		userAgent: "searchd/" + version.Short(),
		http:      &http.Client{Timeout: timeout},
		token:     cfg.Token,
		breaker:   errors.NewCircuitBreaker("catalog"),
		retry:     errors.DefaultRetryConfig(),
	}
}

// IsSessionValid reports whether the current session token is still usable.
// The expiry is read from the token payload locally, no network call.
func (c *Client) IsSessionValid() bool {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	exp, err := tokenExpiry(token)
	if err != nil {
		return false
	}
	return time.Now().Add(sessionLeeway).Before(exp)
}

// RefreshSession exchanges the current token for a fresh one.
func (c *Client) RefreshSession(ctx context.Context) error {
	var res struct {
		Token string `json:"token"`
	}
	if err := c.get(ctx, "/token", &res); err != nil {
		return err
	}
	if res.Token == "" {
		return errors.New(errors.ErrCodeSessionExpired, "upstream returned empty session token", nil)
	}

	c.mu.Lock()
	c.token = res.Token
	c.mu.Unlock()

	return nil
}

// Version fetches the catalog's modification marker.
func (c *Client) Version(ctx context.Context) (time.Time, error) {
	var stats CatalogStats
	if err := c.get(ctx, "/item", &stats); err != nil {
		return time.Time{}, err
	}
	return stats.Modified.Time, nil
}

// Items fetches the full item set.
func (c *Client) Items(ctx context.Context) ([]Item, error) {
	var list itemList
	if err := c.get(ctx, "/item/all", &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// get performs an authenticated GET through the circuit breaker, retrying
// transient failures with backoff.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.breaker.Execute(func() error {
		return errors.Retry(ctx, c.retry, func() error {
			return c.doGet(ctx, path, out)
		})
	})
}

func (c *Client) doGet(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+path, nil)
	if err != nil {
		return errors.InternalError("build request", err)
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		code := errors.ErrCodeUpstreamUnavailable
		if isTimeout(err) {
			code = errors.ErrCodeUpstreamTimeout
		}
		return errors.Wrap(code, err)
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrCodeSessionExpired,
			fmt.Sprintf("%s %s: status %d", http.MethodGet, path, res.StatusCode), nil)
	case res.StatusCode < 200 || res.StatusCode > 299:
		return errors.New(errors.ErrCodeUpstreamStatus,
			fmt.Sprintf("%s %s: status %d", http.MethodGet, path, res.StatusCode), nil)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpstreamUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.New(errors.ErrCodeUpstreamStatus,
			fmt.Sprintf("%s %s: decode response: %v", http.MethodGet, path, err), err)
	}

	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}

// tokenExpiry extracts the exp claim from a JWT without verifying it.
// Validation is the server's job; the client only schedules refreshes.
func tokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("malformed token")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("decode payload: %w", err)
	}

	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("decode claims: %w", err)
	}
	if claims.Exp == 0 {
		return time.Time{}, fmt.Errorf("token has no expiry")
	}

	return time.Unix(claims.Exp, 0), nil
}
