// Package httpds downloads a source export over HTTP(S).
//
// Dapodik exports are usually fetched from a district portal that is slow and
// occasionally returns 5xx under load, so GETs are retried with exponential
// backoff. The response body is handed to the parsers unchanged.
package httpds

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Config configures a Client. Zero values get defaults:
//
//	Timeout:        30s
//	MaxRetries:     0
//	InitialBackoff: 200ms
//	MaxBackoff:     5s
type Config struct {
	Timeout time.Duration

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Each further retry
	// doubles it, up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// UserAgent is sent with every request when set.
	UserAgent string

	// Transport replaces http.DefaultTransport when set.
	Transport http.RoundTripper
}

// Client issues GET requests with retry and backoff.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	userAgent      string

	// wait is replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		userAgent:      cfg.UserAgent,
		wait:           waitContext,
	}
}

// Get fetches url. Transport errors, 429 and 5xx are retried; any other
// status is returned as is. The caller must close the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case !isRetryableStatus(resp.StatusCode):
			return resp, nil
		default:
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: status %d from %s", resp.StatusCode, url)
		}

		if attempt+1 >= attempts {
			break
		}
		if err := c.wait(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("httpds: giving up after %d attempt(s): %w", attempts, lastErr)
}

// isRetryableStatus treats 429 and 5xx as transient.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// waitContext sleeps for d unless ctx is canceled first.
func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
