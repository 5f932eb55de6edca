package spotify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
)

// retryPolicy bounds how often a transient failure is retried. Delays double
// per attempt unless Spotify sends Retry-After.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func newRetryPolicy(attempts int, backoff time.Duration) retryPolicy {
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return retryPolicy{attempts: attempts, backoff: backoff}
}

func (p retryPolicy) delay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return p.backoff << attempt
}

// get issues a GET to target. Transport errors, 429 and 5xx answers are
// retried; any other response is handed back to the caller unread.
func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	var lastErr error
	for attempt := range c.retry.attempts {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("spotify adapter: rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("spotify adapter: building request: %w", err)
		}

		var retryAfter time.Duration
		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("spotify adapter: request canceled: %w", ctx.Err())
			}
			lastErr = err
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			retryAfter = parseRetryAfter(resp)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		default:
			return resp, nil
		}

		if attempt == c.retry.attempts-1 {
			break
		}
		wait := c.retry.delay(attempt, retryAfter)
		log.Printf("WARN spotify adapter: attempt %d/%d failed (%v), retrying in %s", attempt+1, c.retry.attempts, lastErr, wait)
		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("spotify adapter: request failed after %d attempts: %w", c.retry.attempts, lastErr)
}

// parseRetryAfter accepts both the delay-seconds and the HTTP-date forms.
func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("spotify adapter: request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
