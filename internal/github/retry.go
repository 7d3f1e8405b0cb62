package github

import (
	"context"
	"errors"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// retry runs fn, retrying only on GitHub rate limiting with exponential
// back-off. Secondary rate limits honour the Retry-After the API returned.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		wait, ok := c.retryAfter(lastErr, attempt)
		if !ok || attempt == c.maxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}

func (c *Client) retryAfter(err error, attempt int) (time.Duration, bool) {
	backoff := c.backoff * time.Duration(1<<uint(attempt))

	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		if d := abuse.GetRetryAfter(); d > 0 {
			return d, true
		}
		return backoff, true
	}

	var rl *gh.RateLimitError
	if errors.As(err, &rl) {
		return backoff, true
	}
	return 0, false
}
