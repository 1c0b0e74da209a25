package shopify

import (
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy controls how transient API failures are retried. The zero
// value disables retries.
type RetryPolicy struct {
	// MaxRetries is the number of attempts made after the first one.
	MaxRetries int
	// BaseDelay is the wait before the first retry when the response
	// carries no Retry-After hint. Subsequent retries wait
	// BaseDelay * attempt.
	BaseDelay time.Duration
}

// DefaultRetryPolicy matches the platform's published rate-limit
// guidance: up to three retries, two seconds apart and growing.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
	}
}

// retryable reports whether a status code signals a transient condition.
// Only rate limiting and server errors qualify; everything else is a
// caller problem and must surface immediately.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// backoff computes the wait before retry number attempt (1-based). A
// Retry-After header on the response overrides the policy's base delay.
func (p RetryPolicy) backoff(resp *http.Response, attempt int) time.Duration {
	delay := p.BaseDelay
	if resp != nil {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			delay = time.Duration(secs) * time.Second
		}
	}
	return delay * time.Duration(attempt)
}
