package remote

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// headerRetryAfter is the retry-after header (seconds).
	headerRetryAfter = "Retry-After"

	// defaultRetryAfter is used when a 429 carries no Retry-After header.
	defaultRetryAfter = 5 * time.Second
)

// rateLimiter combines proactive throttling with the service's retry hints.
type rateLimiter struct {
	mu        sync.Mutex
	bucket    *rate.Limiter
	blockedTo time.Time
}

// newRateLimiter creates a limiter allowing perSecond requests per second.
// Zero or negative rates disable proactive throttling.
func newRateLimiter(perSecond float64) *rateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &rateLimiter{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until it's safe to make a request.
func (r *rateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	blockedTo := r.blockedTo
	r.mu.Unlock()

	if wait := time.Until(blockedTo); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Observe records a rate limited response.
// Returns true if resp indicates rate limiting.
func (r *rateLimiter) Observe(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return false
	}

	wait := defaultRetryAfter
	if retryAfter := resp.Header.Get(headerRetryAfter); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
			wait = time.Duration(seconds) * time.Second
		}
	}

	r.mu.Lock()
	r.blockedTo = time.Now().Add(wait)
	r.mu.Unlock()
	return true
}

// BlockedUntil returns when requests may resume after a rate limited response.
func (r *rateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedTo
}
