package fetch

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default politeness limits applied per host.
const (
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 4
)

// RateLimiter throttles requests per host with a token bucket and honours
// Retry-After from 429 responses.
type RateLimiter struct {
	mu       sync.Mutex
	rps      float64
	burst    int
	limiters map[string]*rate.Limiter
	retryAt  map[string]time.Time
}

// NewRateLimiter creates a per-host rate limiter.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		rps:      rps,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
		retryAt:  make(map[string]time.Time),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	lim, ok := r.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(r.rps), r.burst)
		r.limiters[host] = lim
	}
	retryAt := r.retryAt[host]
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	return lim.Wait(ctx)
}

// Backoff records that host asked us to wait for d.
func (r *RateLimiter) Backoff(host string, d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	until := time.Now().Add(d)
	if until.After(r.retryAt[host]) {
		r.retryAt[host] = until
	}
}

// retryAfter parses a Retry-After header given in seconds.
// HTTP-date values and missing headers yield zero.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
