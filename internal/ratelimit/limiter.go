// Package ratelimit implements per-endpoint rate limiting for upstream API
// calls, driven by the provider's rate limit response headers.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// bucket tracks the rate limit window for one endpoint.
type bucket struct {
	remaining int
	limit     int
	resetAt   time.Time
	limiter   *rate.Limiter
	mu        sync.Mutex
}

// Limiter manages rate limit buckets per upstream endpoint.
type Limiter struct {
	buckets map[string]*bucket
	mu      sync.RWMutex
	logger  *zap.Logger
}

// New creates a rate limiter with no buckets; buckets are created on first
// use of an endpoint.
func New(logger *zap.Logger) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		logger:  logger,
	}
}

func (l *Limiter) getBucket(endpoint string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, exists := l.buckets[endpoint]; exists {
		return b
	}

	// Discord's global limit is 5 requests per second; per-route limits
	// are learned from response headers.
	b := &bucket{
		remaining: 5,
		limit:     5,
		resetAt:   time.Now().Add(time.Second),
		limiter:   rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}

	l.buckets[endpoint] = b
	return b
}

// Wait blocks until a request to the endpoint may proceed, or ctx is done.
// The bucket mutex is not held while blocked, so header updates and 429
// handling on the same endpoint proceed during the wait.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	b := l.getBucket(endpoint)

	b.mu.Lock()
	var waitDuration time.Duration
	if b.remaining <= 0 && time.Now().Before(b.resetAt) {
		waitDuration = time.Until(b.resetAt)
	}
	limiter := b.limiter
	b.mu.Unlock()

	if waitDuration > 0 {
		l.logger.Warn("rate limit window exhausted, waiting",
			zap.String("endpoint", endpoint),
			zap.Duration("wait_duration", waitDuration),
		)

		timer := time.NewTimer(waitDuration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}

	return nil
}

// Update refreshes an endpoint's bucket from rate limit response headers.
func (l *Limiter) Update(endpoint string, headers http.Header) {
	b := l.getBucket(endpoint)

	b.mu.Lock()
	defer b.mu.Unlock()

	if v := headers.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			b.remaining = n
		}
	}

	if v := headers.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			b.limit = n
		}
	}

	if v := headers.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			b.resetAt = time.Unix(unix, 0)
		}
	}

	if b.limit > 0 {
		resetDuration := time.Until(b.resetAt)
		if resetDuration > 0 {
			perSecond := float64(b.limit) / resetDuration.Seconds()
			b.limiter = rate.NewLimiter(rate.Limit(perSecond), b.limit)
		}
	}
}

// Handle429 records a rate-limited response and returns how long to back
// off before retrying the endpoint.
func (l *Limiter) Handle429(endpoint string, headers http.Header) time.Duration {
	b := l.getBucket(endpoint)

	b.mu.Lock()
	defer b.mu.Unlock()

	var retryAfter time.Duration
	if v := headers.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}

	if retryAfter <= 0 {
		retryAfter = time.Second
	}

	b.remaining = 0
	b.resetAt = time.Now().Add(retryAfter)

	l.logger.Warn("rate limited by upstream API",
		zap.String("endpoint", endpoint),
		zap.Duration("retry_after", retryAfter),
	)

	return retryAfter
}

// Status returns the current window state for an endpoint.
func (l *Limiter) Status(endpoint string) (remaining, limit int, resetAt time.Time) {
	b := l.getBucket(endpoint)

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.remaining, b.limit, b.resetAt
}
