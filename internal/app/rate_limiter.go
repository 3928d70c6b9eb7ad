package app

import (
	"context"
	"math"
	"time"

	"opennotes-gateway/internal/domain"
)

// WindowStore tracks fixed-window request counters. Implementations own the
// window arithmetic so a shared store (e.g. Redis) can use native counters.
type WindowStore interface {
	// Incr bumps the counter for callerID within the current window, starting
	// a fresh window when the previous one has rolled over. It returns the
	// post-increment count and the moment the window resets.
	Incr(ctx context.Context, callerID string, window time.Duration) (int, time.Time, error)
}

// RateLimiter bounds per-caller request volume with a fixed (non-sliding)
// window. Fixed windows admit up to 2L requests across a window boundary;
// that is acceptable as an abuse deterrent but not for strict quotas. With
// the in-process store the effective limit is L per warm instance.
type RateLimiter struct {
	store        WindowStore
	window       time.Duration
	defaultLimit int
	clock        func() time.Time
}

func NewRateLimiter(store WindowStore, window time.Duration, defaultLimit int) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	return &RateLimiter{store: store, window: window, defaultLimit: defaultLimit, clock: time.Now}
}

// NewRateLimiterWithClock is test-only for deterministic retry hints.
func NewRateLimiterWithClock(store WindowStore, window time.Duration, defaultLimit int, clock func() time.Time) *RateLimiter {
	l := NewRateLimiter(store, window, defaultLimit)
	l.clock = clock
	return l
}

// Check records one request from callerID and decides whether it is allowed.
// A non-positive limit falls back to the configured default.
func (l *RateLimiter) Check(ctx context.Context, callerID string, limit int) (domain.RateDecision, error) {
	if limit <= 0 {
		limit = l.defaultLimit
	}
	count, resetAt, err := l.store.Incr(ctx, callerID, l.window)
	if err != nil {
		return domain.RateDecision{}, err
	}

	decision := domain.RateDecision{
		Allowed:   count <= limit,
		Remaining: max(0, limit-count),
		ResetAt:   resetAt,
	}
	if !decision.Allowed {
		decision.RetryAfter = int(math.Ceil(resetAt.Sub(l.clock()).Seconds()))
	}
	return decision, nil
}
