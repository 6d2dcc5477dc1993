package gateway

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitedError tells the caller how long to wait before retrying.
// The wait must be surfaced to the operator, not silently slept.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("model gateway rate limited, retry in %dms", e.Wait.Milliseconds())
}

// RateLimiter is a sliding-window call counter. One limiter is shared
// by every gateway call site in a session so no feature can starve the
// others. Safe for concurrent use; Reserve is the atomic check-and-take
// the call path relies on.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	calls  []time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{window: window, max: max}
}

// Check reports whether a call is allowed now and, when it is not, how
// long until the oldest call leaves the window. It takes no slot; use
// Reserve on the call path so racing callers cannot both pass at the
// limit.
func (r *RateLimiter) Check(now time.Time) (allowed bool, wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.check(now)
}

// Reserve takes a call slot if one is free, in a single atomic step.
func (r *RateLimiter) Reserve(now time.Time) (allowed bool, wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed, wait = r.check(now)
	if allowed {
		r.calls = append(r.calls, now)
	}
	return allowed, wait
}

func (r *RateLimiter) check(now time.Time) (allowed bool, wait time.Duration) {
	r.prune(now)
	if len(r.calls) < r.max {
		return true, 0
	}
	wait = r.calls[0].Add(r.window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return false, wait
}

func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.calls) && !r.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.calls = append(r.calls[:0], r.calls[i:]...)
	}
}
