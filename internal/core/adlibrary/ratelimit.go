package adlibrary

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const hourWindow = 3600 * time.Second

// HourlyLimiter admits at most max requests within a trailing one-hour
// window. It is the single limiter shared by all concurrent fetchers, so
// Admit is safe for concurrent callers.
//
// The window is tracked as an ordered slice of admission timestamps using
// the monotonic clock. When the window is saturated, Admit computes the
// exact wait until the oldest stamp ages out, sleeps, and re-evaluates
// rather than assuming a single wait suffices.
type HourlyLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHourlyLimiter creates a limiter admitting maxRequests per trailing hour.
func NewHourlyLimiter(maxRequests int) *HourlyLimiter {
	return &HourlyLimiter{
		max:    maxRequests,
		window: hourWindow,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Admit blocks until one more request fits in the trailing window, then
// records the admission. It returns early only when ctx is canceled.
func (l *HourlyLimiter) Admit(ctx context.Context) error {
	for {
		l.mu.Lock()

		now := l.now()
		l.evict(now)

		if len(l.stamps) < l.max {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()

			return nil
		}

		wait := l.window - now.Sub(l.stamps[0])
		l.mu.Unlock()

		RateLimitWaitSeconds.Observe(wait.Seconds())

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Pending reports how many admissions currently occupy the window.
func (l *HourlyLimiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evict(l.now())

	return len(l.stamps)
}

// evict drops stamps older than the window. Caller holds the mutex.
func (l *HourlyLimiter) evict(now time.Time) {
	cut := 0
	for cut < len(l.stamps) && now.Sub(l.stamps[cut]) >= l.window {
		cut++
	}

	if cut > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[cut:]...)
	}
}

// sleepContext blocks for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait interrupted: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
