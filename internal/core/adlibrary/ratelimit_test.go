package adlibrary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter deterministically: sleeps advance the clock
// instead of blocking.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)

	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestLimiter(maxRequests int, clock *fakeClock) *HourlyLimiter {
	l := NewHourlyLimiter(maxRequests)
	l.now = clock.Now
	l.sleep = clock.Sleep

	return l
}

func TestAdmitBelowWindowDoesNotBlock(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(3, clock)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Admit(context.Background()))
	}

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 3, limiter.Pending())
}

func TestAdmitBlocksUntilOldestStampExpires(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(3, clock)

	require.NoError(t, limiter.Admit(context.Background()))

	clock.Advance(10 * time.Minute)

	require.NoError(t, limiter.Admit(context.Background()))
	require.NoError(t, limiter.Admit(context.Background()))

	// Window is saturated: the 4th call must wait exactly until the first
	// stamp leaves the trailing hour.
	require.NoError(t, limiter.Admit(context.Background()))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 50*time.Minute, clock.sleeps[0])
	assert.Equal(t, 3, limiter.Pending())
}

func TestAdmitReChecksAfterWaking(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(2, clock)

	require.NoError(t, limiter.Admit(context.Background()))

	clock.Advance(30 * time.Minute)

	require.NoError(t, limiter.Admit(context.Background()))

	// Each wake frees exactly one slot; two saturated calls must each wait
	// for their own stamp to expire rather than assume one wait suffices.
	require.NoError(t, limiter.Admit(context.Background()))
	require.NoError(t, limiter.Admit(context.Background()))

	require.Len(t, clock.sleeps, 2)
	assert.Equal(t, 30*time.Minute, clock.sleeps[0])
	assert.Equal(t, 30*time.Minute, clock.sleeps[1])
}

func TestAdmitEvictsExpiredStamps(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(2, clock)

	require.NoError(t, limiter.Admit(context.Background()))
	require.NoError(t, limiter.Admit(context.Background()))

	clock.Advance(hourWindow)

	require.NoError(t, limiter.Admit(context.Background()))

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 1, limiter.Pending())
}

func TestAdmitHonorsContextCancellation(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(1, clock)
	limiter.sleep = sleepContext

	require.NoError(t, limiter.Admit(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := limiter.Admit(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
