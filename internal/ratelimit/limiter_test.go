package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestNew_Defaults(t *testing.T) {
	l := New(Options{})

	assert.Equal(t, DefaultMaxRequests, l.maxRequests)
	assert.Equal(t, DefaultWindow, l.window)
	assert.Equal(t, DefaultSweepInterval, l.sweepInterval)
	assert.NotNil(t, l.clock)
}

func TestLimiter_Check(t *testing.T) {
	t.Run("allows up to max then blocks", func(t *testing.T) {
		clock := newFakeClock()
		l := New(Options{MaxRequests: 3, Window: time.Minute, Clock: clock})
		start := clock.Now()

		for i := 0; i < 3; i++ {
			res := l.Check("10.0.0.1")
			require.True(t, res.Allowed, "request %d", i+1)
			assert.Equal(t, 2-i, res.Remaining)
			assert.Equal(t, start.Add(time.Minute), res.ResetAt)
		}

		res := l.Check("10.0.0.1")
		assert.False(t, res.Allowed)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, start.Add(time.Minute), res.ResetAt)
	})

	t.Run("window resets exactly at resetAt", func(t *testing.T) {
		clock := newFakeClock()
		l := New(Options{MaxRequests: 1, Window: time.Minute, Clock: clock})

		require.True(t, l.Check("a").Allowed)
		clock.Advance(time.Minute - time.Millisecond)
		assert.False(t, l.Check("a").Allowed)

		clock.Advance(time.Millisecond)
		res := l.Check("a")
		assert.True(t, res.Allowed)
		assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
	})

	t.Run("ids are independent", func(t *testing.T) {
		clock := newFakeClock()
		l := New(Options{MaxRequests: 1, Window: time.Minute, Clock: clock})

		assert.True(t, l.Check("a").Allowed)
		assert.False(t, l.Check("a").Allowed)
		assert.True(t, l.Check("b").Allowed)
	})

	t.Run("refused requests do not extend the window", func(t *testing.T) {
		clock := newFakeClock()
		l := New(Options{MaxRequests: 1, Window: time.Minute, Clock: clock})

		first := l.Check("a")
		for i := 0; i < 5; i++ {
			clock.Advance(10 * time.Second)
			assert.Equal(t, first.ResetAt, l.Check("a").ResetAt)
		}
	})
}

func TestLimiter_Reset(t *testing.T) {
	clock := newFakeClock()
	l := New(Options{MaxRequests: 1, Window: time.Minute, Clock: clock})

	require.True(t, l.Check("a").Allowed)
	require.False(t, l.Check("a").Allowed)

	l.Reset("a")
	l.Reset("unknown")

	assert.True(t, l.Check("a").Allowed)
}

func TestLimiter_Sweep(t *testing.T) {
	clock := newFakeClock()
	l := New(Options{MaxRequests: 5, Window: time.Minute, Clock: clock})

	l.Check("old")
	clock.Advance(30 * time.Second)
	l.Check("new")
	require.Equal(t, 2, l.Len())

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())

	res := l.Check("new")
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Remaining)
}

func TestLimiter_ConcurrentChecks(t *testing.T) {
	clock := newFakeClock()
	l := New(Options{MaxRequests: 50, Window: time.Minute, Clock: clock})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestLimiter_ConcurrentSweepAndCheck(t *testing.T) {
	clock := newFakeClock()
	l := New(Options{MaxRequests: 1000, Window: time.Second, Clock: clock})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				l.Check("x")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				clock.Advance(100 * time.Millisecond)
				l.Sweep()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, l.Len(), 1)
}

func TestLimiter_StartStop(t *testing.T) {
	clock := newFakeClock()
	l := New(Options{MaxRequests: 1, Window: time.Minute, SweepInterval: 5 * time.Millisecond, Clock: clock})

	l.Check("a")
	clock.Advance(time.Minute)

	l.Start(context.Background())
	l.Start(context.Background())

	require.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)

	l.Stop()
	l.Stop()

	l.Check("b")
	clock.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := New(Options{SweepInterval: time.Hour})

	l.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
