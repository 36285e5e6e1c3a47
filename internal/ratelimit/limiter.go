package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/thomas-vilte/svnreview/internal/logger"
)

const (
	DefaultMaxRequests   = 10
	DefaultWindow        = 60 * time.Second
	DefaultSweepInterval = 60 * time.Second
)

// Clock is the time source of a Limiter.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Options struct {
	MaxRequests   int
	Window        time.Duration
	SweepInterval time.Duration
	Clock         Clock
}

// Result is the outcome of a Check.
type Result struct {
	Allowed   bool
	ResetAt   time.Time
	Remaining int
}

type entry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	// dead is set by the sweeper once the entry is removed from the map; a Check that
	// loaded it before removal retries against a fresh entry.
	dead bool
}

// Limiter is a fixed window request counter keyed by client id.
type Limiter struct {
	maxRequests   int
	window        time.Duration
	sweepInterval time.Duration
	clock         Clock

	entries sync.Map

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options) *Limiter {
	l := &Limiter{
		maxRequests:   opts.MaxRequests,
		window:        opts.Window,
		sweepInterval: opts.SweepInterval,
		clock:         opts.Clock,
	}
	if l.maxRequests <= 0 {
		l.maxRequests = DefaultMaxRequests
	}
	if l.window <= 0 {
		l.window = DefaultWindow
	}
	if l.sweepInterval <= 0 {
		l.sweepInterval = DefaultSweepInterval
	}
	if l.clock == nil {
		l.clock = systemClock{}
	}
	return l
}

func (l *Limiter) MaxRequests() int { return l.maxRequests }

// Check counts one request for id. The first request after a window has elapsed opens
// a new window; requests beyond MaxRequests inside a window are refused and not counted.
func (l *Limiter) Check(id string) Result {
	for {
		v, _ := l.entries.LoadOrStore(id, &entry{})
		e := v.(*entry)

		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}

		now := l.clock.Now()
		if e.resetAt.IsZero() || !now.Before(e.resetAt) {
			e.count = 0
			e.resetAt = now.Add(l.window)
		}

		if e.count >= l.maxRequests {
			res := Result{Allowed: false, ResetAt: e.resetAt, Remaining: 0}
			e.mu.Unlock()
			return res
		}

		e.count++
		res := Result{Allowed: true, ResetAt: e.resetAt, Remaining: l.maxRequests - e.count}
		e.mu.Unlock()
		return res
	}
}

// Reset forgets the window of id.
func (l *Limiter) Reset(id string) {
	v, ok := l.entries.LoadAndDelete(id)
	if !ok {
		return
	}
	e := v.(*entry)
	e.mu.Lock()
	e.dead = true
	e.mu.Unlock()
}

// Sweep removes entries whose window has elapsed and returns how many were removed.
func (l *Limiter) Sweep() int {
	now := l.clock.Now()
	removed := 0

	l.entries.Range(func(key, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if !e.dead && !now.Before(e.resetAt) {
			e.dead = true
			l.entries.CompareAndDelete(key, v)
			removed++
		}
		e.mu.Unlock()
		return true
	})

	return removed
}

// Len returns the number of tracked ids.
func (l *Limiter) Len() int {
	n := 0
	l.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Start launches the periodic sweep. Calling Start on a running limiter is a no-op.
func (l *Limiter) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.sweepLoop(ctx, l.done)
}

// Stop halts the sweep and waits for it to exit. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Limiter) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				logger.Debug(ctx, "rate limit entries swept", "count", n)
			}
		}
	}
}
