// Package ratelimit implements a fixed-window limiter: at most burst
// operations per window, stale consumption timestamps purged lazily.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type Limiter struct {
	window time.Duration
	burst  int

	mu    sync.Mutex
	taken []time.Time
	now   func() time.Time // test hook
}

func New(burst int, window time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		window: window,
		burst:  burst,
		now:    time.Now,
	}
}

// TryConsume records one operation iff the window has quota left.
// Non-blocking.
func (l *Limiter) TryConsume() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tryLocked(l.now())
}

// WaitConsume blocks until a slot frees or the timeout (or ctx) expires. The
// wait is cooperative: it sleeps until the oldest in-window consumption ages
// out, it never spins.
func (l *Limiter) WaitConsume(ctx context.Context, timeout time.Duration) bool {
	deadline := l.now().Add(timeout)
	for {
		l.mu.Lock()
		now := l.now()
		if l.tryLocked(now) {
			l.mu.Unlock()
			return true
		}
		// oldest entry decides when the next slot opens
		wakeAt := l.taken[0].Add(l.window)
		l.mu.Unlock()

		if wakeAt.After(deadline) {
			return false
		}

		timer := time.NewTimer(wakeAt.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

func (l *Limiter) tryLocked(now time.Time) bool {
	cutoff := now.Add(-l.window)
	kept := l.taken[:0]
	for _, ts := range l.taken {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.taken = kept

	if len(l.taken) >= l.burst {
		return false
	}
	l.taken = append(l.taken, now)
	return true
}
