package ratelimit

import (
	"context"
	"sync"
	"time"
)

// fixedDelay keeps a minimum spacing between consecutive requests to one
// host, regardless of how many workers are fetching from it.
type fixedDelay struct {
	mu    sync.Mutex
	delay time.Duration
	next  time.Time
}

func newFixedDelay(cfg Config) *fixedDelay {
	return &fixedDelay{delay: cfg.FixedDelay}
}

func (fd *fixedDelay) Wait(ctx context.Context) error {
	fd.mu.Lock()
	now := time.Now()
	wait := fd.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	// Claim the slot before sleeping so concurrent callers queue up behind
	// each other instead of all waking at once.
	fd.next = now.Add(wait + fd.delay)
	fd.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (fd *fixedDelay) Allow() bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	now := time.Now()
	if now.Before(fd.next) {
		return false
	}
	fd.next = now.Add(fd.delay)
	return true
}

func (fd *fixedDelay) Reserve() time.Duration {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	wait := time.Until(fd.next)
	if wait < 0 {
		return 0
	}
	return wait
}

func (fd *fixedDelay) Reset() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.next = time.Time{}
}
