package ratelimit

import (
	"context"
	"sync"
	"time"
)

// fixedWindow caps the number of requests per one-second window.
type fixedWindow struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
}

func newFixedWindow(cfg Config) *fixedWindow {
	return &fixedWindow{
		limit:       int(cfg.RequestsPerSec),
		window:      time.Second,
		windowStart: time.Now(),
	}
}

func (fw *fixedWindow) Wait(ctx context.Context) error {
	for {
		if fw.Allow() {
			return nil
		}
		wait := fw.Reserve()
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (fw *fixedWindow) Allow() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.roll()
	if fw.count < fw.limit {
		fw.count++
		return true
	}
	return false
}

func (fw *fixedWindow) Reserve() time.Duration {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.roll()
	if fw.count < fw.limit {
		return 0
	}
	return fw.window - time.Since(fw.windowStart)
}

func (fw *fixedWindow) Reset() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.count = 0
	fw.windowStart = time.Now()
}

// roll must be called with the lock held.
func (fw *fixedWindow) roll() {
	now := time.Now()
	if now.Sub(fw.windowStart) >= fw.window {
		fw.count = 0
		fw.windowStart = now
	}
}
