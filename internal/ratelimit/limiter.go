// Package ratelimit provides per-source request pacing and the retry/backoff
// policy shared by all fetch workers. The limiter is owned by the download
// coordinator; workers never construct their own.
package ratelimit

import (
	"context"
	"time"
)

// Limiter gates requests to one remote host.
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done.
	Wait(ctx context.Context) error
	// Allow reports whether a request may proceed immediately.
	Allow() bool
	// Reserve returns how long a caller would have to wait right now.
	Reserve() time.Duration
	// Reset returns the limiter to its initial state.
	Reset()
}

// Strategy selects the pacing algorithm for a source.
type Strategy string

const (
	// StrategyTokenBucket allows bursts up to a bucket size refilled at a
	// steady rate. The default.
	StrategyTokenBucket Strategy = "token_bucket"
	// StrategyFixedWindow caps requests per one-second window.
	StrategyFixedWindow Strategy = "fixed_window"
	// StrategyFixedDelay enforces a minimum spacing between consecutive
	// requests, the politeness mode for small upstream servers.
	StrategyFixedDelay Strategy = "fixed_delay"
)

// NewLimiter builds the limiter described by cfg.
func NewLimiter(cfg Config) Limiter {
	cfg = applyDefaults(cfg)
	switch cfg.Strategy {
	case StrategyFixedWindow:
		return newFixedWindow(cfg)
	case StrategyFixedDelay:
		return newFixedDelay(cfg)
	default:
		return newTokenBucket(cfg)
	}
}

// Unlimited is a no-op limiter for sources without a configured rate limit.
type Unlimited struct{}

func (Unlimited) Wait(context.Context) error { return nil }
func (Unlimited) Allow() bool                { return true }
func (Unlimited) Reserve() time.Duration     { return 0 }
func (Unlimited) Reset()                     {}
