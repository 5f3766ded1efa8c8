package ratelimit

import (
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy is the single retry/backoff policy applied to every fetch
// attempt of a run. Centralizing it here keeps the per-call sites free of
// ad hoc sleep arithmetic.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// PolicyFromConfig builds the retry policy embedded in a source's rate-limit
// settings.
func PolicyFromConfig(cfg Config) RetryPolicy {
	cfg = applyDefaults(cfg)
	return RetryPolicy{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
	}
}

// ShouldRetry reports whether another attempt is allowed after attempt
// failures (attempt counts from 1).
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt <= p.MaxRetries
}

// Backoff returns the sleep before retry number attempt, growing
// exponentially from InitialBackoff and capped at MaxBackoff, with ±25%
// jitter so parallel workers do not retry in lockstep.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	base := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if base > float64(p.MaxBackoff) {
		base = float64(p.MaxBackoff)
	}

	d := base + base*0.25*(2*rand.Float64()-1)
	if d < 0 {
		d = 0
	}
	if d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	return time.Duration(d)
}
