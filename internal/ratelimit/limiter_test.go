package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketBurstAndRefill(t *testing.T) {
	tb := NewLimiter(Config{Strategy: StrategyTokenBucket, RequestsPerSec: 5, Burst: 5})

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Fatalf("expected token %d to be available", i)
		}
	}
	if tb.Allow() {
		t.Fatalf("expected bucket to be drained")
	}

	time.Sleep(250 * time.Millisecond)
	if !tb.Allow() {
		t.Fatalf("expected token after partial refill")
	}
}

func TestTokenBucketWaitRespectsContext(t *testing.T) {
	tb := NewLimiter(Config{Strategy: StrategyTokenBucket, RequestsPerSec: 0.5, Burst: 1})
	if !tb.Allow() {
		t.Fatalf("expected initial token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestFixedDelaySpacing(t *testing.T) {
	fd := NewLimiter(Config{Strategy: StrategyFixedDelay, FixedDelay: 50 * time.Millisecond})

	if !fd.Allow() {
		t.Fatalf("expected first request to pass")
	}
	if fd.Allow() {
		t.Fatalf("expected second request to be spaced out")
	}
	if wait := fd.Reserve(); wait <= 0 || wait > 50*time.Millisecond {
		t.Fatalf("unexpected reserve %v", wait)
	}

	fd.Reset()
	if !fd.Allow() {
		t.Fatalf("expected allow after reset")
	}
}

func TestFixedWindowCap(t *testing.T) {
	fw := NewLimiter(Config{Strategy: StrategyFixedWindow, RequestsPerSec: 2})
	if !fw.Allow() || !fw.Allow() {
		t.Fatalf("expected two requests within the window")
	}
	if fw.Allow() {
		t.Fatalf("expected third request to be capped")
	}
}

func TestRetryPolicyBackoffBounds(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, InitialBackoff: time.Second, MaxBackoff: 10 * time.Second, Multiplier: 2}

	for attempt := 1; attempt <= 5; attempt++ {
		d := p.Backoff(attempt)
		if d <= 0 {
			t.Fatalf("attempt %d: backoff should be positive, got %v", attempt, d)
		}
		if d > p.MaxBackoff {
			t.Fatalf("attempt %d: backoff %v exceeds cap", attempt, d)
		}
	}
	if p.Backoff(0) != 0 {
		t.Fatalf("attempt 0 should not sleep")
	}
	if !p.ShouldRetry(5) || p.ShouldRetry(6) {
		t.Fatalf("unexpected retry budget")
	}
}

func TestLoadSourceConfigs(t *testing.T) {
	data := []byte(`rate_limits:
  HRDPS:
    strategy: fixed_delay
    fixed_delay: 200ms
    max_retries: 4
`)
	cfgs, err := LoadSourceConfigs(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hrdps := cfgs.Get("HRDPS")
	if hrdps.Strategy != StrategyFixedDelay {
		t.Fatalf("expected fixed_delay, got %s", hrdps.Strategy)
	}
	if hrdps.FixedDelay != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", hrdps.FixedDelay)
	}
	if hrdps.MaxRetries != 4 {
		t.Fatalf("expected max_retries 4, got %d", hrdps.MaxRetries)
	}
	// defaults filled for fields the entry omits
	if hrdps.BackoffMultiplier != 2.0 {
		t.Fatalf("expected default multiplier, got %v", hrdps.BackoffMultiplier)
	}

	// unknown source falls back to defaults
	def := cfgs.Get("NO_SUCH")
	if def.Strategy != StrategyTokenBucket {
		t.Fatalf("expected default strategy, got %s", def.Strategy)
	}
}
