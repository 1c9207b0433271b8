package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		key      string
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			key:      "192.168.1.20",
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			key:      "192.168.1.20",
			calls:    5,
			wantPass: 2,
		},
		{
			name:     "single call within burst",
			rps:      1,
			burst:    1,
			key:      "192.168.1.21",
			calls:    1,
			wantPass: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for i := 0; i < tt.calls; i++ {
				if rl.Allow(tt.key) {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_Wait(t *testing.T) {
	rl := New(10, 1) // 10 rps, burst of 1
	defer rl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// First call should succeed immediately.
	start := time.Now()
	err := rl.Wait(ctx, "ses-abc")
	if err != nil {
		t.Errorf("first Wait() failed: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("first Wait() should be immediate")
	}

	// Second call should wait ~100ms (1/10 rps).
	start = time.Now()
	err = rl.Wait(ctx, "ses-abc")
	if err != nil {
		t.Errorf("second Wait() failed: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 80*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Errorf("second Wait() took %v, want ~100ms", elapsed)
	}
}

func TestKeyedRateLimiter_WaitContextCancelled(t *testing.T) {
	rl := New(0.1, 1) // 1 request per 10 seconds
	defer rl.Stop()

	// Exhaust the burst.
	rl.Allow("192.168.1.20")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx, "192.168.1.20")
	if err == nil {
		t.Error("Wait() should fail when context canceled")
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	// Exhaust one client's bucket.
	rl.Allow("192.168.1.20")
	if rl.Allow("192.168.1.20") {
		t.Error("first key should be exhausted")
	}

	// Another client is unaffected.
	if !rl.Allow("192.168.1.21") {
		t.Error("second key should be independent and allowed")
	}
}

func TestPerMinute(t *testing.T) {
	rl := PerMinute(6, 2) // 6 per minute, burst of 2
	defer rl.Stop()

	if !rl.Allow("ses-abc") || !rl.Allow("ses-abc") {
		t.Error("burst of 2 should admit two immediate requests")
	}
	if rl.Allow("ses-abc") {
		t.Error("third immediate request should be rejected")
	}
}

func TestKeyedRateLimiter_IdleSweep(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("192.168.1.20")
	rl.Allow("192.168.1.21")
	if got := rl.KeyCount(); got != 2 {
		t.Fatalf("KeyCount() = %d, want 2", got)
	}

	// Only buckets past the idle TTL are dropped.
	rl.removeIdle(time.Now())
	if got := rl.KeyCount(); got != 2 {
		t.Errorf("KeyCount() after sweep of fresh keys = %d, want 2", got)
	}

	rl.removeIdle(time.Now().Add(idleTTL + time.Minute))
	if got := rl.KeyCount(); got != 0 {
		t.Errorf("KeyCount() after sweep of stale keys = %d, want 0", got)
	}
}
