package fetch

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int) (*RateLimiter, *fakeClock) {
	clock := newFakeClock()
	rl := NewRateLimiter(limit, RateWindow)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAdmitsUnderLimit(t *testing.T) {
	rl, _ := newTestLimiter(5)
	for i := 0; i < 5; i++ {
		if !rl.TryAdmit() {
			t.Fatalf("submission %d rejected under limit", i+1)
		}
	}
	if rl.Count() != 5 {
		t.Errorf("Count = %d, want 5", rl.Count())
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl, _ := newTestLimiter(3)
	for i := 0; i < 3; i++ {
		rl.TryAdmit()
	}
	if rl.TryAdmit() {
		t.Error("submission over limit admitted")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter(2)
	rl.TryAdmit()
	rl.TryAdmit()
	if rl.TryAdmit() {
		t.Fatal("third submission admitted inside window")
	}

	clock.advance(RateWindow)
	if !rl.TryAdmit() {
		t.Error("submission rejected after window elapsed")
	}
	if rl.Count() != 1 {
		t.Errorf("Count after reset = %d, want 1", rl.Count())
	}
}

func TestRateLimiterWindowNotYetElapsed(t *testing.T) {
	rl, clock := newTestLimiter(1)
	rl.TryAdmit()

	clock.advance(RateWindow - time.Second)
	if rl.TryAdmit() {
		t.Error("submission admitted before window elapsed")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl, _ := newTestLimiter(0)
	for i := 0; i < 1000; i++ {
		if !rl.TryAdmit() {
			t.Fatal("disabled limiter rejected a submission")
		}
	}
}

func TestRateLimiterSetLimit(t *testing.T) {
	rl, _ := newTestLimiter(10)
	for i := 0; i < 5; i++ {
		rl.TryAdmit()
	}

	// Lowering below the current count takes effect immediately.
	rl.SetLimit(5)
	if rl.TryAdmit() {
		t.Error("submission admitted after limit lowered below count")
	}
	if rl.Limit() != 5 {
		t.Errorf("Limit = %d, want 5", rl.Limit())
	}
}
