package fetch

import "time"

// Rate limiting defaults.
const (
	// RateWindow is the trailing window over which submissions are counted.
	RateWindow = 60 * time.Second

	// DefaultRateLimit is the default number of submissions admitted per
	// window. Generous enough that interactive scripting is never
	// throttled; the exact threshold is configurable.
	DefaultRateLimit = 60
)

// RateLimiter counts submission attempts in a trailing time window. It
// governs attempts, not open connections - that is the Governor's job.
//
// The limiter is mutated only from the thread that calls Submit, so it
// carries no lock.
type RateLimiter struct {
	limit  int
	window time.Duration

	windowStart time.Time
	count       int

	now func() time.Time
}

// NewRateLimiter creates a limiter admitting at most limit submissions per
// window. A limit <= 0 disables rate limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = RateWindow
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// TryAdmit records one submission attempt. The window resets before the
// count is evaluated, so the first attempt of a fresh window always admits.
func (rl *RateLimiter) TryAdmit() bool {
	if rl.limit <= 0 {
		return true
	}
	now := rl.now()
	if rl.windowStart.IsZero() || now.Sub(rl.windowStart) >= rl.window {
		rl.windowStart = now
		rl.count = 0
	}
	if rl.count < rl.limit {
		rl.count++
		return true
	}
	return false
}

// SetLimit changes the per-window limit. The current window's count is
// kept, so lowering the limit takes effect immediately.
func (rl *RateLimiter) SetLimit(limit int) {
	rl.limit = limit
}

// Limit returns the configured per-window limit.
func (rl *RateLimiter) Limit() int { return rl.limit }

// Count returns the number of admissions in the current window.
func (rl *RateLimiter) Count() int { return rl.count }
