// Package ratelimit tracks the process-wide request budget of the remote
// hosting API. One Tracker is shared by every component that talks to the
// remote so that backoff decisions are made against the same budget.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxWait caps a single wait for the budget to reset.
const DefaultMaxWait = 2 * time.Minute

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithMaxWait overrides DefaultMaxWait.
func WithMaxWait(d time.Duration) Option {
	return func(t *Tracker) { t.maxWait = d }
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	known     bool
	remaining int
	reset     time.Time
	limited   int

	maxWait time.Duration
	now     func() time.Time
}

// NewTracker creates a tracker with an unknown budget.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{maxWait: DefaultMaxWait, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Observe records the budget reported by a response.
func (t *Tracker) Observe(remaining int, reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.known = true
	t.remaining = remaining
	t.reset = reset
}

// Exhaust marks the budget as spent until reset. A zero reset time leaves the
// previous reset untouched.
func (t *Tracker) Exhaust(reset time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.known = true
	t.remaining = 0
	t.limited++

	if !reset.IsZero() {
		t.reset = reset
	}
}

// Limited returns how many rate-limit responses were observed.
func (t *Tracker) Limited() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.limited
}

// Remaining returns the last observed budget and whether it is known.
func (t *Tracker) Remaining() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining, t.known
}

// Delay returns how long callers should hold off before the next request.
func (t *Tracker) Delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.known || t.remaining > 0 || t.reset.IsZero() {
		return 0
	}

	d := t.reset.Sub(t.now())
	if d <= 0 {
		return 0
	}

	return min(d, t.maxWait)
}

// Wait blocks until the budget is expected to be available or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	d := t.Delay()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
