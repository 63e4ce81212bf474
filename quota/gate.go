package quota

import (
	"sync"
	"time"
)

// Result contains the outcome of an admission check.
type Result struct {
	// Allowed indicates whether the operation was admitted.
	Allowed bool

	// Limit is the maximum number of units allowed in the window.
	Limit int

	// Remaining is the number of units left in the current window.
	Remaining int

	// ResetAt is the time when the current window elapses.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before an admission can succeed again.
// Returns 0 if the operation was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Gate enforces a fixed-window budget of operation units. It is either open
// (within budget) or throttled (budget exhausted for the current window);
// the transition back to open happens lazily on the next Admit call after
// the window elapses, so no background timer is required.
//
// The zero value is not usable; construct gates with New. A Gate is safe for
// concurrent use.
type Gate struct {
	mu sync.Mutex

	limit  int
	window time.Duration

	windowStart time.Time
	consumed    int

	// penaltyUntil extends throttling past budget accounting when the
	// cluster itself has signalled back-pressure (HTTP 429).
	penaltyUntil time.Time

	now func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the gate's time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a gate allowing limit units per window.
func New(limit int, window time.Duration, opts ...Option) (*Gate, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}

	g := &Gate{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.windowStart = g.now()

	return g, nil
}

// Admit checks whether an operation costing cost units fits in the current
// window and consumes the units if it does. Rejections are reported in the
// Result rather than blocking; callers decide whether to wait and retry.
// A non-positive cost is treated as 1.
func (g *Gate) Admit(cost int) *Result {
	if cost <= 0 {
		cost = 1
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.rollWindow(now)

	if now.Before(g.penaltyUntil) {
		return &Result{
			Allowed:   false,
			Limit:     g.limit,
			Remaining: max(0, g.limit-g.consumed),
			ResetAt:   g.penaltyUntil,
		}
	}

	if g.consumed+cost > g.limit {
		return &Result{
			Allowed:   false,
			Limit:     g.limit,
			Remaining: max(0, g.limit-g.consumed),
			ResetAt:   g.windowStart.Add(g.window),
		}
	}

	g.consumed += cost
	return &Result{
		Allowed:   true,
		Limit:     g.limit,
		Remaining: g.limit - g.consumed,
		ResetAt:   g.windowStart.Add(g.window),
	}
}

// Status reports the current window state without consuming any units.
func (g *Gate) Status() *Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.rollWindow(now)

	resetAt := g.windowStart.Add(g.window)
	if g.penaltyUntil.After(resetAt) {
		resetAt = g.penaltyUntil
	}

	return &Result{
		Allowed:   !now.Before(g.penaltyUntil) && g.consumed < g.limit,
		Limit:     g.limit,
		Remaining: max(0, g.limit-g.consumed),
		ResetAt:   resetAt,
	}
}

// Penalize throttles all admissions for the given duration, regardless of
// remaining budget. Used when the cluster answers with a rate-limit status
// so that local admission backs off together with the server.
func (g *Gate) Penalize(d time.Duration) {
	if d <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	until := g.now().Add(d)
	if until.After(g.penaltyUntil) {
		g.penaltyUntil = until
	}
}

// Reset clears consumed units and any penalty, starting a fresh window.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.windowStart = g.now()
	g.consumed = 0
	g.penaltyUntil = time.Time{}
}

// rollWindow starts a fresh window when the current one has elapsed.
// Callers must hold g.mu.
func (g *Gate) rollWindow(now time.Time) {
	if now.Sub(g.windowStart) >= g.window {
		g.windowStart = now
		g.consumed = 0
	}
}
