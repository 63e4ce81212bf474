package quota

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		limit       int
		window      time.Duration
		expectError error
	}{
		{name: "zero limit", limit: 0, window: time.Minute, expectError: ErrInvalidLimit},
		{name: "negative limit", limit: -5, window: time.Minute, expectError: ErrInvalidLimit},
		{name: "zero window", limit: 10, window: 0, expectError: ErrInvalidWindow},
		{name: "negative window", limit: 10, window: -time.Second, expectError: ErrInvalidWindow},
		{name: "valid", limit: 10, window: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, err := New(tt.limit, tt.window)
			if tt.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, g)
		})
	}
}

func TestGate_AdmitExhaustsBudget(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(3, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res := g.Admit(1)
		assert.True(t, res.Allowed, "admission %d should be allowed", i)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := g.Admit(1)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
}

func TestGate_WindowElapses(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(2, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	assert.True(t, g.Admit(2).Allowed)
	assert.False(t, g.Admit(1).Allowed)

	clock.Advance(time.Minute)

	res := g.Admit(1)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestGate_CostLargerThanRemaining(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(10, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	assert.True(t, g.Admit(7).Allowed)

	// 4 units no longer fit, but 3 do.
	assert.False(t, g.Admit(4).Allowed)
	assert.True(t, g.Admit(3).Allowed)
	assert.False(t, g.Admit(1).Allowed)
}

func TestGate_NonPositiveCost(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(2, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	res := g.Admit(0)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res = g.Admit(-3)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestGate_Penalize(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(100, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	assert.True(t, g.Admit(1).Allowed)

	g.Penalize(30 * time.Second)

	res := g.Admit(1)
	assert.False(t, res.Allowed)
	assert.Equal(t, clock.Now().Add(30*time.Second), res.ResetAt)

	clock.Advance(31 * time.Second)
	assert.True(t, g.Admit(1).Allowed)
}

func TestGate_PenalizeKeepsLongestDeadline(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(100, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	g.Penalize(time.Minute)
	g.Penalize(time.Second)

	res := g.Admit(1)
	assert.False(t, res.Allowed)
	assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
}

func TestGate_Status(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(5, time.Minute, WithClock(clock.Now))
	require.NoError(t, err)

	st := g.Status()
	assert.True(t, st.Allowed)
	assert.Equal(t, 5, st.Remaining)

	g.Admit(5)

	st = g.Status()
	assert.False(t, st.Allowed)
	assert.Equal(t, 0, st.Remaining)

	// Status never consumes units.
	st = g.Status()
	assert.Equal(t, 0, st.Remaining)
}

func TestGate_Reset(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	g, err := New(1, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	assert.True(t, g.Admit(1).Allowed)
	assert.False(t, g.Admit(1).Allowed)

	g.Reset()

	assert.True(t, g.Admit(1).Allowed)
}

func TestGate_ConcurrentAdmit(t *testing.T) {
	t.Parallel()

	const (
		limit   = 500
		workers = 50
		perG    = 20
	)

	g, err := New(limit, time.Hour)
	require.NoError(t, err)

	var allowed int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				if g.Admit(1).Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	// workers*perG == 1000 attempts against a budget of 500.
	assert.Equal(t, int64(limit), allowed)
	assert.Equal(t, 0, g.Status().Remaining)
}

func TestResult_RetryAfter(t *testing.T) {
	t.Parallel()

	allowed := &Result{Allowed: true, ResetAt: time.Now().Add(time.Minute)}
	assert.Equal(t, time.Duration(0), allowed.RetryAfter())

	rejected := &Result{Allowed: false, ResetAt: time.Now().Add(time.Minute)}
	assert.Greater(t, rejected.RetryAfter(), 50*time.Second)
}
