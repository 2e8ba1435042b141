package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// stepClock fires every After immediately and records the requested waits.
type stepClock struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *stepClock) elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, w := range c.waits {
		total += w
	}
	return total
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countingCondition(trueAfter int) (Condition, *int) {
	checks := 0
	return Condition{
		Description: "counter reaches threshold",
		Check: func(context.Context) (bool, error) {
			checks++
			return checks > trueAfter, nil
		},
	}, &checks
}

func TestNewRejectsInvalidBudget(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		maxWait  time.Duration
	}{
		{name: "zero interval", interval: 0, maxWait: time.Second},
		{name: "negative interval", interval: -time.Second, maxWait: time.Second},
		{name: "max wait equal to interval", interval: time.Second, maxWait: time.Second},
		{name: "max wait below interval", interval: 2 * time.Second, maxWait: time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.interval, tt.maxWait)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, failure.Is(err, failure.CodeValidation))
		})
	}
}

func TestAttempts(t *testing.T) {
	p, err := New(time.Second, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint(31), p.Attempts())

	p, err = New(3*time.Second, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint(5), p.Attempts())
}

func TestUntilDoesNotGiveUpBeforeMaxWait(t *testing.T) {
	clock := &stepClock{}
	p, err := New(100*time.Millisecond, 250*time.Millisecond, WithClock(clock), WithLogger(quietLogger()))
	require.NoError(t, err)

	cond, checks := countingCondition(1 << 30)
	err = p.Check(context.Background(), cond)
	require.True(t, failure.Is(err, failure.CodeTimeoutExceeded), "got %v", err)
	assert.Equal(t, 4, *checks)
	assert.Equal(t, 300*time.Millisecond, clock.elapsed())
}

func TestUntilChecksOncePerPollPlusOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		intervalMs := rapid.IntRange(1, 500).Draw(t, "interval_ms")
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		interval := time.Duration(intervalMs) * time.Millisecond
		maxWait := time.Duration(steps)*interval + time.Duration(rapid.IntRange(0, intervalMs-1).Draw(t, "slack_ms"))*time.Millisecond

		clock := &stepClock{}
		p, err := New(interval, maxWait, WithClock(clock), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		k := rapid.IntRange(0, steps).Draw(t, "k")
		cond, checks := countingCondition(k)

		if err := p.Check(context.Background(), cond); err != nil {
			t.Fatalf("poll failed after %d checks: %v", *checks, err)
		}
		if *checks != k+1 {
			t.Fatalf("checks = %d, want %d", *checks, k+1)
		}
		if len(clock.waits) != k {
			t.Fatalf("waits = %d, want %d", len(clock.waits), k)
		}
	})
}

func TestUntilNeverTrueExhaustsFullBudget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		intervalMs := rapid.IntRange(1, 500).Draw(t, "interval_ms")
		maxWaitMs := rapid.IntRange(intervalMs+1, intervalMs*50).Draw(t, "max_wait_ms")
		interval := time.Duration(intervalMs) * time.Millisecond
		maxWait := time.Duration(maxWaitMs) * time.Millisecond

		clock := &stepClock{}
		p, err := New(interval, maxWait, WithClock(clock), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		cond, checks := countingCondition(1 << 30)

		err = p.Check(context.Background(), cond)
		if !failure.Is(err, failure.CodeTimeoutExceeded) {
			t.Fatalf("expected timeout, got %v", err)
		}
		if clock.elapsed() < maxWait {
			t.Fatalf("gave up after %s, before max wait %s", clock.elapsed(), maxWait)
		}
		if clock.elapsed() >= maxWait+interval {
			t.Fatalf("elapsed %s overran max wait %s by a full interval %s", clock.elapsed(), maxWait, interval)
		}
		if uint(*checks) != p.Attempts() {
			t.Fatalf("checks = %d, want %d", *checks, p.Attempts())
		}
	})
}

func TestUntilWithFakeClockWaitsFullIntervals(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p, err := New(time.Second, 3*time.Second, WithClock(fc), WithLogger(quietLogger()))
	require.NoError(t, err)

	cond, checks := countingCondition(100)
	done := make(chan error, 1)
	go func() { done <- p.Check(context.Background(), cond) }()

	for i := 0; i < 3; i++ {
		fc.BlockUntil(1)
		select {
		case err := <-done:
			t.Fatalf("poll returned early after %d advances: %v", i, err)
		default:
		}
		fc.Advance(time.Second)
	}

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.CodeTimeoutExceeded))
		assert.Contains(t, err.Error(), "counter reaches threshold")
		assert.Equal(t, 4, *checks)
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not finish after budget elapsed")
	}
}

func TestUntilInvokesActionBeforeEveryCheck(t *testing.T) {
	p, err := New(time.Millisecond, 10*time.Millisecond, WithClock(&stepClock{}), WithLogger(quietLogger()))
	require.NoError(t, err)

	var order []string
	action := func(context.Context) error {
		order = append(order, "refresh")
		return nil
	}
	cond := Condition{
		Description: "element exists",
		Check: func(context.Context) (bool, error) {
			order = append(order, "check")
			return len(order) >= 6, nil
		},
	}

	require.NoError(t, p.Until(context.Background(), action, cond))
	assert.Equal(t, []string{"refresh", "check", "refresh", "check", "refresh", "check"}, order)
}

func TestUntilSwallowsTransientErrors(t *testing.T) {
	p, err := New(time.Millisecond, 5*time.Millisecond, WithClock(&stepClock{}), WithLogger(quietLogger()))
	require.NoError(t, err)

	detached := errors.New("node detached from document")
	calls := 0
	action := func(context.Context) error {
		calls++
		if calls < 3 {
			return detached
		}
		return nil
	}
	cond := Condition{Description: "always", Check: func(context.Context) (bool, error) { return true, nil }}

	require.NoError(t, p.Until(context.Background(), action, cond))
	assert.Equal(t, 3, calls)
}

func TestUntilKeepsLastTransientErrorAsCause(t *testing.T) {
	p, err := New(time.Millisecond, 3*time.Millisecond, WithClock(&stepClock{}), WithLogger(quietLogger()))
	require.NoError(t, err)

	stale := errors.New("stale element")
	cond := Condition{
		Description: "panel visible",
		Check:       func(context.Context) (bool, error) { return false, stale },
	}

	err = p.Check(context.Background(), cond)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.CodeTimeoutExceeded))
	assert.ErrorIs(t, err, stale)
	assert.Contains(t, err.Error(), `"panel visible"`)
}

func TestUntilReturnsContextErrorOnCancel(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p, err := New(time.Second, time.Minute, WithClock(fc), WithLogger(quietLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cond, _ := countingCondition(1 << 30)
	done := make(chan error, 1)
	go func() { done <- p.Check(ctx, cond) }()

	fc.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, failure.Is(err, failure.CodeTimeoutExceeded))
	case <-time.After(5 * time.Second):
		t.Fatal("poll ignored cancellation")
	}
}

func TestUntilRejectsConditionWithoutCheck(t *testing.T) {
	p, err := New(time.Millisecond, 2*time.Millisecond)
	require.NoError(t, err)
	err = p.Check(context.Background(), Condition{Description: "nothing"})
	assert.True(t, failure.Is(err, failure.CodeValidation))
}

func TestWithBudgetKeepsIntervalAndClock(t *testing.T) {
	clock := &stepClock{}
	p, err := New(time.Second, 5*time.Second, WithClock(clock), WithLogger(quietLogger()))
	require.NoError(t, err)

	longer, err := p.WithBudget(20 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, longer.Interval())
	assert.Equal(t, 20*time.Second, longer.MaxWait())

	cond, _ := countingCondition(2)
	require.NoError(t, longer.Check(context.Background(), cond))
	assert.Len(t, clock.waits, 2)

	_, err = p.WithBudget(time.Second)
	assert.True(t, failure.Is(err, failure.CodeValidation))
}
