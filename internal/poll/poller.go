// Package poll repeats a browser action until a condition over the rendered
// page holds or a bounded budget is exhausted.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jonboulle/clockwork"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// Clock is the part of clockwork.Clock the poller uses.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Action is re-invoked on every attempt and must be safe to repeat.
type Action func(ctx context.Context) error

// Condition is a named predicate over browser-visible state.
type Condition struct {
	Description string
	Check       func(ctx context.Context) (bool, error)
}

// Poller runs bounded retry loops with a fixed interval.
type Poller struct {
	interval time.Duration
	maxWait  time.Duration
	clock    Clock
	logger   *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the logger used for poll diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

var errNotMet = errors.New("condition not met")

// New returns a Poller. interval must be positive and maxWait must exceed it.
func New(interval, maxWait time.Duration, opts ...Option) (*Poller, error) {
	if interval <= 0 {
		return nil, failure.Validation(fmt.Sprintf("poll interval must be positive, got %s", interval))
	}
	if maxWait <= interval {
		return nil, failure.Validation(fmt.Sprintf("poll max wait %s must exceed interval %s", maxWait, interval))
	}
	p := &Poller{
		interval: interval,
		maxWait:  maxWait,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Interval returns the wait between checks.
func (p *Poller) Interval() time.Duration { return p.interval }

// MaxWait returns the total wait budget.
func (p *Poller) MaxWait() time.Duration { return p.maxWait }

// Attempts is the number of checks one Until call may perform: the initial
// check plus one per interval needed to cover MaxWait, so exhaustion never
// happens before MaxWait has elapsed.
func (p *Poller) Attempts() uint {
	waits := p.maxWait / p.interval
	if p.maxWait%p.interval != 0 {
		waits++
	}
	return uint(waits) + 1
}

// WithBudget returns a copy of p with a different max wait and the same
// interval and clock.
func (p *Poller) WithBudget(maxWait time.Duration) (*Poller, error) {
	return New(p.interval, maxWait, WithClock(p.clock), WithLogger(p.logger))
}

// Check waits for cond without performing an action.
func (p *Poller) Check(ctx context.Context, cond Condition) error {
	return p.Until(ctx, nil, cond)
}

// Until invokes action then checks cond, waiting one interval between
// attempts. It returns as soon as cond holds. Errors from action or from the
// check count as "not yet" until the budget runs out, at which point the last
// such error becomes the cause of a TimeoutExceeded failure. Cancelling ctx
// returns the context error.
func (p *Poller) Until(ctx context.Context, action Action, cond Condition) error {
	if cond.Check == nil {
		return failure.Validation("poll condition has no check")
	}

	var checks uint
	var lastTransient error
	start := p.clock.Now()

	err := retry.Do(
		func() error {
			checks++
			if action != nil {
				if err := action(ctx); err != nil {
					lastTransient = fmt.Errorf("action: %w", err)
					return lastTransient
				}
			}
			ok, err := cond.Check(ctx)
			if err != nil {
				lastTransient = fmt.Errorf("check: %w", err)
				return lastTransient
			}
			if !ok {
				return errNotMet
			}
			return nil
		},
		retry.Attempts(p.Attempts()),
		retry.Delay(p.interval),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.WithTimer(p.clock),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
	)
	elapsed := p.clock.Now().Sub(start)
	if err == nil {
		p.logger.Debug("poll condition met", "condition", cond.Description, "checks", checks, "elapsed", elapsed)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	p.logger.Debug("poll budget exhausted",
		"condition", cond.Description,
		"checks", checks,
		"elapsed", elapsed,
		"last_error", lastTransient,
	)
	return failure.Timeout(cond.Description, checks, lastTransient)
}
