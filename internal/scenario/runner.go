package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

// Status is the outcome of one scenario.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Result is the outcome of one scenario. Code is the failure code of Error,
// empty for untyped errors.
type Result struct {
	Feature    string        `json:"feature"`
	Scenario   string        `json:"scenario"`
	Status     Status        `json:"status"`
	Code       string        `json:"code,omitempty"`
	Error      string        `json:"error,omitempty"`
	CaseID     string        `json:"case_id,omitempty"`
	Screenshot string        `json:"screenshot,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`

	order int
}

// Run is one execution of a selection of features.
type Run struct {
	ID         string    `json:"id"`
	Filter     Filter    `json:"filter"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Results    []Result  `json:"results"`
}

// Recorder persists runs and failure screenshots.
type Recorder interface {
	SaveRun(run *Run) error
	SaveScreenshot(runID, name string, png []byte) (string, error)
}

// Runner executes features with a bounded number of concurrent sessions.
type Runner struct {
	cfg      *config.Config
	sessions SessionFactory
	cases    CaseService
	poller   *poll.Poller
	recorder Recorder
	logger   *slog.Logger
	parallel int
	timeout  time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRecorder persists every finished run and failure screenshot.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithParallel bounds concurrently running sessions.
func WithParallel(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// WithTimeout bounds each scenario, its feature setup included.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithPoller replaces the poller built from the configuration.
func WithPoller(p *poll.Poller) RunnerOption {
	return func(r *Runner) { r.poller = p }
}

// NewRunner returns a Runner against the environment cfg describes.
func NewRunner(cfg *config.Config, sessions SessionFactory, cases CaseService, logger *slog.Logger, opts ...RunnerOption) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		cfg:      cfg,
		sessions: sessions,
		cases:    cases,
		logger:   logger,
		parallel: cfg.Parallel,
		timeout:  cfg.ScenarioTimeout(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.poller == nil {
		p, err := poll.New(cfg.PollInterval(), cfg.PollMaxWait(), poll.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		r.poller = p
	}
	if r.parallel < 1 {
		r.parallel = 1
	}
	return r, nil
}

// featureState memoises a feature's setup for one run.
type featureState struct {
	once   sync.Once
	err    error
	shared *Shared
}

func (fs *featureState) setup(ctx context.Context, f Feature, s *Scope) error {
	fs.once.Do(func() {
		if f.Setup == nil {
			return
		}
		s.Logger.Info("feature setup")
		fs.err = catch(func() error { return f.Setup(ctx, s) })
		if fs.err != nil {
			fs.err = fmt.Errorf("feature setup: %w", fs.err)
		}
	})
	return fs.err
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Run executes features under runID and returns once every scenario has
// finished. A failing scenario never stops the others; the returned error
// only reports a failure to record the run.
func (r *Runner) Run(ctx context.Context, runID string, filter Filter, features []Feature) (*Run, error) {
	run := &Run{ID: runID, Filter: filter, StartedAt: time.Now().UTC()}
	logger := r.logger.With("run_id", runID)
	logger.Info("run started", "features", len(features), "parallel", r.parallel)

	var mu sync.Mutex
	record := func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		run.Results = append(run.Results, res)
	}

	p := pool.New().WithMaxGoroutines(r.parallel)
	order := 0
	for _, f := range features {
		state := &featureState{shared: newShared(r.cfg.Users)}
		if f.Serial {
			start := order
			order += len(f.Scenarios)
			p.Go(func() {
				for i, sc := range f.Scenarios {
					record(r.runScenario(ctx, logger, runID, f, state, sc, start+i))
				}
			})
			continue
		}
		for _, sc := range f.Scenarios {
			idx := order
			order++
			p.Go(func() {
				record(r.runScenario(ctx, logger, runID, f, state, sc, idx))
			})
		}
	}
	p.Wait()

	sort.Slice(run.Results, func(i, j int) bool { return run.Results[i].order < run.Results[j].order })
	for _, res := range run.Results {
		if res.Status == StatusPassed {
			run.Passed++
		} else {
			run.Failed++
		}
	}
	run.FinishedAt = time.Now().UTC()
	logger.Info("run finished", "passed", run.Passed, "failed", run.Failed, "elapsed", run.FinishedAt.Sub(run.StartedAt))

	if r.recorder != nil {
		if err := r.recorder.SaveRun(run); err != nil {
			return run, fmt.Errorf("record run %s: %w", runID, err)
		}
	}
	return run, nil
}

func (r *Runner) runScenario(parent context.Context, runLogger *slog.Logger, runID string, f Feature, state *featureState, sc Scenario, order int) Result {
	res := Result{Feature: f.Name, Scenario: sc.Name, StartedAt: time.Now().UTC(), order: order}
	logger := runLogger.With("feature", f.Name, "scenario", sc.Name)

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	err := func() error {
		session, closeSession, err := r.sessions.NewSession(ctx, logger)
		if err != nil {
			return failure.Driver("open session", err)
		}
		defer closeSession()

		scope := r.newScope(session, state.shared, logger)
		if err := state.setup(ctx, f, scope); err != nil {
			return err
		}
		scope.Users = state.shared.Users()
		if id := state.shared.CaseID(); id != "" {
			scope.Logger = logger.With("case_id", id)
			res.CaseID = id
		}

		scope.Logger.Info("scenario started")
		err = catch(func() error { return sc.Run(ctx, scope) })
		if err != nil {
			r.captureFailure(ctx, scope.Logger, runID, &res, session)
		}
		return err
	}()
	if err != nil && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		err = failure.New(failure.CodeTimeoutExceeded, fmt.Sprintf("scenario exceeded %s", r.timeout), err)
	}

	res.Duration = time.Since(res.StartedAt)
	if err != nil {
		res.Status = StatusFailed
		res.Code = failure.Code(err)
		res.Error = err.Error()
		logger.Error("scenario failed", "code", res.Code, "error", err, "elapsed", res.Duration)
	} else {
		res.Status = StatusPassed
		logger.Info("scenario passed", "elapsed", res.Duration)
	}
	return res
}

func (r *Runner) newScope(d driver.Driver, shared *Shared, logger *slog.Logger) *Scope {
	actor := pages.NewActor(d, r.poller, r.cfg.BaseURL, logger)
	return &Scope{
		Config: r.cfg,
		Users:  shared.Users(),
		Cases:  r.cases,
		Driver: d,
		Actor:  actor,
		Pages:  pages.New(actor),
		Poller: r.poller,
		Logger: logger,
		Shared: shared,
	}
}

// captureFailure stores a screenshot of the failed scenario's page. The
// scenario context may already be spent, so the capture gets its own.
func (r *Runner) captureFailure(ctx context.Context, logger *slog.Logger, runID string, res *Result, d driver.Driver) {
	if r.recorder == nil {
		return
	}
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	png, err := d.Screenshot(shotCtx)
	if err != nil {
		logger.Debug("failure screenshot skipped", "error", err)
		return
	}
	name, err := r.recorder.SaveScreenshot(runID, res.Feature+"-"+res.Scenario, png)
	if err != nil {
		logger.Warn("failure screenshot not saved", "error", err)
		return
	}
	res.Screenshot = name
}

// catch turns a panic in fn into an error.
func catch(fn func() error) error {
	var err error
	if recovered := panics.Try(func() { err = fn() }); recovered != nil {
		return recovered.AsError()
	}
	return err
}
