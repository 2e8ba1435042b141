// Package controller starts suite runs and answers questions about them. It
// is the one place the CLI and the HTTP API go through.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/report"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
)

// Runner executes a selection of features.
type Runner interface {
	Run(ctx context.Context, runID string, filter scenario.Filter, features []scenario.Feature) (*scenario.Run, error)
}

// Catalogue is the set of features a run can select from.
type Catalogue interface {
	Features() []scenario.Feature
	Select(f scenario.Filter) ([]scenario.Feature, error)
}

// RunStore reads back recorded runs.
type RunStore interface {
	Get(id string) (*scenario.Run, error)
	List() ([]report.RunSummary, error)
	ReadScreenshot(runID, name string) ([]byte, error)
}

// Notifier is told about every finished run.
type Notifier func(ctx context.Context, run *scenario.Run) error

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusFinished RunStatus = "finished"
)

// RunEntry is one line of the run listing.
type RunEntry struct {
	report.RunSummary
	Status RunStatus `json:"status"`
}

// RunDetail is a run with its results. Run is nil while it is in progress.
type RunDetail struct {
	ID        string          `json:"id"`
	Status    RunStatus       `json:"status"`
	Filter    scenario.Filter `json:"filter"`
	StartedAt time.Time       `json:"started_at"`
	Run       *scenario.Run   `json:"run,omitempty"`
}

// FeatureInfo describes a registered feature.
type FeatureInfo struct {
	Name      string         `json:"name"`
	Serial    bool           `json:"serial"`
	Scenarios []ScenarioInfo `json:"scenarios"`
}

// ScenarioInfo describes one scenario of a feature.
type ScenarioInfo struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
}

// Service owns the runs of one process. At most one run executes at a time
// since every scenario drives a real browser.
type Service struct {
	catalogue Catalogue
	runner    Runner
	store     RunStore
	notify    Notifier
	logger    *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	active *RunDetail
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier reports every finished run to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(catalogue Catalogue, runner Runner, store RunStore, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		catalogue: catalogue,
		runner:    runner,
		store:     store,
		logger:    slog.Default(),
		baseCtx:   ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normaliseFilter(f scenario.Filter) scenario.Filter {
	clean := func(in []string) []string {
		var out []string
		for _, v := range in {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return scenario.Filter{Features: clean(f.Features), Tags: clean(f.Tags)}
}

// ListFeatures describes every registered feature.
func (s *Service) ListFeatures(ctx context.Context) []FeatureInfo {
	features := s.catalogue.Features()
	out := make([]FeatureInfo, 0, len(features))
	for _, f := range features {
		info := FeatureInfo{Name: f.Name, Serial: f.Serial, Scenarios: make([]ScenarioInfo, 0, len(f.Scenarios))}
		for _, sc := range f.Scenarios {
			info.Scenarios = append(info.Scenarios, ScenarioInfo{Name: sc.Name, Tags: sc.Tags})
		}
		out = append(out, info)
	}
	return out
}

func (s *Service) selectFeatures(filter scenario.Filter) ([]scenario.Feature, error) {
	features, err := s.catalogue.Select(filter)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, failure.Validation("no scenarios match the filter")
	}
	return features, nil
}

func (s *Service) begin(filter scenario.Filter) (*RunDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil, failure.New(failure.CodeRunInProgress, "run already in progress: "+s.active.ID, nil)
	}
	s.active = &RunDetail{
		ID:        scenario.NewRunID(),
		Status:    StatusRunning,
		Filter:    filter,
		StartedAt: time.Now().UTC(),
	}
	d := *s.active
	return &d, nil
}

func (s *Service) end() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

func (s *Service) execute(ctx context.Context, id string, filter scenario.Filter, features []scenario.Feature) (*scenario.Run, error) {
	defer s.end()
	run, err := s.runner.Run(ctx, id, filter, features)
	if err != nil {
		s.logger.Error("run not recorded", "run_id", id, "error", err)
	}
	if run != nil && s.notify != nil {
		if nerr := s.notify(ctx, run); nerr != nil {
			s.logger.Warn("run notification failed", "run_id", id, "error", nerr)
		}
	}
	return run, err
}

// Run executes the selection and waits for it to finish.
func (s *Service) Run(ctx context.Context, filter scenario.Filter) (*scenario.Run, error) {
	filter = normaliseFilter(filter)
	features, err := s.selectFeatures(filter)
	if err != nil {
		return nil, err
	}
	d, err := s.begin(filter)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, d.ID, filter, features)
}

// StartRun starts the selection in the background and returns at once. The
// run outlives the caller's context; Shutdown cancels it.
func (s *Service) StartRun(ctx context.Context, filter scenario.Filter) (RunDetail, error) {
	filter = normaliseFilter(filter)
	features, err := s.selectFeatures(filter)
	if err != nil {
		return RunDetail{}, err
	}
	d, err := s.begin(filter)
	if err != nil {
		return RunDetail{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.execute(s.baseCtx, d.ID, filter, features)
	}()
	s.logger.Info("run queued", "run_id", d.ID, "features", len(features))
	return *d, nil
}

// GetRun returns a run, in progress or recorded.
func (s *Service) GetRun(ctx context.Context, id string) (RunDetail, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		d := *s.active
		s.mu.Unlock()
		return d, nil
	}
	s.mu.Unlock()

	run, err := s.store.Get(id)
	if err != nil {
		return RunDetail{}, err
	}
	return RunDetail{
		ID:        run.ID,
		Status:    StatusFinished,
		Filter:    run.Filter,
		StartedAt: run.StartedAt,
		Run:       run,
	}, nil
}

// ListRuns lists the active run, if any, then recorded runs newest first.
func (s *Service) ListRuns(ctx context.Context) ([]RunEntry, error) {
	recorded, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]RunEntry, 0, len(recorded)+1)

	s.mu.Lock()
	if s.active != nil {
		out = append(out, RunEntry{
			RunSummary: report.RunSummary{ID: s.active.ID, Filter: s.active.Filter, StartedAt: s.active.StartedAt},
			Status:     StatusRunning,
		})
	}
	s.mu.Unlock()

	for _, r := range recorded {
		out = append(out, RunEntry{RunSummary: r, Status: StatusFinished})
	}
	return out, nil
}

// ReadScreenshot returns a failure screenshot of a recorded run.
func (s *Service) ReadScreenshot(ctx context.Context, runID, name string) ([]byte, error) {
	return s.store.ReadScreenshot(strings.TrimSpace(runID), strings.TrimSpace(name))
}

// Shutdown cancels a background run and waits for it to record its results,
// or for ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
