// Package report keeps the outcome of suite runs on disk: one JSON document
// per run, the screenshots of failed scenarios next to it, and an optional
// JSONL event log of every scenario result.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
)

var (
	uuidRe       = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// RunSummary is the listing entry of a stored run.
type RunSummary struct {
	ID         string          `json:"id"`
	Filter     scenario.Filter `json:"filter"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Passed     int             `json:"passed"`
	Failed     int             `json:"failed"`
}

func summarise(run *scenario.Run) RunSummary {
	return RunSummary{
		ID:         run.ID,
		Filter:     run.Filter,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Passed:     run.Passed,
		Failed:     run.Failed,
	}
}

// Store manages run files under a directory. It implements
// scenario.Recorder.
type Store struct {
	dir    string
	events *EventLog
	mu     sync.RWMutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithEventLog also appends every saved result to log.
func WithEventLog(log *EventLog) StoreOption {
	return func(s *Store) { s.events = log }
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report store: mkdir %s: %w", dir, err)
	}
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir is the directory runs are stored in.
func (s *Store) Dir() string { return s.dir }

func validateID(id string) error {
	if !uuidRe.MatchString(id) {
		return failure.Validation(fmt.Sprintf("invalid run id: %q", id))
	}
	return nil
}

// ScreenshotName turns a scenario label into a file name.
func ScreenshotName(label string) string {
	name := strings.Trim(unsafeNameRe.ReplaceAllString(label, "_"), "_")
	if name == "" {
		name = "screenshot"
	}
	return name + ".png"
}

// SaveRun writes run as <id>.json, replacing an earlier save of the same run.
func (s *Store) SaveRun(run *scenario.Run) error {
	if err := validateID(run.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("report store: marshal run: %w", err)
	}

	s.mu.Lock()
	path := filepath.Join(s.dir, run.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("report store: write run: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		s.mu.Unlock()
		return fmt.Errorf("report store: write run: %w", err)
	}
	s.mu.Unlock()

	if s.events != nil {
		for _, res := range run.Results {
			if err := s.events.Write(ResultEvent(run.ID, res)); err != nil {
				slog.Warn("run event not logged", "run_id", run.ID, "scenario", res.Scenario, "error", err)
			}
		}
		if err := s.events.Write(FinishedEvent(run)); err != nil {
			slog.Warn("run event not logged", "run_id", run.ID, "error", err)
		}
	}
	return nil
}

// SaveScreenshot stores png under the run's directory and returns its path
// relative to the store.
func (s *Store) SaveScreenshot(runID, label string, png []byte) (string, error) {
	if err := validateID(runID); err != nil {
		return "", err
	}
	rel := filepath.Join(runID, ScreenshotName(label))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Join(s.dir, runID), 0o755); err != nil {
		return "", fmt.Errorf("report store: mkdir screenshots: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, rel), png, 0o644); err != nil {
		return "", fmt.Errorf("report store: write screenshot: %w", err)
	}
	return rel, nil
}

// Get reads a stored run by ID.
func (s *Store) Get(id string) (*scenario.Run, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.New(failure.CodeRunNotFound, "run not found: "+id, nil)
		}
		return nil, fmt.Errorf("report store: read run: %w", err)
	}
	var run scenario.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("report store: unmarshal run: %w", err)
	}
	return &run, nil
}

// List returns all stored runs, newest first. Unreadable files are skipped.
func (s *Store) List() ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("report store: glob: %w", err)
	}

	out := make([]RunSummary, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var run scenario.Run
		if err := json.Unmarshal(data, &run); err != nil {
			slog.Debug("skipping unreadable run file", "path", path, "error", err)
			continue
		}
		out = append(out, summarise(&run))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// ReadScreenshot returns the bytes of a screenshot saved for runID.
func (s *Store) ReadScreenshot(runID, name string) ([]byte, error) {
	if err := validateID(runID); err != nil {
		return nil, err
	}
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".png") {
		return nil, failure.Validation(fmt.Sprintf("invalid screenshot name: %q", name))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, runID, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.New(failure.CodeRunNotFound, fmt.Sprintf("screenshot not found: %s/%s", runID, name), nil)
		}
		return nil, fmt.Errorf("report store: read screenshot: %w", err)
	}
	return data, nil
}

// Delete removes a run and its screenshots.
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.dir, id)); err != nil {
		slog.Debug("run screenshot cleanup failed", "run_id", id, "error", err)
	}
	if err := os.Remove(filepath.Join(s.dir, id+".json")); err != nil {
		return fmt.Errorf("report store: delete run: %w", err)
	}
	return nil
}
