package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
)

// Event is one line of the event log.
type Event struct {
	Time     time.Time       `json:"time"`
	Kind     string          `json:"kind"`
	RunID    string          `json:"run_id"`
	Feature  string          `json:"feature,omitempty"`
	Scenario string          `json:"scenario,omitempty"`
	Status   scenario.Status `json:"status,omitempty"`
	Code     string          `json:"code,omitempty"`
	Error    string          `json:"error,omitempty"`
	CaseID   string          `json:"case_id,omitempty"`
	Duration time.Duration   `json:"duration_ns,omitempty"`
	Passed   int             `json:"passed,omitempty"`
	Failed   int             `json:"failed,omitempty"`
}

// Event kinds.
const (
	KindResult   = "result"
	KindFinished = "run_finished"
)

// ResultEvent records the outcome of one scenario of runID.
func ResultEvent(runID string, res scenario.Result) Event {
	return Event{
		Time:     res.StartedAt.Add(res.Duration),
		Kind:     KindResult,
		RunID:    runID,
		Feature:  res.Feature,
		Scenario: res.Scenario,
		Status:   res.Status,
		Code:     res.Code,
		Error:    res.Error,
		CaseID:   res.CaseID,
		Duration: res.Duration,
	}
}

// FinishedEvent records the totals of run.
func FinishedEvent(run *scenario.Run) Event {
	return Event{
		Time:   run.FinishedAt,
		Kind:   KindFinished,
		RunID:  run.ID,
		Passed: run.Passed,
		Failed: run.Failed,
	}
}

// EventLog writes events as JSON lines, asynchronously, to one file per day
// under <baseDir>/<date>/events.jsonl. Files rotate by size.
type EventLog struct {
	baseDir     string
	maxSizeMB   int
	writeCh     chan Event
	done        chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
	currentDate string
	logger      *lumberjack.Logger
	mu          sync.Mutex
	now         func() time.Time
}

// NewEventLog starts an event log with room for bufferSize pending events.
func NewEventLog(baseDir string, bufferSize, maxSizeMB int) *EventLog {
	l := &EventLog{
		baseDir:   baseDir,
		maxSizeMB: maxSizeMB,
		writeCh:   make(chan Event, bufferSize),
		done:      make(chan struct{}),
		now:       time.Now,
	}
	l.wg.Add(1)
	go l.writeLoop()
	return l
}

// Write queues an event. It never blocks: a full buffer drops the event.
func (l *EventLog) Write(e Event) error {
	select {
	case <-l.done:
		return fmt.Errorf("event log is closed")
	default:
	}
	select {
	case l.writeCh <- e:
		return nil
	default:
		slog.Warn("event log buffer full, dropping event", "kind", e.Kind, "run_id", e.RunID)
		return fmt.Errorf("buffer full")
	}
}

// Close flushes pending events and closes the current file.
func (l *EventLog) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logger != nil {
		return l.logger.Close()
	}
	return nil
}

func (l *EventLog) writeLoop() {
	defer l.wg.Done()
	for {
		select {
		case e := <-l.writeCh:
			l.writeEvent(e)
		case <-l.done:
			// Drain what was queued before Close.
			for {
				select {
				case e := <-l.writeCh:
					l.writeEvent(e)
				default:
					return
				}
			}
		}
	}
}

func (l *EventLog) writeEvent(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("failed to marshal event", "error", err, "kind", e.Kind)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	date := l.now().UTC().Format("2006-01-02")
	if date != l.currentDate || l.logger == nil {
		l.rotateForDate(date)
	}
	if l.logger == nil {
		return
	}
	if _, err := l.logger.Write(append(data, '\n')); err != nil {
		slog.Error("failed to write event", "error", err, "kind", e.Kind)
	}
}

// rotateForDate must hold mu.
func (l *EventLog) rotateForDate(date string) {
	if l.logger != nil {
		_ = l.logger.Close()
		l.logger = nil
	}

	dir := filepath.Join(l.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("failed to create event log directory", "error", err, "dir", dir)
		return
	}

	filename := filepath.Join(dir, "events.jsonl")
	l.logger = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    l.maxSizeMB,
		MaxBackups: 100,
		MaxAge:     30,
		LocalTime:  false,
	}
	l.currentDate = date
	slog.Debug("opened event log", "file", filename)
}
