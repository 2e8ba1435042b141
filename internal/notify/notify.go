// Package notify posts a plain-text run summary to an ntfy-style endpoint.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
)

// maxListedFailures bounds the failures named in one message.
const maxListedFailures = 10

// Summary is what gets reported about a finished run.
type Summary struct {
	RunID    string
	Passed   int
	Failed   int
	Failures []string
}

// Summarise builds the summary of run.
func Summarise(run *scenario.Run) Summary {
	s := Summary{RunID: run.ID, Passed: run.Passed, Failed: run.Failed}
	for _, res := range run.Results {
		if res.Status != scenario.StatusFailed {
			continue
		}
		line := res.Feature + " / " + res.Scenario
		if res.Code != "" {
			line += " [" + res.Code + "]"
		}
		s.Failures = append(s.Failures, line)
	}
	return s
}

// Message renders the summary as the notification body.
func (s Summary) Message() string {
	var b strings.Builder
	status := "passed"
	if s.Failed > 0 {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "e2e run %s %s: %d passed, %d failed", s.RunID, status, s.Passed, s.Failed)
	for i, f := range s.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "\n... and %d more", len(s.Failures)-maxListedFailures)
			break
		}
		b.WriteString("\n- ")
		b.WriteString(f)
	}
	return b.String()
}

// SendSummary posts the summary of run to endpoint.
func SendSummary(ctx context.Context, client *http.Client, endpoint string, run *scenario.Run) error {
	return Send(ctx, client, endpoint, Summarise(run).Message())
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
