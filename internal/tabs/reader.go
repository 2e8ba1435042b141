package tabs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

// Reader resolves label paths against the rendered content of a tab.
//
// A section is an element with class complex-panel whose direct
// complex-panel-title child carries the section title. A field is a table row
// whose th holds the label; its value is the row's first td. Each segment is
// matched among the visible descendants of the element its predecessor
// resolved to.
type Reader struct {
	d      driver.Driver
	root   driver.Selector
	logger *slog.Logger
}

// NewReader reads from whichever tab body is active.
func NewReader(d driver.Driver, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{d: d, root: activeBody, logger: logger}
}

// Within returns a Reader scoped to panel.
func (r *Reader) Within(panel Panel) *Reader {
	return &Reader{d: r.d, root: panel.Root, logger: r.logger}
}

// MatchOption adjusts how See compares values.
type MatchOption func(*matchOptions)

type matchOptions struct {
	trim     bool
	contains bool
}

// TrimSpace strips surrounding whitespace from the rendered value before
// comparing.
func TrimSpace() MatchOption {
	return func(o *matchOptions) { o.trim = true }
}

// Contains passes when the rendered value includes the expected text.
func Contains() MatchOption {
	return func(o *matchOptions) { o.contains = true }
}

func sectionStep(title string) string {
	return `//*[` + driver.HasClass("complex-panel") + `][./*[` + driver.HasClass("complex-panel-title") + `][` + driver.TextEquals(title) + `]]`
}

func fieldStep(label string) string {
	return `//tr[./th[` + driver.TextEquals(label) + `]]`
}

// resolve walks path and returns the selector of the matched field row.
func (r *Reader) resolve(ctx context.Context, path Path) (driver.Selector, error) {
	if err := path.validate(); err != nil {
		return "", err
	}
	sel := r.root
	last := len(path) - 1
	for i, seg := range path {
		step := sectionStep(seg)
		if i == last {
			step = fieldStep(seg)
		}
		candidate := sel.Append(step)
		count, err := r.d.CountVisible(ctx, candidate)
		if err != nil {
			return "", err
		}
		if count != 1 {
			r.logger.Debug("tab path unresolved", "path", path.String(), "segment", seg, "matches", count)
			return "", &failure.PathError{
				Path:     append([]string(nil), path...),
				Resolved: append([]string{}, path[:i]...),
				Segment:  seg,
				Matches:  count,
			}
		}
		if candidate, err = r.pinVisible(ctx, candidate); err != nil {
			return "", err
		}
		sel = candidate
	}
	return sel, nil
}

// pinVisible narrows sel, which has exactly one visible match, to that match
// when hidden elements also match it.
func (r *Reader) pinVisible(ctx context.Context, sel driver.Selector) (driver.Selector, error) {
	total, err := r.d.Count(ctx, sel)
	if err != nil || total <= 1 {
		return sel, err
	}
	for i := 1; i <= total; i++ {
		n, err := r.d.CountVisible(ctx, sel.Nth(i))
		if err != nil {
			return "", err
		}
		if n == 1 {
			return sel.Nth(i), nil
		}
	}
	return sel, nil
}

// Read returns the value rendered for path, without any normalisation.
func (r *Reader) Read(ctx context.Context, path Path) (string, error) {
	row, err := r.resolve(ctx, path)
	if err != nil {
		return "", err
	}
	texts, err := r.d.Texts(ctx, row.Append("/td[1]"))
	if err != nil {
		return "", err
	}
	if len(texts) == 0 {
		last := len(path) - 1
		return "", &failure.PathError{
			Path:     append([]string(nil), path...),
			Resolved: append([]string{}, path[:last]...),
			Segment:  path[last],
			Matches:  1,
			Reason:   "row has no value cell",
		}
	}
	return texts[0], nil
}

// See asserts that path renders expected.
func (r *Reader) See(ctx context.Context, path Path, expected string, opts ...MatchOption) error {
	var o matchOptions
	for _, opt := range opts {
		opt(&o)
	}
	actual, err := r.Read(ctx, path)
	if err != nil {
		return err
	}
	if o.trim {
		actual = strings.TrimSpace(actual)
	}
	if o.contains && strings.Contains(actual, expected) || !o.contains && actual == expected {
		return nil
	}
	return &failure.MismatchError{Path: append([]string(nil), path...), Expected: expected, Actual: actual}
}

// DontSee asserts that path does not resolve. A segment matching more than
// once means the content is rendered, so it fails as a mismatch.
func (r *Reader) DontSee(ctx context.Context, path Path) error {
	_, err := r.resolve(ctx, path)
	var pathErr *failure.PathError
	switch {
	case err == nil:
		actual, readErr := r.Read(ctx, path)
		if readErr != nil {
			return readErr
		}
		return &failure.MismatchError{Path: append([]string(nil), path...), Expected: failure.Absent, Actual: actual}
	case errors.As(err, &pathErr) && pathErr.Matches == 0:
		return nil
	case errors.As(err, &pathErr) && pathErr.Matches > 1:
		return &failure.MismatchError{
			Path:     append([]string(nil), path...),
			Expected: failure.Absent,
			Actual:   fmt.Sprintf("%d matches for %q", pathErr.Matches, pathErr.Segment),
		}
	default:
		return err
	}
}

// SeeOrganisation asserts that the organisation row at path names the
// organisation. Organisation rows render the name together with its address.
func (r *Reader) SeeOrganisation(ctx context.Context, path Path, organisation string) error {
	return r.See(ctx, path, organisation, Contains())
}

// Eventually polls See until it passes or p's budget is spent. The last
// mismatch or unresolved path becomes the cause of the timeout.
func (r *Reader) Eventually(ctx context.Context, p *poll.Poller, path Path, expected string, opts ...MatchOption) error {
	if err := path.validate(); err != nil {
		return err
	}
	return p.Check(ctx, poll.Condition{
		Description: "see [" + path.String() + "] = " + expected,
		Check: func(ctx context.Context) (bool, error) {
			if err := r.See(ctx, path, expected, opts...); err != nil {
				return false, err
			}
			return true, nil
		},
	})
}
