package tabs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

// Navigator brings a tab of the case view into view and activates it.
type Navigator struct {
	d      driver.Driver
	poller *poll.Poller
	settle *poll.Poller
	logger *slog.Logger
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithSettle waits up to p's budget for the header to appear after each page
// of the strip, for strips that animate when paged.
func WithSettle(p *poll.Poller) NavigatorOption {
	return func(n *Navigator) { n.settle = p }
}

// NewNavigator returns a Navigator that waits for panels with p.
func NewNavigator(d driver.Driver, p *poll.Poller, logger *slog.Logger, opts ...NavigatorOption) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Navigator{d: d, poller: p, logger: logger}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Select makes the named tab active and waits for its content table.
//
// A tab that is already active is not clicked again. Otherwise the strip is
// paged forward one step at a time until the header is visible, at most once
// per header in the strip. The header is then clicked and its panel awaited.
func (n *Navigator) Select(ctx context.Context, name string) (Panel, error) {
	if strings.TrimSpace(name) == "" {
		return Panel{}, failure.Validation("tab name is empty")
	}
	header := HeaderSelector(name)
	log := n.logger.With("tab", name)

	selected, ok, err := n.d.Attribute(ctx, header, "aria-selected")
	if err != nil {
		return Panel{}, err
	}
	if ok && selected == "true" {
		log.Debug("tab state", "state", "active", "reason", "already selected")
	} else {
		log.Debug("tab state", "state", "searching")
		scrolls, err := n.search(ctx, name, header)
		if err != nil {
			log.Debug("tab state", "state", "exhausted", "scrolls", scrolls)
			return Panel{}, err
		}
		log.Debug("tab state", "state", "activating", "scrolls", scrolls)
		if err := n.d.Click(ctx, header); err != nil {
			return Panel{}, err
		}
	}

	id, ok, err := n.d.Attribute(ctx, header, "id")
	if err != nil {
		return Panel{}, err
	}
	if !ok || id == "" {
		return Panel{}, failure.Driver("read tab id", fmt.Errorf("tab %q header has no id", name))
	}

	body := bodySelector(id)
	if err := n.poller.Check(ctx, driver.Visible(n.d, body.Append("//table"))); err != nil {
		return Panel{}, err
	}
	log.Debug("tab state", "state", "active", "header_id", id)
	return Panel{Tab: name, HeaderID: id, Root: body}, nil
}

// search pages the strip until header is visible and returns the number of
// page steps taken.
func (n *Navigator) search(ctx context.Context, name string, header driver.Selector) (int, error) {
	bound, err := n.d.Count(ctx, tabHeaders)
	if err != nil {
		return 0, err
	}

	scrolls := 0
	for {
		visible, err := n.d.CountVisible(ctx, header)
		if err != nil {
			return scrolls, err
		}
		if visible > 0 {
			return scrolls, nil
		}
		if scrolls >= bound {
			return scrolls, failure.TabNotFound(name, scrolls)
		}
		pagers, err := n.d.CountVisible(ctx, tabPager)
		if err != nil {
			return scrolls, err
		}
		if pagers == 0 {
			return scrolls, failure.TabNotFound(name, scrolls)
		}

		n.logger.Debug("scrolling tab strip", "tab", name, "scroll", scrolls+1, "bound", bound)
		if err := n.d.Click(ctx, tabPager); err != nil {
			return scrolls, err
		}
		scrolls++

		if n.settle != nil {
			err := n.settle.Check(ctx, driver.Visible(n.d, header))
			if err == nil {
				return scrolls, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return scrolls, ctxErr
			}
		}
	}
}

// AssertAbsent fails when a header named name exists anywhere in the strip,
// including headers paged out of view. It first waits for the strip itself.
func (n *Navigator) AssertAbsent(ctx context.Context, name string) error {
	if err := n.poller.Check(ctx, driver.Exists(n.d, tabHeaders)); err != nil {
		return err
	}
	count, err := n.d.Count(ctx, HeaderSelector(name))
	if err != nil {
		return err
	}
	if count > 0 {
		return &failure.MismatchError{Path: []string{name}, Expected: failure.Absent, Actual: "tab present"}
	}
	return nil
}
