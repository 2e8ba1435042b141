package driver

import (
	"context"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

// Exists holds once at least one element matches sel.
func Exists(d Driver, sel Selector) poll.Condition {
	return poll.Condition{
		Description: "exists " + sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			n, err := d.Count(ctx, sel)
			return n > 0, err
		},
	}
}

// Visible holds once at least one match of sel is rendered.
func Visible(d Driver, sel Selector) poll.Condition {
	return poll.Condition{
		Description: "visible " + sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			n, err := d.CountVisible(ctx, sel)
			return n > 0, err
		},
	}
}

// Gone holds once nothing matches sel.
func Gone(d Driver, sel Selector) poll.Condition {
	return poll.Condition{
		Description: "gone " + sel.String(),
		Check: func(ctx context.Context) (bool, error) {
			n, err := d.Count(ctx, sel)
			return n == 0, err
		},
	}
}

// PageContains holds once the page text includes text.
func PageContains(d Driver, text string) poll.Condition {
	return poll.Condition{
		Description: "page text contains " + text,
		Check: func(ctx context.Context) (bool, error) {
			body, err := d.PageText(ctx)
			return strings.Contains(body, text), err
		},
	}
}

// URLContains holds once the current URL includes fragment.
func URLContains(d Driver, fragment string) poll.Condition {
	return poll.Condition{
		Description: "url contains " + fragment,
		Check: func(ctx context.Context) (bool, error) {
			url, err := d.CurrentURL(ctx)
			return strings.Contains(url, fragment), err
		},
	}
}
