// Package suites holds the browser scenarios, one feature per area of the
// application. Every feature creates the case it works on; none depends on a
// case that already exists in the environment.
package suites

import (
	"context"
	"time"

	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

// All returns every feature in the order they are listed.
func All() []scenario.Feature {
	return []scenario.Feature{
		Messaging(),
		NoticeOfChange(),
		LegalCounsel(),
		DraftOrders(),
		ChildSolicitors(),
		Placement(),
	}
}

// Registry returns a registry of All.
func Registry() (*scenario.Registry, error) {
	return scenario.NewRegistry(All()...)
}

// Names the case view renders for the parties of the fixtures.
const (
	applicantName   = "Swansea City Council"
	saveAndContinue = "Save and continue"
	// DisplayDate is how the case view renders dates, e.g. "1 Mar 2020".
	DisplayDate = "2 Jan 2006"
)

func today() string {
	return time.Now().Format(DisplayDate)
}

type step func(ctx context.Context) error

// do runs steps in order and stops at the first failure.
func do(ctx context.Context, steps ...step) error {
	for _, s := range steps {
		if err := s(ctx); err != nil {
			return err
		}
	}
	return nil
}

func bind[T any](fn func(context.Context, T) error, v T) step {
	return func(ctx context.Context) error { return fn(ctx, v) }
}

func selectTab(a *pages.Actor, name string) step {
	return func(ctx context.Context) error {
		_, err := a.SelectTab(ctx, name)
		return err
	}
}

func completeEvent(a *pages.Actor, action, button string) step {
	return func(ctx context.Context) error {
		if err := a.CompleteEvent(ctx, button); err != nil {
			return err
		}
		return a.SeeEventSubmissionConfirmation(ctx, action)
	}
}

// row is one expected value of a tab.
type row struct {
	path  tabs.Path
	value string
}

func seeInTab(a *pages.Actor, rows ...row) step {
	return func(ctx context.Context) error {
		for _, r := range rows {
			if err := a.SeeInTab(ctx, r.path, r.value); err != nil {
				return err
			}
		}
		return nil
	}
}

func dontSeeInTab(a *pages.Actor, path ...string) step {
	return func(ctx context.Context) error { return a.DontSeeInTab(ctx, path) }
}

func seeOrganisationInTab(a *pages.Actor, path tabs.Path, organisation string) step {
	return func(ctx context.Context) error {
		if err := a.WaitForText(ctx, organisation); err != nil {
			return err
		}
		return a.SeeOrganisationInTab(ctx, path, organisation)
	}
}

// under prefixes every row's path with sections.
func under(sections tabs.Path, rows ...row) []row {
	out := make([]row, len(rows))
	for i, r := range rows {
		out[i] = row{path: append(append(tabs.Path{}, sections...), r.path...), value: r.value}
	}
	return out
}

func field(label, value string) row {
	return row{path: tabs.Path{label}, value: value}
}
