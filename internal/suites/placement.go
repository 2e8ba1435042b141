package suites

import (
	"context"

	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

// PlacementOrder is the heading Cafcass must not see in the placement tab.
const PlacementOrder = "Placement order"

// Placement checks that placement orders stay hidden from Cafcass.
func Placement() scenario.Feature {
	return scenario.Feature{
		Name: "Placement",
		Setup: func(ctx context.Context, s *scenario.Scope) error {
			_, err := s.CreateCase(ctx, s.Users.SwanseaLocalAuthorityOne, fixtures.MandatorySubmissionFields)
			return err
		},
		Scenarios: []scenario.Scenario{
			{Name: "Cafcass cannot see the placement order", Run: func(ctx context.Context, s *scenario.Scope) error {
				return CafcassCannotSeePlacementOrder(ctx, s, s.CaseID())
			}},
		},
	}
}

// CafcassCannotSeePlacementOrder opens the placement tab of caseID as
// Cafcass and checks no placement order is shown.
func CafcassCannotSeePlacementOrder(ctx context.Context, s *scenario.Scope, caseID string) error {
	a := s.Actor
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, s.Users.Cafcass, caseID) },
		selectTab(a, tabs.Placement),
		bind(a.DontSee, PlacementOrder),
	)
}
