package suites

import (
	"context"

	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
)

// UnknownCaseReference is a well-formed reference no case has.
const UnknownCaseReference = "1111-2222-3333-4444"

// NoticeOfChange covers a private solicitor claiming a respondent.
func NoticeOfChange() scenario.Feature {
	return scenario.Feature{
		Name: "Notice of change",
		Setup: func(ctx context.Context, s *scenario.Scope) error {
			_, err := s.CreateCase(ctx, s.Users.SwanseaLocalAuthorityOne, fixtures.MandatorySubmissionFields)
			return err
		},
		Scenarios: []scenario.Scenario{
			{Name: "Private solicitor sees errors when attempting access through NoC with invalid details", Run: nocWithInvalidDetails},
			{Name: "Private solicitor obtains case access through NoC", Run: nocGrantsAccess},
		},
	}
}

func nocWithInvalidDetails(ctx context.Context, s *scenario.Scope) error {
	a, noc := s.Actor, s.Pages.NoticeOfChange
	return do(ctx,
		bind(a.SignIn, s.Users.PrivateSolicitorOne),
		a.NavigateToCaseList,
		noc.Navigate,
		bind(noc.EnterCaseReference, UnknownCaseReference),
		bind(a.Click, "Continue"),
		bind(a.WaitForText, pages.NoCReferenceError),
		bind(noc.EnterCaseReference, s.CaseID()),
		func(ctx context.Context) error {
			return a.RetryUntilExists(ctx, a.ClickAction("Continue"), noc.ApplicantNameField())
		},
		bind(noc.EnterApplicantName, "Wrong detail"),
		func(ctx context.Context) error { return noc.EnterRespondentName(ctx, "Joe", "Bloggs") },
		bind(a.Click, "Continue"),
		bind(a.WaitForText, pages.NoCDetailsError),
		bind(noc.EnterApplicantName, applicantName),
		func(ctx context.Context) error { return noc.EnterRespondentName(ctx, "Wrong", "detail") },
		bind(a.Click, "Continue"),
		bind(a.WaitForText, pages.NoCDetailsError),
	)
}

func nocGrantsAccess(ctx context.Context, s *scenario.Scope) error {
	a, caseList := s.Actor, s.Pages.CaseList
	caseID := s.CaseID()
	return do(ctx,
		bind(a.SignIn, s.Users.PrivateSolicitorOne),
		a.NavigateToCaseList,
		bind(caseList.SearchForCasesWithID, caseID),
		bind(a.DontSeeCaseInSearchResult, caseID),
		func(ctx context.Context) error {
			return s.Pages.NoticeOfChange.UserCompletesNoC(ctx, caseID, applicantName, "Joe", "Bloggs")
		},
		a.NavigateToCaseList,
		bind(caseList.SearchForCasesWithID, caseID),
		bind(a.SeeCaseInSearchResult, caseID),
	)
}
