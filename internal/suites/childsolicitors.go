package suites

import (
	"context"
	"fmt"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

// ChildSolicitors covers when a solicitor may claim a child: only once the
// case is submitted and the court has named the children's solicitor.
func ChildSolicitors() scenario.Feature {
	return scenario.Feature{
		Name:   "Child solicitors",
		Serial: true,
		Setup: func(ctx context.Context, s *scenario.Scope) error {
			if _, err := s.CreateCase(ctx, s.Users.SwanseaLocalAuthorityOne, fixtures.MandatoryWithMaxChildren); err != nil {
				return err
			}
			for _, e := range []struct {
				organisation string
				pick         func(*config.Users) *config.User
			}{
				{PrivateSolicitors, func(u *config.Users) *config.User { return &u.PrivateSolicitorOne }},
				{Hillingdon, func(u *config.Users) *config.User { return &u.HillingdonLocalAuthorityOne }},
				{Wiltshire, func(u *config.Users) *config.User { return &u.WiltshireLocalAuthorityOne }},
			} {
				if err := enrich(ctx, s, e.organisation, e.pick); err != nil {
					return err
				}
			}
			return nil
		},
		Scenarios: []scenario.Scenario{
			{Name: "Solicitor cannot request representation before case submission and Cafcass solicitor is set", Run: nocBeforeSubmission},
			{Name: "HMCTS confirm that a main solicitor is not assigned for all the children yet", Run: noMainSolicitor},
			{Name: "HMCTS assign a main solicitor for all the children", Run: assignMainSolicitor},
			{Name: "Solicitor can request representation only after case submission and Cafcass solicitor is set", Run: nocAfterMainSolicitor},
		},
	}
}

func children() []fixtures.Party {
	return fixtures.MustLoad(fixtures.MandatoryWithMaxChildren).Children()
}

// attemptAndFailNoC fills the notice of change for child as solicitor and
// expects the client details to be rejected.
func attemptAndFailNoC(s *scenario.Scope, solicitor config.User, child fixtures.Party) step {
	a, noc := s.Actor, s.Pages.NoticeOfChange
	return func(ctx context.Context) error {
		return do(ctx,
			bind(a.SignIn, solicitor),
			func(ctx context.Context) error {
				return noc.UserFillsNoC(ctx, s.CaseID(), applicantName, child.FirstName, child.LastName)
			},
			bind(a.Click, "Continue"),
			bind(a.WaitForText, pages.NoCDetailsError),
		)
	}
}

func nocBeforeSubmission(ctx context.Context, s *scenario.Scope) error {
	a, noc := s.Actor, s.Pages.NoticeOfChange
	caseID := s.CaseID()
	return do(ctx,
		bind(a.SignIn, s.Users.PrivateSolicitorOne),
		bind(s.Pages.CaseList.VerifyCaseIsNotAccessible, caseID),
		noc.Navigate,
		bind(noc.EnterCaseReference, caseID),
		bind(a.Click, "Continue"),
		bind(a.WaitForText, pages.NoCNotSubmitted),
		func(ctx context.Context) error {
			return a.NavigateToCaseDetailsAs(ctx, s.Users.SwanseaLocalAuthorityOne, caseID)
		},
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionSubmitCase),
		s.Pages.SubmitApplication.GiveConsent,
		func(ctx context.Context) error { return a.CompleteEvent(ctx, "Submit") },
		attemptAndFailNoC(s, s.Users.HillingdonLocalAuthorityOne, children()[0]),
	)
}

func noMainSolicitor(ctx context.Context, s *scenario.Scope) error {
	a := s.Actor
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, s.Users.HMCTSAdmin, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionAmendChildren),
		a.GoToNextPage,
		bind(s.Pages.Children.SelectAnyChildHasLegalRepresentation, false),
		completeEvent(a, pages.ActionAmendChildren, saveAndContinue),
		attemptAndFailNoC(s, s.Users.HillingdonLocalAuthorityOne, children()[0]),
	)
}

func childRows(idx int, child fixtures.Party, solicitor config.User) []row {
	section := tabs.Path{fmt.Sprintf("Child %d", idx)}
	rows := under(append(section, "Party"),
		field("First name", child.FirstName),
		field("Last name", child.LastName),
		field("Date of birth", child.DisplayDateOfBirth()),
		field("Gender", child.Gender),
	)
	return append(rows, representativeRows(append(section, "Representative"), solicitor)...)
}

func assignMainSolicitor(ctx context.Context, s *scenario.Scope) error {
	a, ch := s.Actor, s.Pages.Children
	solicitor := s.Users.PrivateSolicitorOne
	steps := []step{
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, s.Users.HMCTSAdmin, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionAmendChildren),
		a.GoToNextPage,
		bind(ch.SelectAnyChildHasLegalRepresentation, true),
		bind(ch.EnterChildrenMainRepresentation, solicitor),
		bind(ch.EnterRegisteredOrganisation, solicitor),
		a.GoToNextPage,
		bind(ch.SelectChildrenHaveSameRepresentation, true),
		completeEvent(a, pages.ActionAmendChildren, saveAndContinue),
		selectTab(a, tabs.CasePeople),
	}
	for i, child := range children() {
		section := tabs.Path{fmt.Sprintf("Child %d", i+1), "Representative", "Name"}
		steps = append(steps,
			seeInTab(a, childRows(i+1, child, solicitor)...),
			seeOrganisationInTab(a, section, solicitor.Organisation),
		)
	}
	return do(ctx, steps...)
}

func nocAfterMainSolicitor(ctx context.Context, s *scenario.Scope) error {
	a := s.Actor
	child := children()[0]
	return do(ctx,
		bind(a.SignIn, s.Users.PrivateSolicitorOne),
		bind(s.Pages.CaseList.VerifyCaseIsNotAccessible, s.CaseID()),
		func(ctx context.Context) error {
			return s.Pages.NoticeOfChange.UserCompletesNoC(ctx, s.CaseID(), applicantName, child.FirstName, child.LastName)
		},
	)
}
