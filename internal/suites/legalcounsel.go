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

// Organisations the test solicitors belong to.
const (
	PrivateSolicitors = "Private solicitors"
	Hillingdon        = "London Borough Hillingdon"
	Wiltshire         = "Wiltshire County Council"
)

// LegalCounselCollection labels the collection of the legal counsel event.
const LegalCounselCollection = "Legal counsel"

// Counsellor is the barrister the legal counsel feature adds.
var Counsellor = pages.LegalCounsellor{
	FirstName: "Ted",
	LastName:  "Robinson",
	Email:     "ted.robinson@example.com",
	Telephone: "07700 900123",
}

// LegalCounsel covers a solicitor taking over a respondent and adding a
// barrister to it.
func LegalCounsel() scenario.Feature {
	return scenario.Feature{
		Name:   "Representative barristers",
		Serial: true,
		Setup: func(ctx context.Context, s *scenario.Scope) error {
			if _, err := s.CreateCase(ctx, s.Users.SwanseaLocalAuthorityOne, fixtures.MandatorySubmissionFields); err != nil {
				return err
			}
			return enrich(ctx, s, PrivateSolicitors, func(u *config.Users) *config.User { return &u.PrivateSolicitorOne })
		},
		Scenarios: []scenario.Scenario{
			{Name: "Private solicitor takes over a respondent through NoC", Run: solicitorTakesOverRespondent},
			{Name: "Private solicitor adds legal counsel", Run: solicitorAddsLegalCounsel},
		},
	}
}

// enrich fetches the names of the user pick selects and records its
// organisation, for the feature's later scenarios.
func enrich(ctx context.Context, s *scenario.Scope, organisation string, pick func(*config.Users) *config.User) error {
	users := s.Shared.Users()
	enriched, err := s.Cases.Enrich(ctx, *pick(&users), organisation)
	if err != nil {
		return err
	}
	s.Shared.UpdateUsers(func(u *config.Users) { *pick(u) = enriched })
	*pick(&s.Users) = enriched
	return nil
}

func representativeRows(section tabs.Path, user config.User) []row {
	return under(section,
		field("Representative's first name", user.Forename),
		field("Representative's last name", user.Surname),
		field("Email address", user.Email),
	)
}

func changeOfRepresentativeRows(index int, party, updatedBy string, added config.User) []row {
	section := tabs.Path{fmt.Sprintf("Change of representative %d", index)}
	rows := under(section,
		field("Respondent", party),
		field("Date", today()),
		field("Updated by", updatedBy),
		field("Updated via", "Notice of change"),
	)
	return append(rows, under(append(section, "Added representative"),
		field("First name", added.Forename),
		field("Last name", added.Surname),
		field("Email", added.Email),
	)...)
}

func solicitorTakesOverRespondent(ctx context.Context, s *scenario.Scope) error {
	a, solicitor := s.Actor, s.Users.PrivateSolicitorOne
	caseID := s.CaseID()
	return do(ctx,
		bind(a.SignIn, solicitor),
		func(ctx context.Context) error {
			return s.Pages.NoticeOfChange.UserCompletesNoC(ctx, caseID, applicantName, "Joe", "Bloggs")
		},
		bind(a.NavigateToCaseDetails, caseID),
		selectTab(a, tabs.CasePeople),
		seeInTab(a, representativeRows(tabs.Path{"Representative"}, solicitor)...),
		seeOrganisationInTab(a, tabs.Path{"Respondents 1", "Representative", "Name"}, solicitor.Organisation),
		selectTab(a, tabs.ChangeOfRepresentatives),
		seeInTab(a, changeOfRepresentativeRows(1, "Joe Bloggs", solicitor.Email, solicitor)...),
		seeOrganisationInTab(a, tabs.Path{"Change of representative 1", "Added representative", "Name"}, solicitor.Organisation),
	)
}

func solicitorAddsLegalCounsel(ctx context.Context, s *scenario.Scope) error {
	a := s.Actor
	return do(ctx,
		func(ctx context.Context) error {
			return a.NavigateToCaseDetailsAs(ctx, s.Users.PrivateSolicitorOne, s.CaseID())
		},
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionAddOrRemoveLegalCounsel),
		bind(a.AddAnotherElementToCollection, LegalCounselCollection),
		bind(s.Pages.LegalCounsellors.AddLegalCounsellor, Counsellor),
		completeEvent(a, pages.ActionAddOrRemoveLegalCounsel, saveAndContinue),
		selectTab(a, tabs.CasePeople),
		seeInTab(a, under(tabs.Path{"Respondents 1", "Legal counsellor 1"},
			field("First name", Counsellor.FirstName),
			field("Last name", Counsellor.LastName),
			field("Email address", Counsellor.Email),
		)...),
	)
}
