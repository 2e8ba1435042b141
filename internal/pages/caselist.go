package pages

import (
	"context"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
)

var caseListFields = struct {
	jurisdiction       driver.Selector
	caseType           driver.Selector
	caseState          driver.Selector
	evidenceHandled    driver.Selector
	evidenceNotHandled driver.Selector
	caseID             driver.Selector
	caseName           driver.Selector
}{
	jurisdiction:       driver.ByID("wb-jurisdiction"),
	caseType:           driver.ByID("wb-case-type"),
	caseState:          driver.ByID("wb-case-state"),
	evidenceHandled:    driver.ByID("evidenceHandled_Yes"),
	evidenceNotHandled: driver.ByID("evidenceHandled_No"),
	caseID:             driver.Field("CCD Case Number"),
	caseName:           driver.ByID("caseName"),
}

const (
	searchButton = "Apply"
	noCasesFound = "No cases found. Try using different filters."
	anyState     = "Any"
)

// CaseListPage is the filterable list of cases the signed-in user can access.
type CaseListPage struct {
	a *Actor
}

// Navigate opens the case list from the header link.
func (p *CaseListPage) Navigate(ctx context.Context) error {
	return p.a.Click(ctx, "Case list")
}

// SetInitialSearchFields picks the jurisdiction, case type and state filters.
func (p *CaseListPage) SetInitialSearchFields(ctx context.Context, state string) error {
	d := p.a.d
	if err := p.a.poller.Check(ctx, driver.Visible(d, caseListFields.jurisdiction)); err != nil {
		return err
	}
	if err := d.SelectOption(ctx, caseListFields.jurisdiction, JurisdictionDescription); err != nil {
		return err
	}
	if err := d.SelectOption(ctx, caseListFields.caseType, CaseTypeDescription); err != nil {
		return err
	}
	return d.SelectOption(ctx, caseListFields.caseState, state)
}

// ChangeStateFilter re-runs the search for cases in state.
func (p *CaseListPage) ChangeStateFilter(ctx context.Context, state string) error {
	if err := p.SetInitialSearchFields(ctx, state); err != nil {
		return err
	}
	return p.a.Click(ctx, searchButton)
}

// SearchForCasesWithID filters by case number in any state.
func (p *CaseListPage) SearchForCasesWithID(ctx context.Context, caseID string) error {
	if err := p.SetInitialSearchFields(ctx, anyState); err != nil {
		return err
	}
	if err := p.a.d.Fill(ctx, caseListFields.caseID, caseID); err != nil {
		return err
	}
	return p.a.Click(ctx, searchButton)
}

// SearchForCasesWithName filters by case name in any state.
func (p *CaseListPage) SearchForCasesWithName(ctx context.Context, caseName string) error {
	if err := p.SetInitialSearchFields(ctx, anyState); err != nil {
		return err
	}
	if err := p.a.poller.Check(ctx, driver.Visible(p.a.d, caseListFields.caseName)); err != nil {
		return err
	}
	if err := p.a.d.Fill(ctx, caseListFields.caseName, caseName); err != nil {
		return err
	}
	return p.a.Click(ctx, searchButton)
}

// SearchForCasesWithHandledEvidences filters by case number and handled evidence.
func (p *CaseListPage) SearchForCasesWithHandledEvidences(ctx context.Context, caseID string) error {
	if err := p.SetInitialSearchFields(ctx, anyState); err != nil {
		return err
	}
	if err := p.a.poller.Check(ctx, driver.Visible(p.a.d, caseListFields.evidenceHandled)); err != nil {
		return err
	}
	if err := p.a.d.Fill(ctx, caseListFields.caseID, caseID); err != nil {
		return err
	}
	if err := p.a.d.Click(ctx, caseListFields.evidenceHandled); err != nil {
		return err
	}
	return p.a.Click(ctx, searchButton)
}

// SearchForCasesWithUnhandledEvidences narrows the current search to
// unhandled evidence.
func (p *CaseListPage) SearchForCasesWithUnhandledEvidences(ctx context.Context) error {
	if err := p.a.d.Click(ctx, caseListFields.evidenceNotHandled); err != nil {
		return err
	}
	return p.a.Click(ctx, searchButton)
}

// VerifyCaseIsShareable searches until the case is listed and checks its
// share checkbox is enabled.
func (p *CaseListPage) VerifyCaseIsShareable(ctx context.Context, caseID string) error {
	if err := p.a.NavigateToCaseList(ctx); err != nil {
		return err
	}
	search := func(ctx context.Context) error { return p.SearchForCasesWithID(ctx, caseID) }
	if err := p.a.RetryUntilExists(ctx, search, caseLink(caseID)); err != nil {
		return err
	}
	return p.a.SeeElement(ctx, driver.XPath(`//input[@id=`+driver.Literal("select-"+caseID)+`][not(@disabled)]`))
}

// VerifyCaseIsNotAccessible searches for the case and expects no results.
func (p *CaseListPage) VerifyCaseIsNotAccessible(ctx context.Context, caseID string) error {
	if err := p.a.NavigateToCaseList(ctx); err != nil {
		return err
	}
	if err := p.SearchForCasesWithID(ctx, caseID); err != nil {
		return err
	}
	if err := p.a.poller.Check(ctx, driver.Gone(p.a.d, spinner)); err != nil {
		return err
	}
	return p.a.WaitForText(ctx, noCasesFound)
}
