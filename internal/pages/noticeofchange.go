package pages

import (
	"context"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
)

// Messages the notice of change journey shows.
const (
	NoCReferenceError    = "Enter an online case reference number that exactly matches the case details"
	NoCDetailsError      = "Enter the client details exactly as they’re written on the case, including any mistakes"
	NoCNotSubmitted      = "Your notice of change request has not been submitted"
	NoCSuccessful        = "Notice of change successful"
	noticeOfChangeHeader = "Notice of change"
)

var nocFields = struct {
	caseReference    driver.Selector
	applicantName    driver.Selector
	firstName        driver.Selector
	lastName         driver.Selector
	confirmNoC       driver.Selector
	notifyEveryParty driver.Selector
	confirmation     driver.Selector
}{
	caseReference:    driver.ByID("caseRef"),
	applicantName:    driver.ByID("applicantName"),
	firstName:        driver.ByID("respondentFirstName"),
	lastName:         driver.ByID("respondentLastName"),
	confirmNoC:       driver.ByID("affirmation"),
	notifyEveryParty: driver.ByID("notifyEveryParty"),
	confirmation:     driver.ByClass("govuk-panel--confirmation"),
}

// NoticeOfChangePage lets a solicitor claim representation of a party.
type NoticeOfChangePage struct {
	a *Actor
}

// ApplicantNameField is present once the case reference was accepted.
func (p *NoticeOfChangePage) ApplicantNameField() driver.Selector { return nocFields.applicantName }

// Navigate opens the journey from the header link.
func (p *NoticeOfChangePage) Navigate(ctx context.Context) error {
	return p.a.RetryUntilExists(ctx, func(ctx context.Context) error {
		return p.a.d.Click(ctx, driver.Link(noticeOfChangeHeader))
	}, nocFields.caseReference)
}

// EnterCaseReference types the case number.
func (p *NoticeOfChangePage) EnterCaseReference(ctx context.Context, caseID string) error {
	if err := p.a.poller.Check(ctx, driver.Visible(p.a.d, nocFields.caseReference)); err != nil {
		return err
	}
	return p.a.d.Fill(ctx, nocFields.caseReference, caseID)
}

// EnterApplicantName types the applicant named on the case.
func (p *NoticeOfChangePage) EnterApplicantName(ctx context.Context, name string) error {
	if err := p.a.poller.Check(ctx, driver.Visible(p.a.d, nocFields.applicantName)); err != nil {
		return err
	}
	return p.a.d.Fill(ctx, nocFields.applicantName, name)
}

// EnterRespondentName types the represented party's names.
func (p *NoticeOfChangePage) EnterRespondentName(ctx context.Context, firstName, lastName string) error {
	if err := p.a.d.Fill(ctx, nocFields.firstName, firstName); err != nil {
		return err
	}
	return p.a.d.Fill(ctx, nocFields.lastName, lastName)
}

// ConfirmNoticeOfChange ticks both declarations.
func (p *NoticeOfChangePage) ConfirmNoticeOfChange(ctx context.Context) error {
	if err := p.a.d.Check(ctx, nocFields.confirmNoC); err != nil {
		return err
	}
	return p.a.d.Check(ctx, nocFields.notifyEveryParty)
}

// UserFillsNoC completes the reference and client details pages without
// continuing past them.
func (p *NoticeOfChangePage) UserFillsNoC(ctx context.Context, caseID, applicant, firstName, lastName string) error {
	if err := p.Navigate(ctx); err != nil {
		return err
	}
	if err := p.EnterCaseReference(ctx, caseID); err != nil {
		return err
	}
	if err := p.a.RetryUntilExists(ctx, p.a.ClickAction("Continue"), nocFields.applicantName); err != nil {
		return err
	}
	if err := p.EnterApplicantName(ctx, applicant); err != nil {
		return err
	}
	return p.EnterRespondentName(ctx, firstName, lastName)
}

// UserCompletesNoC runs the whole journey and waits for the success panel.
func (p *NoticeOfChangePage) UserCompletesNoC(ctx context.Context, caseID, applicant, firstName, lastName string) error {
	if err := p.UserFillsNoC(ctx, caseID, applicant, firstName, lastName); err != nil {
		return err
	}
	if err := p.a.RetryUntilExists(ctx, p.a.ClickAction("Continue"), nocFields.confirmNoC); err != nil {
		return err
	}
	if err := p.ConfirmNoticeOfChange(ctx); err != nil {
		return err
	}
	if err := p.a.RetryUntilExists(ctx, p.a.ClickAction("Submit"), nocFields.confirmation); err != nil {
		return err
	}
	return p.a.See(ctx, NoCSuccessful)
}
