// Package pages drives the case management web application through typed
// page objects. Every wait goes through the actor's poller; page objects
// never sleep.
package pages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

var (
	eventTrigger = driver.XPath("//ccd-case-event-trigger")
	caseTitle    = driver.XPath("//*[" + driver.HasClass("case-title") + "]//*[" + driver.HasClass("markdown") + "]")
	removeButton = driver.XPath(`//button[normalize-space(.)="Remove"]`)
	spinner      = driver.XPath("//xuilib-loading-spinner")
)

// Actor is one signed-in user's view of the application within a single
// browser session.
type Actor struct {
	d       driver.Driver
	poller  *poll.Poller
	baseURL string
	logger  *slog.Logger
	nav     *tabs.Navigator
	reader  *tabs.Reader
	login   *LoginPage
}

// NewActor returns an Actor for the session d against the application at baseURL.
func NewActor(d driver.Driver, p *poll.Poller, baseURL string, logger *slog.Logger) *Actor {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Actor{
		d:       d,
		poller:  p,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		nav:     tabs.NewNavigator(d, p, logger),
		reader:  tabs.NewReader(d, logger),
	}
	a.login = &LoginPage{a: a}
	return a
}

// Driver returns the underlying session.
func (a *Actor) Driver() driver.Driver { return a.d }

// Poller returns the poller every wait of the actor goes through.
func (a *Actor) Poller() *poll.Poller { return a.poller }

// SignIn starts a fresh session for user.
func (a *Actor) SignIn(ctx context.Context, user config.User) error {
	a.logger.Info("signing in", "user", user.Email)
	if err := a.d.ClearCookies(ctx); err != nil {
		return err
	}
	if err := a.d.Navigate(ctx, a.baseURL); err != nil {
		return err
	}
	return a.login.SignIn(ctx, user)
}

// NavigateToCaseDetails opens a case and waits for its title.
func (a *Actor) NavigateToCaseDetails(ctx context.Context, caseID string) error {
	if err := a.d.Navigate(ctx, a.CaseDetailsURL(caseID)); err != nil {
		return err
	}
	return a.poller.Check(ctx, driver.Visible(a.d, caseTitle))
}

// NavigateToCaseDetailsAs signs in as user and opens the case.
func (a *Actor) NavigateToCaseDetailsAs(ctx context.Context, user config.User, caseID string) error {
	if err := a.SignIn(ctx, user); err != nil {
		return err
	}
	return a.NavigateToCaseDetails(ctx, caseID)
}

// CaseDetailsURL is the address of a case's view.
func (a *Actor) CaseDetailsURL(caseID string) string {
	return a.baseURL + "/cases/case-details/" + caseID
}

// NavigateToCaseList opens the case list and waits for its filters.
func (a *Actor) NavigateToCaseList(ctx context.Context) error {
	if err := a.d.Navigate(ctx, a.baseURL+"/cases"); err != nil {
		return err
	}
	return a.poller.Check(ctx, driver.Visible(a.d, caseListFields.jurisdiction))
}

// RetryUntilExists repeats action until sel is in the DOM.
func (a *Actor) RetryUntilExists(ctx context.Context, action poll.Action, sel driver.Selector) error {
	return a.poller.Until(ctx, action, driver.Exists(a.d, sel))
}

// Clickable matches a button or a link by its visible label.
func Clickable(label string) driver.Selector {
	return driver.XPath(driver.Button(label).String() + " | " + driver.Link(label).String())
}

// Click clicks the first visible button or link labelled label.
func (a *Actor) Click(ctx context.Context, label string) error {
	return a.d.Click(ctx, Clickable(label))
}

// ClickAction returns a poll.Action clicking label, for use with RetryUntilExists.
func (a *Actor) ClickAction(label string) poll.Action {
	return func(ctx context.Context) error { return a.Click(ctx, label) }
}

// GoToNextPage continues a multi-page event and waits for the next page.
func (a *Actor) GoToNextPage(ctx context.Context) error {
	return a.submitAndLeave(ctx, "Continue")
}

func (a *Actor) submitAndLeave(ctx context.Context, label string) error {
	before, err := a.d.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if err := a.Click(ctx, label); err != nil {
		return err
	}
	return a.poller.Check(ctx, poll.Condition{
		Description: "page changes after " + label,
		Check: func(ctx context.Context) (bool, error) {
			now, err := a.d.CurrentURL(ctx)
			return now != before, err
		},
	})
}

// CompleteEvent moves to the check-your-answers page and submits the event
// with button.
func (a *Actor) CompleteEvent(ctx context.Context, button string) error {
	if err := a.GoToNextPage(ctx); err != nil {
		return err
	}
	if err := a.Click(ctx, button); err != nil {
		return err
	}
	return a.poller.Check(ctx, driver.Gone(a.d, eventTrigger))
}

// SeeEventSubmissionConfirmation waits for the banner naming event.
func (a *Actor) SeeEventSubmissionConfirmation(ctx context.Context, event string) error {
	return a.poller.Check(ctx, driver.PageContains(a.d, "has been updated with event: "+event))
}

// StartEventViaHyperlink opens an event from a link on the case view.
func (a *Actor) StartEventViaHyperlink(ctx context.Context, link string) error {
	return a.RetryUntilExists(ctx, func(ctx context.Context) error {
		return a.d.Click(ctx, driver.Link(link))
	}, eventTrigger)
}

// AddAnotherElementToCollection adds an element to the named collection
// field and waits for its inputs.
func (a *Actor) AddAnotherElementToCollection(ctx context.Context, collection string) error {
	before, err := a.d.CountVisible(ctx, removeButton)
	if err != nil {
		return err
	}
	add := driver.XPath(`//ccd-write-collection-field[.//h2[` + driver.TextEquals(collection) + `]]//button[normalize-space(.)="Add new"]`).Nth(1)
	if err := a.d.Click(ctx, add); err != nil {
		return err
	}
	return a.poller.Check(ctx, poll.Condition{
		Description: "new element in " + collection,
		Check: func(ctx context.Context) (bool, error) {
			n, err := a.d.CountVisible(ctx, removeButton)
			return n > before, err
		},
	})
}

// See checks that text is on the page now.
func (a *Actor) See(ctx context.Context, text string) error {
	body, err := a.d.PageText(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(body, text) {
		return failure.New(failure.CodeAssertionMismatch, fmt.Sprintf("text %q not on page", text), nil)
	}
	return nil
}

// DontSee checks that text is not on the page now.
func (a *Actor) DontSee(ctx context.Context, text string) error {
	body, err := a.d.PageText(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(body, text) {
		return failure.New(failure.CodeAssertionMismatch, fmt.Sprintf("text %q is on page", text), nil)
	}
	return nil
}

// WaitForText waits until text is on the page.
func (a *Actor) WaitForText(ctx context.Context, text string) error {
	return a.poller.Check(ctx, driver.PageContains(a.d, text))
}

// SeeElement checks that sel is rendered now.
func (a *Actor) SeeElement(ctx context.Context, sel driver.Selector) error {
	n, err := a.d.CountVisible(ctx, sel)
	if err != nil {
		return err
	}
	if n == 0 {
		return failure.New(failure.CodeAssertionMismatch, "element not visible: "+sel.String(), nil)
	}
	return nil
}

// DontSeeElement checks that sel is not rendered now.
func (a *Actor) DontSeeElement(ctx context.Context, sel driver.Selector) error {
	n, err := a.d.CountVisible(ctx, sel)
	if err != nil {
		return err
	}
	if n > 0 {
		return failure.New(failure.CodeAssertionMismatch, "element visible: "+sel.String(), nil)
	}
	return nil
}

func caseLink(caseID string) driver.Selector {
	return driver.XPath(`//a[contains(@href, ` + driver.Literal(caseID) + `)]`)
}

// SeeCaseInSearchResult waits for the case to be listed.
func (a *Actor) SeeCaseInSearchResult(ctx context.Context, caseID string) error {
	return a.poller.Check(ctx, driver.Visible(a.d, caseLink(caseID)))
}

// DontSeeCaseInSearchResult waits for the search to settle and checks the
// case is not listed.
func (a *Actor) DontSeeCaseInSearchResult(ctx context.Context, caseID string) error {
	if err := a.poller.Check(ctx, driver.Gone(a.d, spinner)); err != nil {
		return err
	}
	return a.DontSeeElement(ctx, caseLink(caseID))
}

// SelectTab activates a tab of the case view.
func (a *Actor) SelectTab(ctx context.Context, name string) (tabs.Panel, error) {
	return a.nav.Select(ctx, name)
}

// SeeInTab checks the value rendered at path in the active tab.
func (a *Actor) SeeInTab(ctx context.Context, path tabs.Path, expected string, opts ...tabs.MatchOption) error {
	return a.reader.See(ctx, path, expected, opts...)
}

// DontSeeInTab checks that path is not rendered in the active tab.
func (a *Actor) DontSeeInTab(ctx context.Context, path tabs.Path) error {
	return a.reader.DontSee(ctx, path)
}

// SeeOrganisationInTab checks an organisation row in the active tab.
func (a *Actor) SeeOrganisationInTab(ctx context.Context, path tabs.Path, organisation string) error {
	return a.reader.SeeOrganisation(ctx, path, organisation)
}

// SeeInTabEventually polls the active tab until path renders expected.
func (a *Actor) SeeInTabEventually(ctx context.Context, path tabs.Path, expected string, opts ...tabs.MatchOption) error {
	return a.reader.Eventually(ctx, a.poller, path, expected, opts...)
}
