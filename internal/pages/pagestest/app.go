// Package pagestest simulates the case management application on top of a
// drivertest page, so page objects and suites can run without a browser.
package pagestest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver/drivertest"
)

// BaseURL is where the simulated application is served.
const BaseURL = "https://manage-case.test"

// Values are the form inputs submitted with an event, keyed by element id.
// Ticked radios and checkboxes have the value "checked".
type Values map[string]string

// EventForm describes an event's pages and what submitting it does.
type EventForm struct {
	Pages []string
	// SubmitLabel labels the check-your-answers button, "Save and continue"
	// when empty.
	SubmitLabel string
	// Show decides whether page i is shown given the values so far. Every
	// page is shown when nil.
	Show func(i int, values Values) bool
	// Rows renders row idx of the named collection field, see Collection.
	Rows map[string]func(idx int) string
	// OnSubmit runs with the application locked and may change the case.
	OnSubmit func(c *Case, user string, values Values)
}

// Case is one case of the simulated application.
type Case struct {
	ID        string
	Title     string
	Submitted bool
	Applicant string
	// Parties are "First Last" names a notice of change may claim.
	Parties []string
	// Access lists who may open the case; nil means everyone.
	Access map[string]bool
	Tabs   []string
	// Content holds the markup of each tab's table.
	Content map[string]string
	Events  map[string]EventForm
	// OnNoticeOfChange runs when user gains access through a notice of change.
	OnNoticeOfChange func(c *Case, user, party string)
}

// App is the simulated application. All fields are guarded by mu.
type App struct {
	Page *drivertest.Page

	mu        sync.Mutex
	users     map[string]string
	cases     map[string]*Case
	signedIn  string
	current   *Case
	banner    string
	selected  int
	offset    int
	tabWindow int
	// event in progress
	action string
	step   int
	values Values
	// notice of change in progress
	nocCase  *Case
	nocError string
}

// New returns an application showing its login page.
func New(users map[string]string) *App {
	app := &App{
		users:     users,
		cases:     make(map[string]*Case),
		tabWindow: 6,
	}
	app.Page = drivertest.New(BaseURL, app.loginMarkup(""))
	app.Page.Route(BaseURL, app.renderHome)
	app.Page.Route(BaseURL+"/cases", app.renderCaseList)
	app.Page.Route(BaseURL+"/noc", app.renderNoC)
	app.registerHooks()
	return app
}

// SetTabWindow sets how many tab headers fit before the strip pages.
func (app *App) SetTabWindow(n int) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.tabWindow = n
}

// AddCase makes c reachable at its case-details URL.
func (app *App) AddCase(c *Case) {
	app.mu.Lock()
	app.cases[c.ID] = c
	app.mu.Unlock()
	app.Page.Route(CaseURL(c.ID), func() string {
		app.mu.Lock()
		defer app.mu.Unlock()
		return app.openCase(c.ID)
	})
}

// Update runs fn with the application locked.
func (app *App) Update(fn func()) {
	app.mu.Lock()
	defer app.mu.Unlock()
	fn()
}

// SignedIn returns the current user's email.
func (app *App) SignedIn() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.signedIn
}

// CaseURL is the case-details address of a case.
func CaseURL(id string) string {
	return BaseURL + "/cases/case-details/" + id
}

func (app *App) registerHooks() {
	p := app.Page
	p.OnClick(driver.XPath(`//input[@value="Sign in"]`), app.onSignIn)
	p.OnClick(driver.Link("Case list"), func(p *drivertest.Page, _ *html.Node) {
		_ = p.Navigate(context.Background(), BaseURL+"/cases")
	})
	p.OnClick(driver.Link("Notice of change"), func(p *drivertest.Page, _ *html.Node) {
		_ = p.Navigate(context.Background(), BaseURL+"/noc")
	})
	p.OnClick(driver.Button("Apply"), app.onSearch)
	p.OnClick(driver.Button("Go"), func(p *drivertest.Page, _ *html.Node) {
		app.startEvent(p, p.Attr(driver.ByClass("ccd-dropdown"), "value"))
	})
	p.OnClick(driver.XPath(`//a[@data-event]`), func(p *drivertest.Page, n *html.Node) {
		app.startEvent(p, htmlquery.SelectAttr(n, "data-event"))
	})
	p.OnClick(driver.XPath(`//ccd-write-collection-field//button[normalize-space(.)="Add new"]`), app.onAddNew)
	p.OnClick(driver.Button("Continue"), app.onContinue)
	p.OnClick(driver.XPath(`//ccd-case-event-trigger//button[@data-submit]`), app.onSubmitEvent)
	p.OnClick(driver.Button("Submit"), app.onSubmitNoC)
	p.OnClick(driver.Link("Cancel"), app.onCancel)
	p.OnClick(driver.XPath(`//input[@type="radio" or @type="checkbox"]`), func(p *drivertest.Page, n *html.Node) {
		p.SetAttr(driver.ByID(htmlquery.SelectAttr(n, "id")), "checked", "checked")
	})
	p.OnClick(driver.ByClass("mat-tab-header-pagination-after"), func(p *drivertest.Page, _ *html.Node) {
		app.mu.Lock()
		if c := app.current; c != nil && app.offset+app.tabWindow < len(c.Tabs) {
			app.offset++
		}
		markup := app.caseViewMarkup()
		app.mu.Unlock()
		p.SetHTML(markup)
	})
	p.OnClick(driver.XPath(`//*[@role="tab"]`), func(p *drivertest.Page, n *html.Node) {
		var idx int
		fmt.Sscanf(htmlquery.SelectAttr(n, "id"), "mat-tab-label-0-%d", &idx)
		app.mu.Lock()
		app.selected = idx
		markup := app.caseViewMarkup()
		app.mu.Unlock()
		p.SetHTML(markup)
	})
}

func (app *App) onSignIn(p *drivertest.Page, _ *html.Node) {
	email := p.Attr(driver.ByID("username"), "value")
	password := p.Attr(driver.ByID("password"), "value")
	app.mu.Lock()
	want, ok := app.users[email]
	if !ok || want != password {
		markup := app.loginMarkup("Incorrect email or password")
		app.mu.Unlock()
		p.SetHTML(markup)
		return
	}
	app.signedIn = email
	app.mu.Unlock()
	_ = p.Navigate(context.Background(), BaseURL+"/cases")
}

func (app *App) onSearch(p *drivertest.Page, _ *html.Node) {
	id := p.Attr(driver.ByID("caseReference"), "value")
	app.mu.Lock()
	markup := app.caseListMarkup(id, true)
	app.mu.Unlock()
	p.SetHTML(markup)
}

func (app *App) startEvent(p *drivertest.Page, action string) {
	app.mu.Lock()
	c := app.current
	if c == nil {
		app.mu.Unlock()
		return
	}
	form, ok := c.Events[action]
	if !ok {
		app.mu.Unlock()
		return
	}
	app.action, app.step, app.values = action, 0, Values{}
	app.nocCase = nil
	app.skipHidden(form)
	url, markup := app.eventPage()
	app.mu.Unlock()
	p.SetURL(url)
	p.SetHTML(markup)
}

func (app *App) onContinue(p *drivertest.Page, clicked *html.Node) {
	values := formValues(clicked)
	app.mu.Lock()
	if app.nocCase != nil || app.current == nil || app.action == "" {
		url, markup := app.continueNoC(values)
		app.mu.Unlock()
		p.SetURL(url)
		p.SetHTML(markup)
		return
	}
	for k, v := range values {
		app.values[k] = v
	}
	app.step++
	app.skipHidden(app.current.Events[app.action])
	url, markup := app.eventPage()
	app.mu.Unlock()
	p.SetURL(url)
	p.SetHTML(markup)
}

func (app *App) onSubmitEvent(p *drivertest.Page, _ *html.Node) {
	app.mu.Lock()
	c := app.current
	form := c.Events[app.action]
	if form.OnSubmit != nil {
		form.OnSubmit(c, app.signedIn, app.values)
	}
	app.banner = fmt.Sprintf("Case #%s has been updated with event: %s", c.ID, app.action)
	app.action = ""
	markup := app.caseViewMarkup()
	app.mu.Unlock()
	p.SetURL(CaseURL(c.ID))
	p.SetHTML(markup)
}

func (app *App) onAddNew(p *drivertest.Page, clicked *html.Node) {
	field := clicked
	for field != nil && field.Data != "ccd-write-collection-field" {
		field = field.Parent
	}
	if field == nil {
		return
	}
	name := htmlquery.SelectAttr(field, "data-collection")
	idx := len(htmlquery.Find(field, `.//button[normalize-space(.)="Remove"]`))
	app.mu.Lock()
	var row func(int) string
	if c := app.current; c != nil {
		row = c.Events[app.action].Rows[name]
	}
	app.mu.Unlock()
	if row == nil {
		return
	}
	_ = p.AppendHTML(collectionRows(name), `<div class="collection-row"><button type="button">Remove</button>`+row(idx)+`</div>`)
}

func (app *App) onCancel(p *drivertest.Page, _ *html.Node) {
	app.mu.Lock()
	c := app.current
	if c == nil {
		app.mu.Unlock()
		return
	}
	app.action = ""
	markup := app.caseViewMarkup()
	app.mu.Unlock()
	p.SetURL(CaseURL(c.ID))
	p.SetHTML(markup)
}

func (app *App) onSubmitNoC(p *drivertest.Page, clicked *html.Node) {
	values := formValues(clicked)
	app.mu.Lock()
	c := app.nocCase
	if c == nil || values["affirmation"] != "checked" || values["notifyEveryParty"] != "checked" {
		app.mu.Unlock()
		return
	}
	if c.Access != nil {
		c.Access[app.signedIn] = true
	}
	if c.OnNoticeOfChange != nil {
		c.OnNoticeOfChange(c, app.signedIn, app.values["respondentFirstName"]+" "+app.values["respondentLastName"])
	}
	app.nocCase = nil
	markup := app.chrome(`<div class="govuk-panel govuk-panel--confirmation"><h1 class="govuk-panel__title">Notice of change successful</h1></div>`)
	app.mu.Unlock()
	p.SetURL(BaseURL + "/noc/submitted")
	p.SetHTML(markup)
}

// continueNoC advances the notice of change journey. Must hold mu.
func (app *App) continueNoC(values Values) (string, string) {
	if app.nocCase == nil {
		ref := strings.ReplaceAll(values["caseRef"], "-", "")
		c, ok := app.cases[ref]
		switch {
		case !ok:
			return BaseURL + "/noc", app.nocReferenceMarkup(`Enter an online case reference number that exactly matches the case details`)
		case !c.Submitted:
			return BaseURL + "/noc", app.chrome(`<h1>Your notice of change request has not been submitted</h1>`)
		}
		app.nocCase, app.values = c, Values{}
		return BaseURL + "/noc/details", app.nocDetailsMarkup("")
	}
	c := app.nocCase
	party := values["respondentFirstName"] + " " + values["respondentLastName"]
	known := false
	for _, p := range c.Parties {
		known = known || p == party
	}
	if values["applicantName"] != c.Applicant || !known {
		return BaseURL + "/noc/details", app.nocDetailsMarkup("Enter the client details exactly as they’re written on the case, including any mistakes")
	}
	app.values = values
	return BaseURL + "/noc/confirm", app.chrome(`<form>` + Checkbox("affirmation", "I confirm I am the legal representative") +
		Checkbox("notifyEveryParty", "I confirm all parties will be notified") + `<button type="submit">Submit</button></form>`)
}

// renderHome lands on the identity provider, as the real application does
// once cookies are cleared.
func (app *App) renderHome() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.signedIn, app.current, app.nocCase = "", nil, nil
	return app.loginMarkup("")
}

func (app *App) renderCaseList() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.signedIn == "" {
		return app.loginMarkup("")
	}
	app.current, app.nocCase = nil, nil
	return app.caseListMarkup("", false)
}

func (app *App) renderNoC() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.current, app.nocCase = nil, nil
	return app.nocReferenceMarkup("")
}

// openCase renders a case view from scratch. Must hold mu.
func (app *App) openCase(id string) string {
	if app.signedIn == "" {
		return app.loginMarkup("")
	}
	c := app.cases[id]
	if c.Access != nil && !c.Access[app.signedIn] {
		app.current = nil
		return app.chrome(`<h1>You do not have access to this case</h1>`)
	}
	app.current, app.banner, app.action = c, "", ""
	app.selected, app.offset, app.nocCase = 0, 0, nil
	return app.caseViewMarkup()
}

func (app *App) chrome(body string) string {
	return `<html><body><nav><a href="/cases">Case list</a> <a href="/noc">Notice of change</a></nav>` + body + `</body></html>`
}

func (app *App) loginMarkup(errMsg string) string {
	var b strings.Builder
	b.WriteString(`<html><body><form>`)
	if errMsg != "" {
		b.WriteString(`<div class="error-summary">` + html.EscapeString(errMsg) + `</div>`)
	}
	b.WriteString(`<input type="text" id="username"><input type="password" id="password"><input type="submit" value="Sign in"></form></body></html>`)
	return b.String()
}

// caseListMarkup must hold mu.
func (app *App) caseListMarkup(id string, searched bool) string {
	var b strings.Builder
	b.WriteString(`<h1>Case list</h1><form>`)
	b.WriteString(`<select id="wb-jurisdiction"><option value="PUBLICLAW">Public Law</option></select>`)
	b.WriteString(`<select id="wb-case-type"><option value="CARE_SUPERVISION_EPO">Care, supervision and EPOs</option></select>`)
	b.WriteString(`<select id="wb-case-state"><option value="Any">Any</option><option value="Open">Open</option><option value="Submitted">Submitted</option></select>`)
	b.WriteString(TextInput("caseReference", "CCD Case Number"))
	b.WriteString(TextInput("caseName", "Case name"))
	b.WriteString(Radio("evidenceHandled_Yes", "Yes") + Radio("evidenceHandled_No", "No"))
	b.WriteString(`<button type="button">Apply</button></form>`)
	if searched {
		var ids []string
		for cid, c := range app.cases {
			if (id == "" || cid == id) && (c.Access == nil || c.Access[app.signedIn]) {
				ids = append(ids, cid)
			}
		}
		sort.Strings(ids)
		if len(ids) == 0 {
			b.WriteString(`<p>No cases found. Try using different filters.</p>`)
		} else {
			b.WriteString(`<table>`)
			for _, cid := range ids {
				fmt.Fprintf(&b, `<tr><td><input type="checkbox" id="select-%s"></td><td><a href="/cases/case-details/%s">%s</a></td></tr>`, cid, cid, cid)
			}
			b.WriteString(`</table>`)
		}
	}
	return app.chrome(b.String())
}

func (app *App) nocReferenceMarkup(errMsg string) string {
	body := `<h1>Notice of change</h1><form>`
	if errMsg != "" {
		body += `<div class="govuk-error-message">` + html.EscapeString(errMsg) + `</div>`
	}
	return app.chrome(body + TextInput("caseRef", "Online case reference") + `<button type="submit">Continue</button></form>`)
}

func (app *App) nocDetailsMarkup(errMsg string) string {
	body := `<h1>Enter your client details</h1><form>`
	if errMsg != "" {
		body += `<div class="govuk-error-message">` + html.EscapeString(errMsg) + `</div>`
	}
	return app.chrome(body + TextInput("applicantName", "Applicant's name") + TextInput("respondentFirstName", "First name") +
		TextInput("respondentLastName", "Last name") + `<button type="submit">Continue</button></form>`)
}

// skipHidden moves past pages form does not show. Must hold mu.
func (app *App) skipHidden(form EventForm) {
	for app.step < len(form.Pages) && form.Show != nil && !form.Show(app.step, app.values) {
		app.step++
	}
}

// eventPage renders the current page of the event in progress, or its
// check-your-answers page once every page was continued. Must hold mu.
func (app *App) eventPage() (string, string) {
	c := app.current
	form := c.Events[app.action]
	slug := strings.ReplaceAll(strings.ToLower(app.action), " ", "-")
	base := CaseURL(c.ID) + "/trigger/" + slug
	var body string
	url := fmt.Sprintf("%s/%d", base, app.step+1)
	if app.step < len(form.Pages) {
		body = form.Pages[app.step] + `<button type="submit">Continue</button>`
	} else {
		label := form.SubmitLabel
		if label == "" {
			label = "Save and continue"
		}
		url = base + "/submit"
		body = `<h2>Check your answers</h2><button type="submit" data-submit="true">` + html.EscapeString(label) + `</button>`
	}
	return url, app.chrome(`<ccd-case-event-trigger><h1>` + html.EscapeString(app.action) + `</h1><form>` + body +
		` <a href="#">Cancel</a></form></ccd-case-event-trigger>`)
}

// caseViewMarkup must hold mu.
func (app *App) caseViewMarkup() string {
	c := app.current
	var b strings.Builder
	if app.banner != "" {
		b.WriteString(`<div class="alert-message">` + html.EscapeString(app.banner) + `</div>`)
	}
	fmt.Fprintf(&b, `<div class="case-title"><div class="markdown"><h2>%s</h2><p>#%s</p></div></div>`, html.EscapeString(c.Title), c.ID)
	if len(c.Events) > 0 {
		actions := make([]string, 0, len(c.Events))
		for a := range c.Events {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		b.WriteString(`<select class="ccd-dropdown"><option value="">--Select action--</option>`)
		for _, a := range actions {
			b.WriteString(`<option value="` + html.EscapeString(a) + `">` + html.EscapeString(a) + `</option>`)
		}
		b.WriteString(`</select><button type="submit">Go</button>`)
	}
	b.WriteString(`<mat-tab-group><div class="mat-tab-header">`)
	if len(c.Tabs) > app.tabWindow {
		b.WriteString(`<div class="mat-tab-header-pagination mat-tab-header-pagination-after"></div>`)
	}
	b.WriteString(`<div class="mat-tab-list">`)
	for i, name := range c.Tabs {
		style := ""
		if i < app.offset || i >= app.offset+app.tabWindow {
			style = ` style="display: none"`
		}
		fmt.Fprintf(&b, `<div role="tab" id="mat-tab-label-0-%d" aria-selected="%t"%s><div>%s</div></div>`,
			i, i == app.selected, style, html.EscapeString(name))
	}
	b.WriteString(`</div></div><div class="mat-tab-body-wrapper">`)
	for i, name := range c.Tabs {
		class, content := "mat-tab-body", ""
		if i == app.selected {
			class += " mat-tab-body-active"
			content = `<table class="case-field-table"><tbody><tr><td>` + c.Content[name] + `</td></tr></tbody></table>`
		}
		fmt.Fprintf(&b, `<mat-tab-body class="%s" aria-labelledby="mat-tab-label-0-%d">%s</mat-tab-body>`, class, i, content)
	}
	b.WriteString(`</div></mat-tab-group>`)
	return app.chrome(b.String())
}

// formValues collects the inputs of the form holding clicked.
func formValues(clicked *html.Node) Values {
	form := clicked
	for form != nil && form.Data != "form" {
		form = form.Parent
	}
	values := Values{}
	if form == nil {
		return values
	}
	for _, n := range htmlquery.Find(form, ".//input | .//textarea | .//select") {
		id := htmlquery.SelectAttr(n, "id")
		if id == "" {
			continue
		}
		switch htmlquery.SelectAttr(n, "type") {
		case "radio", "checkbox":
			if hasAttr(n, "checked") {
				values[id] = "checked"
			}
		default:
			values[id] = htmlquery.SelectAttr(n, "value")
		}
	}
	return values
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}
