package suites_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/damongreen123/fpl-ccd-configuration/internal/caseapi"
	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver/drivertest"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages/pagestest"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/suites"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

// caseTabs is more than the strip shows at once, so selecting the later
// tabs pages the header.
var caseTabs = []string{
	tabs.Summary, tabs.Orders, tabs.DraftOrders, tabs.CasePeople,
	tabs.ChangeOfRepresentatives, tabs.DocumentsSentToParties, tabs.Placement, tabs.JudicialMessages,
}

// registered are the names the identity service holds for the users the
// suites enrich.
var registered = map[string][2]string{
	"solicitor1@solicitors.uk": {"Tony", "Stark"},
	"sam@hillingdon.gov.uk":    {"Sam", "Hill"},
	"raghu@wiltshire.gov.uk":   {"Raghu", "Wiltshire"},
}

var organisationLinks = driver.XPath(`//a[starts-with(@title, "Select the organisation ")]`)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// world is the case service and the web application the suites run
// against. Cases created through the service show up in the application.
type world struct {
	cfg *config.Config
	app *pagestest.App

	mu        sync.Mutex
	created   int
	accounts  map[string][2]string
	directory map[string]config.User
	models    map[string]*model
	polls     atomic.Int32

	// placementLeak shows placement orders to everyone.
	placementLeak bool
}

func newWorld(t *testing.T) *world {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.BaseURL = pagestest.BaseURL
	cfg.OutputDir = t.TempDir()

	u := cfg.Users
	accounts := make(map[string]string)
	for _, user := range []config.User{
		u.SwanseaLocalAuthorityOne, u.HillingdonLocalAuthorityOne, u.WiltshireLocalAuthorityOne,
		u.HMCTSAdmin, u.Judiciary, u.Cafcass, u.PrivateSolicitorOne,
	} {
		accounts[user.Email] = user.Password
	}
	w := &world{
		cfg:       cfg,
		app:       pagestest.New(accounts),
		accounts:  maps.Clone(registered),
		directory: make(map[string]config.User),
		models:    make(map[string]*model),
	}
	w.app.Page.OnClick(organisationLinks, w.selectOrganisation)
	return w
}

// run executes features one scenario at a time on the application's page
// and fails t for every scenario that did not pass.
func (w *world) run(t *testing.T, features ...scenario.Feature) *scenario.Run {
	t.Helper()
	run := w.runQuietly(t, features...)
	for _, res := range run.Results {
		assert.Equal(t, scenario.StatusPassed, res.Status, "%s / %s: %s", res.Feature, res.Scenario, res.Error)
	}
	return run
}

func (w *world) runQuietly(t *testing.T, features ...scenario.Feature) *scenario.Run {
	t.Helper()
	poller, err := poll.New(time.Millisecond, 200*time.Millisecond, poll.WithLogger(quietLogger()))
	require.NoError(t, err)
	sessions := scenario.SessionFunc(func(context.Context, *slog.Logger) (driver.Driver, func(), error) {
		return w.app.Page, func() {}, nil
	})
	runner, err := scenario.NewRunner(w.cfg, sessions, w, quietLogger(),
		scenario.WithParallel(1),
		scenario.WithPoller(poller),
		scenario.WithTimeout(10*time.Second),
	)
	require.NoError(t, err)
	run, err := runner.Run(context.Background(), scenario.NewRunID(), scenario.Filter{}, features)
	require.NoError(t, err)
	return run
}

func (w *world) CreateCase(_ context.Context, user config.User, f *fixtures.Fixture) (string, error) {
	w.mu.Lock()
	w.created++
	id := fmt.Sprintf("%016d", 1620000000000000+w.created)
	w.mu.Unlock()

	m := newModel(w, f)
	u := w.cfg.Users
	c := &pagestest.Case{
		ID:        id,
		Title:     f.Get("caseData.caseName").String(),
		Submitted: f.State() != "Open",
		Applicant: f.Get("caseData.caseLocalAuthorityName").String(),
		Access: map[string]bool{
			user.Email:         true,
			u.HMCTSAdmin.Email: true,
			u.Judiciary.Email:  true,
			u.Cafcass.Email:    true,
		},
		Tabs:             caseTabs,
		OnNoticeOfChange: m.noticeOfChange,
	}
	m.render(c)

	w.mu.Lock()
	w.models[id] = m
	w.mu.Unlock()
	w.app.AddCase(c)
	return id, nil
}

func (w *world) Enrich(_ context.Context, user config.User, organisation string) (config.User, error) {
	w.mu.Lock()
	names, ok := w.accounts[user.Email]
	w.mu.Unlock()
	if !ok {
		return config.User{}, failure.New(failure.CodeCaseService, "no account for "+user.Email, nil)
	}
	user.Forename, user.Surname, user.Organisation = names[0], names[1], organisation
	w.mu.Lock()
	w.directory[user.Email] = user
	w.mu.Unlock()
	return user, nil
}

func (w *world) PollLastEvent(_ context.Context, _ *poll.Poller, _ config.User, caseID, eventID string) error {
	if eventID != caseapi.UpdateCaseEvent {
		return failure.New(failure.CodeCaseService, "unexpected event "+eventID, nil)
	}
	w.mu.Lock()
	_, ok := w.models[caseID]
	w.mu.Unlock()
	if !ok {
		return failure.New(failure.CodeCaseService, "no case "+caseID, nil)
	}
	w.polls.Add(1)
	return nil
}

func (w *world) lookup(email string) config.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	if u, ok := w.directory[email]; ok {
		return u
	}
	return config.User{Email: email}
}

// selectOrganisation plays the organisation register: the picked
// organisation is shown and stored in the form.
func (w *world) selectOrganisation(p *drivertest.Page, n *html.Node) {
	var title string
	for _, a := range n.Attr {
		if a.Key == "title" {
			title = a.Val
		}
	}
	organisation := strings.TrimPrefix(title, "Select the organisation ")
	p.SetAttr(driver.ByID("childrenMainRepresentative_organisation"), "value", organisation)
	_ = p.AppendHTML(driver.ByID("organisation-selection"),
		`<span id="organisation-selected">`+html.EscapeString(organisation)+`</span>`)
}

type representative struct {
	firstName, lastName, email, organisation string
}

func representativeOf(u config.User) *representative {
	return &representative{firstName: u.Forename, lastName: u.Surname, email: u.Email, organisation: u.Organisation}
}

type party struct {
	fixtures.Party
	representative *representative
	counsel        []legalCounsellor
}

type legalCounsellor struct {
	firstName, lastName, email string
}

type change struct {
	party, date, updatedBy string
	added                  representative
}

type message struct {
	from, to, subject, urgency, latest, status string
	application, document                      string
	history                                    []string
}

type supportingDocument struct {
	name, notes, file string
}

type draft struct {
	title, order, status, sent string
	cmo                        bool
	docs                       *supportingDocument
}

type bundle struct {
	hearing string
	drafts  []*draft
}

func (b *bundle) awaitingJudge() bool {
	for _, d := range b.drafts {
		if d.status == suites.WithJudgeStatus {
			return true
		}
	}
	return false
}

type sealed struct {
	title, hearing, others, issued string
}

// model is the case data behind one case of the application. It is only
// changed while the application is locked.
type model struct {
	w *world

	judge        string
	others       []string
	hearings     []string
	hearingDates []time.Time
	applications []string
	appDocument  string

	respondents []*party
	children    []*party
	changes     []change
	mainRep     *representative
	open        []*message
	closed      []*message
	bundles     []*bundle
	sealedCMOs  []sealed
	orders      []sealed
	sentDocs    int
}

var judgeTitles = map[string]string{
	"HER_HONOUR_JUDGE": "Her Honour Judge",
	"HIS_HONOUR_JUDGE": "His Honour Judge",
	"DISTRICT_JUDGE":   "District Judge",
}

func newModel(w *world, f *fixtures.Fixture) *model {
	m := &model{w: w}
	for _, p := range f.Respondents() {
		m.respondents = append(m.respondents, &party{Party: p})
	}
	for _, p := range f.Children() {
		m.children = append(m.children, &party{Party: p})
	}
	if judge := f.Get("caseData.allocatedJudge"); judge.Exists() {
		m.judge = judgeTitles[judge.Get("judgeTitle").String()] + " " + judge.Get("judgeLastName").String()
	}
	if other := f.Get("caseData.others.firstOther.name"); other.Exists() {
		m.others = append(m.others, other.String())
	}
	f.Get("caseData.hearingDetails").ForEach(func(_, h gjson.Result) bool {
		start, err := time.Parse("2006-01-02T15:04:05", h.Get("value.startDate").String())
		if err != nil {
			return true
		}
		m.hearings = append(m.hearings, "Case management hearing, "+start.Format("2 January 2006"))
		m.hearingDates = append(m.hearingDates, start)
		return true
	})
	f.Get("caseData.additionalApplicationsBundle").ForEach(func(_, b gjson.Result) bool {
		m.applications = append(m.applications, "C2, "+b.Get("value.uploadedDateTime").String())
		m.appDocument = b.Get("value.c2DocumentBundle.document.document_filename").String()
		return true
	})
	return m
}

func today() string {
	return time.Now().Format(suites.DisplayDate)
}

// render rebuilds the tabs and events of c from the model.
func (m *model) render(c *pagestest.Case) {
	c.Content = map[string]string{
		tabs.Summary:                 pagestest.Section("Case", pagestest.Field("Case name", c.Title)),
		tabs.CasePeople:              m.peopleTab(),
		tabs.ChangeOfRepresentatives: m.changesTab(),
		tabs.JudicialMessages:        m.messagesTab(),
		tabs.DraftOrders:             m.draftOrdersTab(),
		tabs.Orders:                  m.ordersTab(),
		tabs.DocumentsSentToParties:  m.documentsSentTab(),
		tabs.Placement:               m.placementTab(),
	}
	c.Events = m.events()
	c.Parties = nil
	for _, r := range m.respondents {
		c.Parties = append(c.Parties, r.FullName())
	}
	if m.mainRep != nil {
		for _, ch := range m.children {
			c.Parties = append(c.Parties, ch.FullName())
		}
	}
}

func partySection(p *party) string {
	rows := []string{
		pagestest.Field("First name", p.FirstName),
		pagestest.Field("Last name", p.LastName),
	}
	if p.DateOfBirth != "" {
		rows = append(rows, pagestest.Field("Date of birth", p.DisplayDateOfBirth()))
	}
	if p.Gender != "" {
		rows = append(rows, pagestest.Field("Gender", p.Gender))
	}
	return pagestest.Section("Party", rows...)
}

func representativeSection(r *representative) string {
	return pagestest.Section("Representative",
		pagestest.Field("Representative's first name", r.firstName),
		pagestest.Field("Representative's last name", r.lastName),
		pagestest.Field("Email address", r.email),
		pagestest.OrganisationRow("Name", r.organisation, "1 Court Street, London"),
	)
}

func (m *model) peopleTab() string {
	var b strings.Builder
	write := func(title string, p *party) {
		rows := []string{pagestest.Nested(partySection(p))}
		if p.representative != nil {
			rows = append(rows, pagestest.Nested(representativeSection(p.representative)))
		}
		for k, lc := range p.counsel {
			rows = append(rows, pagestest.Nested(pagestest.Section(fmt.Sprintf("Legal counsellor %d", k+1),
				pagestest.Field("First name", lc.firstName),
				pagestest.Field("Last name", lc.lastName),
				pagestest.Field("Email address", lc.email),
			)))
		}
		b.WriteString(pagestest.Section(title, rows...))
	}
	for i, r := range m.respondents {
		write(fmt.Sprintf("Respondents %d", i+1), r)
	}
	for i, ch := range m.children {
		write(fmt.Sprintf("Child %d", i+1), ch)
	}
	return b.String()
}

func (m *model) changesTab() string {
	var b strings.Builder
	for i, ch := range m.changes {
		b.WriteString(pagestest.Section(fmt.Sprintf("Change of representative %d", i+1),
			pagestest.Field("Respondent", ch.party),
			pagestest.Field("Date", ch.date),
			pagestest.Field("Updated by", ch.updatedBy),
			pagestest.Field("Updated via", "Notice of change"),
			pagestest.Nested(pagestest.Section("Added representative",
				pagestest.Field("First name", ch.added.firstName),
				pagestest.Field("Last name", ch.added.lastName),
				pagestest.Field("Email", ch.added.email),
				pagestest.OrganisationRow("Name", ch.added.organisation, "1 Court Street, London"),
			)),
		))
	}
	return b.String()
}

func messageSection(n int, msg *message) string {
	rows := []string{
		pagestest.Field("From", msg.from),
		pagestest.Field("Sent to", msg.to),
		pagestest.Field("Message subject", msg.subject),
		pagestest.Field("Urgency", msg.urgency),
	}
	if msg.status != "Closed" {
		rows = append(rows, pagestest.Field("Latest message", msg.latest))
	}
	rows = append(rows, pagestest.Field("Status", msg.status))
	if msg.application != "" {
		rows = append(rows,
			pagestest.Field("Related documents", msg.document),
			pagestest.Field("Application", msg.application),
		)
	}
	rows = append(rows, pagestest.Field("Message history", suites.MessageHistory(msg.history...)))
	return pagestest.Section(fmt.Sprintf("Message %d", n), rows...)
}

func (m *model) messagesTab() string {
	var b strings.Builder
	for _, group := range []struct {
		title    string
		messages []*message
	}{
		{suites.OpenMessages, m.open},
		{suites.ClosedMessages, m.closed},
	} {
		if len(group.messages) == 0 {
			continue
		}
		rows := make([]string, 0, len(group.messages))
		for i, msg := range group.messages {
			rows = append(rows, pagestest.Nested(messageSection(i+1, msg)))
		}
		b.WriteString(pagestest.Section(group.title, rows...))
	}
	return b.String()
}

func (m *model) awaitingReview() []*bundle {
	var out []*bundle
	for _, b := range m.bundles {
		if b.awaitingJudge() {
			out = append(out, b)
		}
	}
	return out
}

func (m *model) draftOrdersTab() string {
	var b strings.Builder
	if len(m.awaitingReview()) > 0 {
		fmt.Fprintf(&b, `<p><a href="#" data-event="%s">%s</a></p>`,
			html.EscapeString(suites.ApproveOrdersLink), html.EscapeString(suites.ApproveOrdersLink))
	}
	for i, bu := range m.bundles {
		rows := []string{
			pagestest.Field("Hearing", bu.hearing),
			pagestest.Field("Judge", m.judge),
		}
		for k, d := range bu.drafts {
			draftRows := []string{
				pagestest.Field("Title", d.title),
				pagestest.Field("Order", d.order),
				pagestest.Field("Status", d.status),
				pagestest.Field("Date sent", d.sent),
			}
			if d.docs != nil {
				draftRows = append(draftRows, pagestest.Nested(pagestest.Section("Case summary or supporting documents 1",
					pagestest.Field("Document name", d.docs.name),
					pagestest.Field("Notes", d.docs.notes),
					pagestest.Field("File", d.docs.file),
				)))
			}
			rows = append(rows, pagestest.Nested(pagestest.Section(fmt.Sprintf("Draft %d", k+1), draftRows...)))
		}
		b.WriteString(pagestest.Section(fmt.Sprintf("Hearing %d", i+1), rows...))
	}
	return b.String()
}

func (m *model) ordersTab() string {
	var b strings.Builder
	for i, o := range m.sealedCMOs {
		b.WriteString(pagestest.Section(fmt.Sprintf("Sealed Case Management Order %d", i+1),
			pagestest.Field("Order", fixtures.TestPDFFile),
			pagestest.Field("Hearing", o.hearing),
			pagestest.Field("Date issued", o.issued),
			pagestest.Field("Judge", m.judge),
			pagestest.Field("Others notified", o.others),
		))
	}
	for i, o := range m.orders {
		b.WriteString(pagestest.Section(fmt.Sprintf("Order %d", i+1),
			pagestest.Field("Type of order", suites.BlankOrder),
			pagestest.Field("Order title", o.title),
			pagestest.Field("Order document", fixtures.TestPDFFile),
			pagestest.Field("Others notified", o.others),
		))
	}
	return b.String()
}

func (m *model) documentsSentTab() string {
	if m.sentDocs == 0 || len(m.respondents) == 0 {
		return ""
	}
	rows := []string{pagestest.Field("Recipient", m.respondents[0].FullName())}
	for k := 0; k < m.sentDocs; k++ {
		rows = append(rows, pagestest.Nested(pagestest.Section(fmt.Sprintf("Document %d", k+1),
			pagestest.Field("File", fixtures.TestPDFFile),
		)))
	}
	return pagestest.Section("Party 1", rows...)
}

func (m *model) placementTab() string {
	if m.w.placementLeak {
		return pagestest.Section(suites.PlacementOrder, pagestest.Field("Child", "Timothy Jones"))
	}
	return pagestest.Section("Placement", pagestest.Field("Applications", "None"))
}

// noticeOfChange gives user the representation of party. Runs with the
// application locked.
func (m *model) noticeOfChange(c *pagestest.Case, user, partyName string) {
	rep := representativeOf(m.w.lookup(user))
	for _, r := range m.respondents {
		if r.FullName() == partyName {
			r.representative = rep
			m.changes = append(m.changes, change{party: partyName, date: today(), updatedBy: user, added: *rep})
		}
	}
	for _, ch := range m.children {
		if ch.FullName() == partyName {
			ch.representative = rep
		}
	}
	m.render(c)
}
