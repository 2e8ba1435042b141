package pages_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages/pagestest"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

var (
	localAuthority = config.User{Email: "kurt@swansea.gov.uk", Password: "Password12"}
	admin          = config.User{Email: "hmcts-admin@example.com", Password: "Password12"}
	solicitor      = config.User{Email: "solicitor1@solicitors.uk", Password: "Password12"}
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPoller(t *testing.T) *poll.Poller {
	t.Helper()
	p, err := poll.New(time.Millisecond, 30*time.Millisecond, poll.WithLogger(quietLogger()))
	require.NoError(t, err)
	return p
}

func newApp() *pagestest.App {
	return pagestest.New(map[string]string{
		localAuthority.Email: localAuthority.Password,
		admin.Email:          admin.Password,
		solicitor.Email:      solicitor.Password,
	})
}

func newActor(t *testing.T, d driver.Driver) (*pages.Actor, *pages.Pages) {
	t.Helper()
	a := pages.NewActor(d, fastPoller(t), pagestest.BaseURL, quietLogger())
	return a, pages.New(a)
}

// sampleCase is a submitted case with a messages tab and a judicial message
// event.
func sampleCase(id string) *pagestest.Case {
	return &pagestest.Case{
		ID:        id,
		Title:     "Swansea City Council v Bloggs",
		Submitted: true,
		Applicant: "Swansea City Council",
		Parties:   []string{"Joe Bloggs"},
		Tabs:      []string{tabs.Summary, tabs.CasePeople, tabs.JudicialMessages},
		Content: map[string]string{
			tabs.Summary:    pagestest.Section("Case", pagestest.Field("Case name", "Swansea City Council v Bloggs")),
			tabs.CasePeople: pagestest.Section("Respondents 1", pagestest.Field("First name", "Joe")),
		},
		Events: map[string]pagestest.EventForm{
			pages.ActionMessageJudge: {
				Pages: []string{
					pagestest.Radio("isMessageRegardingAdditionalApplications_No", "No"),
					pagestest.TextInput("judicialMessageMetaData_recipient", "Recipient") +
						pagestest.TextInput("judicialMessageMetaData_subject", "Subject") +
						pagestest.TextInput("judicialMessageMetaData_urgency", "Urgency") +
						pagestest.TextArea("judicialMessageNote", "Message"),
				},
				OnSubmit: func(c *pagestest.Case, user string, v pagestest.Values) {
					c.Content[tabs.JudicialMessages] = pagestest.Section("Message 1",
						pagestest.Field("From", user),
						pagestest.Field("Sent to", v["judicialMessageMetaData_recipient"]),
						pagestest.Field("Message subject", v["judicialMessageMetaData_subject"]),
						pagestest.Field("Urgency", v["judicialMessageMetaData_urgency"]),
						pagestest.Field("Latest message", v["judicialMessageNote"]),
						pagestest.Field("Status", "Open"),
					)
				},
			},
		},
	}
}
