package tabs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

func messagesTab() string {
	return section("Message 1",
		field("From", "ctsc@mailnesia.com"),
		field("Sent to", "recipient@fpla.com"),
		field("Message subject", "Subject 1"),
		field("Urgency", "High"),
		field("Latest message", "Some note"),
		field("Status", "Open"),
	)
}

func peopleTab() string {
	return section("Respondents 1",
		field("First name", "Joe"),
		nested(section("Representative",
			field("Representative's first name", "John"),
			field("Email address", "solicitor1@solicitors.uk"),
			organisationRow("Name", "Private solicitors", "1 Street, London"),
		)),
	)
}

func changeOfRepresentativesTab() string {
	return section("Change of representative 1",
		field("Respondent", "Joe Bloggs"),
		field("Updated via", "  Notice of change  "),
		nested(section("Added representative",
			field("First name", "John"),
			field("Email", "solicitor1@solicitors.uk"),
		)),
	)
}

func openTab(t *testing.T, name, content string) (*caseView, *tabs.Reader) {
	t.Helper()
	cv := newCaseView([]string{tabs.Summary, tabs.CasePeople, tabs.ChangeOfRepresentatives, tabs.JudicialMessages}, 4, map[string]string{name: content})
	_, err := tabs.NewNavigator(cv.page, fastPoller(t), quietLogger()).Select(context.Background(), name)
	require.NoError(t, err)
	return cv, tabs.NewReader(cv.page, quietLogger())
}

func TestReadMessageFields(t *testing.T) {
	_, r := openTab(t, tabs.JudicialMessages, messagesTab())
	ctx := context.Background()

	subject, err := r.Read(ctx, tabs.Path{"Message 1", "Message subject"})
	require.NoError(t, err)
	assert.Equal(t, "Subject 1", subject)

	require.NoError(t, r.See(ctx, tabs.Path{"Message 1", "Urgency"}, "High"))
	require.NoError(t, r.See(ctx, tabs.Path{"Message 1", "Status"}, "Open"))
}

func TestReadNestedSectionsAndQuotes(t *testing.T) {
	_, r := openTab(t, tabs.CasePeople, peopleTab())
	ctx := context.Background()

	require.NoError(t, r.See(ctx, tabs.Path{"Representative", "Representative's first name"}, "John"))
	require.NoError(t, r.See(ctx, tabs.Path{"Respondents 1", "Representative", "Email address"}, "solicitor1@solicitors.uk"))
	require.NoError(t, r.SeeOrganisation(ctx, tabs.Path{"Respondents 1", "Representative", "Name"}, "Private solicitors"))

	err := r.SeeOrganisation(ctx, tabs.Path{"Respondents 1", "Representative", "Name"}, "London Borough Hillingdon")
	var mismatch *failure.MismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestReadReturnsValueUnmodified(t *testing.T) {
	_, r := openTab(t, tabs.ChangeOfRepresentatives, changeOfRepresentativesTab())
	ctx := context.Background()
	path := tabs.Path{"Change of representative 1", "Updated via"}

	value, err := r.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "  Notice of change  ", value)

	err = r.See(ctx, path, "Notice of change")
	var mismatch *failure.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "  Notice of change  ", mismatch.Actual)

	require.NoError(t, r.See(ctx, path, "Notice of change", tabs.TrimSpace()))
	require.NoError(t, r.See(ctx, path, "change", tabs.Contains()))
	require.NoError(t, r.See(ctx, tabs.Path{"Change of representative 1", "Added representative", "First name"}, "John"))
}

func TestReadUnresolvedPaths(t *testing.T) {
	_, r := openTab(t, tabs.JudicialMessages, messagesTab())
	ctx := context.Background()

	tests := []struct {
		name     string
		path     tabs.Path
		segment  string
		resolved []string
	}{
		{name: "missing section", path: tabs.Path{"Message 2", "Urgency"}, segment: "Message 2", resolved: []string{}},
		{name: "missing field", path: tabs.Path{"Message 1", "Colour"}, segment: "Colour", resolved: []string{"Message 1"}},
		{name: "field outside section", path: tabs.Path{"Urgency", "High"}, segment: "Urgency", resolved: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Read(ctx, tt.path)
			var pathErr *failure.PathError
			require.ErrorAs(t, err, &pathErr)
			assert.Equal(t, tt.segment, pathErr.Segment)
			assert.Equal(t, tt.resolved, pathErr.Resolved)
			assert.Equal(t, 0, pathErr.Matches)
			assert.True(t, failure.Is(err, failure.CodePathNotFound))
		})
	}
}

func TestReadAmbiguousSegment(t *testing.T) {
	content := section("Respondents 1", nested(section("Representative", field("Email address", "a@solicitors.uk")))) +
		section("Respondents 2", nested(section("Representative", field("Email address", "b@solicitors.uk"))))
	_, r := openTab(t, tabs.CasePeople, content)
	ctx := context.Background()

	_, err := r.Read(ctx, tabs.Path{"Representative", "Email address"})
	var pathErr *failure.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, 2, pathErr.Matches)
	assert.Contains(t, err.Error(), "ambiguous")

	value, err := r.Read(ctx, tabs.Path{"Respondents 2", "Representative", "Email address"})
	require.NoError(t, err)
	assert.Equal(t, "b@solicitors.uk", value)
}

func TestDontSee(t *testing.T) {
	_, r := openTab(t, tabs.JudicialMessages, messagesTab())
	ctx := context.Background()

	require.NoError(t, r.DontSee(ctx, tabs.Path{"Message 2", "Urgency"}))

	err := r.DontSee(ctx, tabs.Path{"Message 1", "Urgency"})
	var mismatch *failure.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, failure.Absent, mismatch.Expected)
	assert.Equal(t, "High", mismatch.Actual)
}

func TestDontSeeAmbiguousPathIsMismatch(t *testing.T) {
	content := section("Respondents 1", nested(section("Representative", field("Email address", "a@solicitors.uk")))) +
		section("Respondents 2", nested(section("Representative", field("Email address", "b@solicitors.uk"))))
	_, r := openTab(t, tabs.CasePeople, content)

	err := r.DontSee(context.Background(), tabs.Path{"Representative", "Email address"})
	var mismatch *failure.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, failure.Absent, mismatch.Expected)
	assert.Contains(t, mismatch.Actual, "2 matches")
	assert.True(t, failure.Is(err, failure.CodeAssertionMismatch))
}

func TestReadRowWithoutValueCell(t *testing.T) {
	content := section("Message 1", field("Status", "Open"), `<tr><th>Urgency</th></tr>`)
	_, r := openTab(t, tabs.JudicialMessages, content)

	_, err := r.Read(context.Background(), tabs.Path{"Message 1", "Urgency"})
	var pathErr *failure.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "Urgency", pathErr.Segment)
	assert.Equal(t, []string{"Message 1"}, pathErr.Resolved)
	assert.Contains(t, err.Error(), "no value cell")
	assert.True(t, failure.Is(err, failure.CodePathNotFound))
}

func TestReadIgnoresHiddenDuplicates(t *testing.T) {
	content := `<div hidden>` + section("Message 1", field("Urgency", "Low")) + `</div>` +
		section("Message 1", field("Urgency", "High"))
	_, r := openTab(t, tabs.JudicialMessages, content)
	ctx := context.Background()

	value, err := r.Read(ctx, tabs.Path{"Message 1", "Urgency"})
	require.NoError(t, err)
	assert.Equal(t, "High", value)
}

func TestEmptyPathIsRejected(t *testing.T) {
	_, r := openTab(t, tabs.JudicialMessages, messagesTab())
	ctx := context.Background()

	_, err := r.Read(ctx, tabs.Path{})
	assert.True(t, failure.Is(err, failure.CodeValidation))
	assert.True(t, failure.Is(r.See(ctx, tabs.Path{"Message 1", ""}, "x"), failure.CodeValidation))
	assert.True(t, failure.Is(r.Eventually(ctx, fastPoller(t), nil, "x"), failure.CodeValidation))
}

func TestEventually(t *testing.T) {
	cv, r := openTab(t, tabs.JudicialMessages, messagesTab())
	ctx := context.Background()

	cv.page.FailNext("count visible", errors.New("node detached"))
	cv.page.FailNext("count visible", errors.New("node detached"))
	require.NoError(t, r.Eventually(ctx, fastPoller(t), tabs.Path{"Message 1", "Status"}, "Open"))

	err := r.Eventually(ctx, fastPoller(t), tabs.Path{"Message 1", "Status"}, "Closed")
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.CodeTimeoutExceeded))
	var mismatch *failure.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "Open", mismatch.Actual)
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "Message 1 > Urgency", tabs.Path{"Message 1", "Urgency"}.String())
	assert.True(t, tabs.CaseView.Contains(tabs.Placement))
	assert.False(t, tabs.CaseView.Contains("Gatekeeping"))
}
