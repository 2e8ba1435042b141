package suites_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/suites"
)

func TestRegistryHoldsEveryFeature(t *testing.T) {
	reg, err := suites.Registry()
	require.NoError(t, err)

	var names []string
	for _, f := range reg.Features() {
		names = append(names, f.Name)
		assert.NotEmpty(t, f.Scenarios, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"Message judge or legal adviser",
		"Notice of change",
		"Representative barristers",
		"Upload draft orders journey",
		"Child solicitors",
		"Placement",
	}, names)
}

func TestRegistrySelectsByTag(t *testing.T) {
	reg, err := suites.Registry()
	require.NoError(t, err)

	features, err := reg.Select(scenario.Filter{Tags: []string{"cross-browser"}})
	require.NoError(t, err)
	require.Len(t, features, 1)
	require.Len(t, features[0].Scenarios, 1)
	assert.Equal(t, "HMCTS admin messages the judge", features[0].Scenarios[0].Name)
}

func TestMessaging(t *testing.T) {
	w := newWorld(t)
	run := w.run(t, suites.Messaging())
	assert.Equal(t, 4, run.Passed)
}

func TestNoticeOfChange(t *testing.T) {
	w := newWorld(t)
	run := w.run(t, suites.NoticeOfChange())
	assert.Equal(t, 2, run.Passed)
}

func TestLegalCounsel(t *testing.T) {
	w := newWorld(t)
	run := w.run(t, suites.LegalCounsel())
	assert.Equal(t, 2, run.Passed)
	assert.Equal(t, suites.PrivateSolicitors, w.lookup("solicitor1@solicitors.uk").Organisation)
}

func TestDraftOrders(t *testing.T) {
	w := newWorld(t)
	run := w.run(t, suites.DraftOrders())
	assert.Equal(t, 5, run.Passed)
	// Every judge decision waits for the service's follow-up event.
	assert.EqualValues(t, 3, w.polls.Load())
}

func TestChildSolicitors(t *testing.T) {
	w := newWorld(t)
	run := w.run(t, suites.ChildSolicitors())
	assert.Equal(t, 4, run.Passed)
}

func TestPlacement(t *testing.T) {
	w := newWorld(t)
	run := w.run(t, suites.Placement())
	assert.Equal(t, 1, run.Passed)
}

func TestPlacementOrderShownToCafcassFails(t *testing.T) {
	w := newWorld(t)
	w.placementLeak = true

	run := w.runQuietly(t, suites.Placement())
	require.Len(t, run.Results, 1)
	res := run.Results[0]
	assert.Equal(t, scenario.StatusFailed, res.Status)
	assert.Equal(t, failure.CodeAssertionMismatch, res.Code)
	assert.Contains(t, res.Error, suites.PlacementOrder)
	assert.NotEmpty(t, res.CaseID)
}

func TestSetupFailureFailsEveryScenario(t *testing.T) {
	w := newWorld(t)
	// Nobody registered this organisation's users, so enriching fails.
	delete(w.accounts, "sam@hillingdon.gov.uk")

	run := w.runQuietly(t, suites.ChildSolicitors())
	assert.Equal(t, 0, run.Passed)
	assert.Equal(t, 4, run.Failed)
	for _, res := range run.Results {
		assert.Equal(t, failure.CodeCaseService, res.Code, res.Scenario)
	}
}
