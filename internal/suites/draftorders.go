package suites

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/damongreen123/fpl-ccd-configuration/internal/caseapi"
	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

// Hearings of the prepareForHearing fixture, as the hearing lists show them.
const (
	Hearing1 = "Case management hearing, 1 January 2020"
	Hearing2 = "Case management hearing, 1 March 2020"
	Hearing3 = "Case management hearing, 1 January 2050"
)

// Titles and statuses the draft orders tab shows.
const (
	AgreedCMO       = "Agreed CMO discussed at hearing"
	DraftCMO        = "Draft CMO from advocates' meeting"
	WithJudgeStatus = "With judge for approval"
	DraftStatus     = "Draft order, to review before hearing"
	AllocatedJudge  = "Her Honour Judge Reed"
	OtherParty      = "Noah King"
	Recipient       = "Marie Kelly"
	BlankOrder      = "Blank order (C21)"
	// ApproveOrdersLink starts the judge's review from the draft orders tab.
	ApproveOrdersLink = "Approve orders"
	// C21Collection labels the collection of C21 orders in the upload event.
	C21Collection = "Other draft orders"

	changeRequestReason = "Timetable for the proceedings is incomplete"
	c21ChangeNote       = "note2"
	draftOrder1         = "draft order 1"
	draftOrder1Updated  = "draft order 1 Updated"
	draftOrder2         = "draft order 2"

	wordFileKey = "word_file"
	textFileKey = "text_file"
)

func supportingDoc(s *scenario.Scope) pages.SupportingDocument {
	return pages.SupportingDocument{
		Name:     "case summary",
		Notes:    "this is the case summary",
		Path:     s.Shared.Value(textFileKey),
		FileName: fixtures.TestFile,
	}
}

// DraftOrders covers draft orders going from the local authority to the
// judge and back until they are sealed.
func DraftOrders() scenario.Feature {
	return scenario.Feature{
		Name:   "Upload draft orders journey",
		Serial: true,
		Setup: func(ctx context.Context, s *scenario.Scope) error {
			dir := filepath.Join(s.Config.OutputDir, "files")
			for key, name := range map[string]string{wordFileKey: fixtures.TestWordFile, textFileKey: fixtures.TestFile} {
				path, err := fixtures.WriteTestFile(dir, name)
				if err != nil {
					return err
				}
				s.Shared.SetValue(key, path)
			}
			_, err := s.CreateCase(ctx, s.Users.SwanseaLocalAuthorityOne, fixtures.PrepareForHearing)
			return err
		},
		Scenarios: []scenario.Scenario{
			{Name: "Local authority uploads draft orders", Run: localAuthorityUploadsDraftOrders},
			{Name: "Judge makes changes to agreed CMO and seals", Run: judgeAmendsAndSeals},
			{Name: "Judge sends draft orders to the local authority", Run: judgeReturnsDraftOrders},
			{Name: "Local authority makes changes requested by the judge", Run: localAuthorityMakesChanges},
			{Name: "Judge seals and sends draft orders for hearing to parties", Run: judgeSealsDraftOrders},
		},
	}
}

func sendAgreedCMO(s *scenario.Scope, hearing string, doc *pages.SupportingDocument, c21 string) step {
	a, up := s.Actor, s.Pages.UploadDraftOrders
	word := s.Shared.Value(wordFileKey)
	steps := []step{
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionUploadCMO),
		up.SelectAgreedCMO,
		a.GoToNextPage,
		bind(up.SelectPastHearing, hearing),
		bind(up.UploadCMO, word),
	}
	if doc != nil {
		steps = append(steps, bind(up.AttachSupportingDocument, *doc))
	}
	if c21 != "" {
		steps = append(steps, addC21(s, c21))
	}
	steps = append(steps, completeEvent(a, pages.ActionUploadCMO, saveAndContinue))
	return func(ctx context.Context) error { return do(ctx, steps...) }
}

func uploadDraftCMO(s *scenario.Scope, hearing string, doc pages.SupportingDocument) step {
	a, up := s.Actor, s.Pages.UploadDraftOrders
	return func(ctx context.Context) error {
		return do(ctx,
			bind(s.Pages.CaseView.GoToNewActions, pages.ActionUploadCMO),
			up.SelectDraftCMO,
			a.GoToNextPage,
			bind(up.SelectFutureHearing, hearing),
			bind(up.UploadCMO, s.Shared.Value(wordFileKey)),
			bind(up.AttachSupportingDocument, doc),
			completeEvent(a, pages.ActionUploadCMO, saveAndContinue),
		)
	}
}

func uploadC21(s *scenario.Scope, title, hearing string) step {
	a, up := s.Actor, s.Pages.UploadDraftOrders
	return func(ctx context.Context) error {
		return do(ctx,
			bind(s.Pages.CaseView.GoToNewActions, pages.ActionUploadCMO),
			up.SelectC21,
			a.GoToNextPage,
			bind(up.SelectHearingForC21, hearing),
			addC21(s, title),
			completeEvent(a, pages.ActionUploadCMO, saveAndContinue),
		)
	}
}

func addC21(s *scenario.Scope, title string) step {
	return func(ctx context.Context) error {
		if err := s.Actor.AddAnotherElementToCollection(ctx, C21Collection); err != nil {
			return err
		}
		return s.Pages.UploadDraftOrders.AddC21(ctx, 0, title, s.Shared.Value(wordFileKey))
	}
}

type expectedDraft struct {
	title  string
	status string
	docs   *pages.SupportingDocument
}

func seeDraftOrders(a *pages.Actor, n int, hearing string, drafts ...expectedDraft) step {
	section := tabs.Path{fmt.Sprintf("Hearing %d", n)}
	rows := under(section, field("Hearing", hearing), field("Judge", AllocatedJudge))
	for i, d := range drafts {
		draft := append(append(tabs.Path{}, section...), fmt.Sprintf("Draft %d", i+1))
		rows = append(rows, under(draft,
			field("Title", d.title),
			field("Order", fixtures.TestWordFile),
			field("Status", d.status),
			field("Date sent", today()),
		)...)
		if d.docs != nil {
			rows = append(rows, under(append(draft, "Case summary or supporting documents 1"),
				field("Document name", d.docs.Name),
				field("Notes", d.docs.Notes),
				field("File", d.docs.FileName),
			)...)
		}
	}
	return seeInTab(a, rows...)
}

func seeSealedCMO(a *pages.Actor, n int, hearing string) step {
	return seeInTab(a, under(tabs.Path{fmt.Sprintf("Sealed Case Management Order %d", n)},
		field("Order", fixtures.TestPDFFile),
		field("Hearing", hearing),
		field("Date issued", today()),
		field("Judge", AllocatedJudge),
		field("Others notified", OtherParty),
	)...)
}

func seeSealedC21(a *pages.Actor, n int, title string) step {
	return seeInTab(a, under(tabs.Path{fmt.Sprintf("Order %d", n)},
		field("Type of order", BlankOrder),
		field("Order title", title),
		field("Order document", fixtures.TestPDFFile),
		field("Others notified", OtherParty),
	)...)
}

func seeDocumentSentToParties(a *pages.Actor) step {
	return seeInTab(a,
		row{tabs.Path{"Party 1", "Recipient"}, Recipient},
		row{tabs.Path{"Party 1", "Document 1", "File"}, fixtures.TestPDFFile},
	)
}

// waitForProcessing waits until the service has finished the work it
// queued for the last event.
func waitForProcessing(s *scenario.Scope, user config.User) step {
	return func(ctx context.Context) error {
		return s.Cases.PollLastEvent(ctx, s.Poller, user, s.CaseID(), caseapi.UpdateCaseEvent)
	}
}

func localAuthorityUploadsDraftOrders(ctx context.Context, s *scenario.Scope) error {
	a := s.Actor
	doc := supportingDoc(s)
	return do(ctx,
		func(ctx context.Context) error {
			return a.NavigateToCaseDetailsAs(ctx, s.Users.SwanseaLocalAuthorityOne, s.CaseID())
		},
		sendAgreedCMO(s, Hearing1, nil, draftOrder1),
		sendAgreedCMO(s, Hearing2, &doc, ""),
		uploadDraftCMO(s, Hearing3, doc),
		uploadC21(s, draftOrder2, Hearing1),
		selectTab(a, tabs.DraftOrders),
		seeDraftOrders(a, 1, Hearing1,
			expectedDraft{title: AgreedCMO, status: WithJudgeStatus},
			expectedDraft{title: draftOrder1, status: WithJudgeStatus},
			expectedDraft{title: draftOrder2, status: WithJudgeStatus},
		),
		seeDraftOrders(a, 2, Hearing2, expectedDraft{title: AgreedCMO, status: WithJudgeStatus, docs: &doc}),
		seeDraftOrders(a, 3, Hearing3, expectedDraft{title: DraftCMO, status: DraftStatus, docs: &doc}),
	)
}

func judgeAmendsAndSeals(ctx context.Context, s *scenario.Scope) error {
	a, review := s.Actor, s.Pages.ApproveOrders
	judge := s.Users.Judiciary
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, judge, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionApproveOrders),
		bind(review.SelectCMOToReview, Hearing2),
		a.GoToNextPage,
		bind(a.See, fixtures.TestWordFile),
		review.SelectMakeChangesToCMO,
		bind(review.UploadAmendedCMO, s.Shared.Value(wordFileKey)),
		a.GoToNextPage,
		bind(review.SelectOthers, 0),
		completeEvent(a, pages.ActionApproveOrders, saveAndContinue),
		waitForProcessing(s, judge),
		selectTab(a, tabs.Orders),
		seeSealedCMO(a, 1, Hearing2),
		selectTab(a, tabs.DraftOrders),
		bind(a.DontSee, Hearing2),
	)
}

// judgeReturnsDraftOrders reviews the only bundle awaiting the judge, so the
// event opens on the review page.
func judgeReturnsDraftOrders(ctx context.Context, s *scenario.Scope) error {
	a, review := s.Actor, s.Pages.ApproveOrders
	judge := s.Users.Judiciary
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, judge, s.CaseID()) },
		selectTab(a, tabs.DraftOrders),
		bind(a.StartEventViaHyperlink, ApproveOrdersLink),
		bind(a.See, fixtures.TestWordFile),
		bind(review.SelectReturnCMOForChanges, changeRequestReason),
		func(ctx context.Context) error { return review.SelectReturnC21ForChanges(ctx, 1, c21ChangeNote) },
		completeEvent(a, pages.ActionApproveOrders, saveAndContinue),
		waitForProcessing(s, judge),
		selectTab(a, tabs.DraftOrders),
		seeDraftOrders(a, 1, Hearing1, expectedDraft{title: draftOrder2, status: WithJudgeStatus}),
	)
}

func localAuthorityMakesChanges(ctx context.Context, s *scenario.Scope) error {
	a := s.Actor
	return do(ctx,
		func(ctx context.Context) error {
			return a.NavigateToCaseDetailsAs(ctx, s.Users.SwanseaLocalAuthorityOne, s.CaseID())
		},
		selectTab(a, tabs.DraftOrders),
		seeDraftOrders(a, 1, Hearing1, expectedDraft{title: draftOrder2, status: WithJudgeStatus}),
		sendAgreedCMO(s, Hearing1, nil, draftOrder1Updated),
		selectTab(a, tabs.DraftOrders),
		seeDraftOrders(a, 1, Hearing1,
			expectedDraft{title: AgreedCMO, status: WithJudgeStatus},
			expectedDraft{title: draftOrder2, status: WithJudgeStatus},
			expectedDraft{title: draftOrder1Updated, status: WithJudgeStatus},
		),
	)
}

func judgeSealsDraftOrders(ctx context.Context, s *scenario.Scope) error {
	a, review := s.Actor, s.Pages.ApproveOrders
	judge := s.Users.Judiciary
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, judge, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionApproveOrders),
		review.SelectSealCMO,
		bind(review.SelectSealC21, 1),
		bind(review.SelectSealC21, 2),
		a.GoToNextPage,
		bind(review.SelectOthers, 0),
		completeEvent(a, pages.ActionApproveOrders, saveAndContinue),
		waitForProcessing(s, judge),
		selectTab(a, tabs.Orders),
		seeSealedCMO(a, 1, Hearing2),
		seeSealedCMO(a, 2, Hearing1),
		seeSealedC21(a, 1, draftOrder2),
		seeSealedC21(a, 2, draftOrder1Updated),
		selectTab(a, tabs.DraftOrders),
		bind(a.DontSee, Hearing1),
		bind(a.DontSee, Hearing2),
		bind(a.See, Hearing3),
		selectTab(a, tabs.DocumentsSentToParties),
		seeDocumentSentToParties(a),
	)
}
