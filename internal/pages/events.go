package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/config"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// selectFirstOption picks the first real entry of a dynamic list, skipping
// the "--Select a value--" placeholder.
func selectFirstOption(ctx context.Context, a *Actor, list driver.Selector) error {
	if err := a.poller.Check(ctx, driver.Visible(a.d, list)); err != nil {
		return err
	}
	texts, err := a.d.Texts(ctx, list.Append("/option[not(@value='') and not(contains(., '--Select'))]"))
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return failure.New(failure.CodeAssertionMismatch, "no options in "+list.String(), nil)
	}
	return a.d.SelectOption(ctx, list, strings.TrimSpace(texts[0]))
}

// SubmitApplicationEventPage is the final page of the application.
type SubmitApplicationEventPage struct {
	a *Actor
}

// GiveConsent ticks the statement of truth.
func (p *SubmitApplicationEventPage) GiveConsent(ctx context.Context) error {
	consent := driver.ByID("submissionConsent-agree")
	if err := p.a.poller.Check(ctx, driver.Visible(p.a.d, consent)); err != nil {
		return err
	}
	return p.a.d.Check(ctx, consent)
}

// MessageJudgeEventPage sends, replies to and closes judicial messages.
type MessageJudgeEventPage struct {
	a *Actor
}

var messageFields = struct {
	relatedYes, relatedNo   driver.Selector
	additionalApplications  driver.Selector
	recipient, subject      driver.Selector
	urgency, message        driver.Selector
	replyOption             driver.Selector
	messages                driver.Selector
	replyingYes, replyingNo driver.Selector
	reply                   driver.Selector
}{
	relatedYes:             driver.ByID("isMessageRegardingAdditionalApplications_Yes"),
	relatedNo:              driver.ByID("isMessageRegardingAdditionalApplications_No"),
	additionalApplications: driver.ByID("additionalApplicationsDynamicList"),
	recipient:              driver.ByID("judicialMessageMetaData_recipient"),
	subject:                driver.ByID("judicialMessageMetaData_subject"),
	urgency:                driver.ByID("judicialMessageMetaData_urgency"),
	message:                driver.ByID("judicialMessageNote"),
	replyOption:            driver.ByID("messageJudgeOption-REPLY"),
	messages:               driver.ByID("judicialMessageDynamicList"),
	replyingYes:            driver.ByID("judicialMessageReply_isReplying_Yes"),
	replyingNo:             driver.ByID("judicialMessageReply_isReplying_No"),
	reply:                  driver.ByID("judicialMessageReply_latestMessage"),
}

func (p *MessageJudgeEventPage) SelectMessageRelatedToAdditionalApplication(ctx context.Context) error {
	return p.a.d.Click(ctx, messageFields.relatedYes)
}

func (p *MessageJudgeEventPage) SelectMessageNotRelatedToAdditionalApplication(ctx context.Context) error {
	return p.a.d.Click(ctx, messageFields.relatedNo)
}

// SelectAdditionalApplication picks the first application in the list.
func (p *MessageJudgeEventPage) SelectAdditionalApplication(ctx context.Context) error {
	return selectFirstOption(ctx, p.a, messageFields.additionalApplications)
}

func (p *MessageJudgeEventPage) EnterRecipientEmail(ctx context.Context, email string) error {
	return p.a.d.Fill(ctx, messageFields.recipient, email)
}

func (p *MessageJudgeEventPage) EnterSubject(ctx context.Context, subject string) error {
	return p.a.d.Fill(ctx, messageFields.subject, subject)
}

func (p *MessageJudgeEventPage) EnterUrgency(ctx context.Context, urgency string) error {
	return p.a.d.Fill(ctx, messageFields.urgency, urgency)
}

func (p *MessageJudgeEventPage) EnterMessage(ctx context.Context, message string) error {
	return p.a.d.Fill(ctx, messageFields.message, message)
}

func (p *MessageJudgeEventPage) SelectReplyToMessage(ctx context.Context) error {
	return p.a.d.Click(ctx, messageFields.replyOption)
}

// SelectJudicialMessage picks the first open message.
func (p *MessageJudgeEventPage) SelectJudicialMessage(ctx context.Context) error {
	return selectFirstOption(ctx, p.a, messageFields.messages)
}

func (p *MessageJudgeEventPage) SelectReplyingToJudicialMessage(ctx context.Context) error {
	return p.a.d.Click(ctx, messageFields.replyingYes)
}

func (p *MessageJudgeEventPage) SelectClosingJudicialMessage(ctx context.Context) error {
	return p.a.d.Click(ctx, messageFields.replyingNo)
}

func (p *MessageJudgeEventPage) EnterMessageReply(ctx context.Context, reply string) error {
	return p.a.d.Fill(ctx, messageFields.reply, reply)
}

// LegalCounsellor is one row of the legal counsel collection. Empty fields
// are left untouched.
type LegalCounsellor struct {
	FirstName    string
	LastName     string
	Organisation string
	Email        string
	Telephone    string
}

// ManageLegalCounsellorsEventPage adds barristers to a represented party.
type ManageLegalCounsellorsEventPage struct {
	a *Actor
}

// ActiveElementIndex is the index of the last collection row, counted from
// the visible Remove buttons.
func (p *ManageLegalCounsellorsEventPage) ActiveElementIndex(ctx context.Context) (int, error) {
	n, err := p.a.d.CountVisible(ctx, removeButton)
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

// AddLegalCounsellor fills the most recently added row.
func (p *ManageLegalCounsellorsEventPage) AddLegalCounsellor(ctx context.Context, c LegalCounsellor) error {
	idx, err := p.ActiveElementIndex(ctx)
	if err != nil {
		return err
	}
	if idx < 0 {
		return failure.Validation("no legal counsellor row to fill")
	}
	prefix := fmt.Sprintf("listOfLegalCounsellors_%d_", idx)
	for _, f := range []struct{ id, value string }{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"organisation", c.Organisation},
		{"email", c.Email},
		{"telephoneNumber", c.Telephone},
	} {
		if f.value == "" {
			continue
		}
		if err := p.a.d.Fill(ctx, driver.ByID(prefix+f.id), f.value); err != nil {
			return err
		}
	}
	return nil
}

// JudgeAndLegalAdvisor is the judge fragment shared by several events. Its
// field ids carry the event's prefix.
type JudgeAndLegalAdvisor struct {
	a      *Actor
	prefix string
}

func (j JudgeAndLegalAdvisor) field(name string) driver.Selector {
	return driver.ByID(j.prefix + "judgeAndLegalAdvisor_" + name)
}

// SelectJudgeTitle picks Her Honour Judge.
func (j JudgeAndLegalAdvisor) SelectJudgeTitle(ctx context.Context) error {
	return j.a.d.Click(ctx, j.field("judgeTitle-HER_HONOUR_JUDGE"))
}

func (j JudgeAndLegalAdvisor) EnterJudgeLastName(ctx context.Context, name string) error {
	return j.a.d.Fill(ctx, j.field("judgeLastName"), name)
}

func (j JudgeAndLegalAdvisor) EnterJudgeEmailAddress(ctx context.Context, email string) error {
	return j.a.d.Fill(ctx, j.field("judgeEmailAddress"), email)
}

func (j JudgeAndLegalAdvisor) EnterLegalAdvisorName(ctx context.Context, name string) error {
	return j.a.d.Fill(ctx, j.field("legalAdvisorName"), name)
}

func (j JudgeAndLegalAdvisor) UseAllocatedJudge(ctx context.Context) error {
	return j.a.d.Click(ctx, j.field("useAllocatedJudge_Yes"))
}

func (j JudgeAndLegalAdvisor) UseAlternateJudge(ctx context.Context) error {
	return j.a.d.Click(ctx, j.field("useAllocatedJudge_No"))
}

// NoticeOfProceedingsEventPage issues the C6 and C6A notices.
type NoticeOfProceedingsEventPage struct {
	JudgeAndLegalAdvisor
}

func (p *NoticeOfProceedingsEventPage) CheckC6(ctx context.Context) error {
	return p.a.d.Check(ctx, driver.ByID("noticeOfProceedings_proceedingTypes-NOTICE_OF_PROCEEDINGS_FOR_PARTIES"))
}

func (p *NoticeOfProceedingsEventPage) CheckC6A(ctx context.Context) error {
	return p.a.d.Check(ctx, driver.ByID("noticeOfProceedings_proceedingTypes-NOTICE_OF_PROCEEDINGS_FOR_NON_PARTIES"))
}

// UploadDraftOrdersEventPage lets a local authority send draft orders.
type UploadDraftOrdersEventPage struct {
	a *Actor
}

func (p *UploadDraftOrdersEventPage) SelectAgreedCMO(ctx context.Context) error {
	if err := p.a.d.Click(ctx, driver.ByID("hearingOrderDraftKind-CMO")); err != nil {
		return err
	}
	return p.a.d.Click(ctx, driver.ByID("cmoUploadType-AGREED"))
}

func (p *UploadDraftOrdersEventPage) SelectDraftCMO(ctx context.Context) error {
	if err := p.a.d.Click(ctx, driver.ByID("hearingOrderDraftKind-CMO")); err != nil {
		return err
	}
	return p.a.d.Click(ctx, driver.ByID("cmoUploadType-DRAFT"))
}

func (p *UploadDraftOrdersEventPage) SelectC21(ctx context.Context) error {
	return p.a.d.Click(ctx, driver.ByID("hearingOrderDraftKind-C21"))
}

// SelectPastHearing picks the hearing an agreed order was discussed at.
func (p *UploadDraftOrdersEventPage) SelectPastHearing(ctx context.Context, hearing string) error {
	return p.a.d.SelectOption(ctx, driver.ByID("pastHearingsForCMO"), hearing)
}

// SelectFutureHearing picks the hearing a draft order is for.
func (p *UploadDraftOrdersEventPage) SelectFutureHearing(ctx context.Context, hearing string) error {
	return p.a.d.SelectOption(ctx, driver.ByID("futureHearingsForCMO"), hearing)
}

// SelectHearingForC21 picks the hearing C21 orders belong to.
func (p *UploadDraftOrdersEventPage) SelectHearingForC21(ctx context.Context, hearing string) error {
	return p.a.d.SelectOption(ctx, driver.ByID("hearingsForHearingOrderDrafts"), hearing)
}

// UploadCMO attaches the order document.
func (p *UploadDraftOrdersEventPage) UploadCMO(ctx context.Context, path string) error {
	return p.a.d.AttachFile(ctx, driver.ByID("uploadedCaseManagementOrder"), path)
}

// SupportingDocument accompanies a case management order.
type SupportingDocument struct {
	Name     string
	Notes    string
	Path     string
	FileName string
}

// AttachSupportingDocument fills the first supporting document row.
func (p *UploadDraftOrdersEventPage) AttachSupportingDocument(ctx context.Context, doc SupportingDocument) error {
	if err := p.a.AddAnotherElementToCollection(ctx, "Case summary or supporting documents"); err != nil {
		return err
	}
	if err := p.a.d.Fill(ctx, driver.ByID("cmoSupportingDocs_0_name"), doc.Name); err != nil {
		return err
	}
	if err := p.a.d.Fill(ctx, driver.ByID("cmoSupportingDocs_0_notes"), doc.Notes); err != nil {
		return err
	}
	return p.a.d.AttachFile(ctx, driver.ByID("cmoSupportingDocs_0_document"), doc.Path)
}

// AddC21 fills C21 row idx with a title and document.
func (p *UploadDraftOrdersEventPage) AddC21(ctx context.Context, idx int, title, path string) error {
	prefix := fmt.Sprintf("currentHearingOrderDrafts_%d_", idx)
	if err := p.a.d.Fill(ctx, driver.ByID(prefix+"title"), title); err != nil {
		return err
	}
	return p.a.d.AttachFile(ctx, driver.ByID(prefix+"order"), path)
}

// ApproveOrdersEventPage is the judge's review of draft orders.
type ApproveOrdersEventPage struct {
	a *Actor
}

// SelectCMOToReview picks the order of hearing when more than one awaits review.
func (p *ApproveOrdersEventPage) SelectCMOToReview(ctx context.Context, hearing string) error {
	return p.a.d.SelectOption(ctx, driver.ByID("cmoToReviewList"), hearing)
}

func (p *ApproveOrdersEventPage) SelectSealCMO(ctx context.Context) error {
	return p.a.d.Click(ctx, driver.ByID("reviewCMODecision_decision-SEND_TO_ALL_PARTIES"))
}

func (p *ApproveOrdersEventPage) SelectMakeChangesToCMO(ctx context.Context) error {
	return p.a.d.Click(ctx, driver.ByID("reviewCMODecision_decision-JUDGE_AMENDS_DRAFT"))
}

func (p *ApproveOrdersEventPage) SelectReturnCMOForChanges(ctx context.Context, reason string) error {
	if err := p.a.d.Click(ctx, driver.ByID("reviewCMODecision_decision-JUDGE_REQUESTED_CHANGES")); err != nil {
		return err
	}
	return p.a.d.Fill(ctx, driver.ByID("reviewCMODecision_changesRequestedByJudge"), reason)
}

// UploadAmendedCMO attaches the judge's amended order.
func (p *ApproveOrdersEventPage) UploadAmendedCMO(ctx context.Context, path string) error {
	return p.a.d.AttachFile(ctx, driver.ByID("reviewCMODecision_judgeAmendedDocument"), path)
}

// SelectSealC21 approves C21 number n (1-based).
func (p *ApproveOrdersEventPage) SelectSealC21(ctx context.Context, n int) error {
	return p.a.d.Click(ctx, driver.ByID(fmt.Sprintf("reviewDecision%d_decision-SEND_TO_ALL_PARTIES", n)))
}

// SelectOthers notifies the other party at idx.
func (p *ApproveOrdersEventPage) SelectOthers(ctx context.Context, idx int) error {
	if err := p.a.d.Click(ctx, driver.ByID("sendOrderToAllOthers_No")); err != nil {
		return err
	}
	return p.a.d.Check(ctx, driver.ByID(fmt.Sprintf("othersSelector_option%d", idx)))
}

// SelectReturnC21ForChanges sends C21 number n (1-based) back to the local
// authority with the judge's note.
func (p *ApproveOrdersEventPage) SelectReturnC21ForChanges(ctx context.Context, n int, note string) error {
	prefix := fmt.Sprintf("reviewDecision%d_", n)
	if err := p.a.d.Click(ctx, driver.ByID(prefix+"decision-JUDGE_REQUESTED_CHANGES")); err != nil {
		return err
	}
	return p.a.d.Fill(ctx, driver.ByID(prefix+"changesRequestedByJudge"), note)
}

// ChildrenEventPage records who represents the children.
type ChildrenEventPage struct {
	a *Actor
}

func yesNo(id string, yes bool) driver.Selector {
	if yes {
		return driver.ByID(id + "_Yes")
	}
	return driver.ByID(id + "_No")
}

func (p *ChildrenEventPage) SelectAnyChildHasLegalRepresentation(ctx context.Context, yes bool) error {
	return p.a.d.Click(ctx, yesNo("childrenHaveRepresentation", yes))
}

func (p *ChildrenEventPage) SelectChildrenHaveSameRepresentation(ctx context.Context, yes bool) error {
	return p.a.d.Click(ctx, yesNo("childrenHaveSameRepresentation", yes))
}

// EnterChildrenMainRepresentation fills the main solicitor's contact details.
func (p *ChildrenEventPage) EnterChildrenMainRepresentation(ctx context.Context, solicitor config.User) error {
	for _, f := range []struct{ id, value string }{
		{"childrenMainRepresentative_firstName", solicitor.Forename},
		{"childrenMainRepresentative_lastName", solicitor.Surname},
		{"childrenMainRepresentative_email", solicitor.Email},
	} {
		if err := p.a.d.Fill(ctx, driver.ByID(f.id), f.value); err != nil {
			return err
		}
	}
	return nil
}

// EnterRegisteredOrganisation searches the organisation register and picks
// the solicitor's organisation.
func (p *ChildrenEventPage) EnterRegisteredOrganisation(ctx context.Context, solicitor config.User) error {
	if err := p.a.d.Fill(ctx, driver.ByID("search-org-text"), solicitor.Organisation); err != nil {
		return err
	}
	return p.a.RetryUntilExists(ctx, func(ctx context.Context) error {
		return p.a.d.Click(ctx, OrganisationLink(solicitor.Organisation))
	}, driver.XPath(`//*[@id="organisation-selected"][`+driver.TextEquals(solicitor.Organisation)+`]`))
}

// OrganisationLink is the register's select link of organisation.
func OrganisationLink(organisation string) driver.Selector {
	return driver.XPath(`//a[@title=` + driver.Literal("Select the organisation "+organisation) + `]`)
}
