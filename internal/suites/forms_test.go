package suites_test

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages/pagestest"
	"github.com/damongreen123/fpl-ccd-configuration/internal/suites"
)

const supportingDocsCollection = "Case summary or supporting documents"

var reviewDecisions = []string{"SEND_TO_ALL_PARTIES", "JUDGE_AMENDS_DRAFT", "JUDGE_REQUESTED_CHANGES"}

func checked(v pagestest.Values, id string) bool {
	return v[id] == "checked"
}

func yesNoRadios(id string) string {
	return pagestest.Radio(id+"_Yes", "Yes") + pagestest.Radio(id+"_No", "No")
}

// events are the forms the application offers on every case. Pages that
// depend on the case are rendered from the model as it is now.
func (m *model) events() map[string]pagestest.EventForm {
	return map[string]pagestest.EventForm{
		pages.ActionSubmitCase: {
			Pages:       []string{pagestest.Checkbox("submissionConsent-agree", "I agree with this statement")},
			SubmitLabel: "Submit",
			OnSubmit: func(c *pagestest.Case, _ string, v pagestest.Values) {
				if checked(v, "submissionConsent-agree") {
					c.Submitted = true
				}
			},
		},
		pages.ActionMessageJudge:            m.messageJudgeForm(),
		pages.ActionAddOrRemoveLegalCounsel: m.legalCounselForm(),
		pages.ActionAmendChildren:           m.childrenForm(),
		pages.ActionUploadCMO:               m.uploadForm(),
		pages.ActionApproveOrders:           m.approveForm(),
	}
}

func (m *model) messageJudgeForm() pagestest.EventForm {
	subjects := make([]string, 0, len(m.open))
	for _, msg := range m.open {
		subjects = append(subjects, msg.subject)
	}
	return pagestest.EventForm{
		Pages: []string{
			pagestest.Radio("messageJudgeOption-REPLY", "Reply to a message") +
				pagestest.Select("judicialMessageDynamicList", subjects...) +
				yesNoRadios("isMessageRegardingAdditionalApplications") +
				pagestest.Select("additionalApplicationsDynamicList", m.applications...) +
				pagestest.TextInput("judicialMessageMetaData_recipient", "Recipient") +
				pagestest.TextInput("judicialMessageMetaData_subject", "Subject") +
				pagestest.TextInput("judicialMessageMetaData_urgency", "Urgency"),
			pagestest.TextArea("judicialMessageNote", "Message") +
				yesNoRadios("judicialMessageReply_isReplying") +
				pagestest.TextArea("judicialMessageReply_latestMessage", "Reply") +
				`<p>` + html.EscapeString(suites.ClosingNotice) + `</p>`,
		},
		OnSubmit: m.sendMessage,
	}
}

func (m *model) sendMessage(c *pagestest.Case, user string, v pagestest.Values) {
	ctsc := m.w.cfg.CTSCEmail
	sender := user
	if user == m.w.cfg.Users.HMCTSAdmin.Email {
		sender = ctsc
	}
	defer m.render(c)

	if checked(v, "messageJudgeOption-REPLY") {
		for i, msg := range m.open {
			if msg.subject != v["judicialMessageDynamicList"] {
				continue
			}
			if checked(v, "judicialMessageReply_isReplying_No") {
				msg.status = "Closed"
				m.open = append(m.open[:i], m.open[i+1:]...)
				m.closed = append(m.closed, msg)
				return
			}
			reply := v["judicialMessageReply_latestMessage"]
			msg.from, msg.to, msg.latest = sender, msg.from, reply
			msg.history = append(msg.history, suites.HistoryEntry(sender, reply))
			return
		}
		return
	}

	to := v["judicialMessageMetaData_recipient"]
	if to == "" {
		to = ctsc
	}
	note := v["judicialMessageNote"]
	msg := &message{
		from:    sender,
		to:      to,
		subject: v["judicialMessageMetaData_subject"],
		urgency: v["judicialMessageMetaData_urgency"],
		latest:  note,
		status:  "Open",
		history: []string{suites.HistoryEntry(sender, note)},
	}
	if checked(v, "isMessageRegardingAdditionalApplications_Yes") {
		msg.application, msg.document = v["additionalApplicationsDynamicList"], m.appDocument
	}
	m.open = append(m.open, msg)
}

func (m *model) legalCounselForm() pagestest.EventForm {
	return pagestest.EventForm{
		Pages: []string{pagestest.Collection(suites.LegalCounselCollection)},
		Rows: map[string]func(int) string{
			suites.LegalCounselCollection: func(idx int) string {
				prefix := fmt.Sprintf("listOfLegalCounsellors_%d_", idx)
				return pagestest.TextInput(prefix+"firstName", "First name") +
					pagestest.TextInput(prefix+"lastName", "Last name") +
					pagestest.TextInput(prefix+"organisation", "Organisation") +
					pagestest.TextInput(prefix+"email", "Email address") +
					pagestest.TextInput(prefix+"telephoneNumber", "Phone number")
			},
		},
		OnSubmit: func(c *pagestest.Case, user string, v pagestest.Values) {
			var counsel []legalCounsellor
			for i := 0; ; i++ {
				prefix := fmt.Sprintf("listOfLegalCounsellors_%d_", i)
				first, ok := v[prefix+"firstName"]
				if !ok {
					break
				}
				counsel = append(counsel, legalCounsellor{firstName: first, lastName: v[prefix+"lastName"], email: v[prefix+"email"]})
			}
			for _, p := range append(append([]*party{}, m.respondents...), m.children...) {
				if p.representative != nil && p.representative.email == user {
					p.counsel = counsel
				}
			}
			m.render(c)
		},
	}
}

func (m *model) childrenForm() pagestest.EventForm {
	var list strings.Builder
	for i, ch := range m.children {
		fmt.Fprintf(&list, `<p>Child %d: %s</p>`, i+1, html.EscapeString(ch.FullName()))
	}
	var register strings.Builder
	for _, org := range []string{suites.PrivateSolicitors, suites.Hillingdon, suites.Wiltshire} {
		fmt.Fprintf(&register, `<p>%s <a href="#" title="Select the organisation %s">Select</a></p>`,
			html.EscapeString(org), html.EscapeString(org))
	}
	return pagestest.EventForm{
		Pages: []string{
			list.String(),
			yesNoRadios("childrenHaveRepresentation") +
				pagestest.TextInput("childrenMainRepresentative_firstName", "First name") +
				pagestest.TextInput("childrenMainRepresentative_lastName", "Last name") +
				pagestest.TextInput("childrenMainRepresentative_email", "Email address") +
				pagestest.TextInput("search-org-text", "Search for an organisation") +
				register.String() +
				`<div id="organisation-selection"></div><input type="hidden" id="childrenMainRepresentative_organisation">`,
			yesNoRadios("childrenHaveSameRepresentation"),
		},
		Show: func(i int, v pagestest.Values) bool {
			return i != 2 || checked(v, "childrenHaveRepresentation_Yes")
		},
		OnSubmit: func(c *pagestest.Case, _ string, v pagestest.Values) {
			defer m.render(c)
			if !checked(v, "childrenHaveRepresentation_Yes") {
				m.mainRep = nil
				return
			}
			m.mainRep = &representative{
				firstName:    v["childrenMainRepresentative_firstName"],
				lastName:     v["childrenMainRepresentative_lastName"],
				email:        v["childrenMainRepresentative_email"],
				organisation: v["childrenMainRepresentative_organisation"],
			}
			if checked(v, "childrenHaveSameRepresentation_Yes") {
				for _, ch := range m.children {
					rep := *m.mainRep
					ch.representative = &rep
				}
			}
		},
	}
}

func (m *model) uploadForm() pagestest.EventForm {
	var past, future []string
	now := time.Now()
	for i, h := range m.hearings {
		if m.hearingDates[i].Before(now) {
			past = append(past, h)
		} else {
			future = append(future, h)
		}
	}
	return pagestest.EventForm{
		Pages: []string{
			pagestest.Radio("hearingOrderDraftKind-CMO", "Case management order") +
				pagestest.Radio("hearingOrderDraftKind-C21", "Other draft orders") +
				pagestest.Radio("cmoUploadType-AGREED", "Agreed") +
				pagestest.Radio("cmoUploadType-DRAFT", "Draft"),
			pagestest.Select("pastHearingsForCMO", past...) +
				pagestest.Select("futureHearingsForCMO", future...) +
				pagestest.Select("hearingsForHearingOrderDrafts", m.hearings...) +
				pagestest.FileInput("uploadedCaseManagementOrder") +
				pagestest.Collection(supportingDocsCollection) +
				pagestest.Collection(suites.C21Collection),
		},
		Rows: map[string]func(int) string{
			supportingDocsCollection: func(idx int) string {
				prefix := fmt.Sprintf("cmoSupportingDocs_%d_", idx)
				return pagestest.TextInput(prefix+"name", "Document name") +
					pagestest.TextArea(prefix+"notes", "Notes") +
					pagestest.FileInput(prefix+"document")
			},
			suites.C21Collection: func(idx int) string {
				prefix := fmt.Sprintf("currentHearingOrderDrafts_%d_", idx)
				return pagestest.TextInput(prefix+"title", "Order title") + pagestest.FileInput(prefix+"order")
			},
		},
		OnSubmit: m.uploadDraftOrders,
	}
}

func (m *model) bundleFor(hearing string) *bundle {
	for _, b := range m.bundles {
		if b.hearing == hearing {
			return b
		}
	}
	b := &bundle{hearing: hearing}
	m.bundles = append(m.bundles, b)
	return b
}

func c21Drafts(v pagestest.Values) []*draft {
	var out []*draft
	for i := 0; ; i++ {
		prefix := fmt.Sprintf("currentHearingOrderDrafts_%d_", i)
		title, ok := v[prefix+"title"]
		if !ok {
			return out
		}
		out = append(out, &draft{title: title, order: v[prefix+"order"], status: suites.WithJudgeStatus, sent: today()})
	}
}

func (m *model) uploadDraftOrders(c *pagestest.Case, _ string, v pagestest.Values) {
	defer m.render(c)
	if checked(v, "hearingOrderDraftKind-C21") {
		b := m.bundleFor(v["hearingsForHearingOrderDrafts"])
		b.drafts = append(b.drafts, c21Drafts(v)...)
		return
	}
	cmo := &draft{cmo: true, order: v["uploadedCaseManagementOrder"], sent: today()}
	hearing := v["futureHearingsForCMO"]
	cmo.title, cmo.status = suites.DraftCMO, suites.DraftStatus
	if checked(v, "cmoUploadType-AGREED") {
		hearing = v["pastHearingsForCMO"]
		cmo.title, cmo.status = suites.AgreedCMO, suites.WithJudgeStatus
	}
	if name, ok := v["cmoSupportingDocs_0_name"]; ok {
		cmo.docs = &supportingDocument{name: name, notes: v["cmoSupportingDocs_0_notes"], file: v["cmoSupportingDocs_0_document"]}
	}
	b := m.bundleFor(hearing)
	drafts := []*draft{cmo}
	for _, d := range b.drafts {
		if !d.cmo {
			drafts = append(drafts, d)
		}
	}
	b.drafts = append(drafts, c21Drafts(v)...)
}

func sealing(v pagestest.Values) bool {
	for id, val := range v {
		if val == "checked" && (strings.HasSuffix(id, "_decision-SEND_TO_ALL_PARTIES") || strings.HasSuffix(id, "_decision-JUDGE_AMENDS_DRAFT")) {
			return true
		}
	}
	return false
}

func decision(v pagestest.Values, prefix string) string {
	for _, d := range reviewDecisions {
		if checked(v, prefix+d) {
			return d
		}
	}
	return ""
}

func (m *model) approveForm() pagestest.EventForm {
	awaiting := m.awaitingReview()
	hearings := make([]string, 0, len(awaiting))
	c21s := 0
	for _, b := range awaiting {
		hearings = append(hearings, b.hearing)
		n := 0
		for _, d := range b.drafts {
			if !d.cmo && d.status == suites.WithJudgeStatus {
				n++
			}
		}
		c21s = max(c21s, n)
	}

	var review strings.Builder
	for _, b := range awaiting {
		for _, d := range b.drafts {
			if d.status == suites.WithJudgeStatus {
				fmt.Fprintf(&review, `<p>%s: %s</p>`, html.EscapeString(d.title), html.EscapeString(d.order))
			}
		}
	}
	for _, d := range reviewDecisions {
		review.WriteString(pagestest.Radio("reviewCMODecision_decision-"+d, d))
	}
	review.WriteString(pagestest.TextArea("reviewCMODecision_changesRequestedByJudge", "What needs to change?"))
	review.WriteString(pagestest.FileInput("reviewCMODecision_judgeAmendedDocument"))
	for n := 1; n <= c21s; n++ {
		prefix := fmt.Sprintf("reviewDecision%d_", n)
		review.WriteString(pagestest.Radio(prefix+"decision-SEND_TO_ALL_PARTIES", "Seal and send") +
			pagestest.Radio(prefix+"decision-JUDGE_REQUESTED_CHANGES", "Send back") +
			pagestest.TextArea(prefix+"changesRequestedByJudge", "What needs to change?"))
	}

	var others strings.Builder
	others.WriteString(pagestest.Radio("sendOrderToAllOthers_Yes", "Yes") + pagestest.Radio("sendOrderToAllOthers_No", "No"))
	for i, o := range m.others {
		others.WriteString(pagestest.Checkbox(fmt.Sprintf("othersSelector_option%d", i), o))
	}

	return pagestest.EventForm{
		Pages: []string{
			pagestest.Select("cmoToReviewList", hearings...),
			review.String(),
			others.String(),
		},
		Show: func(i int, v pagestest.Values) bool {
			switch i {
			case 0:
				return len(hearings) > 1
			case 2:
				return sealing(v)
			}
			return true
		},
		OnSubmit: m.approveOrders,
	}
}

func (m *model) approveOrders(c *pagestest.Case, _ string, v pagestest.Values) {
	defer m.render(c)
	awaiting := m.awaitingReview()
	if len(awaiting) == 0 {
		return
	}
	b := awaiting[0]
	for _, candidate := range awaiting {
		if candidate.hearing == v["cmoToReviewList"] {
			b = candidate
		}
	}
	var notified []string
	for i, o := range m.others {
		if checked(v, "sendOrderToAllOthers_Yes") || checked(v, fmt.Sprintf("othersSelector_option%d", i)) {
			notified = append(notified, o)
		}
	}
	others := strings.Join(notified, ", ")

	var kept []*draft
	n := 0
	for _, d := range b.drafts {
		if d.status != suites.WithJudgeStatus {
			kept = append(kept, d)
			continue
		}
		var outcome string
		if d.cmo {
			outcome = decision(v, "reviewCMODecision_decision-")
		} else {
			n++
			outcome = decision(v, fmt.Sprintf("reviewDecision%d_decision-", n))
		}
		switch outcome {
		case "SEND_TO_ALL_PARTIES", "JUDGE_AMENDS_DRAFT":
			order := sealed{title: d.title, hearing: b.hearing, others: others, issued: today()}
			if d.cmo {
				m.sealedCMOs = append(m.sealedCMOs, order)
			} else {
				m.orders = append(m.orders, order)
			}
			m.sentDocs++
		case "JUDGE_REQUESTED_CHANGES":
		default:
			kept = append(kept, d)
		}
	}
	b.drafts = kept

	var bundles []*bundle
	for _, bu := range m.bundles {
		if len(bu.drafts) > 0 {
			bundles = append(bundles, bu)
		}
	}
	m.bundles = bundles
}
