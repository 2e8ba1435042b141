package suites

import (
	"context"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/fixtures"
	"github.com/damongreen123/fpl-ccd-configuration/internal/pages"
	"github.com/damongreen123/fpl-ccd-configuration/internal/scenario"
	"github.com/damongreen123/fpl-ccd-configuration/internal/tabs"
)

const (
	messageNote        = "Some note"
	messageReply       = "This is a reply"
	messageSubject     = "Subject 1"
	messageRecipient   = "recipient@fpla.com"
	messageUrgency     = "High"
	relatedDocument    = "Test.txt"
	relatedApplication = "C2, 25 March 2021, 3:16pm"
	judgeSubject       = "Judge subject"
	judgeMessage       = "Judge message"

	// ClosingNotice is shown when a reply closes the message.
	ClosingNotice = "This message will now be marked as closed"
	// ClosedMessages titles the section of closed messages.
	ClosedMessages = "Closed messages"
	// OpenMessages titles the section of open messages.
	OpenMessages = "Messages"
)

// MessageHistory joins history entries the way the case view renders them.
func MessageHistory(entries ...string) string {
	return strings.Join(entries, "\n \n")
}

// HistoryEntry is one message of a history.
func HistoryEntry(from, message string) string {
	return from + " - " + message
}

// Messaging covers judicial messages between court admin and the judge. Each
// scenario continues the conversation of the previous one.
func Messaging() scenario.Feature {
	return scenario.Feature{
		Name:   "Message judge or legal adviser",
		Serial: true,
		Setup: func(ctx context.Context, s *scenario.Scope) error {
			_, err := s.CreateCase(ctx, s.Users.SwanseaLocalAuthorityOne, fixtures.MandatoryWithAdditionalApplicationsBundle)
			return err
		},
		Scenarios: []scenario.Scenario{
			{Name: "HMCTS admin messages the judge", Tags: []string{"cross-browser"}, Run: adminMessagesJudge},
			{Name: "Judge replies to HMCTS admin", Run: judgeRepliesToAdmin},
			{Name: "HMCTS admin closes the message", Run: adminClosesMessage},
			{Name: "Judge messages court admin", Run: judgeMessagesAdmin},
		},
	}
}

func messageRows(from, sentTo, latest, status, history string) []row {
	return under(tabs.Path{"Message 1"},
		field("From", from),
		field("Sent to", sentTo),
		field("Message subject", messageSubject),
		field("Urgency", messageUrgency),
		field("Latest message", latest),
		field("Status", status),
		field("Related documents", relatedDocument),
		field("Application", relatedApplication),
		field("Message history", history),
	)
}

func adminMessagesJudge(ctx context.Context, s *scenario.Scope) error {
	a, mj := s.Actor, s.Pages.MessageJudge
	ctsc := s.Config.CTSCEmail
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, s.Users.HMCTSAdmin, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionMessageJudge),
		mj.SelectMessageRelatedToAdditionalApplication,
		mj.SelectAdditionalApplication,
		bind(mj.EnterRecipientEmail, messageRecipient),
		bind(mj.EnterSubject, messageSubject),
		bind(mj.EnterUrgency, messageUrgency),
		a.GoToNextPage,
		bind(mj.EnterMessage, messageNote),
		completeEvent(a, pages.ActionMessageJudge, saveAndContinue),
		selectTab(a, tabs.JudicialMessages),
		seeInTab(a, messageRows(ctsc, messageRecipient, messageNote, "Open", HistoryEntry(ctsc, messageNote))...),
		dontSeeInTab(a, ClosedMessages),
	)
}

func judgeRepliesToAdmin(ctx context.Context, s *scenario.Scope) error {
	a, mj := s.Actor, s.Pages.MessageJudge
	ctsc, judge := s.Config.CTSCEmail, s.Users.Judiciary.Email
	history := MessageHistory(HistoryEntry(ctsc, messageNote), HistoryEntry(judge, messageReply))
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, s.Users.Judiciary, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionMessageJudge),
		mj.SelectReplyToMessage,
		mj.SelectJudicialMessage,
		a.GoToNextPage,
		mj.SelectReplyingToJudicialMessage,
		bind(mj.EnterMessageReply, messageReply),
		completeEvent(a, pages.ActionMessageJudge, saveAndContinue),
		selectTab(a, tabs.JudicialMessages),
		seeInTab(a, messageRows(judge, ctsc, messageReply, "Open", history)...),
		dontSeeInTab(a, ClosedMessages),
	)
}

func adminClosesMessage(ctx context.Context, s *scenario.Scope) error {
	a, mj := s.Actor, s.Pages.MessageJudge
	ctsc, judge := s.Config.CTSCEmail, s.Users.Judiciary.Email
	history := MessageHistory(HistoryEntry(ctsc, messageNote), HistoryEntry(judge, messageReply))
	rows := messageRows(judge, ctsc, messageReply, "Closed", history)
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, s.Users.HMCTSAdmin, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionMessageJudge),
		mj.SelectReplyToMessage,
		mj.SelectJudicialMessage,
		a.GoToNextPage,
		mj.SelectClosingJudicialMessage,
		bind(a.See, ClosingNotice),
		completeEvent(a, pages.ActionMessageJudge, saveAndContinue),
		selectTab(a, tabs.JudicialMessages),
		bind(a.See, ClosedMessages),
		seeInTab(a, append(rows[:4:4], rows[5:]...)...),
	)
}

func judgeMessagesAdmin(ctx context.Context, s *scenario.Scope) error {
	a, mj := s.Actor, s.Pages.MessageJudge
	ctsc, judge := s.Config.CTSCEmail, s.Users.Judiciary.Email
	return do(ctx,
		func(ctx context.Context) error { return a.NavigateToCaseDetailsAs(ctx, s.Users.Judiciary, s.CaseID()) },
		bind(s.Pages.CaseView.GoToNewActions, pages.ActionMessageJudge),
		mj.SelectMessageNotRelatedToAdditionalApplication,
		bind(mj.EnterSubject, judgeSubject),
		a.GoToNextPage,
		bind(mj.EnterMessage, judgeMessage),
		completeEvent(a, pages.ActionMessageJudge, saveAndContinue),
		selectTab(a, tabs.JudicialMessages),
		// The closed message is also numbered 1, so the open one is
		// addressed through its section.
		seeInTab(a, under(tabs.Path{OpenMessages, "Message 1"},
			field("From", judge),
			field("Sent to", ctsc),
			field("Message subject", judgeSubject),
			field("Latest message", judgeMessage),
			field("Status", "Open"),
			field("Message history", HistoryEntry(judge, judgeMessage)),
		)...),
	)
}
