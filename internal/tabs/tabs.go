// Package tabs finds, activates and reads the tabs of the case view.
//
// The case view renders its tabs as a paged strip: headers beyond the strip
// width only become clickable after paging forward. The content of the
// active tab is a tree of titled sections holding label/value rows, which
// Reader addresses by label paths such as ["Message 1", "Urgency"].
package tabs

import (
	"strconv"
	"strings"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// Case view tab names.
const (
	Summary                 = "Summary"
	History                 = "History"
	Orders                  = "Orders"
	DraftOrders             = "Draft orders"
	Hearings                = "Hearings"
	CasePeople              = "People in the case"
	ChangeOfRepresentatives = "Change of representatives"
	LegalBasis              = "Legal basis"
	DocumentsSentToParties  = "Documents sent to parties"
	C2                      = "C2"
	Confidential            = "Confidential information"
	Placement               = "Placement"
	PaymentHistory          = "Payment History"
	Notes                   = "Notes"
	ExpertReports           = "Expert Reports"
	Overview                = "Overview"
	ViewApplication         = "View application"
	StartApplication        = "Start application"
	Correspondence          = "Correspondence"
	CourtBundle             = "Court bundle"
	JudicialMessages        = "Judicial messages"
	OtherApplications       = "Other applications"
	FurtherEvidence         = "Documents"
)

// TabSet is an ordered list of tab names.
type TabSet []string

// CaseView lists every tab the case view can show, in strip order. Which of
// them a user actually sees depends on role and case state.
var CaseView = TabSet{
	Summary, History, Orders, DraftOrders, Hearings, CasePeople,
	ChangeOfRepresentatives, LegalBasis, DocumentsSentToParties, C2,
	Confidential, Placement, PaymentHistory, Notes, ExpertReports, Overview,
	ViewApplication, StartApplication, Correspondence, CourtBundle,
	JudicialMessages, OtherApplications, FurtherEvidence,
}

// Contains reports whether name is one of the set's tabs.
func (s TabSet) Contains(name string) bool {
	for _, t := range s {
		if t == name {
			return true
		}
	}
	return false
}

// Path addresses a field inside the active tab: zero or more section titles
// followed by a field label.
type Path []string

func (p Path) String() string {
	return strings.Join(p, " > ")
}

func (p Path) validate() error {
	if len(p) == 0 {
		return failure.Validation("tab path is empty")
	}
	for i, seg := range p {
		if strings.TrimSpace(seg) == "" {
			return failure.Validation("tab path segment " + strconv.Itoa(i) + " is blank")
		}
	}
	return nil
}

// Panel is the content region of an activated tab.
type Panel struct {
	Tab      string
	HeaderID string
	// Root selects the tab body element.
	Root driver.Selector
}

var (
	tabHeaders = driver.XPath(`//*[@role="tab"]`)
	tabPager   = driver.ByClass("mat-tab-header-pagination-after")
	activeBody = driver.XPath(`//mat-tab-body[contains(@class, "mat-tab-body-active")]`)
)

// HeaderSelector matches the strip header of the named tab.
func HeaderSelector(name string) driver.Selector {
	return driver.XPath(`//*[@role="tab"][child::div[text()=` + driver.Literal(name) + `]]`)
}

func bodySelector(headerID string) driver.Selector {
	return activeBody.Append(`[@aria-labelledby=` + driver.Literal(headerID) + `]`)
}
