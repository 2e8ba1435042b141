package tabs_test

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/driver/drivertest"
	"github.com/damongreen123/fpl-ccd-configuration/internal/poll"
)

var pagerSel = driver.ByClass("mat-tab-header-pagination-after")

// caseView simulates a paged mat-tab strip: only `window` headers starting at
// offset are shown, the pager advances offset by one, and clicking a header
// activates its body.
type caseView struct {
	mu       sync.Mutex
	page     *drivertest.Page
	tabs     []string
	window   int
	offset   int
	selected int
	contents map[string]string
	// noTable leaves every body without a table, as while content loads.
	noTable bool
}

func newCaseView(tabs []string, window int, contents map[string]string) *caseView {
	cv := &caseView{tabs: tabs, window: window, contents: contents}
	cv.page = drivertest.New("https://manage-case/cases/case-details/1234", cv.render())
	cv.page.OnClick(pagerSel, func(p *drivertest.Page, _ *html.Node) {
		cv.mu.Lock()
		if cv.offset+cv.window < len(cv.tabs) {
			cv.offset++
		}
		cv.mu.Unlock()
		p.SetHTML(cv.render())
	})
	cv.page.OnClick(driver.XPath(`//*[@role="tab"]`), func(p *drivertest.Page, n *html.Node) {
		var idx int
		fmt.Sscanf(htmlquery.SelectAttr(n, "id"), "mat-tab-label-0-%d", &idx)
		cv.mu.Lock()
		cv.selected = idx
		cv.mu.Unlock()
		p.SetHTML(cv.render())
	})
	return cv
}

func (cv *caseView) render() string {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	var b strings.Builder
	b.WriteString(`<html><body><h1 class="case-title"><span class="markdown">Case 1234</span></h1><mat-tab-group><div class="mat-tab-header">`)
	if len(cv.tabs) > cv.window {
		b.WriteString(`<div class="mat-tab-header-pagination mat-tab-header-pagination-after"></div>`)
	}
	b.WriteString(`<div class="mat-tab-label-container"><div class="mat-tab-list">`)
	for i, name := range cv.tabs {
		style := ""
		if i < cv.offset || i >= cv.offset+cv.window {
			style = ` style="display: none"`
		}
		fmt.Fprintf(&b, `<div role="tab" id="mat-tab-label-0-%d" class="mat-tab-label" aria-selected="%t"%s><div class="mat-tab-label-content">%s</div></div>`,
			i, i == cv.selected, style, html.EscapeString(name))
	}
	b.WriteString(`</div></div></div><div class="mat-tab-body-wrapper">`)
	for i, name := range cv.tabs {
		class := "mat-tab-body"
		content := ""
		if i == cv.selected {
			class += " mat-tab-body-active"
			if !cv.noTable {
				content = `<table class="case-field-table"><tbody><tr><td>` + cv.contents[name] + `</td></tr></tbody></table>`
			}
		}
		fmt.Fprintf(&b, `<mat-tab-body class="%s" aria-labelledby="mat-tab-label-0-%d">%s</mat-tab-body>`, class, i, content)
	}
	b.WriteString(`</div></mat-tab-group></body></html>`)
	return b.String()
}

func section(title string, rows ...string) string {
	return `<div class="complex-panel"><dl class="complex-panel-title"><dt><span class="text-16">` + html.EscapeString(title) +
		`</span></dt></dl><table class="complex-panel-table"><tbody>` + strings.Join(rows, "") + `</tbody></table></div>`
}

func field(label, value string) string {
	return `<tr class="complex-panel-simple-field"><th><span class="text-16">` + html.EscapeString(label) +
		`</span></th><td><span class="text-16">` + html.EscapeString(value) + `</span></td></tr>`
}

// nested wraps a section so it sits inside a row of its parent's table.
func nested(sectionMarkup string) string {
	return `<tr class="complex-panel-compound-field"><td colspan="2">` + sectionMarkup + `</td></tr>`
}

func organisationRow(label, name, address string) string {
	return `<tr class="complex-panel-compound-field"><th><span class="text-16">` + html.EscapeString(label) +
		`</span></th><td><ccd-read-organisation-field><span>` + html.EscapeString(name) + `</span><br><span>` +
		html.EscapeString(address) + `</span></ccd-read-organisation-field></td></tr>`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func fastPoller(t fataler) *poll.Poller {
	t.Helper()
	p, err := poll.New(time.Millisecond, 20*time.Millisecond, poll.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("poller: %v", err)
	}
	return p
}
