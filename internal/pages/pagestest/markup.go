package pagestest

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
)

// Section renders a titled complex panel holding rows.
func Section(title string, rows ...string) string {
	return `<div class="complex-panel"><dl class="complex-panel-title"><dt><span class="text-16">` + html.EscapeString(title) +
		`</span></dt></dl><table class="complex-panel-table"><tbody>` + strings.Join(rows, "") + `</tbody></table></div>`
}

// Field renders a label and value row.
func Field(label, value string) string {
	return `<tr class="complex-panel-simple-field"><th><span class="text-16">` + html.EscapeString(label) +
		`</span></th><td><span class="text-16">` + html.EscapeString(value) + `</span></td></tr>`
}

// Nested places a section inside a row of its parent's table.
func Nested(section string) string {
	return `<tr class="complex-panel-compound-field"><td colspan="2">` + section + `</td></tr>`
}

// OrganisationRow renders an organisation with its address.
func OrganisationRow(label, name, address string) string {
	return `<tr class="complex-panel-compound-field"><th><span class="text-16">` + html.EscapeString(label) +
		`</span></th><td><ccd-read-organisation-field><span>` + html.EscapeString(name) + `</span><br><span>` +
		html.EscapeString(address) + `</span></ccd-read-organisation-field></td></tr>`
}

// TextInput renders a labelled text input.
func TextInput(id, label string) string {
	return `<label for="` + html.EscapeString(id) + `">` + html.EscapeString(label) + `</label><input type="text" id="` + html.EscapeString(id) + `">`
}

// TextArea renders a labelled textarea.
func TextArea(id, label string) string {
	return `<label for="` + html.EscapeString(id) + `">` + html.EscapeString(label) + `</label><textarea id="` + html.EscapeString(id) + `"></textarea>`
}

// Radio renders a labelled radio button.
func Radio(id, label string) string {
	return `<input type="radio" id="` + html.EscapeString(id) + `"><label for="` + html.EscapeString(id) + `">` + html.EscapeString(label) + `</label>`
}

// Checkbox renders a labelled checkbox.
func Checkbox(id, label string) string {
	return `<input type="checkbox" id="` + html.EscapeString(id) + `"><label for="` + html.EscapeString(id) + `">` + html.EscapeString(label) + `</label>`
}

// Select renders a dynamic list with a placeholder entry.
func Select(id string, options ...string) string {
	var b strings.Builder
	b.WriteString(`<select id="` + html.EscapeString(id) + `"><option value="">--Select a value--</option>`)
	for _, o := range options {
		b.WriteString(`<option value="` + html.EscapeString(o) + `">` + html.EscapeString(o) + `</option>`)
	}
	b.WriteString(`</select>`)
	return b.String()
}

// FileInput renders a document upload control.
func FileInput(id string) string {
	return `<input type="file" id="` + html.EscapeString(id) + `">`
}

// Collection renders an empty collection field. Its Add new button appends
// the rows the event's EventForm.Rows renders for name.
func Collection(name string) string {
	return `<ccd-write-collection-field data-collection="` + html.EscapeString(name) + `"><h2>` + html.EscapeString(name) +
		`</h2><button type="button">Add new</button><div class="collection-rows"></div></ccd-write-collection-field>`
}

func collectionRows(name string) driver.Selector {
	return driver.XPath(`//ccd-write-collection-field[@data-collection=` + driver.Literal(name) + `]/div[@class="collection-rows"]`)
}
