// Package driver defines the browser operations the suite relies on and
// implements them over chromedp.
//
// Every element lookup is an XPath 1.0 expression. Operations act on the
// current state of the page and never wait: waiting is the job of the poller.
package driver

import (
	"context"
	"strconv"
	"strings"
)

// Driver is one isolated browser session.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
	ClearCookies(ctx context.Context) error

	// Count returns the number of elements matching sel.
	Count(ctx context.Context, sel Selector) (int, error)
	// CountVisible returns the number of rendered, non-hidden matches.
	CountVisible(ctx context.Context, sel Selector) (int, error)

	// Click, Fill, SelectOption, Check and AttachFile act on the first visible match.
	Click(ctx context.Context, sel Selector) error
	Fill(ctx context.Context, sel Selector, value string) error
	SelectOption(ctx context.Context, sel Selector, option string) error
	Check(ctx context.Context, sel Selector) error
	AttachFile(ctx context.Context, sel Selector, path string) error

	// Texts returns the text content of every match in document order.
	Texts(ctx context.Context, sel Selector) ([]string, error)
	// Attribute returns the named attribute of the first match. ok is false
	// when the element or the attribute is missing.
	Attribute(ctx context.Context, sel Selector, name string) (value string, ok bool, err error)
	PageText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Selector is an XPath 1.0 expression.
type Selector string

func (s Selector) String() string { return string(s) }

// Append concatenates an XPath suffix such as a predicate or a descendant step.
func (s Selector) Append(suffix string) Selector {
	return Selector(string(s) + suffix)
}

// Nth selects the i-th match (1-based) of s in document order.
func (s Selector) Nth(i int) Selector {
	return Selector("(" + string(s) + ")[" + strconv.Itoa(i) + "]")
}

// XPath wraps a raw expression.
func XPath(expr string) Selector { return Selector(expr) }

// ByID matches an element by its id attribute.
func ByID(id string) Selector {
	return Selector("//*[@id=" + Literal(id) + "]")
}

// ByName matches form controls by name attribute.
func ByName(name string) Selector {
	return Selector("//*[@name=" + Literal(name) + "]")
}

// ByClass matches elements carrying the CSS class token.
func ByClass(class string) Selector {
	return Selector("//*[" + HasClass(class) + "]")
}

// HasClass is an XPath predicate body testing for a whole class token.
func HasClass(class string) string {
	return `contains(concat(" ", normalize-space(@class), " "), ` + Literal(" "+class+" ") + `)`
}

// TextEquals is an XPath predicate body comparing whitespace-normalised text.
func TextEquals(text string) string {
	return "normalize-space(.)=" + Literal(strings.Join(strings.Fields(text), " "))
}

// Tagged matches elements of tag whose normalised text equals text.
func Tagged(tag, text string) Selector {
	return Selector("//" + tag + "[" + TextEquals(text) + "]")
}

// Button matches a button or submit input by its visible label.
func Button(label string) Selector {
	lit := Literal(label)
	return Selector(`//button[normalize-space(.)=` + lit + `] | //input[@type="submit" or @type="button"][@value=` + lit + `]`)
}

// Link matches an anchor by its visible text.
func Link(text string) Selector {
	return Tagged("a", text)
}

// Field matches a form control by its label text, its id or its name.
func Field(label string) Selector {
	lit := Literal(label)
	return Selector(`//input[@id=//label[normalize-space(.)=` + lit + `]/@for] | ` +
		`//textarea[@id=//label[normalize-space(.)=` + lit + `]/@for] | ` +
		`//select[@id=//label[normalize-space(.)=` + lit + `]/@for] | ` +
		`//*[self::input or self::textarea or self::select][@id=` + lit + ` or @name=` + lit + `]`)
}

// ContainingText matches the innermost elements whose text contains text.
func ContainingText(text string) Selector {
	lit := Literal(text)
	return Selector(`//body//*[contains(., ` + lit + `)][not(*[contains(., ` + lit + `)])]`)
}

// Literal renders s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote kinds are built with concat().
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + part + `"`)
	}
	b.WriteString(")")
	return b.String()
}
