// Package drivertest provides an in-memory driver.Driver backed by a parsed
// HTML document, for exercising page logic without a browser.
package drivertest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/damongreen123/fpl-ccd-configuration/internal/driver"
	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// ClickHook runs after a click on an element matching its selector. It may
// mutate the page through the Page helpers.
type ClickHook func(p *Page, clicked *html.Node)

type hook struct {
	sel driver.Selector
	fn  ClickHook
}

// Page is a fake browser tab. Visibility follows the hidden attribute,
// aria-hidden="true" and inline display:none or visibility:hidden on the
// element or any ancestor.
type Page struct {
	mu       sync.Mutex
	doc      *html.Node
	url      string
	routes   map[string]func() string
	hooks    []hook
	failures map[string][]error

	clicks       []string
	navigations  []string
	cookieClears int
}

var _ driver.Driver = (*Page)(nil)

// New returns a page showing markup at url.
func New(url, markup string) *Page {
	p := &Page{
		url:      url,
		routes:   make(map[string]func() string),
		failures: make(map[string][]error),
	}
	p.doc = mustParse(markup)
	return p
}

// Route serves render's markup whenever url is navigated to or refreshed.
func (p *Page) Route(url string, render func() string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[url] = render
}

// OnClick registers fn for clicks on elements matching sel.
func (p *Page) OnClick(sel driver.Selector, fn ClickHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook{sel: sel, fn: fn})
}

// FailNext makes the next call of op ("click", "count", ...) return err.
// Calls queue up in order.
func (p *Page) FailNext(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = append(p.failures[op], err)
}

// Clicks returns the selectors clicked so far.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// ClickCount counts clicks issued with exactly sel.
func (p *Page) ClickCount(sel driver.Selector) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.clicks {
		if c == sel.String() {
			n++
		}
	}
	return n
}

// Navigations returns every URL loaded through Navigate or Refresh.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// CookieClears reports how often ClearCookies ran.
func (p *Page) CookieClears() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cookieClears
}

// SetURL changes the current URL without reloading, like client-side routing.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// SetHTML replaces the whole document.
func (p *Page) SetHTML(markup string) {
	doc := mustParse(markup)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
}

// HTML renders the current document.
func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return htmlquery.OutputHTML(p.doc, true)
}

// SetAttr sets an attribute on every match of sel.
func (p *Page) SetAttr(sel driver.Selector, name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.queryLocked(sel) {
		setAttr(n, name, value)
	}
}

// RemoveAttr deletes an attribute from every match of sel.
func (p *Page) RemoveAttr(sel driver.Selector, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.queryLocked(sel) {
		removeAttr(n, name)
	}
}

// Remove detaches every match of sel.
func (p *Page) Remove(sel driver.Selector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.queryLocked(sel) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// AppendHTML parses markup and appends it to the first match of sel.
func (p *Page) AppendHTML(sel driver.Selector, markup string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes := p.queryLocked(sel)
	if len(nodes) == 0 {
		return fmt.Errorf("append: no match for %s", sel)
	}
	ctxNode := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	children, err := html.ParseFragment(strings.NewReader(markup), ctxNode)
	if err != nil {
		return err
	}
	for _, c := range children {
		nodes[0].AppendChild(c)
	}
	return nil
}

// Attr reads an attribute of the first match, for assertions.
func (p *Page) Attr(sel driver.Selector, name string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes := p.queryLocked(sel)
	if len(nodes) == 0 {
		return ""
	}
	return htmlquery.SelectAttr(nodes[0], name)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.takeFailure(ctx, "navigate"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.load(url)
	return nil
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	if err := p.takeFailure(ctx, "current url"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

// Refresh re-renders the current URL's route. Pages without a route keep
// their document.
func (p *Page) Refresh(ctx context.Context) error {
	if err := p.takeFailure(ctx, "refresh"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.routes[p.url]; ok {
		p.load(p.url)
	} else {
		p.navigations = append(p.navigations, p.url)
	}
	return nil
}

func (p *Page) ClearCookies(ctx context.Context) error {
	if err := p.takeFailure(ctx, "clear cookies"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookieClears++
	return nil
}

func (p *Page) Count(ctx context.Context, sel driver.Selector) (int, error) {
	if err := p.takeFailure(ctx, "count"); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes, err := p.query(sel)
	return len(nodes), err
}

func (p *Page) CountVisible(ctx context.Context, sel driver.Selector) (int, error) {
	if err := p.takeFailure(ctx, "count visible"); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes, err := p.query(sel)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, node := range nodes {
		if visible(node) {
			n++
		}
	}
	return n, nil
}

func (p *Page) Click(ctx context.Context, sel driver.Selector) error {
	if err := p.takeFailure(ctx, "click"); err != nil {
		return err
	}
	p.mu.Lock()
	node, err := p.firstVisible("click", sel)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.clicks = append(p.clicks, sel.String())
	var fire []ClickHook
	for _, h := range p.hooks {
		matches, err := p.query(h.sel)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if m == node {
				fire = append(fire, h.fn)
				break
			}
		}
	}
	p.mu.Unlock()

	for _, fn := range fire {
		fn(p, node)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, sel driver.Selector, value string) error {
	if err := p.takeFailure(ctx, "fill"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	node, err := p.firstVisible("fill", sel)
	if err != nil {
		return err
	}
	if node.Data == "textarea" {
		for c := node.FirstChild; c != nil; c = node.FirstChild {
			node.RemoveChild(c)
		}
		node.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	}
	setAttr(node, "value", value)
	return nil
}

func (p *Page) SelectOption(ctx context.Context, sel driver.Selector, option string) error {
	if err := p.takeFailure(ctx, "select option"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	node, err := p.firstVisible("select option", sel)
	if err != nil {
		return err
	}
	if node.Data != "select" {
		return failure.Driver("select option", fmt.Errorf("not a select element: %s", sel))
	}
	options := htmlquery.Find(node, ".//option")
	var chosen *html.Node
	for _, o := range options {
		if strings.TrimSpace(htmlquery.InnerText(o)) == option || htmlquery.SelectAttr(o, "value") == option {
			chosen = o
			break
		}
	}
	if chosen == nil {
		return failure.Driver("select option", fmt.Errorf("option not found: %s", option))
	}
	for _, o := range options {
		removeAttr(o, "selected")
	}
	setAttr(chosen, "selected", "selected")
	setAttr(node, "value", htmlquery.SelectAttr(chosen, "value"))
	return nil
}

func (p *Page) Check(ctx context.Context, sel driver.Selector) error {
	if err := p.takeFailure(ctx, "check"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	node, err := p.firstVisible("check", sel)
	if err != nil {
		return err
	}
	setAttr(node, "checked", "checked")
	return nil
}

func (p *Page) AttachFile(ctx context.Context, sel driver.Selector, path string) error {
	if err := p.takeFailure(ctx, "attach file"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes, err := p.query(sel)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return failure.Driver("attach file", fmt.Errorf("no element for %s", sel))
	}
	setAttr(nodes[0], "value", filepath.Base(path))
	setAttr(nodes[0], "data-file", path)
	return nil
}

func (p *Page) Texts(ctx context.Context, sel driver.Selector) ([]string, error) {
	if err := p.takeFailure(ctx, "texts"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes, err := p.query(sel)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, htmlquery.InnerText(n))
	}
	return out, nil
}

func (p *Page) Attribute(ctx context.Context, sel driver.Selector, name string) (string, bool, error) {
	if err := p.takeFailure(ctx, "attribute"); err != nil {
		return "", false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	nodes, err := p.query(sel)
	if err != nil || len(nodes) == 0 {
		return "", false, err
	}
	for _, a := range nodes[0].Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

// PageText returns the visible text of the body, skipping hidden subtrees.
func (p *Page) PageText(ctx context.Context) (string, error) {
	if err := p.takeFailure(ctx, "page text"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	body := htmlquery.FindOne(p.doc, "//body")
	if body == nil {
		return "", nil
	}
	var b strings.Builder
	writeVisibleText(&b, body)
	return b.String(), nil
}

// Screenshot returns a 1x1 PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if err := p.takeFailure(ctx, "screenshot"); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Page) takeFailure(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	queue := p.failures[op]
	if len(queue) == 0 {
		return nil
	}
	p.failures[op] = queue[1:]
	return failure.Driver(op, queue[0])
}

// load must be called with the lock held.
func (p *Page) load(url string) {
	p.url = url
	p.navigations = append(p.navigations, url)
	if render, ok := p.routes[url]; ok {
		p.doc = mustParse(render())
		return
	}
	p.doc = mustParse("<html><body><h1>Not Found</h1></body></html>")
}

func (p *Page) query(sel driver.Selector) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(p.doc, sel.String())
	if err != nil {
		return nil, failure.Driver("query", fmt.Errorf("invalid xpath %q: %w", sel, err))
	}
	return nodes, nil
}

func (p *Page) queryLocked(sel driver.Selector) []*html.Node {
	nodes, _ := p.query(sel)
	return nodes
}

func (p *Page) firstVisible(op string, sel driver.Selector) (*html.Node, error) {
	nodes, err := p.query(sel)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if visible(n) {
			return n, nil
		}
	}
	return nil, failure.Driver(op, fmt.Errorf("no visible element for %s", sel))
}

func mustParse(markup string) *html.Node {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		panic(fmt.Sprintf("drivertest: parse markup: %v", err))
	}
	return doc
}

func visible(n *html.Node) bool {
	for e := n; e != nil; e = e.Parent {
		if e.Type != html.ElementNode {
			continue
		}
		if hidden(e) {
			return false
		}
	}
	return true
}

func hidden(e *html.Node) bool {
	for _, a := range e.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func writeVisibleText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if hidden(n) || n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeVisibleText(b, c)
	}
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}
