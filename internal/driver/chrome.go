package driver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/damongreen123/fpl-ccd-configuration/internal/failure"
)

// JS-side error codes reported through the evaluation envelope.
const (
	jsCodeNoMatch     = "NO_MATCH"
	jsCodeUnsupported = "UNSUPPORTED"
	jsCodeEvalFailure = "EVAL_FAILURE"
)

type evalEnvelope struct {
	OK           bool            `json:"ok"`
	Data         json.RawMessage `json:"data,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Chrome drives one chromedp browser context.
type Chrome struct {
	ctx         context.Context
	evalTimeout time.Duration
	logger      *slog.Logger
}

var _ Driver = (*Chrome)(nil)

// run executes chromedp actions on the session, bounded by the eval timeout
// and by the caller's context.
func (c *Chrome) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.evalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return failure.Driver(op, err)
	}
	return nil
}

// eval runs a wrapped script and decodes the envelope's data into out.
func (c *Chrome) eval(ctx context.Context, op, body string, out any) error {
	var raw string
	if err := c.run(ctx, op, chromedp.Evaluate(wrapJSEval(body), &raw)); err != nil {
		c.logger.Debug("chrome eval failed", "op", op, "error", err)
		return err
	}

	var env evalEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return failure.Driver(op, errors.New("invalid evaluation envelope"))
	}
	if !env.OK {
		code := env.ErrorCode
		if code == "" {
			code = jsCodeEvalFailure
		}
		return failure.Driver(op, errors.New(code+": "+env.ErrorMessage))
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return failure.Driver(op, err)
	}
	return nil
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.logger.Debug("navigate", "url", url)
	return c.run(ctx, "navigate", chromedp.Navigate(url))
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := c.run(ctx, "current url", chromedp.Location(&url))
	return url, err
}

func (c *Chrome) Refresh(ctx context.Context) error {
	return c.run(ctx, "refresh", chromedp.Reload())
}

// ClearCookies drops every cookie of the browser context and the storage of
// the current origin.
func (c *Chrome) ClearCookies(ctx context.Context) error {
	if err := c.run(ctx, "clear cookies", network.ClearBrowserCookies()); err != nil {
		return err
	}
	return c.eval(ctx, "clear storage", `
try { window.localStorage.clear(); window.sessionStorage.clear(); } catch (_) {}
return JSON.stringify({ok:true});`, nil)
}

func (c *Chrome) Count(ctx context.Context, sel Selector) (int, error) {
	var n int
	err := c.eval(ctx, "count", jsNodes+`
return JSON.stringify({ok:true,data:_nodes(`+jsString(sel.String())+`).length});`, &n)
	return n, err
}

func (c *Chrome) CountVisible(ctx context.Context, sel Selector) (int, error) {
	var n int
	err := c.eval(ctx, "count visible", jsNodes+jsVisible+`
return JSON.stringify({ok:true,data:_nodes(`+jsString(sel.String())+`).filter(_visible).length});`, &n)
	return n, err
}

func (c *Chrome) Click(ctx context.Context, sel Selector) error {
	c.logger.Debug("click", "selector", sel.String())
	return c.eval(ctx, "click", jsFirstVisible(sel)+`
el.scrollIntoView({block:"center",inline:"center"});
el.click();
return JSON.stringify({ok:true});`, nil)
}

func (c *Chrome) Fill(ctx context.Context, sel Selector, value string) error {
	return c.eval(ctx, "fill", jsFirstVisible(sel)+`
var proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
var desc = Object.getOwnPropertyDescriptor(proto, "value");
el.focus();
if (desc && desc.set) { desc.set.call(el, `+jsString(value)+`); } else { el.value = `+jsString(value)+`; }
el.dispatchEvent(new Event("input", {bubbles:true}));
el.dispatchEvent(new Event("change", {bubbles:true}));
el.blur();
return JSON.stringify({ok:true});`, nil)
}

func (c *Chrome) SelectOption(ctx context.Context, sel Selector, option string) error {
	return c.eval(ctx, "select option", jsFirstVisible(sel)+`
if (!(el instanceof HTMLSelectElement)) {
  return JSON.stringify({ok:false,error_code:"`+jsCodeUnsupported+`",error_message:"not a select element"});
}
var want = `+jsString(option)+`;
var found = false;
for (var i = 0; i < el.options.length; i++) {
  var o = el.options[i];
  if (o.text.trim() === want || o.value === want) { el.selectedIndex = i; found = true; break; }
}
if (!found) {
  return JSON.stringify({ok:false,error_code:"`+jsCodeNoMatch+`",error_message:"option not found: " + want});
}
el.dispatchEvent(new Event("change", {bubbles:true}));
return JSON.stringify({ok:true});`, nil)
}

func (c *Chrome) Check(ctx context.Context, sel Selector) error {
	return c.eval(ctx, "check", jsFirstVisible(sel)+`
if (!el.checked) { el.click(); }
return JSON.stringify({ok:true});`, nil)
}

// AttachFile sets the file of an upload input through the DOM domain, which
// script cannot do.
func (c *Chrome) AttachFile(ctx context.Context, sel Selector, path string) error {
	return c.run(ctx, "attach file",
		chromedp.SetUploadFiles(sel.String(), []string{path}, chromedp.BySearch, chromedp.NodeReady),
	)
}

func (c *Chrome) Texts(ctx context.Context, sel Selector) ([]string, error) {
	var out []string
	err := c.eval(ctx, "texts", jsNodes+`
return JSON.stringify({ok:true,data:_nodes(`+jsString(sel.String())+`).map(function(n){ return n.textContent; })});`, &out)
	return out, err
}

func (c *Chrome) Attribute(ctx context.Context, sel Selector, name string) (string, bool, error) {
	var res struct {
		Value string `json:"value"`
		OK    bool   `json:"ok"`
	}
	err := c.eval(ctx, "attribute", jsNodes+`
var nodes = _nodes(`+jsString(sel.String())+`);
if (!nodes.length || !nodes[0].hasAttribute(`+jsString(name)+`)) {
  return JSON.stringify({ok:true,data:{ok:false,value:""}});
}
return JSON.stringify({ok:true,data:{ok:true,value:nodes[0].getAttribute(`+jsString(name)+`)}});`, &res)
	return res.Value, res.OK, err
}

func (c *Chrome) PageText(ctx context.Context) (string, error) {
	var text string
	err := c.eval(ctx, "page text", `
return JSON.stringify({ok:true,data:document.body ? document.body.innerText : ""});`, &text)
	return text, err
}

func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := c.run(ctx, "screenshot", chromedp.CaptureScreenshot(&buf))
	return buf, err
}

const jsNodes = `
function _nodes(xp) {
  var r = document.evaluate(xp, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
  var out = [];
  for (var i = 0; i < r.snapshotLength; i++) { out.push(r.snapshotItem(i)); }
  return out;
}
`

// _visible treats an element clipped out of an overflow container, such as a
// tab header paged out of the strip, as not visible.
const jsVisible = `
function _visible(el) {
  if (!el || el.nodeType !== 1 || !el.isConnected) return false;
  var s = window.getComputedStyle(el);
  if (s.display === "none" || s.visibility === "hidden" || el.getAttribute("aria-hidden") === "true") return false;
  var r = el.getBoundingClientRect();
  if (r.width <= 0 || r.height <= 0) return false;
  for (var p = el.parentElement; p; p = p.parentElement) {
    var ps = window.getComputedStyle(p);
    if (ps.display === "none" || ps.visibility === "hidden") return false;
    if (ps.overflowX !== "visible" || ps.overflowY !== "visible") {
      var pr = p.getBoundingClientRect();
      if (r.right <= pr.left || r.left >= pr.right || r.bottom <= pr.top || r.top >= pr.bottom) return false;
    }
  }
  return true;
}
`

func jsFirstVisible(sel Selector) string {
	return jsNodes + jsVisible + `
var el = _nodes(` + jsString(sel.String()) + `).filter(_visible)[0];
if (!el) {
  return JSON.stringify({ok:false,error_code:"` + jsCodeNoMatch + `",error_message:"no visible element for " + ` + jsString(sel.String()) + `});
}
`
}

func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func wrapJSEval(body string) string {
	return `(function(){
try {
` + strings.TrimSpace(body) + `
} catch (err) {
return JSON.stringify({ok:false,error_code:"` + jsCodeEvalFailure + `",error_message:String(err && err.message || err)});
}
})()`
}
