// Package login drives the sign-in page: it forwards the credentials, keeps
// the returned token and reports the outcome.
package login

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/platform/timeouts"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
)

// TokenKey is the local storage key of the session token.
const TokenKey = "jwt_token"

// messageDuration is how long an outcome message stays up.
const messageDuration = 2 * time.Second

// Config names the login page elements.
type Config struct {
	Form string
	// Endpoint defaults to the form's action, then /login.
	Endpoint      string
	Redirect      string
	RedirectDelay time.Duration
	PasswordInput string
	PasswordShow  string
	EyeShow       string
	EyeHide       string
}

func (c Config) withDefaults() Config {
	if c.Form == "" {
		c.Form = "#auth-form"
	}
	if c.Redirect == "" {
		c.Redirect = "/dashboard"
	}
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = timeouts.LoginRedirect
	}
	if c.PasswordInput == "" {
		c.PasswordInput = "#auth-form__password-input"
	}
	if c.PasswordShow == "" {
		c.PasswordShow = ".toggle-password"
	}
	if c.EyeShow == "" {
		c.EyeShow = ".eye-show"
	}
	if c.EyeHide == "" {
		c.EyeHide = ".eye-hide"
	}
	return c
}

// Result is the interpreted server answer.
type Result struct {
	OK    bool
	Token string
	Title string
	Text  string
}

// Controller is the login page controller.
type Controller struct {
	mu       sync.Mutex
	doc      dom.Document
	win      dom.Window
	client   *fetch.Client
	clock    clock.Clock
	loc      catalog.Localizer
	cfg      Config
	message  dom.Element
	releases dom.Releases
}

// New returns the controller, or nil when the page has no login form.
func New(doc dom.Document, win dom.Window, client *fetch.Client, clk clock.Clock, loc catalog.Localizer, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	form := doc.QuerySelector(cfg.Form)
	if form == nil {
		return nil
	}
	if cfg.Endpoint == "" {
		if action, ok := form.Attr("action"); ok && strings.TrimSpace(action) != "" {
			cfg.Endpoint = strings.TrimSpace(action)
		} else {
			cfg.Endpoint = "/login"
		}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Controller{doc: doc, win: win, client: client, clock: clk, loc: loc, cfg: cfg}
}

// Bind intercepts the form submission and wires the password toggle.
func (c *Controller) Bind() {
	form := c.doc.QuerySelector(c.cfg.Form)
	if form == nil {
		return
	}
	c.releases.Add(form.AddEventListener("submit", func(ev dom.Event) {
		ev.PreventDefault()
		values := FormValues(form)
		go func() {
			if _, err := c.Submit(context.Background(), values); err != nil {
				log.Printf("login: %v", err)
			}
		}()
	}))
	if toggle := c.doc.QuerySelector(c.cfg.PasswordShow); toggle != nil {
		c.releases.Add(toggle.AddEventListener("click", func(dom.Event) { c.TogglePassword() }))
	}
}

// Submit posts the credentials as a form and acts on the answer. The
// returned error is a transport failure; rejected credentials are a Result.
func (c *Controller) Submit(ctx context.Context, values url.Values) (Result, error) {
	header := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}, "Accept": {"application/json"}}
	resp, err := c.client.Do(ctx, http.MethodPost, c.cfg.Endpoint, header, strings.NewReader(values.Encode()))
	if err != nil {
		result := c.clientError()
		c.show(result)
		return result, err
	}
	result := c.Interpret(resp.Status, resp.Body)
	if result.OK {
		c.win.Storage().SetItem(TokenKey, result.Token)
	}
	c.show(result)
	if result.OK {
		target := c.cfg.Redirect
		c.clock.AfterFunc(c.cfg.RedirectDelay, func() {
			c.closeMessage()
			c.win.Navigate(target)
		})
	}
	return result, nil
}

// Interpret maps a response onto a Result. A 2xx answer needs a token to
// count as success.
func (c *Controller) Interpret(status int, body []byte) Result {
	if !gjson.ValidBytes(body) {
		return c.clientError()
	}
	data := gjson.ParseBytes(body)
	token := data.Get("token").String()
	if status >= 200 && status < 300 && token != "" {
		return Result{
			OK:    true,
			Token: token,
			Title: c.loc.Text("login.success.title"),
			Text:  c.loc.Text("login.success.text"),
		}
	}

	result := Result{
		Title: c.loc.Text("login.error.title"),
		Text:  c.loc.Text("login.error.text"),
	}
	switch status {
	case 400, 401, 403, 404, 422, 500:
		result.Title = c.loc.Text("login.status." + strconv.Itoa(status))
	}
	if msg := data.Get("message").String(); msg != "" {
		result.Text = msg
	}
	if detail := data.Get("detail"); detail.Exists() {
		if detail.IsArray() {
			var parts []string
			for _, item := range detail.Array() {
				parts = append(parts, item.Get("msg").String())
			}
			result.Text = strings.Join(parts, ", ")
		} else if detail.String() != "" {
			result.Text = detail.String()
		}
	}
	return result
}

// TogglePassword switches the password input between hidden and plain text.
func (c *Controller) TogglePassword() {
	input := c.doc.QuerySelector(c.cfg.PasswordInput)
	show := c.doc.QuerySelector(c.cfg.EyeShow)
	hide := c.doc.QuerySelector(c.cfg.EyeHide)
	if input == nil || show == nil || hide == nil {
		return
	}
	typ, _ := input.Attr("type")
	wasPassword := typ == "password"
	if wasPassword {
		input.SetAttr("type", "text")
		dom.Hide(show)
		dom.Show(hide, "block")
		return
	}
	input.SetAttr("type", "password")
	dom.Show(show, "block")
	dom.Hide(hide)
}

// Release detaches the page listeners.
func (c *Controller) Release() {
	c.releases.ReleaseAll()
}

// Token returns the stored session token.
func Token(storage dom.Storage) (string, bool) {
	if storage == nil {
		return "", false
	}
	token, ok := storage.GetItem(TokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// FormValues collects the named, enabled fields of form.
func FormValues(form dom.Element) url.Values {
	values := url.Values{}
	for _, field := range form.QuerySelectorAll("[name]") {
		if _, disabled := field.Attr("disabled"); disabled {
			continue
		}
		name, _ := field.Attr("name")
		typ, _ := field.Attr("type")
		switch strings.ToLower(typ) {
		case "checkbox", "radio":
			if !field.Checked() {
				continue
			}
			v, ok := field.Attr("value")
			if !ok {
				v = "on"
			}
			values.Add(name, v)
		case "submit", "button", "file":
		default:
			values.Add(name, field.Value())
		}
	}
	return values
}

func (c *Controller) clientError() Result {
	return Result{
		Title: c.loc.Text("login.client_error.title"),
		Text:  c.loc.Text("login.client_error.text"),
	}
}

// show renders the outcome message. A message already on screen is closed
// first.
func (c *Controller) show(result Result) {
	c.closeMessage()

	container := c.doc.CreateElement("div")
	container.SetAttr("id", "modal-message")
	container.AddClass("modal-message-container")
	container.AddClass("active")

	box := c.doc.CreateElement("div")
	box.AddClass("modal-message")
	icon := "!"
	if result.OK {
		box.AddClass("modal-success")
		icon = "✓"
	} else {
		box.AddClass("modal-error")
	}
	content := c.doc.CreateElement("div")
	content.AddClass("modal-content")
	iconEl := c.doc.CreateElement("span")
	iconEl.AddClass("modal-icon")
	iconEl.SetTextContent(icon)
	title := c.doc.CreateElement("h3")
	title.AddClass("modal-title")
	title.SetTextContent(result.Title)
	text := c.doc.CreateElement("p")
	text.AddClass("modal-text")
	text.SetTextContent(result.Text)
	content.AppendChild(iconEl)
	content.AppendChild(title)
	content.AppendChild(text)
	box.AppendChild(content)
	container.AppendChild(box)
	if body := c.doc.Body(); body != nil {
		body.AppendChild(container)
	}

	c.mu.Lock()
	c.message = container
	c.mu.Unlock()
	if !result.OK {
		c.clock.AfterFunc(messageDuration, func() {
			c.mu.Lock()
			current := c.message
			c.mu.Unlock()
			if current != nil && current.Same(container) {
				c.closeMessage()
			}
		})
	}
}

func (c *Controller) closeMessage() {
	c.mu.Lock()
	msg := c.message
	c.message = nil
	c.mu.Unlock()
	if msg != nil {
		msg.Remove()
	}
}
