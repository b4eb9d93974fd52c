// Package rowaction runs the confirm-then-POST actions on listing rows
// (approve, reject, delete).
package rowaction

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
	"github.com/campusdesk/backoffice/internal/ui/notify"
)

// CSRFHeader carries the page's CSRF token on action requests.
const CSRFHeader = "X-CSRFToken"

// Notifier reports failures to the user.
type Notifier interface {
	Show(kind notify.Kind, text string) *notify.Notification
}

// Config describes the actions of one listing.
type Config struct {
	// Entity is the URL segment, e.g. "reviews".
	Entity string
	// Noun is the catalog name of one entity, e.g. "review".
	Noun string
	// Verbs lists the allowed actions.
	Verbs []string
	// CSRFField selects the token input.
	CSRFField string
}

func (c Config) withDefaults() Config {
	if c.CSRFField == "" {
		c.CSRFField = `input[name="csrf_token"]`
	}
	if len(c.Verbs) == 0 {
		c.Verbs = []string{"delete"}
	}
	return c
}

// Outcome is what Run did.
type Outcome int

const (
	Cancelled Outcome = iota
	Reloaded
	Failed
)

// Actions is the row action controller of one page.
type Actions struct {
	doc      dom.Document
	win      dom.Window
	client   *fetch.Client
	notifier Notifier
	loc      catalog.Localizer
	cfg      Config
	releases dom.Releases
}

// New returns the controller.
func New(doc dom.Document, win dom.Window, client *fetch.Client, notifier Notifier, loc catalog.Localizer, cfg Config) *Actions {
	return &Actions{doc: doc, win: win, client: client, notifier: notifier, loc: loc, cfg: cfg.withDefaults()}
}

// Bind delegates clicks on [data-row-action][data-id] controls. Requests run
// on their own goroutine.
func (a *Actions) Bind() {
	a.releases.Add(a.doc.AddEventListener("click", func(ev dom.Event) {
		target := ev.Target()
		if target == nil {
			return
		}
		el := target.Closest("[data-row-action]")
		if el == nil {
			return
		}
		if entity := el.Data("entity"); entity != "" && entity != a.cfg.Entity {
			return
		}
		verb := el.Data("rowAction")
		if !a.allowed(verb) {
			return
		}
		ev.PreventDefault()
		// Confirm blocks the UI thread in the browser, so ask before handing
		// the request to a goroutine.
		if !a.win.Confirm(a.confirmText(verb)) {
			return
		}
		entityID := el.Data("id")
		go a.perform(context.Background(), entityID, verb)
	}))
}

// Run asks for confirmation and performs verb on the entity.
func (a *Actions) Run(ctx context.Context, entityID, verb string) (Outcome, error) {
	if !a.allowed(verb) {
		return Cancelled, apperrors.WithMetadata(apperrors.CodeNotFound, "unknown action", map[string]string{"Action": verb})
	}
	if !a.win.Confirm(a.confirmText(verb)) {
		return Cancelled, nil
	}
	return a.perform(ctx, entityID, verb)
}

func (a *Actions) perform(ctx context.Context, entityID, verb string) (Outcome, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return Failed, a.fail(verb, apperrors.New(apperrors.CodeNotFound, "entity id is required"))
	}
	path := "/" + a.cfg.Entity + "/" + url.PathEscape(entityID) + "/" + verb
	header := http.Header{"Content-Type": {"application/json"}}
	if token := a.csrfToken(); token != "" {
		header.Set(CSRFHeader, token)
	}
	resp, err := a.client.Do(ctx, http.MethodPost, path, header, nil)
	if err != nil {
		return Failed, a.fail(verb, err)
	}
	if !resp.OK() {
		return Failed, a.fail(verb, fetch.StatusError(resp.Status))
	}
	a.win.Reload()
	return Reloaded, nil
}

// Release detaches the delegated listener.
func (a *Actions) Release() {
	a.releases.ReleaseAll()
}

func (a *Actions) fail(verb string, err error) error {
	log.Printf("%s %s: %v", verb, a.cfg.Entity, err)
	if a.notifier != nil {
		text := a.loc.First("notices."+a.cfg.Noun+"."+verb+"_failed", "notices.action_failed")
		a.notifier.Show(notify.KindError, text)
	}
	return err
}

func (a *Actions) confirmText(verb string) string {
	return a.loc.First("notices.confirm."+verb, "notices.confirm.delete")
}

func (a *Actions) csrfToken() string {
	el := a.doc.QuerySelector(a.cfg.CSRFField)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Value())
}

func (a *Actions) allowed(verb string) bool {
	for _, v := range a.cfg.Verbs {
		if v == verb {
			return true
		}
	}
	return false
}
