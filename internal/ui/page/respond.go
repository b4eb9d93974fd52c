package page

import (
	"net/url"

	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/modal"
)

// RespondConfig names the reply dialog of the feedback page.
type RespondConfig struct {
	Entity string
	Modal  string
	Form   string
}

func (c RespondConfig) withDefaults() RespondConfig {
	if c.Entity == "" {
		c.Entity = "feedback"
	}
	if c.Modal == "" {
		c.Modal = "#responseModal"
	}
	if c.Form == "" {
		c.Form = "#responseForm"
	}
	return c
}

// Responder points the reply form at the clicked message and opens the
// dialog. Closing the dialog clears the reply.
type Responder struct {
	doc      dom.Document
	cfg      RespondConfig
	modal    *modal.Modal
	current  string
	releases dom.Releases
}

// NewResponder returns nil when the page has no reply form.
func NewResponder(doc dom.Document, cfg RespondConfig) *Responder {
	cfg = cfg.withDefaults()
	if doc.QuerySelector(cfg.Form) == nil {
		return nil
	}
	r := &Responder{doc: doc, cfg: cfg}
	r.modal = modal.New(doc, cfg.Modal, modal.Hooks{OnClose: r.clear})
	return r
}

// Bind delegates clicks on [data-respond-id] controls.
func (r *Responder) Bind() {
	r.releases.Add(r.doc.AddEventListener("click", func(ev dom.Event) {
		target := ev.Target()
		if target == nil {
			return
		}
		if el := target.Closest("[data-respond-id]"); el != nil {
			ev.PreventDefault()
			r.Open(el.Data("respondId"))
		}
	}))
}

// Open targets the reply form at POST /<entity>/<id>/respond.
func (r *Responder) Open(id string) {
	if id == "" {
		return
	}
	form := r.doc.QuerySelector(r.cfg.Form)
	if form == nil {
		return
	}
	r.current = id
	form.SetAttr("action", "/"+r.cfg.Entity+"/"+url.PathEscape(id)+"/respond")
	r.modal.Open()
}

// Current is the message being answered, "" when the dialog is closed.
func (r *Responder) Current() string { return r.current }

// Modal returns the dialog.
func (r *Responder) Modal() *modal.Modal { return r.modal }

// Release detaches the listeners.
func (r *Responder) Release() {
	r.releases.ReleaseAll()
	r.modal.Release()
}

func (r *Responder) clear() {
	r.current = ""
	clearForm(r.doc.QuerySelector(r.cfg.Form))
}
