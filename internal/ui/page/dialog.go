package page

import (
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/modal"
)

// DialogConfig names a standalone dialog: the controls that open it and the
// form it clears on close.
type DialogConfig struct {
	Modal  string
	Opener string
	Form   string
}

// Dialog opens a modal from its opener controls. Closing it clears the form.
type Dialog struct {
	doc      dom.Document
	cfg      DialogConfig
	modal    *modal.Modal
	releases dom.Releases
}

// NewDialog returns nil when the page has no such dialog.
func NewDialog(doc dom.Document, cfg DialogConfig) *Dialog {
	d := &Dialog{doc: doc, cfg: cfg}
	d.modal = modal.New(doc, cfg.Modal, modal.Hooks{OnClose: d.reset})
	if d.modal == nil {
		return nil
	}
	return d
}

// Bind delegates clicks on the opener controls.
func (d *Dialog) Bind() {
	if d.cfg.Opener == "" {
		return
	}
	d.releases.Add(d.doc.AddEventListener("click", func(ev dom.Event) {
		target := ev.Target()
		if target == nil || target.Closest(d.cfg.Opener) == nil {
			return
		}
		ev.PreventDefault()
		d.modal.Open()
	}))
}

// Modal returns the dialog.
func (d *Dialog) Modal() *modal.Modal { return d.modal }

// Release detaches the listeners.
func (d *Dialog) Release() {
	if d == nil {
		return
	}
	d.releases.ReleaseAll()
	d.modal.Release()
}

func (d *Dialog) reset() {
	if d.cfg.Form == "" {
		return
	}
	clearForm(d.doc.QuerySelector(d.cfg.Form))
}

// clearForm empties the visible fields of form and unchecks its boxes.
func clearForm(form dom.Element) {
	if form == nil {
		return
	}
	for _, field := range form.QuerySelectorAll("textarea, input:not([type=hidden])") {
		switch typ, _ := field.Attr("type"); typ {
		case "checkbox", "radio":
			field.SetChecked(false)
		case "submit", "button":
		default:
			field.SetValue("")
		}
	}
}
