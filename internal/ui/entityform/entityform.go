// Package entityform drives the create/edit dialog of an entity listing:
// it loads entity detail JSON into the form and keeps the image controls in
// step with it.
package entityform

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
	"github.com/campusdesk/backoffice/internal/ui/modal"
	"github.com/campusdesk/backoffice/internal/ui/notify"
)

// Notifier reports failures to the user.
type Notifier interface {
	Show(kind notify.Kind, text string) *notify.Notification
}

// Config names the page elements of one entity dialog.
type Config struct {
	// Entity is the URL segment, e.g. "colleges".
	Entity string
	Modal  string
	Form   string
	Title  string
	// ImageInput, ImagePreview and RemoveImage are optional.
	ImageInput   string
	ImagePreview string
	RemoveImage  string
	// Preserve lists field names the loader never overwrites.
	Preserve []string
	// OnFill runs after the form is reset or populated, e.g. to repaint
	// widgets backed by hidden inputs.
	OnFill func(Mode)
}

func (c Config) withDefaults() Config {
	if c.Title == "" {
		c.Title = "#modalTitle"
	}
	if c.Preserve == nil {
		c.Preserve = []string{"csrf_token"}
	}
	return c
}

// Mode is what the dialog is doing.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Form is the dialog controller.
type Form struct {
	doc      dom.Document
	client   *fetch.Client
	notifier Notifier
	loc      catalog.Localizer
	cfg      Config
	modal    *modal.Modal
	mode     Mode
	current  string
	releases dom.Releases
}

// New binds the dialog. It returns nil when the page lacks the form.
func New(doc dom.Document, client *fetch.Client, notifier Notifier, loc catalog.Localizer, cfg Config) *Form {
	cfg = cfg.withDefaults()
	if doc.QuerySelector(cfg.Form) == nil {
		return nil
	}
	f := &Form{doc: doc, client: client, notifier: notifier, loc: loc, cfg: cfg}
	f.modal = modal.New(doc, cfg.Modal, modal.Hooks{OnClose: f.reset})
	if btn := f.find(cfg.RemoveImage); btn != nil {
		f.releases.Add(btn.AddEventListener("click", func(ev dom.Event) {
			ev.PreventDefault()
			f.RemoveImage()
		}))
	}
	return f
}

// Bind registers the delegated click handler for [data-create] and
// [data-edit-id] controls. Edit loads run on their own goroutine.
func (f *Form) Bind() {
	f.releases.Add(f.doc.AddEventListener("click", func(ev dom.Event) {
		target := ev.Target()
		if target == nil {
			return
		}
		if el := target.Closest("[data-edit-id]"); el != nil && f.owns(el) {
			ev.PreventDefault()
			entityID := el.Data("editId")
			go f.OpenEdit(context.Background(), entityID)
			return
		}
		if el := target.Closest("[data-create]"); el != nil && f.owns(el) {
			ev.PreventDefault()
			f.OpenCreate()
		}
	}))
}

func (f *Form) owns(el dom.Element) bool {
	entity := el.Data("entity")
	return entity == "" || entity == f.cfg.Entity
}

// Mode returns the current dialog mode.
func (f *Form) Mode() Mode { return f.mode }

// CurrentID is the entity being edited, "" in create mode.
func (f *Form) CurrentID() string { return f.current }

// Modal returns the dialog state machine.
func (f *Form) Modal() *modal.Modal { return f.modal }

// OpenCreate resets the form for a new entity and opens the dialog.
func (f *Form) OpenCreate() {
	f.reset()
	if title := f.find(f.cfg.Title); title != nil {
		title.SetTextContent(f.loc.Text("notices.modal.create"))
	}
	f.modal.Open()
}

// OpenEdit loads the entity and opens the dialog, reporting failures as an
// error notification.
func (f *Form) OpenEdit(ctx context.Context, entityID string) {
	if err := f.Load(ctx, entityID); err != nil {
		log.Printf("load %s %s: %v", f.cfg.Entity, entityID, err)
		if f.notifier != nil {
			f.notifier.Show(notify.KindError, f.loc.Text("notices.load_failed")+": "+apperrors.UserMessage(f.loc.Bundle, f.loc.Locale, err))
		}
	}
}

// Load fetches GET /<entity>/<id>, fills the form and opens the dialog.
// Absent fields become empty or unchecked.
func (f *Form) Load(ctx context.Context, entityID string) error {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return apperrors.New(apperrors.CodeNotFound, "entity id is required")
	}
	base := "/" + f.cfg.Entity + "/" + url.PathEscape(entityID)
	data, err := f.client.GetJSON(ctx, base)
	if err != nil {
		return err
	}
	form := f.find(f.cfg.Form)
	if form == nil {
		return apperrors.WithMetadata(apperrors.CodeElementMissing, "form missing", map[string]string{"Selector": f.cfg.Form})
	}

	f.populate(form, data)
	f.mode = ModeEdit
	f.current = entityID
	if f.cfg.OnFill != nil {
		f.cfg.OnFill(ModeEdit)
	}
	form.SetAttr("action", base+"/edit")
	if title := f.find(f.cfg.Title); title != nil {
		title.SetTextContent(f.loc.Text("notices.modal.edit"))
	}
	if data.Get("image_url").String() != "" {
		f.showImage(base + "/image")
	} else {
		f.showFileInput()
	}
	if field := f.doc.GetElementByID("remove_image"); field != nil {
		field.Remove()
	}
	f.modal.Open()
	return nil
}

// RemoveImage clears the current image and marks it for removal with a
// hidden remove_image=true field.
func (f *Form) RemoveImage() {
	f.showFileInput()
	if input := f.find(f.cfg.ImageInput); input != nil {
		input.SetValue("")
	}
	form := f.find(f.cfg.Form)
	if form == nil {
		return
	}
	field := f.doc.GetElementByID("remove_image")
	if field == nil {
		field = f.doc.CreateElement("input")
		field.SetAttr("type", "hidden")
		field.SetAttr("name", "remove_image")
		field.SetAttr("id", "remove_image")
		form.AppendChild(field)
	}
	field.SetValue("true")
}

// Release detaches every listener.
func (f *Form) Release() {
	f.releases.ReleaseAll()
	f.modal.Release()
}

func (f *Form) reset() {
	f.mode = ModeCreate
	f.current = ""
	form := f.find(f.cfg.Form)
	if form == nil {
		return
	}
	for _, field := range form.QuerySelectorAll("[name]") {
		if f.preserved(field) {
			continue
		}
		switch fieldType(field) {
		case "checkbox", "radio":
			field.SetChecked(false)
		case "submit", "button":
		default:
			field.SetValue("")
		}
	}
	form.SetAttr("action", "/"+f.cfg.Entity+"/create")
	if field := f.doc.GetElementByID("remove_image"); field != nil {
		field.Remove()
	}
	f.showFileInput()
	if f.cfg.OnFill != nil {
		f.cfg.OnFill(ModeCreate)
	}
}

func (f *Form) populate(form dom.Element, data gjson.Result) {
	fields := map[string]gjson.Result{}
	data.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value
		return true
	})
	for _, field := range form.QuerySelectorAll("[name]") {
		if f.preserved(field) {
			continue
		}
		name, _ := field.Attr("name")
		value := fields[name]
		switch fieldType(field) {
		case "checkbox":
			field.SetChecked(value.Bool())
		case "radio":
			v, _ := field.Attr("value")
			field.SetChecked(value.Exists() && value.String() == v)
		case "file", "submit", "button":
		default:
			field.SetValue(value.String())
		}
	}
}

func (f *Form) preserved(field dom.Element) bool {
	name, _ := field.Attr("name")
	if name == "remove_image" {
		return true
	}
	for _, p := range f.cfg.Preserve {
		if p == name {
			return true
		}
	}
	return false
}

func (f *Form) showImage(src string) {
	preview := f.find(f.cfg.ImagePreview)
	if preview == nil {
		return
	}
	preview.SetAttr("src", src)
	dom.Show(preview, "block")
	dom.Show(f.find(f.cfg.RemoveImage), "inline-block")
	dom.Hide(f.find(f.cfg.ImageInput))
}

func (f *Form) showFileInput() {
	dom.Hide(f.find(f.cfg.ImagePreview))
	dom.Hide(f.find(f.cfg.RemoveImage))
	dom.Show(f.find(f.cfg.ImageInput), "block")
}

func (f *Form) find(selector string) dom.Element {
	if selector == "" {
		return nil
	}
	return f.doc.QuerySelector(selector)
}

func fieldType(el dom.Element) string {
	if !strings.EqualFold(el.TagName(), "input") {
		return strings.ToLower(el.TagName())
	}
	t, _ := el.Attr("type")
	if t == "" {
		return "text"
	}
	return strings.ToLower(t)
}
