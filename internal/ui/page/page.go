// Package page assembles the controllers of one admin page from its
// descriptor and owns their lifetime.
package page

import (
	"context"
	"strings"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/applications"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/entityform"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
	"github.com/campusdesk/backoffice/internal/ui/login"
	"github.com/campusdesk/backoffice/internal/ui/notify"
	"github.com/campusdesk/backoffice/internal/ui/rating"
	"github.com/campusdesk/backoffice/internal/ui/rowaction"
	"github.com/campusdesk/backoffice/internal/ui/schedule"
	"github.com/campusdesk/backoffice/internal/ui/vacancyform"
	"github.com/campusdesk/backoffice/internal/ui/viewfilter"
)

// PageAttr is the body attribute naming the page.
const PageAttr = "data-page"

// Deps are the browser handles shared by every controller of a page.
type Deps struct {
	Doc       dom.Document
	Win       dom.Window
	Clock     clock.Clock
	Client    *fetch.Client
	Localizer catalog.Localizer
	Notify    notify.Config
}

// Controller runs the controllers of one page.
type Controller struct {
	Descriptor    Descriptor
	Notifications *notify.Manager
	Filter        *viewfilter.Synchronizer
	Form          *entityform.Form
	Actions       *rowaction.Actions
	Respond       *Responder
	Login         *login.Controller
	Vacancy       *vacancyform.Controller
	Rating        *rating.Picker
	Dialogs       []*Dialog
	Applications  *applications.Controller
	Templates     *schedule.Viewer

	releases dom.Releases
}

// Resolve reads the page name from <body data-page>.
func Resolve(doc dom.Document) (Descriptor, error) {
	body := doc.Body()
	if body == nil {
		return Descriptor{}, apperrors.WithMetadata(apperrors.CodeElementMissing, "document has no body", map[string]string{"Selector": "body"})
	}
	name, _ := body.Attr(PageAttr)
	return Lookup(strings.TrimSpace(name))
}

// Start resolves the page and starts its controller. Notifications run on
// every page, known or not.
func Start(deps Deps) (*Controller, error) {
	d, err := Resolve(deps.Doc)
	if err != nil {
		c := &Controller{Notifications: notify.New(deps.Doc, deps.Win, deps.Clock, deps.Notify)}
		c.Notifications.Adopt()
		return c, err
	}
	return New(deps, d), nil
}

// New builds and binds the controllers d names.
func New(deps Deps, d Descriptor) *Controller {
	if deps.Notify.CloseLabel == "" {
		deps.Notify.CloseLabel = deps.Localizer.Text("notices.close")
	}
	c := &Controller{Descriptor: d}
	c.Notifications = notify.New(deps.Doc, deps.Win, deps.Clock, deps.Notify)
	c.Notifications.Adopt()

	if d.Rating {
		c.Rating = rating.New(deps.Doc, rating.Config{})
		if c.Rating != nil {
			c.Rating.Bind()
		}
	}
	if d.Filter != nil {
		c.startFilter(deps, d)
	}
	if d.Form != nil {
		cfg := *d.Form
		if c.Rating != nil {
			picker := c.Rating
			cfg.OnFill = func(mode entityform.Mode) {
				if mode == entityform.ModeEdit {
					picker.Sync()
					return
				}
				picker.Reset()
			}
		}
		c.Form = entityform.New(deps.Doc, deps.Client, c.Notifications, deps.Localizer, cfg)
		if c.Form != nil {
			c.Form.Bind()
		}
	}
	if d.Actions != nil {
		c.Actions = rowaction.New(deps.Doc, deps.Win, deps.Client, c.Notifications, deps.Localizer, *d.Actions)
		c.Actions.Bind()
	}
	if d.Respond != nil {
		c.Respond = NewResponder(deps.Doc, *d.Respond)
		if c.Respond != nil {
			c.Respond.Bind()
		}
	}
	if d.Login {
		c.Login = login.New(deps.Doc, deps.Win, deps.Client, deps.Clock, deps.Localizer, login.Config{})
		if c.Login != nil {
			c.Login.Bind()
		}
	}
	if d.Vacancy {
		c.Vacancy = vacancyform.New(deps.Doc, deps.Clock, deps.Localizer, vacancyform.Config{})
		if c.Vacancy != nil {
			c.Vacancy.Bind()
		}
	}
	for _, cfg := range d.Dialogs {
		if dlg := NewDialog(deps.Doc, cfg); dlg != nil {
			dlg.Bind()
			c.Dialogs = append(c.Dialogs, dlg)
		}
	}
	if d.Applications {
		c.Applications = applications.New(deps.Doc, deps.Client, c.Notifications, deps.Localizer, applications.Config{})
		if c.Applications != nil {
			c.Applications.Bind()
		}
	}
	if d.Templates {
		c.startTemplates(deps)
	}
	return c
}

// startTemplates binds the template viewer and opens the first college.
func (c *Controller) startTemplates(deps Deps) {
	c.Templates = schedule.New(deps.Doc, deps.Win, deps.Client, c.Notifications, deps.Localizer, schedule.Config{})
	if c.Templates == nil {
		return
	}
	c.Templates.Bind()
	if first := c.Templates.First(); first != "" {
		viewer := c.Templates
		go func() { _ = viewer.Show(context.Background(), first) }()
	}
}

func (c *Controller) startFilter(deps Deps, d Descriptor) {
	role := viewfilter.RoleFromDocument(deps.Doc, d.Container)
	c.Filter = viewfilter.New(deps.Doc, deps.Win, role, *d.Filter)
	c.Filter.Init()
	if box := deps.Doc.QuerySelector(checkboxSelector(d.Filter)); box != nil {
		c.releases.Add(box.AddEventListener("change", func(dom.Event) {
			c.Filter.Toggle(box.Checked())
		}))
	}
	c.releases.Add(deps.Doc.AddEventListener("click", c.Filter.HandleClick))
}

func checkboxSelector(cfg *viewfilter.Config) string {
	if cfg.Checkbox != "" {
		return cfg.Checkbox
	}
	return "#showHidden"
}

// Close releases every listener and pending timer of the page.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.releases.ReleaseAll()
	c.Templates.Release()
	c.Applications.Release()
	for _, dlg := range c.Dialogs {
		dlg.Release()
	}
	if c.Vacancy != nil {
		c.Vacancy.Release()
	}
	if c.Login != nil {
		c.Login.Release()
	}
	if c.Respond != nil {
		c.Respond.Release()
	}
	if c.Actions != nil {
		c.Actions.Release()
	}
	if c.Form != nil {
		c.Form.Release()
	}
	c.Rating.Release()
	if c.Notifications != nil {
		c.Notifications.Close()
	}
}
