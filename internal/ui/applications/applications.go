// Package applications drives the vacancy applications page: the status
// tabs, bulk selection of students and the per-student dialogs.
package applications

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"

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

// Config names the page elements. Blank members take the defaults.
type Config struct {
	// Entity is the URL segment student details are read from.
	Entity       string
	Tabs         string
	Panels       string
	ActiveClass  string
	SelectAll    string
	Rows         string
	BulkStatus   string
	BulkButton   string
	BulkCount    string
	StatusModal  string
	StatusID     string
	StatusSelect string
	StudentModal string
}

func (c Config) withDefaults() Config {
	defaults := Config{
		Entity:       "vacancy-applications",
		Tabs:         ".tab-item",
		Panels:       ".tab-panel",
		ActiveClass:  "active",
		SelectAll:    "#select-all",
		Rows:         ".student-checkbox-input",
		BulkStatus:   "#bulk-status",
		BulkButton:   "#update-status-btn",
		BulkCount:    "#selected-count",
		StatusModal:  "#status-modal",
		StatusID:     "#modal-student-id",
		StatusSelect: "#modal-status",
		StudentModal: "#student-modal",
	}
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.Entity, defaults.Entity)
	fill(&c.Tabs, defaults.Tabs)
	fill(&c.Panels, defaults.Panels)
	fill(&c.ActiveClass, defaults.ActiveClass)
	fill(&c.SelectAll, defaults.SelectAll)
	fill(&c.Rows, defaults.Rows)
	fill(&c.BulkStatus, defaults.BulkStatus)
	fill(&c.BulkButton, defaults.BulkButton)
	fill(&c.BulkCount, defaults.BulkCount)
	fill(&c.StatusModal, defaults.StatusModal)
	fill(&c.StatusID, defaults.StatusID)
	fill(&c.StatusSelect, defaults.StatusSelect)
	fill(&c.StudentModal, defaults.StudentModal)
	return c
}

// Controller is the applications page controller.
type Controller struct {
	doc      dom.Document
	client   *fetch.Client
	notifier Notifier
	loc      catalog.Localizer
	cfg      Config

	status  *modal.Modal
	student *modal.Modal

	mu sync.Mutex
	// shown is the student the details dialog was last opened for.
	shown    string
	releases dom.Releases
}

// New returns nil when the page has neither tabs nor selectable rows.
func New(doc dom.Document, client *fetch.Client, notifier Notifier, loc catalog.Localizer, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	if doc.QuerySelector(cfg.Tabs) == nil && doc.QuerySelector(cfg.Rows) == nil {
		return nil
	}
	c := &Controller{doc: doc, client: client, notifier: notifier, loc: loc, cfg: cfg}
	c.status = modal.New(doc, cfg.StatusModal, modal.Hooks{})
	c.student = modal.New(doc, cfg.StudentModal, modal.Hooks{OnClose: c.clearDetails})
	return c
}

// Bind attaches the listeners and brings the bulk controls in line with the
// rendered checkboxes.
func (c *Controller) Bind() {
	c.releases.Add(c.doc.AddEventListener("click", c.handleClick))
	c.releases.Add(c.doc.AddEventListener("change", func(ev dom.Event) {
		target := ev.Target()
		if target == nil {
			return
		}
		switch {
		case target.Matches(c.cfg.SelectAll):
			c.SelectAll(target.Checked())
		case target.Matches(c.cfg.Rows), target.Matches(c.cfg.BulkStatus):
			c.Refresh()
		}
	}))
	c.Refresh()
}

func (c *Controller) handleClick(ev dom.Event) {
	target := ev.Target()
	if target == nil {
		return
	}
	if tab := target.Closest(c.cfg.Tabs); tab != nil {
		ev.PreventDefault()
		c.Activate(tab.Data("tab"))
		return
	}
	if el := target.Closest("[data-status-id]"); el != nil {
		ev.PreventDefault()
		c.OpenStatus(el.Data("statusId"), el.Data("status"))
		return
	}
	if el := target.Closest("[data-student-id]"); el != nil {
		ev.PreventDefault()
		go func(id string) {
			_ = c.ShowStudent(context.Background(), id)
		}(el.Data("studentId"))
	}
}

// Activate marks the tab named name and its #tab-<name> panel active. It
// reports false and changes nothing when there is no such panel.
func (c *Controller) Activate(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	panel := c.doc.GetElementByID("tab-" + name)
	if panel == nil {
		return false
	}
	for _, tab := range c.doc.QuerySelectorAll(c.cfg.Tabs) {
		if tab.Data("tab") == name {
			tab.AddClass(c.cfg.ActiveClass)
		} else {
			tab.RemoveClass(c.cfg.ActiveClass)
		}
	}
	for _, p := range c.doc.QuerySelectorAll(c.cfg.Panels) {
		p.RemoveClass(c.cfg.ActiveClass)
	}
	panel.AddClass(c.cfg.ActiveClass)
	return true
}

// SelectAll checks or clears every student row.
func (c *Controller) SelectAll(checked bool) {
	for _, row := range c.doc.QuerySelectorAll(c.cfg.Rows) {
		row.SetChecked(checked)
	}
	c.Refresh()
}

// Selected lists the values of the checked rows.
func (c *Controller) Selected() []string {
	var out []string
	for _, row := range c.doc.QuerySelectorAll(c.cfg.Rows) {
		if row.Checked() {
			out = append(out, row.Value())
		}
	}
	return out
}

// BulkReady reports whether a bulk status update can be submitted: at least
// one row checked and a status chosen.
func (c *Controller) BulkReady() bool {
	status := c.doc.QuerySelector(c.cfg.BulkStatus)
	return len(c.Selected()) > 0 && status != nil && strings.TrimSpace(status.Value()) != ""
}

// Refresh updates the selected count, the bulk button and the select-all
// box from the row checkboxes.
func (c *Controller) Refresh() {
	rows := c.doc.QuerySelectorAll(c.cfg.Rows)
	checked := 0
	for _, row := range rows {
		if row.Checked() {
			checked++
		}
	}
	if el := c.doc.QuerySelector(c.cfg.BulkCount); el != nil {
		el.SetTextContent(strconv.Itoa(checked))
	}
	if btn := c.doc.QuerySelector(c.cfg.BulkButton); btn != nil {
		if c.BulkReady() {
			btn.RemoveAttr("disabled")
		} else {
			btn.SetAttr("disabled", "")
		}
	}
	if all := c.doc.QuerySelector(c.cfg.SelectAll); all != nil {
		all.SetChecked(len(rows) > 0 && checked == len(rows))
	}
}

// OpenStatus loads the student and current status into the status dialog
// and opens it.
func (c *Controller) OpenStatus(studentID, current string) {
	if strings.TrimSpace(studentID) == "" {
		return
	}
	if el := c.doc.QuerySelector(c.cfg.StatusID); el != nil {
		el.SetValue(studentID)
	}
	if el := c.doc.QuerySelector(c.cfg.StatusSelect); el != nil {
		el.SetValue(current)
	}
	c.status.Open()
}

// ShowStudent opens the details dialog and fills its [data-field] elements
// from GET /<entity>/<id>.
func (c *Controller) ShowStudent(ctx context.Context, studentID string) error {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" || c.student == nil {
		return nil
	}
	c.mu.Lock()
	c.shown = studentID
	c.mu.Unlock()
	c.clearDetails()
	c.student.Open()

	doc, err := c.client.GetJSON(ctx, "/"+c.cfg.Entity+"/"+url.PathEscape(studentID))
	if err != nil {
		log.Printf("student %s details: %v", studentID, err)
		if c.notifier != nil {
			c.notifier.Show(notify.KindError, c.loc.First("notices.application.details_failed", "notices.load_failed"))
		}
		return err
	}
	c.mu.Lock()
	stale := c.shown != studentID
	c.mu.Unlock()
	if stale || c.student.State() != modal.Open {
		return nil
	}
	for _, el := range c.student.Element().QuerySelectorAll("[data-field]") {
		el.SetTextContent(doc.Get(el.Data("field")).String())
	}
	return nil
}

// StatusModal returns the status dialog.
func (c *Controller) StatusModal() *modal.Modal { return c.status }

// StudentModal returns the details dialog.
func (c *Controller) StudentModal() *modal.Modal { return c.student }

// Release detaches the listeners.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	c.releases.ReleaseAll()
	c.status.Release()
	c.student.Release()
}

func (c *Controller) clearDetails() {
	el := c.student.Element()
	if el == nil {
		return
	}
	for _, field := range el.QuerySelectorAll("[data-field]") {
		field.SetTextContent("")
	}
}
