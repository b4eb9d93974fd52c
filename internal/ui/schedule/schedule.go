// Package schedule drives the extras of the schedule page: the per-college
// template viewer and the delete-all-templates action.
package schedule

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
	"github.com/campusdesk/backoffice/internal/ui/notify"
)

// CSRFHeader carries the page's CSRF token on the delete request.
const CSRFHeader = "X-CSRFToken"

const (
	// TemplatePath is the template endpoint; the college name is appended.
	TemplatePath = "/schedule/template/"
	// DeleteAllPath drops every stored template.
	DeleteAllPath = "/schedule/delete-all-templates"
)

// Notifier reports failures to the user.
type Notifier interface {
	Show(kind notify.Kind, text string) *notify.Notification
}

// Config names the page elements. Blank members take the defaults.
type Config struct {
	Buttons     string
	Content     string
	DeleteAll   string
	ActiveClass string
	CSRFField   string
}

func (c Config) withDefaults() Config {
	if c.Buttons == "" {
		c.Buttons = ".college-btn"
	}
	if c.Content == "" {
		c.Content = "#schedule-content"
	}
	if c.DeleteAll == "" {
		c.DeleteAll = "[data-delete-all-templates]"
	}
	if c.ActiveClass == "" {
		c.ActiveClass = "active"
	}
	if c.CSRFField == "" {
		c.CSRFField = `input[name="csrf_token"]`
	}
	return c
}

// Viewer shows one college's template at a time. Only the latest requested
// college is rendered when loads overlap.
type Viewer struct {
	doc      dom.Document
	win      dom.Window
	client   *fetch.Client
	notifier Notifier
	loc      catalog.Localizer
	cfg      Config

	mu       sync.Mutex
	seq      uint64
	current  string
	releases dom.Releases
}

// New returns nil when the page has neither a template pane nor a
// delete-all control.
func New(doc dom.Document, win dom.Window, client *fetch.Client, notifier Notifier, loc catalog.Localizer, cfg Config) *Viewer {
	cfg = cfg.withDefaults()
	if doc.QuerySelector(cfg.Content) == nil && doc.QuerySelector(cfg.DeleteAll) == nil {
		return nil
	}
	return &Viewer{doc: doc, win: win, client: client, notifier: notifier, loc: loc, cfg: cfg}
}

// Bind delegates clicks on the college buttons and the delete-all control.
func (v *Viewer) Bind() {
	v.releases.Add(v.doc.AddEventListener("click", func(ev dom.Event) {
		target := ev.Target()
		if target == nil {
			return
		}
		if btn := target.Closest(v.cfg.Buttons); btn != nil {
			ev.PreventDefault()
			college := btn.Data("college")
			go func() { _ = v.Show(context.Background(), college) }()
			return
		}
		if target.Closest(v.cfg.DeleteAll) != nil {
			ev.PreventDefault()
			// Confirm blocks the UI thread in the browser, so ask first.
			if !v.win.Confirm(v.loc.Text("notices.confirm.delete_all_templates")) {
				return
			}
			go func() { _ = v.DeleteAll(context.Background()) }()
		}
	}))
}

// First returns the college of the first button, "" when there is none.
func (v *Viewer) First() string {
	if btn := v.doc.QuerySelector(v.cfg.Buttons); btn != nil {
		return btn.Data("college")
	}
	return ""
}

// Current is the college last requested.
func (v *Viewer) Current() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Show marks college's button active and renders its template from
// GET /schedule/template/<college>.
func (v *Viewer) Show(ctx context.Context, college string) error {
	college = strings.TrimSpace(college)
	if college == "" {
		return nil
	}
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.current = college
	v.mu.Unlock()

	for _, btn := range v.doc.QuerySelectorAll(v.cfg.Buttons) {
		if btn.Data("college") == college {
			btn.AddClass(v.cfg.ActiveClass)
		} else {
			btn.RemoveClass(v.cfg.ActiveClass)
		}
	}
	v.replace(v.message("loading", "notices.schedule.loading"))

	doc, err := v.client.GetJSON(ctx, TemplatePath+url.PathEscape(college))
	if !v.latest(seq) {
		return err
	}
	if err != nil {
		log.Printf("schedule template %s: %v", college, err)
		v.replace(v.message("error", "notices.schedule.load_failed"))
		return err
	}
	table := doc.Get("schedule")
	if !table.IsObject() {
		v.replace(v.message("no-data", "notices.schedule.not_found"))
		return nil
	}
	v.replace(v.render(doc, table))
	return nil
}

// DeleteAll posts the delete-all request and reloads on success.
func (v *Viewer) DeleteAll(ctx context.Context) error {
	header := http.Header{"Content-Type": {"application/json"}}
	if el := v.doc.QuerySelector(v.cfg.CSRFField); el != nil {
		if token := strings.TrimSpace(el.Value()); token != "" {
			header.Set(CSRFHeader, token)
		}
	}
	resp, err := v.client.Do(ctx, http.MethodPost, DeleteAllPath, header, nil)
	if err == nil && !resp.OK() {
		err = fetch.StatusError(resp.Status)
	}
	if err != nil {
		log.Printf("delete schedule templates: %v", err)
		if v.notifier != nil {
			v.notifier.Show(notify.KindError, v.loc.First("notices.schedule.delete_all_failed", "notices.action_failed"))
		}
		return err
	}
	v.win.Reload()
	return nil
}

// Release detaches the delegated listener.
func (v *Viewer) Release() {
	if v == nil {
		return
	}
	v.releases.ReleaseAll()
}

func (v *Viewer) latest(seq uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seq == seq
}

func (v *Viewer) replace(el dom.Element) {
	content := v.doc.QuerySelector(v.cfg.Content)
	if content == nil {
		return
	}
	content.SetTextContent("")
	content.AppendChild(el)
}

func (v *Viewer) message(class, key string) dom.Element {
	el := v.doc.CreateElement("div")
	el.AddClass(class)
	el.SetTextContent(v.loc.Text(key))
	return el
}

// render builds the template table. Rows are time slots; the columns come
// from the first slot's keys. Values are set as text, never as markup.
func (v *Viewer) render(doc, table gjson.Result) dom.Element {
	root := v.doc.CreateElement("div")
	root.AddClass("schedule-data")
	root.AppendChild(v.textEl("h3", doc.Get("college_name").String()))
	updated := v.textEl("p", v.loc.Text("notices.schedule.updated")+": "+stamp(doc.Get("last_updated").String()))
	updated.AddClass("last-updated")
	root.AppendChild(updated)

	slots := table.Map()
	if len(slots) == 0 {
		root.AppendChild(v.message("no-data", "notices.schedule.empty"))
		return root
	}
	wrap := v.doc.CreateElement("div")
	wrap.AddClass("schedule-table")
	t := v.doc.CreateElement("table")

	var days []string
	table.ForEach(func(_, first gjson.Result) bool {
		if first.IsObject() {
			first.ForEach(func(day, _ gjson.Result) bool {
				days = append(days, day.String())
				return true
			})
		}
		return false
	})
	if len(days) > 0 {
		head := v.doc.CreateElement("thead")
		tr := v.doc.CreateElement("tr")
		tr.AppendChild(v.textEl("th", v.loc.Text("notices.schedule.time_group")))
		for _, day := range days {
			tr.AppendChild(v.textEl("th", day))
		}
		head.AppendChild(tr)
		t.AppendChild(head)
	}

	body := v.doc.CreateElement("tbody")
	table.ForEach(func(slot, row gjson.Result) bool {
		tr := v.doc.CreateElement("tr")
		label := v.doc.CreateElement("td")
		label.AppendChild(v.textEl("strong", slot.String()))
		tr.AppendChild(label)
		if row.IsObject() {
			row.ForEach(func(_, cell gjson.Result) bool {
				tr.AppendChild(v.textEl("td", cellText(cell)))
				return true
			})
		} else {
			tr.AppendChild(v.textEl("td", cellText(row)))
		}
		body.AppendChild(tr)
		return true
	})
	t.AppendChild(body)
	wrap.AppendChild(t)
	root.AppendChild(wrap)
	return root
}

func (v *Viewer) textEl(tag, text string) dom.Element {
	el := v.doc.CreateElement(tag)
	el.SetTextContent(text)
	return el
}

func cellText(r gjson.Result) string {
	if s := strings.TrimSpace(r.String()); s != "" {
		return s
	}
	return "-"
}

// stamp formats an RFC 3339 time for display and passes anything else
// through.
func stamp(raw string) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.Format("02.01.2006 15:04")
}
