package preview

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/a-h/templ"

	"github.com/campusdesk/backoffice/internal/platform/branding"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/page"
	"github.com/campusdesk/backoffice/internal/ui/vacancyform"
	"github.com/campusdesk/backoffice/internal/ui/viewfilter"
)

// flashView is a server-rendered notification.
type flashView struct {
	Kind string
	Text string
}

// pageView is the data shared by every rendered page.
type pageView struct {
	Name          string
	Title         string
	Admin         bool
	CSRFToken     string
	Flash         *flashView
	RedirectAfter string
	Loc           catalog.Localizer
	Nav           []navLink
}

type navLink struct {
	Href  string
	Title string
}

// listingView adds the entity listing to pageView.
type listingView struct {
	pageView
	Descriptor page.Descriptor
	Fixture    PageFixture
	// Colleges have schedule templates; set on the schedule page.
	Colleges []string
}

// applicationsView is the vacancy applications page.
type applicationsView struct {
	pageView
	Fixture PageFixture
}

// applicationStatuses are the tabs of the applications page, in order.
var applicationStatuses = []string{"new", "accepted", "rejected"}

func knownStatus(status string) bool {
	for _, s := range applicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// htmlWriter writes escaped markup and keeps the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// open writes a start tag. attrs alternate name and value; an empty name
// skips the pair.
func (h *htmlWriter) open(tag string, attrs ...string) {
	h.raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "" {
			continue
		}
		h.attr(attrs[i], attrs[i+1])
	}
	h.raw(">")
}

func (h *htmlWriter) close(tag string) { h.raw("</" + tag + ">") }

// element writes a complete element with escaped text content.
func (h *htmlWriter) element(tag, text string, attrs ...string) {
	h.open(tag, attrs...)
	h.text(text)
	h.close(tag)
}

// bare strips the leading # or . of a simple selector.
func bare(selector string) string {
	return strings.TrimLeft(selector, "#.")
}

func when(cond bool, name string) string {
	if cond {
		return name
	}
	return ""
}

// layout wraps content in the admin page chrome and the bundle loader.
func layout(v pageView, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!doctype html>")
		h.open("html", "lang", strings.SplitN(v.Loc.Locale, "-", 2)[0])
		h.raw(`<head><meta charset="utf-8">`)
		h.element("title", branding.PageTitle(v.Title))
		h.raw(`<style>.hidden{display:none}.modal{position:fixed;inset:0;background:rgba(0,0,0,.4)}</style>`)
		h.raw(`</head>`)

		role := ""
		if v.Admin {
			role = "admin"
		}
		h.open("body",
			"data-page", v.Name,
			"data-locale", v.Loc.Locale,
			when(role != "", "data-viewer-role"), role,
			when(v.RedirectAfter != "", "data-redirect-after"), v.RedirectAfter,
		)
		h.open("nav", "class", "sidebar")
		for _, link := range v.Nav {
			h.element("a", link.Title, "href", link.Href)
		}
		h.close("nav")

		h.open("div", "id", "flash-messages")
		if v.Flash != nil {
			h.open("div", "class", "flash")
			h.element("div", v.Flash.Text, "class", "flash-message flash-"+v.Flash.Kind+" "+v.Flash.Kind)
			h.close("div")
		}
		h.close("div")
		h.open("input", "type", "hidden", "name", "csrf_token", "value", v.CSRFToken)
		if h.err != nil {
			return h.err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`<script src="/assets/wasm_exec.js"></script>`)
		h.raw(`<script>(function(){if(typeof Go==="undefined"){return}const go=new Go();go.env={BACKOFFICE_LOCALE:`)
		h.raw(`"` + templ.EscapeString(v.Loc.Locale) + `"`)
		h.raw(`};WebAssembly.instantiateStreaming(fetch("/assets/backoffice.wasm"),go.importObject).then(function(r){go.run(r.instance)})})();</script>`)
		h.close("body")
		h.close("html")
		return h.err
	})
}

// listingContent renders a filterable entity listing with its dialogs.
func listingContent(v listingView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		d := v.Descriptor
		superuser := "false"
		if v.Admin {
			superuser = "true"
		}
		h.open("main", "class", bare(d.Container), "data-is-superuser", superuser)
		h.element("h1", v.Title)
		h.open("label", "class", "filter")
		h.open("input", "type", "checkbox", "id", bare(filterCheckbox(d.Filter)))
		h.text(" " + v.Loc.Text("notices.filter.show_hidden"))
		h.close("label")

		h.open("p", "class", "counts")
		for _, c := range []string{"total", "visible", "hidden"} {
			h.text(v.Loc.Text("notices.counts."+c) + ": ")
			h.element("span", "", "data-filter-count", c)
			h.text(" ")
		}
		h.close("p")

		if d.Form != nil {
			h.element("button", v.Loc.Text("notices.modal.create"), "type", "button", "data-create", "", "data-entity", d.Form.Entity)
		}
		if len(d.Dialogs) > 0 {
			h.element("button", v.Loc.Text("notices.user.invite"), "type", "button", "data-open-invite", "")
		}
		if d.Templates {
			templatePane(h, v)
		}
		itemClass := bare(d.Filter.Item)
		for _, it := range v.Fixture.Items {
			class := itemClass
			if it.Hidden {
				class += " " + hiddenClass(d.Filter)
			}
			h.open("div", "class", class, "data-id", it.ID)
			h.element("h3", it.Title)
			if it.Body != "" {
				h.open("div", "class", "item-body")
				h.raw(RenderMarkdown(it.Body))
				h.close("div")
			}
			if d.Form != nil {
				h.element("button", v.Loc.Text("notices.verb.edit"), "type", "button", "data-edit-id", it.ID, "data-entity", d.Form.Entity)
			}
			if d.Actions != nil {
				for _, verb := range d.Actions.Verbs {
					h.element("button", v.Loc.Text("notices.verb."+verb), "type", "button",
						"data-row-action", verb, "data-id", it.ID, "data-entity", d.Actions.Entity)
				}
			}
			if d.Respond != nil {
				h.element("button", v.Loc.Text("notices.verb.respond"), "type", "button", "data-respond-id", it.ID)
			}
			h.close("div")
		}
		h.element("div", v.Loc.Text("notices.empty"), "class", bare(d.Filter.EmptyState), "style", "display: none")
		h.element("a", "2", "class", "pager", "href", "/"+url.PathEscape(d.Name)+"?page=2")
		h.close("main")

		if d.Form != nil {
			entityDialog(h, v)
		}
		if d.Respond != nil {
			respondDialog(h, v)
		}
		for _, dlg := range d.Dialogs {
			inviteDialog(h, v, dlg)
		}
		return h.err
	})
}

// templatePane renders the college switcher and the pane the bundle fills
// with the selected template.
func templatePane(h *htmlWriter, v listingView) {
	h.open("section", "class", "schedule-templates")
	h.open("div", "class", "college-buttons")
	for _, college := range v.Colleges {
		h.element("button", college, "type", "button", "class", "college-btn", "data-college", college)
	}
	h.close("div")
	if v.Admin && len(v.Colleges) > 0 {
		h.element("button", v.Loc.Text("notices.schedule.delete_all"), "type", "button", "data-delete-all-templates", "")
	}
	h.element("div", "", "id", "schedule-content")
	h.close("section")
}

func inviteDialog(h *htmlWriter, v listingView, cfg page.DialogConfig) {
	h.open("div", "id", bare(cfg.Modal), "class", "modal", "style", "display: none")
	h.open("div", "class", "modal-content")
	h.element("button", "×", "type", "button", "class", "close", "data-modal-close", "")
	h.element("h2", v.Loc.Text("notices.user.invite"))
	h.open("form", "id", bare(cfg.Form), "method", "post", "action", "/"+url.PathEscape(v.Descriptor.Name)+"/invite")
	h.open("input", "type", "hidden", "name", "csrf_token", "value", v.CSRFToken)
	h.open("input", "type", "email", "name", "email", "required", "")
	h.element("button", v.Loc.Text("notices.user.invite"), "type", "submit")
	h.close("form")
	h.close("div")
	h.close("div")
}

// applicationsContent renders the applications grouped into status tabs,
// with the bulk status form and the two per-student dialogs.
func applicationsContent(v applicationsView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.open("main", "class", "applications-container")
		h.element("h1", v.Title)

		h.open("ul", "class", "tabs")
		for i, status := range applicationStatuses {
			class := "tab-item"
			if i == 0 {
				class += " active"
			}
			h.element("li", v.Loc.Text("notices.application.status."+status), "class", class, "data-tab", status)
		}
		h.close("ul")

		h.open("form", "id", "bulk-form", "method", "post", "action", "/vacancy-applications/status")
		h.open("input", "type", "hidden", "name", "csrf_token", "value", v.CSRFToken)
		h.open("label")
		h.open("input", "type", "checkbox", "id", "select-all")
		h.text(" " + v.Loc.Text("notices.application.select_all"))
		h.close("label")
		h.text(" " + v.Loc.Text("notices.application.selected") + ": ")
		h.element("span", "0", "id", "selected-count")
		statusSelect(h, v.Loc, "bulk-status", true)
		h.element("button", v.Loc.Text("notices.application.update_status"), "type", "submit", "id", "update-status-btn", "disabled", "")

		for i, status := range applicationStatuses {
			class := "tab-panel"
			if i == 0 {
				class += " active"
			}
			h.open("section", "id", "tab-"+status, "class", class)
			for _, it := range v.Fixture.Items {
				current := fmt.Sprint(it.Values["status"])
				if current != status {
					continue
				}
				h.open("div", "class", "student-row", "data-id", it.ID)
				h.open("input", "type", "checkbox", "class", "student-checkbox-input", "name", "student_ids", "value", it.ID)
				h.element("span", it.Title, "class", "student-name")
				h.element("button", v.Loc.Text("notices.application.update_status"), "type", "button", "data-status-id", it.ID, "data-status", current)
				h.element("button", v.Loc.Text("notices.application.details"), "type", "button", "data-student-id", it.ID)
				h.close("div")
			}
			h.close("section")
		}
		h.close("form")
		h.close("main")

		h.open("div", "id", "status-modal", "class", "modal", "style", "display: none")
		h.open("div", "class", "modal-content")
		h.element("button", "×", "type", "button", "class", "close", "data-modal-close", "")
		h.open("form", "method", "post", "action", "/vacancy-applications/status")
		h.open("input", "type", "hidden", "name", "csrf_token", "value", v.CSRFToken)
		h.open("input", "type", "hidden", "id", "modal-student-id", "name", "student_id")
		statusSelect(h, v.Loc, "modal-status", false)
		h.element("button", v.Loc.Text("notices.verb.save"), "type", "submit")
		h.close("form")
		h.close("div")
		h.close("div")

		h.open("div", "id", "student-modal", "class", "modal", "style", "display: none")
		h.open("div", "class", "modal-content")
		h.element("button", "×", "type", "button", "class", "close", "data-modal-close", "")
		h.open("dl")
		for _, field := range []string{"full_name", "group", "email", "vacancy"} {
			h.element("dt", field)
			h.element("dd", "", "data-field", field)
		}
		h.close("dl")
		h.close("div")
		h.close("div")
		return h.err
	})
}

func statusSelect(h *htmlWriter, loc catalog.Localizer, id string, blank bool) {
	h.open("select", "id", id, "name", "status")
	if blank {
		h.element("option", "—", "value", "")
	}
	for _, status := range applicationStatuses {
		h.element("option", loc.Text("notices.application.status."+status), "value", status)
	}
	h.close("select")
}

func filterCheckbox(cfg *viewfilter.Config) string {
	if cfg.Checkbox != "" {
		return cfg.Checkbox
	}
	return "#showHidden"
}

func hiddenClass(cfg *viewfilter.Config) string {
	if cfg.HiddenClass != "" {
		return cfg.HiddenClass
	}
	return "hidden"
}

func entityDialog(h *htmlWriter, v listingView) {
	d := v.Descriptor
	cfg := d.Form
	h.open("div", "id", bare(cfg.Modal), "class", "modal", "style", "display: none")
	h.open("div", "class", "modal-content")
	h.element("button", "×", "type", "button", "class", "close", "data-modal-close", "")
	title := cfg.Title
	if title == "" {
		title = "#modalTitle"
	}
	h.element("h2", v.Loc.Text("notices.modal.create"), "id", bare(title))
	formClass := "entity-form"
	if d.Vacancy {
		formClass += " vacancy-form"
	}
	h.open("form", "id", bare(cfg.Form), "class", formClass, "method", "post", "action", "/"+cfg.Entity+"/create")
	h.open("input", "type", "hidden", "name", "csrf_token", "value", v.CSRFToken)
	for _, f := range v.Fixture.Fields {
		fieldInput(h, f)
	}
	if cfg.ImageInput != "" && hasFileField(v.Fixture.Fields) {
		h.open("img", "id", bare(cfg.ImagePreview), "alt", "", "style", "display: none")
		h.element("button", v.Loc.Text("notices.verb.remove_image"), "type", "button", "id", bare(cfg.RemoveImage), "style", "display: none")
	}
	if d.Rating {
		h.open("div", "class", "stars")
		for i := 0; i < 5; i++ {
			h.element("span", "☆", "class", "star-input")
		}
		h.close("div")
		h.open("input", "type", "hidden", "id", "rating", "name", "rating", "value", "5")
	}
	if d.Vacancy {
		vacancyFields(h, v.Loc)
	}
	h.element("button", v.Loc.Text("notices.verb.save"), "type", "submit")
	h.close("form")
	h.close("div")
	h.close("div")
}

func hasFileField(fields []Field) bool {
	for _, f := range fields {
		if f.Type == "file" {
			return true
		}
	}
	return false
}

func fieldInput(h *htmlWriter, f Field) {
	h.open("div", "class", "field")
	h.element("label", f.Label, "for", fieldID(f))
	switch f.Type {
	case "textarea":
		h.element("textarea", "", "id", fieldID(f), "name", f.Name)
	case "checkbox":
		h.open("input", "type", "checkbox", "id", fieldID(f), "name", f.Name)
	case "file":
		h.open("input", "type", "file", "id", "image", "name", f.Name, "accept", "image/*")
	case "":
		h.open("input", "type", "text", "id", fieldID(f), "name", f.Name)
	default:
		h.open("input", "type", f.Type, "id", fieldID(f), "name", f.Name)
	}
	h.close("div")
}

func fieldID(f Field) string {
	if f.Type == "file" {
		return "image"
	}
	return f.Name
}

func vacancyFields(h *htmlWriter, loc catalog.Localizer) {
	for _, f := range []Field{
		{Name: "start", Label: "start", Type: "date"},
		{Name: "end", Label: "end", Type: "date"},
		{Name: "salary_from", Label: "salary_from", Type: "number"},
		{Name: "salary_to", Label: "salary_to", Type: "number"},
	} {
		fieldInput(h, f)
	}
	h.open("div", "class", "field")
	h.open("select", "id", "direction", "name", "direction")
	h.element("option", "—", "value", "")
	for _, dir := range directions() {
		h.element("option", dir, "value", dir)
	}
	h.close("select")
	h.close("div")
	h.open("div", "class", "field")
	h.open("select", "id", "speciality", "name", "speciality")
	h.element("option", loc.Text("notices.vacancy.select_speciality"), "value", "")
	h.close("select")
	h.close("div")
}

func directions() []string {
	out := make([]string, 0, len(vacancyform.Specialities))
	for dir := range vacancyform.Specialities {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

func respondDialog(h *htmlWriter, v listingView) {
	h.open("div", "id", "responseModal", "class", "modal", "style", "display: none")
	h.open("div", "class", "modal-content")
	h.element("button", "×", "type", "button", "class", "close", "data-modal-close", "")
	h.open("form", "id", "responseForm", "method", "post")
	h.open("input", "type", "hidden", "name", "csrf_token", "value", v.CSRFToken)
	h.element("textarea", "", "name", "response")
	h.element("button", v.Loc.Text("notices.verb.respond"), "type", "submit")
	h.close("form")
	h.close("div")
	h.close("div")
}

// loginContent renders the sign-in form.
func loginContent(v pageView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.open("main", "class", "login")
		h.element("h1", v.Title)
		h.open("form", "id", "auth-form", "method", "post", "action", "/login")
		h.open("input", "type", "hidden", "name", "csrf_token", "value", v.CSRFToken)
		h.element("label", v.Loc.Text("login.form.username"), "for", "auth-form__username-input")
		h.open("input", "id", "auth-form__username-input", "name", "username", "autocomplete", "username")
		h.element("label", v.Loc.Text("login.form.password"), "for", "auth-form__password-input")
		h.open("input", "type", "password", "id", "auth-form__password-input", "name", "password", "autocomplete", "current-password")
		h.open("span", "class", "toggle-password")
		h.element("i", "👁", "class", "eye-show")
		h.element("i", "✕", "class", "eye-hide", "style", "display: none")
		h.close("span")
		h.element("button", v.Loc.Text("login.form.submit"), "type", "submit")
		h.close("form")
		h.close("main")
		return h.err
	})
}

// dashboardContent lists the admin pages.
func dashboardContent(v pageView) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.open("main", "class", "dashboard")
		h.element("h1", v.Title)
		h.open("ul")
		for _, link := range v.Nav {
			h.open("li")
			h.element("a", link.Title, "href", link.Href)
			h.close("li")
		}
		h.close("ul")
		h.close("main")
		return h.err
	})
}
