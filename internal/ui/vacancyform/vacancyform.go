// Package vacancyform validates the vacancy editor: the date range, the
// salary range and the direction-dependent speciality list.
package vacancyform

import (
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom"
)

const dateLayout = "2006-01-02"

// adjustedNoticeDuration is how long the auto-adjust notice stays up.
const adjustedNoticeDuration = 3 * time.Second

// Specialities maps a direction to its specialities.
var Specialities = map[string][]string{
	"Электроника": {
		"Монтажник радиоэлектронной аппаратуры и приборов",
		"Слесарь-сборщик радиоэлектронной аппаратуры и приборов",
		"Регулировщик радиоэлектронной аппаратуры и приборов",
	},
	"Машиностроение": {
		"Слесарь механосборочных работ",
		"Токарь",
		"Фрезеровщик",
		"Оператор станков с ПУ",
		"Станочник широкого профиля",
		"Сварщик (ручной и частично механизированной сварки (наплавки))",
		"Наладчик станков и оборудования в механообработке",
		"Специалист ОТК",
	},
	"Автоматизация производства": {
		"Специалист по обслуживанию мехатронных и роботизированных комплексов",
		"Слесарь контрольно-измерительных приборов и автоматики",
		"Специалист по аддитивным технологиям",
	},
	"Авиационная промышленность и беспилотные авиационные системы": {
		"Монтажник электрооборудования летательных аппаратов",
		"Слесарь-сборщик авиационной техники",
		"Слесарь-сборщик авиационных изделий из композитных материалов",
		"Оператор беспилотных авиационных систем до 30 кг",
	},
}

// CheckDates validates a start/end pair of YYYY-MM-DD values. With strict
// set the end must fall after the start; otherwise equal dates pass. Blank
// or unparsable values are not checked.
func CheckDates(start, end string, strict bool) error {
	s, errStart := time.Parse(dateLayout, strings.TrimSpace(start))
	e, errEnd := time.Parse(dateLayout, strings.TrimSpace(end))
	if errStart != nil || errEnd != nil {
		return nil
	}
	if e.Before(s) || (strict && !e.After(s)) {
		return apperrors.WithMetadata(apperrors.CodeDateRangeInvalid, "end date not after start date",
			map[string]string{"Start": start, "End": end})
	}
	return nil
}

// CheckSalary validates that the lower bound does not exceed the upper one.
// Blank or non-numeric values are not checked.
func CheckSalary(from, to string) error {
	lo, errLo := strconv.ParseFloat(strings.TrimSpace(from), 64)
	hi, errHi := strconv.ParseFloat(strings.TrimSpace(to), 64)
	if errLo != nil || errHi != nil {
		return nil
	}
	if lo > hi {
		return apperrors.WithMetadata(apperrors.CodeSalaryRangeInvalid, "salary range inverted",
			map[string]string{"From": from, "To": to})
	}
	return nil
}

// Config names the vacancy form elements. Salary and speciality selectors
// are optional.
type Config struct {
	Form       string
	Start      string
	End        string
	SalaryFrom string
	SalaryTo   string
	Direction  string
	Speciality string
}

func (c Config) withDefaults() Config {
	if c.Form == "" {
		c.Form = ".vacancy-form"
	}
	if c.Start == "" {
		c.Start = "#start"
	}
	if c.End == "" {
		c.End = "#end"
	}
	if c.SalaryFrom == "" {
		c.SalaryFrom = "#salary_from"
	}
	if c.SalaryTo == "" {
		c.SalaryTo = "#salary_to"
	}
	if c.Direction == "" {
		c.Direction = "#direction"
	}
	if c.Speciality == "" {
		c.Speciality = "#speciality"
	}
	return c
}

// Controller wires the vacancy form.
type Controller struct {
	mu       sync.Mutex
	doc      dom.Document
	clock    clock.Clock
	loc      catalog.Localizer
	cfg      Config
	pending  clock.Timer
	releases dom.Releases
}

// New returns the controller, or nil when the page has no vacancy form.
func New(doc dom.Document, clk clock.Clock, loc catalog.Localizer, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	if doc.QuerySelector(cfg.Form) == nil {
		return nil
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Controller{doc: doc, clock: clk, loc: loc, cfg: cfg}
}

// Bind registers the change and submit listeners and runs the load-time
// checks.
func (c *Controller) Bind() {
	form := c.doc.QuerySelector(c.cfg.Form)
	start := c.doc.QuerySelector(c.cfg.Start)
	end := c.doc.QuerySelector(c.cfg.End)
	if start != nil && end != nil {
		c.releases.Add(start.AddEventListener("change", func(dom.Event) { c.StartChanged() }))
		c.releases.Add(end.AddEventListener("change", func(dom.Event) { c.EndChanged() }))
	}
	if form != nil {
		c.releases.Add(form.AddEventListener("submit", func(ev dom.Event) {
			if !c.Validate() {
				ev.PreventDefault()
			}
		}))
	}
	if dir := c.doc.QuerySelector(c.cfg.Direction); dir != nil {
		c.releases.Add(dir.AddEventListener("change", func(dom.Event) { c.UpdateSpecialities() }))
	}
	c.Init()
}

// Init applies the date bounds of existing values and flags an invalid
// saved range.
func (c *Controller) Init() {
	start, end := c.dates()
	if start != nil && end != nil {
		if v := start.Value(); v != "" {
			end.SetAttr("min", v)
		}
		if v := end.Value(); v != "" {
			start.SetAttr("max", v)
		}
		if CheckDates(start.Value(), end.Value(), true) != nil {
			c.showError(c.loc.Text("notices.vacancy.start_before_end"))
		}
	}
	c.UpdateSpecialities()
}

// StartChanged moves the end bound and pulls an earlier end date up to the
// start, with a temporary notice.
func (c *Controller) StartChanged() {
	start, end := c.dates()
	if start == nil || end == nil || start.Value() == "" {
		return
	}
	end.SetAttr("min", start.Value())
	if end.Value() != "" && CheckDates(start.Value(), end.Value(), false) != nil {
		end.SetValue(start.Value())
		c.showError(c.loc.Text("notices.vacancy.end_adjusted"))
		c.mu.Lock()
		if c.pending != nil {
			c.pending.Stop()
		}
		c.pending = c.clock.AfterFunc(adjustedNoticeDuration, c.hideError)
		c.mu.Unlock()
		return
	}
	c.hideError()
}

// EndChanged rejects an end date before the start.
func (c *Controller) EndChanged() {
	start, end := c.dates()
	if start == nil || end == nil || start.Value() == "" || end.Value() == "" {
		return
	}
	if err := CheckDates(start.Value(), end.Value(), false); err != nil {
		c.showError(c.loc.Text(apperrors.CodeOf(err).CatalogKey()))
		end.SetValue(start.Value())
		return
	}
	c.hideError()
}

// Validate runs the submit checks and reports whether the form may be sent.
func (c *Controller) Validate() bool {
	start, end := c.dates()
	if start != nil && end != nil {
		if CheckDates(start.Value(), end.Value(), true) != nil {
			c.showError(c.loc.Text("notices.vacancy.start_before_end"))
			return false
		}
	}
	from := c.doc.QuerySelector(c.cfg.SalaryFrom)
	to := c.doc.QuerySelector(c.cfg.SalaryTo)
	if from != nil && to != nil {
		if err := CheckSalary(from.Value(), to.Value()); err != nil {
			c.showErrorAt(to, c.loc.Text(apperrors.CodeOf(err).CatalogKey()), from, to)
			return false
		}
	}
	c.hideError()
	return true
}

// UpdateSpecialities rebuilds the speciality options for the selected
// direction, keeping the saved choice when it is still offered.
func (c *Controller) UpdateSpecialities() {
	dir := c.doc.QuerySelector(c.cfg.Direction)
	specSelect := c.doc.QuerySelector(c.cfg.Speciality)
	if dir == nil || specSelect == nil {
		return
	}
	selected := specSelect.Data("selected")
	if selected == "" {
		selected = specSelect.Value()
	}
	for _, opt := range specSelect.QuerySelectorAll("option") {
		opt.Remove()
	}
	placeholder := c.doc.CreateElement("option")
	placeholder.SetAttr("value", "")
	placeholder.SetTextContent(c.loc.Text("notices.vacancy.select_speciality"))
	specSelect.AppendChild(placeholder)
	for _, name := range Specialities[dir.Value()] {
		opt := c.doc.CreateElement("option")
		opt.SetAttr("value", name)
		opt.SetTextContent(name)
		if name == selected {
			opt.SetAttr("selected", "")
		}
		specSelect.AppendChild(opt)
	}
}

// Release detaches the listeners and stops the notice timer.
func (c *Controller) Release() {
	c.releases.ReleaseAll()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) dates() (dom.Element, dom.Element) {
	return c.doc.QuerySelector(c.cfg.Start), c.doc.QuerySelector(c.cfg.End)
}

func (c *Controller) showError(text string) {
	start, end := c.dates()
	c.showErrorAt(end, text, start, end)
}

// showErrorAt places the message after anchor and marks the fields.
func (c *Controller) showErrorAt(anchor dom.Element, text string, fields ...dom.Element) {
	c.hideError()
	if anchor == nil {
		return
	}
	for _, field := range fields {
		if field == nil {
			continue
		}
		if parent := field.Parent(); parent != nil {
			parent.AddClass("has-error")
		}
	}
	msg := c.doc.CreateElement("div")
	msg.AddClass("date-error")
	msg.SetTextContent(text)
	if parent := anchor.Parent(); parent != nil {
		parent.AppendChild(msg)
	}
}

func (c *Controller) hideError() {
	for _, msg := range c.doc.QuerySelectorAll(".date-error") {
		msg.Remove()
	}
	for _, el := range c.doc.QuerySelectorAll(".has-error") {
		el.RemoveClass("has-error")
	}
}

// ErrorText returns the text of the inline error, "" when none is shown.
func (c *Controller) ErrorText() string {
	if msg := c.doc.QuerySelector(".date-error"); msg != nil {
		return msg.TextContent()
	}
	return ""
}
