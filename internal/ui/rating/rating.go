// Package rating drives the star picker of the review form.
package rating

import (
	"strconv"
	"strings"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

const (
	// Min and Max bound the rating.
	Min = 1
	Max = 5

	activeClass = "active"
	filledStar  = "★"
	emptyStar   = "☆"
	filledColor = "#f39c12"
	emptyColor  = "#bdc3c7"
)

// Config names the picker elements.
type Config struct {
	Stars string
	Input string
}

func (c Config) withDefaults() Config {
	if c.Stars == "" {
		c.Stars = ".star-input"
	}
	if c.Input == "" {
		c.Input = "#rating"
	}
	return c
}

// Clamp limits v to Min..Max.
func Clamp(v int) int {
	switch {
	case v < Min:
		return Min
	case v > Max:
		return Max
	}
	return v
}

// Parse reads a stored rating. Blank or malformed values read as Max.
func Parse(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Max
	}
	return Clamp(v)
}

// Picker is the star rating widget.
type Picker struct {
	doc      dom.Document
	cfg      Config
	releases dom.Releases
}

// New returns the picker, or nil when the page has no stars or no input.
func New(doc dom.Document, cfg Config) *Picker {
	cfg = cfg.withDefaults()
	if len(doc.QuerySelectorAll(cfg.Stars)) == 0 || doc.QuerySelector(cfg.Input) == nil {
		return nil
	}
	return &Picker{doc: doc, cfg: cfg}
}

// Bind wires click and hover on every star and resets the picker.
func (p *Picker) Bind() {
	for i, star := range p.stars() {
		value := i + 1
		p.releases.Add(star.AddEventListener("click", func(dom.Event) { p.Set(value) }))
		p.releases.Add(star.AddEventListener("mouseenter", func(dom.Event) { p.paint(value, false) }))
		p.releases.Add(star.AddEventListener("mouseleave", func(dom.Event) { p.Sync() }))
	}
	p.Reset()
}

// Set stores v, clamped, and repaints the stars.
func (p *Picker) Set(v int) {
	v = Clamp(v)
	p.paint(v, true)
	if input := p.doc.QuerySelector(p.cfg.Input); input != nil {
		input.SetValue(strconv.Itoa(v))
	}
}

// Reset returns the picker to the maximum rating.
func (p *Picker) Reset() {
	p.Set(Max)
}

// Sync repaints the stars from the stored value, e.g. after a form load.
func (p *Picker) Sync() {
	p.Set(p.Value())
}

// Value returns the stored rating.
func (p *Picker) Value() int {
	if input := p.doc.QuerySelector(p.cfg.Input); input != nil {
		return Parse(input.Value())
	}
	return Max
}

// Release detaches the star listeners.
func (p *Picker) Release() {
	if p == nil {
		return
	}
	p.releases.ReleaseAll()
}

func (p *Picker) stars() []dom.Element {
	return p.doc.QuerySelectorAll(p.cfg.Stars)
}

// paint fills the first v stars. The active class only follows committed
// values, not hover previews.
func (p *Picker) paint(v int, commit bool) {
	for i, star := range p.stars() {
		if i < v {
			star.SetTextContent(filledStar)
			star.SetStyle("color", filledColor)
			if commit {
				star.AddClass(activeClass)
			}
			continue
		}
		star.SetTextContent(emptyStar)
		star.SetStyle("color", emptyColor)
		if commit {
			star.RemoveClass(activeClass)
		}
	}
}
