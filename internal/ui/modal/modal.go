// Package modal implements the two-state dialog used by the entity pages.
package modal

import (
	"sync"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

// State is the dialog state.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Hooks run on transitions. OnOpen populates the dialog; OnClose resets it.
type Hooks struct {
	OnOpen  func()
	OnClose func()
}

// Modal is one dialog element. Opening an open modal or closing a closed one
// does nothing.
type Modal struct {
	mu       sync.Mutex
	doc      dom.Document
	el       dom.Element
	hooks    Hooks
	state    State
	display  string
	releases dom.Releases
}

// New binds the dialog matched by selector. It returns nil when the page has
// no such element.
func New(doc dom.Document, selector string, hooks Hooks) *Modal {
	el := doc.QuerySelector(selector)
	if el == nil {
		return nil
	}
	m := &Modal{doc: doc, el: el, hooks: hooks, display: "block"}
	m.releases.Add(el.AddEventListener("click", func(ev dom.Event) {
		if target := ev.Target(); target != nil && target.Same(el) {
			m.Close()
		}
	}))
	m.releases.Add(doc.AddEventListener("keydown", func(ev dom.Event) {
		if ev.Key() == "Escape" {
			m.Close()
		}
	}))
	for _, closer := range el.QuerySelectorAll("[data-modal-close], .close") {
		m.releases.Add(closer.AddEventListener("click", func(ev dom.Event) {
			ev.PreventDefault()
			m.Close()
		}))
	}
	return m
}

// Element returns the dialog element.
func (m *Modal) Element() dom.Element {
	if m == nil {
		return nil
	}
	return m.el
}

// State returns the current state.
func (m *Modal) State() State {
	if m == nil {
		return Closed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Open runs OnOpen, shows the dialog and locks body scrolling.
func (m *Modal) Open() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.state == Open {
		m.mu.Unlock()
		return
	}
	m.state = Open
	m.mu.Unlock()

	if m.hooks.OnOpen != nil {
		m.hooks.OnOpen()
	}
	dom.Show(m.el, m.display)
	if body := m.doc.Body(); body != nil {
		body.SetStyle("overflow", "hidden")
	}
}

// Close hides the dialog, restores scrolling and runs OnClose.
func (m *Modal) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return
	}
	m.state = Closed
	m.mu.Unlock()

	dom.Hide(m.el)
	if body := m.doc.Body(); body != nil {
		body.SetStyle("overflow", "")
	}
	if m.hooks.OnClose != nil {
		m.hooks.OnClose()
	}
}

// Release detaches the modal's listeners.
func (m *Modal) Release() {
	if m == nil {
		return
	}
	m.releases.ReleaseAll()
}
