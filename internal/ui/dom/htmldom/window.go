package htmldom

import (
	"net/url"
	"sync"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

// Window records navigation side effects instead of performing them.
type Window struct {
	mu          sync.Mutex
	href        string
	replaced    []string
	navigations []string
	reloads     int
	confirms    []string
	answer      func(message string) bool
	storage     *Storage
}

// NewWindow returns a Window whose location is href. Confirm dialogs are
// accepted until SetConfirm says otherwise.
func NewWindow(href string) *Window {
	return &Window{href: href, storage: NewStorage()}
}

// SetConfirm installs the answer for Confirm.
func (w *Window) SetConfirm(answer func(message string) bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.answer = answer
}

func (w *Window) Location() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.href
}

// ReplaceURL updates the location without recording a navigation.
func (w *Window) ReplaceURL(href string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.href = w.resolveLocked(href)
	w.replaced = append(w.replaced, w.href)
}

// Navigate records a navigation. The location does not change so later
// assertions still see the page that triggered it.
func (w *Window) Navigate(href string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.navigations = append(w.navigations, w.resolveLocked(href))
}

func (w *Window) Reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reloads++
}

func (w *Window) Confirm(message string) bool {
	w.mu.Lock()
	w.confirms = append(w.confirms, message)
	answer := w.answer
	w.mu.Unlock()
	if answer == nil {
		return true
	}
	return answer(message)
}

func (w *Window) Storage() dom.Storage {
	return w.storage
}

// Replaced returns every URL written by ReplaceURL.
func (w *Window) Replaced() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.replaced...)
}

// Navigations returns every URL passed to Navigate, resolved.
func (w *Window) Navigations() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.navigations...)
}

// Reloads returns the number of Reload calls.
func (w *Window) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Confirms returns the messages of every Confirm call.
func (w *Window) Confirms() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.confirms...)
}

func (w *Window) resolveLocked(href string) string {
	base, err := url.Parse(w.href)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Storage is an in-memory dom.Storage.
type Storage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewStorage returns empty storage.
func NewStorage() *Storage {
	return &Storage{items: map[string]string{}}
}

func (s *Storage) GetItem(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *Storage) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *Storage) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}
