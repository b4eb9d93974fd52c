//go:build js && wasm

package jsdom

import (
	"syscall/js"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

// Window wraps the global window.
type Window struct {
	v js.Value
}

// NewWindow returns the page window.
func NewWindow() *Window {
	return &Window{v: js.Global()}
}

func (w *Window) Location() string {
	return w.v.Get("location").Get("href").String()
}

func (w *Window) ReplaceURL(href string) {
	w.v.Get("history").Call("replaceState", js.Null(), "", href)
}

func (w *Window) Navigate(href string) {
	w.v.Get("location").Call("assign", href)
}

func (w *Window) Reload() {
	w.v.Get("location").Call("reload")
}

func (w *Window) Confirm(message string) bool {
	return w.v.Call("confirm", message).Truthy()
}

func (w *Window) Storage() dom.Storage {
	ls := w.v.Get("localStorage")
	if !ls.Truthy() {
		return nil
	}
	return storage{v: ls}
}

type storage struct {
	v js.Value
}

func (s storage) GetItem(key string) (string, bool) {
	v := s.v.Call("getItem", key)
	if v.Type() != js.TypeString {
		return "", false
	}
	return v.String(), true
}

func (s storage) SetItem(key, value string) { s.v.Call("setItem", key, value) }
func (s storage) RemoveItem(key string)     { s.v.Call("removeItem", key) }
