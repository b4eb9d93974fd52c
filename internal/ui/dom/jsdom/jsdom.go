//go:build js && wasm

// Package jsdom binds the dom interfaces to the browser through syscall/js.
//
// Listener callbacks run on the JavaScript event loop. Handlers that block
// (network, channels) must hand off to a goroutine.
package jsdom

import (
	"sync"
	"syscall/js"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

const elementNode = 1

// Document wraps window.document.
type Document struct {
	v js.Value
}

// NewDocument returns the page document.
func NewDocument() *Document {
	return &Document{v: js.Global().Get("document")}
}

func (d *Document) Body() dom.Element {
	return wrap(d.v.Get("body"))
}

func (d *Document) GetElementByID(id string) dom.Element {
	return wrap(d.v.Call("getElementById", id))
}

func (d *Document) QuerySelector(selector string) dom.Element {
	return querySelector(d.v, selector)
}

func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	return querySelectorAll(d.v, selector)
}

func (d *Document) CreateElement(tag string) dom.Element {
	return wrap(d.v.Call("createElement", tag))
}

func (d *Document) AddEventListener(eventType string, handler dom.Handler) dom.Release {
	return listen(d.v, eventType, handler)
}

type element struct {
	v js.Value
}

// wrap returns nil for null, undefined and non-element nodes.
func wrap(v js.Value) dom.Element {
	if !v.Truthy() {
		return nil
	}
	if nt := v.Get("nodeType"); nt.Type() != js.TypeNumber || nt.Int() != elementNode {
		return nil
	}
	return &element{v: v}
}

func (e *element) TagName() string { return e.v.Get("tagName").String() }
func (e *element) ID() string      { return e.v.Get("id").String() }

func (e *element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e *element) SetAttr(name, value string) { e.v.Call("setAttribute", name, value) }
func (e *element) RemoveAttr(name string)     { e.v.Call("removeAttribute", name) }

func (e *element) Data(name string) string {
	v := e.v.Get("dataset").Get(name)
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

func (e *element) HasClass(name string) bool {
	return e.v.Get("classList").Call("contains", name).Bool()
}

func (e *element) AddClass(name string)    { e.v.Get("classList").Call("add", name) }
func (e *element) RemoveClass(name string) { e.v.Get("classList").Call("remove", name) }

func (e *element) Style(property string) string {
	return e.v.Get("style").Call("getPropertyValue", property).String()
}

func (e *element) SetStyle(property, value string) {
	style := e.v.Get("style")
	if value == "" {
		style.Call("removeProperty", property)
		return
	}
	style.Call("setProperty", property, value)
}

func (e *element) TextContent() string        { return e.v.Get("textContent").String() }
func (e *element) SetTextContent(text string) { e.v.Set("textContent", text) }

func (e *element) Value() string {
	v := e.v.Get("value")
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

func (e *element) SetValue(value string) { e.v.Set("value", value) }
func (e *element) Checked() bool         { return e.v.Get("checked").Truthy() }
func (e *element) SetChecked(checked bool) {
	e.v.Set("checked", checked)
}

func (e *element) Matches(selector string) bool {
	return e.v.Call("matches", selector).Bool()
}

func (e *element) Closest(selector string) dom.Element {
	return wrap(e.v.Call("closest", selector))
}

func (e *element) QuerySelector(selector string) dom.Element {
	return querySelector(e.v, selector)
}

func (e *element) QuerySelectorAll(selector string) []dom.Element {
	return querySelectorAll(e.v, selector)
}

func (e *element) Parent() dom.Element { return wrap(e.v.Get("parentElement")) }

func (e *element) AppendChild(child dom.Element) {
	if c, ok := child.(*element); ok && c != nil {
		e.v.Call("appendChild", c.v)
	}
}

func (e *element) Remove()         { e.v.Call("remove") }
func (e *element) Connected() bool { return e.v.Get("isConnected").Bool() }

func (e *element) Same(other dom.Element) bool {
	o, ok := other.(*element)
	return ok && o != nil && e.v.Equal(o.v)
}

func (e *element) AddEventListener(eventType string, handler dom.Handler) dom.Release {
	return listen(e.v, eventType, handler)
}

type event struct {
	v js.Value
}

func (ev event) Type() string        { return ev.v.Get("type").String() }
func (ev event) Target() dom.Element { return wrap(ev.v.Get("target")) }

func (ev event) AnimationName() string {
	return stringProp(ev.v, "animationName")
}

func (ev event) Key() string { return stringProp(ev.v, "key") }

func (ev event) PreventDefault()        { ev.v.Call("preventDefault") }
func (ev event) DefaultPrevented() bool { return ev.v.Get("defaultPrevented").Bool() }

func stringProp(v js.Value, name string) string {
	p := v.Get(name)
	if p.Type() != js.TypeString {
		return ""
	}
	return p.String()
}

// listen registers handler on target. The release removes the listener and
// frees the js.Func.
func listen(target js.Value, eventType string, handler dom.Handler) dom.Release {
	fn := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) > 0 {
			handler(event{v: args[0]})
		}
		return nil
	})
	target.Call("addEventListener", eventType, fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			target.Call("removeEventListener", eventType, fn)
			fn.Release()
		})
	}
}

func querySelector(root js.Value, selector string) dom.Element {
	v, ok := safeCall(root, "querySelector", selector)
	if !ok {
		return nil
	}
	return wrap(v)
}

func querySelectorAll(root js.Value, selector string) []dom.Element {
	list, ok := safeCall(root, "querySelectorAll", selector)
	if !ok {
		return nil
	}
	n := list.Length()
	out := make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		if el := wrap(list.Index(i)); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// safeCall turns a SyntaxError from an invalid selector into a miss.
func safeCall(v js.Value, method string, args ...any) (result js.Value, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return v.Call(method, args...), true
}
