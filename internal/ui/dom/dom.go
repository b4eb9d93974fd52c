// Package dom defines the slice of the browser document model the page
// controllers depend on. The jsdom package binds it to syscall/js and the
// htmldom package provides an in-memory implementation.
package dom

// Release detaches a listener registered with AddEventListener. Calling it
// more than once is a no-op.
type Release func()

// Handler receives dispatched events.
type Handler func(Event)

// Event is a dispatched DOM event.
type Event interface {
	Type() string
	// Target is the element the event was dispatched on. It is nil for
	// events dispatched on the document itself.
	Target() Element
	// AnimationName is set for animationend events.
	AnimationName() string
	// Key is set for keyboard events.
	Key() string
	PreventDefault()
	DefaultPrevented() bool
}

// Element is a DOM element. Methods returning an Element return a nil
// interface when nothing matches.
type Element interface {
	TagName() string
	ID() string

	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	// Data reads a data-* attribute by its dataset name, e.g. "redirectAfter"
	// for data-redirect-after.
	Data(name string) string

	HasClass(name string) bool
	AddClass(name string)
	RemoveClass(name string)

	// Style reads an inline style property.
	Style(property string) string
	// SetStyle writes an inline style property. An empty value removes it.
	SetStyle(property, value string)

	TextContent() string
	SetTextContent(text string)

	Value() string
	SetValue(value string)
	Checked() bool
	SetChecked(checked bool)

	Matches(selector string) bool
	Closest(selector string) Element
	QuerySelector(selector string) Element
	QuerySelectorAll(selector string) []Element
	Parent() Element
	AppendChild(child Element)
	Remove()
	// Connected reports whether the element is attached to the document.
	Connected() bool
	// Same reports whether other wraps the same underlying node.
	Same(other Element) bool

	AddEventListener(eventType string, handler Handler) Release
}

// Document is the page document.
type Document interface {
	Body() Element
	GetElementByID(id string) Element
	QuerySelector(selector string) Element
	QuerySelectorAll(selector string) []Element
	CreateElement(tag string) Element
	AddEventListener(eventType string, handler Handler) Release
}

// Window exposes the navigation and dialog surface of the browser window.
type Window interface {
	// Location returns the absolute URL of the current page.
	Location() string
	// ReplaceURL rewrites the address bar without reloading.
	ReplaceURL(href string)
	// Navigate loads href.
	Navigate(href string)
	Reload()
	Confirm(message string) bool
	Storage() Storage
}

// Storage is the window's local storage.
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string)
	RemoveItem(key string)
}

// Releases collects listener releases so a controller can drop them together.
type Releases []Release

// Add appends r when it is non-nil.
func (rs *Releases) Add(r Release) {
	if r != nil {
		*rs = append(*rs, r)
	}
}

// ReleaseAll calls every release in reverse registration order and empties
// the collection.
func (rs *Releases) ReleaseAll() {
	items := *rs
	for i := len(items) - 1; i >= 0; i-- {
		items[i]()
	}
	*rs = nil
}

// Show clears an inline display override, or sets display when a value is
// given.
func Show(el Element, display string) {
	if el == nil {
		return
	}
	el.SetStyle("display", display)
}

// Hide sets display:none.
func Hide(el Element) {
	if el == nil {
		return
	}
	el.SetStyle("display", "none")
}

// Hidden reports whether el carries an inline display:none.
func Hidden(el Element) bool {
	return el != nil && el.Style("display") == "none"
}
