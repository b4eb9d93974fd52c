package htmldom

import "github.com/campusdesk/backoffice/internal/ui/dom"

// Event is a synthetic event for Document.Dispatch.
type Event struct {
	eventType     string
	animationName string
	key           string
	target        dom.Element
	prevented     bool
}

// NewEvent returns a plain event of the given type.
func NewEvent(eventType string) *Event {
	return &Event{eventType: eventType}
}

// AnimationEnd returns an animationend event for the named animation.
func AnimationEnd(name string) *Event {
	return &Event{eventType: "animationend", animationName: name}
}

// KeyDown returns a keydown event for key.
func KeyDown(key string) *Event {
	return &Event{eventType: "keydown", key: key}
}

func (e *Event) Type() string           { return e.eventType }
func (e *Event) Target() dom.Element    { return e.target }
func (e *Event) AnimationName() string  { return e.animationName }
func (e *Event) Key() string            { return e.key }
func (e *Event) PreventDefault()        { e.prevented = true }
func (e *Event) DefaultPrevented() bool { return e.prevented }
