// Package htmldom implements the dom interfaces over golang.org/x/net/html
// trees with cascadia selectors. It backs the controller tests and the
// preview harness's server-side checks.
package htmldom

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

// Document is an in-memory dom.Document. All methods are safe for
// concurrent use; handlers run without the document lock held.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	listeners map[*html.Node]map[string][]*listener
	docLists  map[string][]*listener
	selectors map[string]cascadia.Selector
}

type listener struct {
	handler dom.Handler
	removed bool
}

// Parse builds a Document from an HTML page or fragment.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		root:      root,
		listeners: map[*html.Node]map[string][]*listener{},
		docLists:  map[string][]*listener{},
		selectors: map[string]cascadia.Selector{},
	}, nil
}

// MustParse is Parse for fixtures known to be valid.
func MustParse(markup string) *Document {
	doc, err := Parse(markup)
	if err != nil {
		panic(err)
	}
	return doc
}

// Body returns the body element.
func (d *Document) Body() dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	}))
}

// GetElementByID returns the first element with the id attribute.
func (d *Document) GetElementByID(id string) dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id == "" {
		return nil
	}
	return d.wrap(findFirst(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && getAttr(n, "id") == id
	}))
}

// QuerySelector returns the first element matching selector. Invalid
// selectors match nothing.
func (d *Document) QuerySelector(selector string) dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, ok := d.compile(selector)
	if !ok {
		return nil
	}
	return d.wrap(cascadia.Query(d.root, sel))
}

// QuerySelectorAll returns the elements matching selector in document order.
func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel, ok := d.compile(selector)
	if !ok {
		return nil
	}
	return d.wrapAll(cascadia.QueryAll(d.root, sel))
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) dom.Element {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return &element{doc: d, n: &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}}
}

// AddEventListener registers a document-level listener. Events dispatched on
// elements bubble to it after the element listeners.
func (d *Document) AddEventListener(eventType string, handler dom.Handler) dom.Release {
	d.mu.Lock()
	defer d.mu.Unlock()
	l := &listener{handler: handler}
	d.docLists[eventType] = append(d.docLists[eventType], l)
	return d.releaser(l)
}

// ListenerCount reports how many listeners are still attached anywhere in
// the document.
func (d *Document) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	for _, lists := range d.docLists {
		for _, l := range lists {
			if !l.removed {
				count++
			}
		}
	}
	for _, byType := range d.listeners {
		for _, lists := range byType {
			for _, l := range lists {
				if !l.removed {
					count++
				}
			}
		}
	}
	return count
}

// Dispatch delivers ev to target and its ancestors, then to the document.
// A nil target dispatches on the document only. It reports false when a
// handler called PreventDefault.
func (d *Document) Dispatch(target dom.Element, ev *Event) bool {
	var path []*html.Node
	if el, ok := target.(*element); ok && el != nil {
		ev.target = el
		d.mu.Lock()
		for n := el.n; n != nil; n = n.Parent {
			if n.Type == html.ElementNode {
				path = append(path, n)
			}
		}
		d.mu.Unlock()
	}
	for _, n := range path {
		for _, l := range d.snapshot(n, ev.eventType) {
			d.invoke(l, ev)
		}
	}
	for _, l := range d.snapshot(nil, ev.eventType) {
		d.invoke(l, ev)
	}
	return !ev.prevented
}

// Click dispatches a click on el. Checkboxes flip their checked state first
// and then receive a change event, as in a browser.
func (d *Document) Click(el dom.Element) bool {
	if el == nil {
		return false
	}
	checkbox := strings.EqualFold(el.TagName(), "input")
	if checkbox {
		typ, _ := el.Attr("type")
		checkbox = strings.EqualFold(typ, "checkbox")
	}
	if checkbox {
		el.SetChecked(!el.Checked())
	}
	ok := d.Dispatch(el, NewEvent("click"))
	if checkbox {
		d.Dispatch(el, NewEvent("change"))
	}
	return ok
}

// Render serializes the document.
func (d *Document) Render() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) snapshot(n *html.Node, eventType string) []*listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	var src []*listener
	if n == nil {
		src = d.docLists[eventType]
	} else if byType := d.listeners[n]; byType != nil {
		src = byType[eventType]
	}
	out := make([]*listener, len(src))
	copy(out, src)
	return out
}

func (d *Document) invoke(l *listener, ev *Event) {
	d.mu.Lock()
	removed := l.removed
	d.mu.Unlock()
	if !removed {
		l.handler(ev)
	}
}

func (d *Document) addElementListener(n *html.Node, eventType string, handler dom.Handler) dom.Release {
	d.mu.Lock()
	defer d.mu.Unlock()
	byType := d.listeners[n]
	if byType == nil {
		byType = map[string][]*listener{}
		d.listeners[n] = byType
	}
	l := &listener{handler: handler}
	byType[eventType] = append(byType[eventType], l)
	return d.releaser(l)
}

func (d *Document) releaser(l *listener) dom.Release {
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		l.removed = true
	}
}

func (d *Document) compile(selector string) (cascadia.Selector, bool) {
	if sel, ok := d.selectors[selector]; ok {
		return sel, true
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, false
	}
	d.selectors[selector] = sel
	return sel, true
}

func (d *Document) wrap(n *html.Node) dom.Element {
	if n == nil {
		return nil
	}
	return &element{doc: d, n: n}
}

func (d *Document) wrapAll(nodes []*html.Node) []dom.Element {
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{doc: d, n: n})
	}
	return out
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}
