package htmldom

import (
	"strings"
	"unicode"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

type element struct {
	doc *Document
	n   *html.Node
}

func (e *element) TagName() string {
	return strings.ToUpper(e.n.Data)
}

func (e *element) ID() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return getAttr(e.n, "id")
}

func (e *element) Attr(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return lookupAttr(e.n, name)
}

func (e *element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.n, name, value)
}

func (e *element) RemoveAttr(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.n, name)
}

func (e *element) Data(name string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return getAttr(e.n, datasetAttr(name))
}

func (e *element) HasClass(name string) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for _, c := range strings.Fields(getAttr(e.n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

func (e *element) AddClass(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	classes := strings.Fields(getAttr(e.n, "class"))
	for _, c := range classes {
		if c == name {
			return
		}
	}
	setAttr(e.n, "class", strings.Join(append(classes, name), " "))
}

func (e *element) RemoveClass(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	classes := strings.Fields(getAttr(e.n, "class"))
	kept := classes[:0]
	for _, c := range classes {
		if c != name {
			kept = append(kept, c)
		}
	}
	setAttr(e.n, "class", strings.Join(kept, " "))
}

func (e *element) Style(property string) string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for _, decl := range parseStyle(getAttr(e.n, "style")) {
		if decl.property == property {
			return decl.value
		}
	}
	return ""
}

func (e *element) SetStyle(property, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	decls := parseStyle(getAttr(e.n, "style"))
	out := decls[:0]
	found := false
	for _, decl := range decls {
		if decl.property == property {
			found = true
			if value == "" {
				continue
			}
			decl.value = value
		}
		out = append(out, decl)
	}
	if !found && value != "" {
		out = append(out, styleDecl{property: property, value: value})
	}
	if len(out) == 0 {
		removeAttr(e.n, "style")
		return
	}
	setAttr(e.n, "style", renderStyle(out))
}

func (e *element) TextContent() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return textContent(e.n)
}

func (e *element) SetTextContent(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setText(e.n, text)
}

func (e *element) Value() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	switch e.n.DataAtom {
	case atom.Textarea:
		return textContent(e.n)
	case atom.Select:
		var first *html.Node
		for _, opt := range options(e.n) {
			if first == nil {
				first = opt
			}
			if _, ok := lookupAttr(opt, "selected"); ok {
				return optionValue(opt)
			}
		}
		if first != nil {
			return optionValue(first)
		}
		return ""
	default:
		return getAttr(e.n, "value")
	}
}

func (e *element) SetValue(value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	switch e.n.DataAtom {
	case atom.Textarea:
		setText(e.n, value)
	case atom.Select:
		for _, opt := range options(e.n) {
			if optionValue(opt) == value {
				setAttr(opt, "selected", "")
			} else {
				removeAttr(opt, "selected")
			}
		}
	default:
		setAttr(e.n, "value", value)
	}
}

func (e *element) Checked() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	_, ok := lookupAttr(e.n, "checked")
	return ok
}

func (e *element) SetChecked(checked bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if checked {
		setAttr(e.n, "checked", "")
	} else {
		removeAttr(e.n, "checked")
	}
}

func (e *element) Matches(selector string) bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	sel, ok := e.doc.compile(selector)
	return ok && sel.Match(e.n)
}

func (e *element) Closest(selector string) dom.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	sel, ok := e.doc.compile(selector)
	if !ok {
		return nil
	}
	for n := e.n; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && sel.Match(n) {
			return e.doc.wrap(n)
		}
	}
	return nil
}

func (e *element) QuerySelector(selector string) dom.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	sel, ok := e.doc.compile(selector)
	if !ok {
		return nil
	}
	return e.doc.wrap(cascadia.Query(e.n, sel))
}

func (e *element) QuerySelectorAll(selector string) []dom.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	sel, ok := e.doc.compile(selector)
	if !ok {
		return nil
	}
	return e.doc.wrapAll(cascadia.QueryAll(e.n, sel))
}

func (e *element) Parent() dom.Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.n.Parent == nil || e.n.Parent.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(e.n.Parent)
}

func (e *element) AppendChild(child dom.Element) {
	c, ok := child.(*element)
	if !ok || c == nil {
		return
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if c.n.Parent != nil {
		c.n.Parent.RemoveChild(c.n)
	}
	e.n.AppendChild(c.n)
}

func (e *element) Remove() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.n.Parent != nil {
		e.n.Parent.RemoveChild(e.n)
	}
}

func (e *element) Connected() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := e.n; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

func (e *element) Same(other dom.Element) bool {
	o, ok := other.(*element)
	return ok && o != nil && o.n == e.n
}

func (e *element) AddEventListener(eventType string, handler dom.Handler) dom.Release {
	return e.doc.addElementListener(e.n, eventType, handler)
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func getAttr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// datasetAttr maps a dataset key such as "redirectAfter" to its attribute
// name, data-redirect-after.
func datasetAttr(name string) string {
	var b strings.Builder
	b.WriteString("data-")
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func options(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Option {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := lookupAttr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(opt))
}

type styleDecl struct {
	property string
	value    string
}

func parseStyle(raw string) []styleDecl {
	var out []styleDecl
	for _, part := range strings.Split(raw, ";") {
		property, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" {
			continue
		}
		out = append(out, styleDecl{property: property, value: value})
	}
	return out
}

func renderStyle(decls []styleDecl) string {
	parts := make([]string, 0, len(decls))
	for _, decl := range decls {
		parts = append(parts, decl.property+": "+decl.value)
	}
	return strings.Join(parts, "; ")
}
