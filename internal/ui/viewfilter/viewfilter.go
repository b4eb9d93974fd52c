// Package viewfilter keeps the "show hidden items" flag of a listing page in
// agreement across its checkbox, the page URL, the items and the in-page
// links.
package viewfilter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/campusdesk/backoffice/internal/ui/dom"
)

// Param is the query parameter carrying the flag.
const Param = "show_hidden"

// Role is the viewer's privilege level, read once at load.
type Role int

const (
	RoleStandard Role = iota
	// RoleElevated sees hidden items unless the flag was explicitly turned off.
	RoleElevated
)

// Config parameterizes the synchronizer by selectors.
type Config struct {
	// Item selects every filterable item.
	Item string
	// HiddenClass tags items hidden by default.
	HiddenClass string
	// ShownDisplay is the inline display applied to shown tagged items.
	ShownDisplay string
	// Checkbox is the toggle control.
	Checkbox string
	// EmptyState is shown when no item is visible.
	EmptyState string
	// Counts is a container holding [data-filter-count] targets.
	Counts string
	// Links selects the links rewritten by PropagateToLinks.
	Links string
}

func (c Config) withDefaults() Config {
	if c.HiddenClass == "" {
		c.HiddenClass = "hidden"
	}
	if c.Checkbox == "" {
		c.Checkbox = "#showHidden"
	}
	if c.Links == "" {
		c.Links = "a[href]"
	}
	if c.Counts == "" {
		c.Counts = "body"
	}
	return c
}

// Counts summarizes item visibility after a pass.
type Counts struct {
	Total         int
	Visible       int
	Hidden        int
	HiddenVisible int
}

// Plain is the number of untagged items.
func (c Counts) Plain() int { return c.Total - c.Hidden }

// Synchronizer owns the filter flag of one page.
type Synchronizer struct {
	doc  dom.Document
	win  dom.Window
	cfg  Config
	role Role

	showHidden bool
	// explicit is set once the URL carried true/false or the viewer toggled.
	explicit bool
}

// New returns a Synchronizer for doc. It does not touch the page until Init.
func New(doc dom.Document, win dom.Window, role Role, cfg Config) *Synchronizer {
	return &Synchronizer{doc: doc, win: win, cfg: cfg.withDefaults(), role: role}
}

// RoleFromDocument reads the role indicator: data-is-superuser="true" on
// the container or data-viewer-role="admin" on <body>.
func RoleFromDocument(doc dom.Document, container string) Role {
	if container != "" {
		if el := doc.QuerySelector(container); el != nil && el.Data("isSuperuser") == "true" {
			return RoleElevated
		}
	}
	if body := doc.Body(); body != nil && body.Data("viewerRole") == "admin" {
		return RoleElevated
	}
	return RoleStandard
}

// ReadInitialState parses the flag from the current URL. Only the literal
// "true" turns it on.
func (s *Synchronizer) ReadInitialState() bool {
	value, _ := s.readParam()
	return value
}

func (s *Synchronizer) readParam() (value bool, present bool) {
	u, err := url.Parse(s.win.Location())
	if err != nil {
		return false, false
	}
	values := paramValues(u.RawQuery)
	if len(values) == 0 {
		return false, false
	}
	switch values[0] {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

// Init runs the load-time pass: it reads the URL, syncs the checkbox and
// applies visibility, links and counts. The URL itself is left alone.
func (s *Synchronizer) Init() Counts {
	s.showHidden, s.explicit = s.readParam()
	if box := s.doc.QuerySelector(s.cfg.Checkbox); box != nil {
		box.SetChecked(s.Effective())
	}
	s.ApplyVisibility(s.Effective(), s.items())
	if s.showHidden {
		s.PropagateToLinks(true)
	}
	return s.UpdateCounts(s.items())
}

// ShowHidden returns the flag as last read or toggled.
func (s *Synchronizer) ShowHidden() bool { return s.showHidden }

// Role returns the viewer role.
func (s *Synchronizer) Role() Role { return s.role }

// Effective is the visibility actually applied to tagged items.
func (s *Synchronizer) Effective() bool {
	if s.role == RoleElevated && !s.explicit {
		return true
	}
	return s.showHidden
}

// Toggle sets the flag: URL first (replace, no reload), then visibility,
// then links, then counts.
func (s *Synchronizer) Toggle(showHidden bool) Counts {
	s.showHidden = showHidden
	s.explicit = true
	s.writeURL(showHidden)
	if box := s.doc.QuerySelector(s.cfg.Checkbox); box != nil && box.Checked() != showHidden {
		box.SetChecked(showHidden)
	}
	items := s.items()
	s.ApplyVisibility(showHidden, items)
	s.PropagateToLinks(showHidden)
	return s.UpdateCounts(items)
}

// writeURL records the flag in the address bar. An elevated viewer turning
// it off keeps an explicit show_hidden=false so a reload stays off.
func (s *Synchronizer) writeURL(showHidden bool) {
	u, err := url.Parse(s.win.Location())
	if err != nil {
		return
	}
	switch {
	case showHidden:
		u.RawQuery = withParam(u.RawQuery, "true")
	case s.role == RoleElevated:
		u.RawQuery = withParam(u.RawQuery, "false")
	default:
		u.RawQuery = withParam(u.RawQuery, "")
	}
	s.win.ReplaceURL(u.String())
}

// ApplyVisibility shows or hides every item tagged with the hidden class.
// Untagged items are not touched.
func (s *Synchronizer) ApplyVisibility(showHidden bool, items []dom.Element) {
	for _, item := range items {
		if !item.HasClass(s.cfg.HiddenClass) {
			continue
		}
		if showHidden {
			dom.Show(item, s.cfg.ShownDisplay)
		} else {
			dom.Hide(item)
		}
	}
}

// PropagateToLinks sets or removes the flag on every eligible link.
func (s *Synchronizer) PropagateToLinks(showHidden bool) {
	base, err := url.Parse(s.win.Location())
	if err != nil {
		return
	}
	for _, link := range s.doc.QuerySelectorAll(s.cfg.Links) {
		rewriteLink(base, link, showHidden)
	}
}

// HandleClick rewrites a clicked link just before navigation so links added
// after load also carry the flag.
func (s *Synchronizer) HandleClick(ev dom.Event) {
	target := ev.Target()
	if target == nil {
		return
	}
	link := target.Closest("a[href]")
	if link == nil {
		return
	}
	base, err := url.Parse(s.win.Location())
	if err != nil {
		return
	}
	rewriteLink(base, link, s.showHidden)
}

// UpdateCounts recounts items and writes the totals into the count targets
// and the empty state.
func (s *Synchronizer) UpdateCounts(items []dom.Element) Counts {
	var c Counts
	for _, item := range items {
		c.Total++
		visible := !dom.Hidden(item)
		tagged := item.HasClass(s.cfg.HiddenClass)
		if visible {
			c.Visible++
		}
		if tagged {
			c.Hidden++
			if visible {
				c.HiddenVisible++
			}
		}
	}

	if scope := s.doc.QuerySelector(s.cfg.Counts); scope != nil {
		values := map[string]int{
			"total":          c.Total,
			"visible":        c.Visible,
			"hidden":         c.Hidden,
			"hidden-visible": c.HiddenVisible,
			"plain":          c.Plain(),
		}
		for _, target := range scope.QuerySelectorAll("[data-filter-count]") {
			if v, ok := values[target.Data("filterCount")]; ok {
				target.SetTextContent(strconv.Itoa(v))
			}
		}
	}
	if s.cfg.EmptyState != "" {
		if empty := s.doc.QuerySelector(s.cfg.EmptyState); empty != nil {
			if c.Visible == 0 {
				dom.Show(empty, "flex")
			} else {
				dom.Hide(empty)
			}
		}
	}
	return c
}

// Items returns the filterable items currently in the document.
func (s *Synchronizer) Items() []dom.Element { return s.items() }

func (s *Synchronizer) items() []dom.Element {
	if s.cfg.Item == "" {
		return nil
	}
	return s.doc.QuerySelectorAll(s.cfg.Item)
}

// rewriteLink sets or deletes the flag on one link. Foreign, fragment-only,
// mailto:, tel: and javascript: links are skipped, as are malformed hrefs.
func rewriteLink(base *url.URL, link dom.Element, showHidden bool) {
	href, ok := link.Attr("href")
	if !ok {
		return
	}
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return
	}
	ref, err := url.Parse(href)
	if err != nil {
		return
	}
	if ref.Opaque != "" {
		return
	}
	switch strings.ToLower(ref.Scheme) {
	case "", "http", "https":
	default:
		return
	}
	resolved := base.ResolveReference(ref)
	if !strings.EqualFold(resolved.Scheme, base.Scheme) || !strings.EqualFold(resolved.Host, base.Host) {
		return
	}
	values := paramValues(ref.RawQuery)
	if showHidden {
		if len(values) == 1 && values[0] == "true" {
			return
		}
		ref.RawQuery = withParam(ref.RawQuery, "true")
	} else {
		if len(values) == 0 {
			return
		}
		ref.RawQuery = withParam(ref.RawQuery, "")
	}
	link.SetAttr("href", ref.String())
}

// paramValues returns the values of every flag pair in a raw query. Pairs
// that fail to unescape elsewhere in the query do not hide the flag.
func paramValues(rawQuery string) []string {
	var values []string
	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if unescape(key) != Param {
			continue
		}
		values = append(values, unescape(value))
	}
	return values
}

// withParam rewrites only the flag pairs of a raw query: the first one takes
// value in place, later ones are dropped and an empty value drops them all.
// Every other pair keeps its order and spelling.
func withParam(rawQuery, value string) string {
	var out []string
	placed := false
	if rawQuery != "" {
		for _, pair := range strings.Split(rawQuery, "&") {
			key, _, _ := strings.Cut(pair, "=")
			if unescape(key) != Param {
				out = append(out, pair)
				continue
			}
			if value != "" && !placed {
				out = append(out, Param+"="+value)
				placed = true
			}
		}
	}
	if value != "" && !placed {
		out = append(out, Param+"="+value)
	}
	return strings.Join(out, "&")
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}
