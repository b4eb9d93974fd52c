// Package notify manages the transient flash notifications of an admin page:
// server-rendered ones adopted at load and client-side ones raised by
// controllers.
package notify

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/campusdesk/backoffice/internal/platform/id"
	"github.com/campusdesk/backoffice/internal/platform/timeouts"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Kinds lists every kind in marker lookup order.
var Kinds = []Kind{KindSuccess, KindError, KindWarning, KindInfo}

// Dismissal is how a notification leaves the page.
type Dismissal int

const (
	// DismissAuto removes the notification when its dismissal animation ends
	// or its timer fires.
	DismissAuto Dismissal = iota
	// DismissManual adds a close control and a fallback timer.
	DismissManual
	// DismissRedirect navigates to the redirect target immediately.
	DismissRedirect
)

func (d Dismissal) String() string {
	switch d {
	case DismissAuto:
		return "auto"
	case DismissManual:
		return "manual"
	case DismissRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Policy picks the dismissal for a kind. redirect reports whether the page
// configured a redirect target.
type Policy func(kind Kind, redirect bool) Dismissal

// DefaultPolicy redirects on success when a target exists, requires a manual
// close for errors and auto-dismisses everything else.
func DefaultPolicy(kind Kind, redirect bool) Dismissal {
	switch kind {
	case KindSuccess:
		if redirect {
			return DismissRedirect
		}
		return DismissAuto
	case KindError:
		return DismissManual
	default:
		return DismissAuto
	}
}

const (
	// FlagClass marks <body> while notifications are active.
	FlagClass = "has-flash"
	// CountAttr mirrors the active count on <body>.
	CountAttr = "data-flash-count"
	// DefaultAnimation is the CSS animation whose end dismisses a notification.
	DefaultAnimation = "flashAnimation"
)

// Config holds the page-level notification settings. Zero fields take the
// defaults.
type Config struct {
	// Container receives client-side notifications. It is created under
	// <body> when missing.
	Container string
	// Item selects server-rendered notifications.
	Item string
	// Animation is the dismissal animation name.
	Animation string
	// AutoDelay is the timer for auto-dismissed notifications.
	AutoDelay time.Duration
	// ErrorFallbackDelay removes manual notifications nobody closed.
	ErrorFallbackDelay time.Duration
	// RedirectTarget overrides <body data-redirect-after>.
	RedirectTarget string
	// CloseLabel is the accessible label of the close control.
	CloseLabel string
	Policy     Policy
}

func (c Config) withDefaults() Config {
	if c.Container == "" {
		c.Container = "#flash-messages"
	}
	if c.Item == "" {
		c.Item = ".flash"
	}
	if c.Animation == "" {
		c.Animation = DefaultAnimation
	}
	if c.AutoDelay <= 0 {
		c.AutoDelay = timeouts.FlashAutoDismiss
	}
	if c.ErrorFallbackDelay <= 0 {
		c.ErrorFallbackDelay = timeouts.ErrorFallback
	}
	if c.CloseLabel == "" {
		c.CloseLabel = "Close"
	}
	if c.Policy == nil {
		c.Policy = DefaultPolicy
	}
	return c
}

// Notification is one displayed message.
type Notification struct {
	ID        string
	Kind      Kind
	Text      string
	Dismissal Dismissal
	CreatedAt time.Time

	el        dom.Element
	timer     clock.Timer
	releases  dom.Releases
	dismissed bool
}

// Dismissed reports whether the notification has left the active set.
func (n *Notification) Dismissed() bool {
	return n != nil && n.dismissed
}

// Manager owns the active notifications of one page.
type Manager struct {
	mu        sync.Mutex
	doc       dom.Document
	win       dom.Window
	clock     clock.Clock
	cfg       Config
	active    []*Notification
	navigated bool
	closed    bool
}

// New returns a Manager for doc. The redirect target falls back to the body's
// data-redirect-after attribute.
func New(doc dom.Document, win dom.Window, clk clock.Clock, cfg Config) *Manager {
	cfg = cfg.withDefaults()
	if cfg.RedirectTarget == "" {
		if body := doc.Body(); body != nil {
			cfg.RedirectTarget = body.Data("redirectAfter")
		}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Manager{doc: doc, win: win, clock: clk, cfg: cfg}
}

// RedirectTarget returns the configured post-notification target.
func (m *Manager) RedirectTarget() string {
	return m.cfg.RedirectTarget
}

// Adopt takes over the server-rendered notifications present in the
// document. A success notification under a redirect policy navigates at once.
func (m *Manager) Adopt() []*Notification {
	var adopted []*Notification
	redirect := ""
	pending := false
	for _, el := range m.doc.QuerySelectorAll(m.cfg.Item) {
		kind := kindOf(el)
		dismissal := m.cfg.Policy(kind, m.cfg.RedirectTarget != "")

		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			break
		}
		n := m.newNotificationLocked(kind, el.TextContent(), dismissal)
		if dismissal == DismissRedirect {
			n.dismissed = true
			pending = true
			redirect = m.claimNavigationLocked()
			m.mu.Unlock()
			adopted = append(adopted, n)
			continue
		}
		n.el = el
		m.activateLocked(n)
		m.mu.Unlock()
		adopted = append(adopted, n)
	}
	if len(adopted) > 0 {
		// Redirect-pending markup stays on screen until the page unloads, so
		// the body keeps the flag while the count covers only live ones.
		m.mu.Lock()
		m.syncFlagLocked()
		if body := m.doc.Body(); pending && body != nil {
			body.AddClass(FlagClass)
		}
		m.mu.Unlock()
	}
	m.navigate(redirect)
	return adopted
}

// Show renders a new notification into the container and schedules its
// dismissal.
func (m *Manager) Show(kind Kind, text string) *Notification {
	dismissal := m.cfg.Policy(kind, m.cfg.RedirectTarget != "")

	m.mu.Lock()
	n := m.newNotificationLocked(kind, text, dismissal)
	if m.closed {
		n.dismissed = true
		m.mu.Unlock()
		return n
	}
	if dismissal == DismissRedirect {
		n.dismissed = true
		target := m.claimNavigationLocked()
		m.mu.Unlock()
		m.navigate(target)
		return n
	}
	m.mu.Unlock()

	el := m.render(n)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		el.Remove()
		n.dismissed = true
		return n
	}
	n.el = el
	m.activateLocked(n)
	return n
}

// Dismiss removes n from the page. The last dismissal clears the page flag
// and follows the redirect target. Dismissing twice is a no-op.
func (m *Manager) Dismiss(n *Notification) {
	if n == nil {
		return
	}
	m.mu.Lock()
	if n.dismissed {
		m.mu.Unlock()
		return
	}
	n.dismissed = true
	if n.timer != nil {
		n.timer.Stop()
	}
	n.releases.ReleaseAll()
	if n.el != nil {
		n.el.Remove()
	}
	m.removeLocked(n)
	target := ""
	if len(m.active) == 0 && !m.closed {
		target = m.claimNavigationLocked()
	}
	m.mu.Unlock()
	m.navigate(target)
}

// Active returns the number of notifications not yet dismissed.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Navigated reports whether the manager has sent the window to the redirect
// target.
func (m *Manager) Navigated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.navigated
}

// Close stops every timer and releases every listener. Notifications stay in
// the DOM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, n := range m.active {
		if n.timer != nil {
			n.timer.Stop()
		}
		n.releases.ReleaseAll()
	}
}

func (m *Manager) newNotificationLocked(kind Kind, text string, dismissal Dismissal) *Notification {
	nid, err := id.WithPrefix("flash")
	if err != nil {
		log.Printf("notification id: %v", err)
		nid = "flash-" + strconv.FormatInt(m.clock.Now().UnixNano(), 36)
	}
	return &Notification{
		ID:        nid,
		Kind:      kind,
		Text:      text,
		Dismissal: dismissal,
		CreatedAt: m.clock.Now(),
	}
}

// activateLocked adds n to the active set and wires its dismissal triggers.
func (m *Manager) activateLocked(n *Notification) {
	m.active = append(m.active, n)
	n.releases.Add(n.el.AddEventListener("animationend", func(ev dom.Event) {
		if ev.AnimationName() == m.cfg.Animation {
			m.Dismiss(n)
		}
	}))
	delay := m.cfg.AutoDelay
	if n.Dismissal == DismissManual {
		delay = m.cfg.ErrorFallbackDelay
		if closer := n.el.QuerySelector(".flash-close"); closer != nil {
			n.releases.Add(closer.AddEventListener("click", func(dom.Event) { m.Dismiss(n) }))
		} else {
			closer := m.doc.CreateElement("button")
			closer.SetAttr("type", "button")
			closer.SetAttr("aria-label", m.cfg.CloseLabel)
			closer.AddClass("flash-close")
			closer.SetTextContent("×")
			n.el.AppendChild(closer)
			n.releases.Add(closer.AddEventListener("click", func(dom.Event) { m.Dismiss(n) }))
		}
	}
	n.timer = m.clock.AfterFunc(delay, func() { m.Dismiss(n) })
	m.syncFlagLocked()
}

func (m *Manager) removeLocked(n *Notification) {
	for i, candidate := range m.active {
		if candidate == n {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}
	m.syncFlagLocked()
}

func (m *Manager) syncFlagLocked() {
	body := m.doc.Body()
	if body == nil {
		return
	}
	body.SetAttr(CountAttr, strconv.Itoa(len(m.active)))
	if len(m.active) > 0 {
		body.AddClass(FlagClass)
	} else {
		body.RemoveClass(FlagClass)
	}
}

// claimNavigationLocked returns the redirect target the first time it is
// called with one configured and "" afterwards.
func (m *Manager) claimNavigationLocked() string {
	if m.cfg.RedirectTarget == "" || m.navigated {
		return ""
	}
	m.navigated = true
	return m.cfg.RedirectTarget
}

func (m *Manager) navigate(target string) {
	if target == "" || m.win == nil {
		return
	}
	m.win.Navigate(target)
}

func (m *Manager) render(n *Notification) dom.Element {
	container := m.doc.QuerySelector(m.cfg.Container)
	if container == nil {
		container = m.doc.CreateElement("div")
		container.SetAttr("id", "flash-messages")
		if body := m.doc.Body(); body != nil {
			body.AppendChild(container)
		}
	}
	wrapper := m.doc.CreateElement("div")
	wrapper.AddClass("flash")
	wrapper.SetAttr("id", n.ID)
	wrapper.SetAttr("role", "status")
	inner := m.doc.CreateElement("div")
	inner.AddClass("flash-message")
	inner.AddClass("flash-" + string(n.Kind))
	inner.AddClass(string(n.Kind))
	inner.SetTextContent(n.Text)
	wrapper.AppendChild(inner)
	container.AppendChild(wrapper)
	return wrapper
}

// kindOf classifies server markup by its marked inner element.
func kindOf(el dom.Element) Kind {
	for _, kind := range Kinds {
		if el.HasClass(string(kind)) || el.QuerySelector("."+string(kind)) != nil {
			return kind
		}
	}
	return KindInfo
}
