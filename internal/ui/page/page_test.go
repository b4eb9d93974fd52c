package page

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/dom/htmldom"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
	"github.com/campusdesk/backoffice/internal/ui/modal"
)

const reviewsPage = `<body data-page="reviews">
<div id="flash-messages"><div class="flash"><div class="flash-message flash-success success">Сохранено</div></div></div>
<label><input type="checkbox" id="showHidden"> Показать скрытые</label>
<span data-filter-count="visible"></span>
<div class="reviews-container" data-is-superuser="false">
  <div class="review-card">A</div>
  <div class="review-card hidden">B</div>
  <a id="next" href="/reviews?page=2">next</a>
</div>
<div class="empty-state" style="display: none">Нет отзывов</div>
<div id="reviewModal" style="display: none">
  <h2 id="modalTitle"></h2>
  <form id="reviewForm" action="/reviews/create">
    <input type="hidden" name="csrf_token" value="t">
    <input name="author">
    <span class="star-input"></span><span class="star-input"></span><span class="star-input"></span>
    <span class="star-input"></span><span class="star-input"></span>
    <input type="hidden" id="rating" name="rating">
  </form>
</div>
</body>`

type harness struct {
	ctrl  *Controller
	doc   *htmldom.Document
	win   *htmldom.Window
	clock *clock.Manual
}

func start(t *testing.T, markup, href string) (harness, error) {
	t.Helper()
	doc := htmldom.MustParse(markup)
	win := htmldom.NewWindow(href)
	clk := clock.NewManual(time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC))
	ctrl, err := Start(Deps{
		Doc:       doc,
		Win:       win,
		Clock:     clk,
		Client:    fetch.New(win),
		Localizer: catalog.NewLocalizer(nil, "ru-RU"),
	})
	t.Cleanup(ctrl.Close)
	return harness{ctrl: ctrl, doc: doc, win: win, clock: clk}, err
}

func TestStartReviewsPage(t *testing.T) {
	t.Parallel()

	h, err := start(t, reviewsPage, "https://admin.example/reviews?show_hidden=true")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h.ctrl.Descriptor.Name != "reviews" {
		t.Fatalf("page = %q", h.ctrl.Descriptor.Name)
	}
	for name, present := range map[string]bool{
		"filter":  h.ctrl.Filter != nil,
		"form":    h.ctrl.Form != nil,
		"actions": h.ctrl.Actions != nil,
		"rating":  h.ctrl.Rating != nil,
	} {
		if !present {
			t.Errorf("%s controller not started", name)
		}
	}
	if h.ctrl.Login != nil || h.ctrl.Vacancy != nil || h.ctrl.Respond != nil {
		t.Error("unexpected controllers on the reviews page")
	}
	if h.ctrl.Notifications.Active() != 1 {
		t.Fatalf("Active() = %d, want adopted flash", h.ctrl.Notifications.Active())
	}
	if !h.doc.GetElementByID("showHidden").Checked() {
		t.Fatal("checkbox not synced from URL")
	}
	if got := h.doc.QuerySelector(`[data-filter-count="visible"]`).TextContent(); got != "2" {
		t.Fatalf("visible count = %q", got)
	}
	href, _ := h.doc.GetElementByID("next").Attr("href")
	if u, _ := url.Parse(href); u.Query().Get("show_hidden") != "true" {
		t.Fatalf("link href = %q", href)
	}
	if got := h.doc.GetElementByID("rating").Value(); got != "5" {
		t.Fatalf("rating = %q, want reset to 5", got)
	}
}

func TestCheckboxTogglesFilter(t *testing.T) {
	t.Parallel()

	h, err := start(t, reviewsPage, "https://admin.example/reviews")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	hidden := h.doc.QuerySelector(".review-card.hidden")
	if !dom.Hidden(hidden) {
		t.Fatal("hidden card shown to a standard viewer")
	}
	h.doc.Click(h.doc.GetElementByID("showHidden"))
	if dom.Hidden(hidden) {
		t.Fatal("hidden card still hidden after toggle")
	}
	replaced := h.win.Replaced()
	if len(replaced) != 1 {
		t.Fatalf("Replaced() = %v", replaced)
	}
	if u, _ := url.Parse(replaced[0]); u.Query().Get("show_hidden") != "true" {
		t.Fatalf("url = %q", replaced[0])
	}
}

func TestCreateResetsRating(t *testing.T) {
	t.Parallel()

	h, err := start(t, reviewsPage, "https://admin.example/reviews")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.ctrl.Rating.Set(2)
	h.ctrl.Form.OpenCreate()
	if h.ctrl.Form.Modal().State() != modal.Open {
		t.Fatal("dialog not open")
	}
	if got := h.ctrl.Rating.Value(); got != 5 {
		t.Fatalf("rating = %d, want 5", got)
	}
}

func TestUnknownPageStillAdoptsFlash(t *testing.T) {
	t.Parallel()

	markup := `<body data-page="reports"><div id="flash-messages"><div class="flash"><div class="flash-message info">hi</div></div></div></body>`
	h, err := start(t, markup, "https://admin.example/reports")
	if apperrors.CodeOf(err) != apperrors.CodePageUnknown {
		t.Fatalf("Start() error = %v, want %s", err, apperrors.CodePageUnknown)
	}
	if h.ctrl == nil || h.ctrl.Notifications.Active() != 1 {
		t.Fatal("expected flash adopted on an unknown page")
	}
}

func TestFeedbackResponder(t *testing.T) {
	t.Parallel()

	markup := `<body data-page="feedback">
<div class="feedback-card"><button data-respond-id="17">Ответить</button></div>
<div id="responseModal" style="display: none">
  <form id="responseForm"><input type="hidden" name="csrf_token" value="t"><textarea name="response"></textarea></form>
</div>
</body>`
	h, err := start(t, markup, "https://admin.example/feedback")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.doc.Click(h.doc.QuerySelector("[data-respond-id]"))
	action, _ := h.doc.GetElementByID("responseForm").Attr("action")
	if action != "/feedback/17/respond" {
		t.Fatalf("action = %q", action)
	}
	if h.ctrl.Respond.Current() != "17" || h.ctrl.Respond.Modal().State() != modal.Open {
		t.Fatal("dialog not open for message 17")
	}

	h.doc.QuerySelector("textarea").SetValue("Спасибо")
	h.doc.Dispatch(nil, htmldom.KeyDown("Escape"))
	if h.ctrl.Respond.Modal().State() != modal.Closed {
		t.Fatal("Escape did not close the dialog")
	}
	if got := h.doc.QuerySelector("textarea").Value(); got != "" {
		t.Fatalf("reply = %q, want cleared", got)
	}
	if got := h.doc.QuerySelector("[name=csrf_token]").Value(); got != "t" {
		t.Fatalf("csrf token = %q, want kept", got)
	}
}

func TestUsersInviteDialog(t *testing.T) {
	t.Parallel()

	markup := `<body data-page="users">
<div class="users-container" data-is-superuser="true">
  <button data-open-invite><span>Пригласить</span></button>
  <div class="user-row">admin</div>
</div>
<div id="inviteModal" style="display: none">
  <form id="inviteForm">
    <input type="hidden" name="csrf_token" value="t">
    <input type="email" name="email">
    <input type="checkbox" name="is_superuser" checked>
  </form>
</div>
</body>`
	h, err := start(t, markup, "https://admin.example/users")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(h.ctrl.Dialogs) != 1 {
		t.Fatalf("Dialogs = %d", len(h.ctrl.Dialogs))
	}
	invite := h.ctrl.Dialogs[0].Modal()
	h.doc.Click(h.doc.QuerySelector("[data-open-invite] span"))
	if invite.State() != modal.Open {
		t.Fatal("invite dialog not open")
	}

	h.doc.QuerySelector("[name=email]").SetValue("new@college.test")
	h.doc.Dispatch(nil, htmldom.KeyDown("Escape"))
	if invite.State() != modal.Closed {
		t.Fatal("Escape did not close the invite dialog")
	}
	if got := h.doc.QuerySelector("[name=email]").Value(); got != "" {
		t.Fatalf("email = %q, want cleared", got)
	}
	if h.doc.QuerySelector("[name=is_superuser]").Checked() {
		t.Fatal("checkbox not cleared")
	}
	if got := h.doc.QuerySelector("[name=csrf_token]").Value(); got != "t" {
		t.Fatalf("csrf token = %q, want kept", got)
	}
}

func TestApplicationsPage(t *testing.T) {
	t.Parallel()

	markup := `<body data-page="vacancy-applications">
<li class="tab-item active" data-tab="new">New</li><li class="tab-item" data-tab="accepted">Accepted</li>
<section id="tab-new" class="tab-panel active">
  <input type="checkbox" id="select-all"><span id="selected-count"></span>
  <input type="checkbox" class="student-checkbox-input" value="1">
  <input type="checkbox" class="student-checkbox-input" value="2">
</section>
<section id="tab-accepted" class="tab-panel"></section>
</body>`
	h, err := start(t, markup, "https://admin.example/vacancy-applications")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h.ctrl.Applications == nil || h.ctrl.Filter != nil {
		t.Fatal("expected only the applications controller")
	}
	if got := h.doc.GetElementByID("selected-count").TextContent(); got != "0" {
		t.Fatalf("count = %q before any click", got)
	}
	h.doc.Click(h.doc.GetElementByID("select-all"))
	if got := h.doc.GetElementByID("selected-count").TextContent(); got != "2" {
		t.Fatalf("count = %q", got)
	}
	h.doc.Click(h.doc.QuerySelector(`[data-tab="accepted"]`))
	if !h.doc.GetElementByID("tab-accepted").HasClass("active") {
		t.Fatal("tab not switched")
	}
}

func TestScheduleOpensFirstCollege(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"college_name":"Колледж связи","schedule":{"08:30":{"Пн":"Математика"}}}`))
	}))
	t.Cleanup(srv.Close)

	markup := `<body data-page="schedule">
<div class="schedule-container" data-is-superuser="true"><div class="schedule-item">A</div></div>
<button class="college-btn" data-college="Колледж связи">A</button>
<div id="schedule-content"></div>
</body>`
	h, err := start(t, markup, srv.URL+"/schedule")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h.ctrl.Templates == nil {
		t.Fatal("template viewer not started")
	}
	deadline := time.Now().Add(5 * time.Second)
	for h.doc.QuerySelector("#schedule-content h3") == nil {
		if time.Now().After(deadline) {
			t.Fatalf("template never rendered: %s", h.doc.Render())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !h.doc.QuerySelector(".college-btn").HasClass("active") {
		t.Fatal("first college not marked active")
	}
}

func TestCloseReleasesListeners(t *testing.T) {
	t.Parallel()

	h, err := start(t, reviewsPage, "https://admin.example/reviews")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if h.doc.ListenerCount() == 0 {
		t.Fatal("expected listeners while running")
	}
	h.ctrl.Close()
	if n := h.doc.ListenerCount(); n != 0 {
		t.Fatalf("ListenerCount() = %d after Close", n)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"reviews", "news", "colleges", "partners", "schedule", "users", "vacancies", "vacancy-applications", "feedback", "login"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
		}
	}
	if _, err := Lookup(""); apperrors.CodeOf(err) != apperrors.CodePageUnknown {
		t.Fatalf("Lookup(\"\") error = %v", err)
	}
	if len(Names()) != 12 {
		t.Fatalf("Names() = %v", Names())
	}
}
