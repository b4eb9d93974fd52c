package login

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/clock"
	"github.com/campusdesk/backoffice/internal/ui/dom"
	"github.com/campusdesk/backoffice/internal/ui/dom/htmldom"
	"github.com/campusdesk/backoffice/internal/ui/fetch"
)

const page = `<body>
<form id="auth-form" action="/auth/login">
  <input name="username" value="admin">
  <input type="password" id="auth-form__password-input" name="password" value="secret">
  <input type="checkbox" name="remember" checked>
  <input type="checkbox" name="skip">
  <button type="submit" name="go">Войти</button>
  <span class="toggle-password"><i class="eye-show"></i><i class="eye-hide" style="display: none"></i></span>
</form>
</body>`

type harness struct {
	ctrl  *Controller
	doc   *htmldom.Document
	win   *htmldom.Window
	clock *clock.Manual
}

func newHarness(t *testing.T, handler http.HandlerFunc) harness {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	doc := htmldom.MustParse(page)
	win := htmldom.NewWindow(srv.URL + "/login")
	clk := clock.NewManual(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	ctrl := New(doc, win, fetch.New(win), clk, catalog.NewLocalizer(nil, "ru-RU"), Config{})
	if ctrl == nil {
		t.Fatal("expected controller")
	}
	return harness{ctrl: ctrl, doc: doc, win: win, clock: clk}
}

func TestSubmitSuccessStoresTokenAndRedirects(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "secret" {
			t.Errorf("form = %v", r.PostForm)
		}
		_, _ = io.WriteString(w, `{"token":"jwt-abc"}`)
	})

	values := FormValues(h.doc.QuerySelector("#auth-form"))
	result, err := h.ctrl.Submit(context.Background(), values)
	if err != nil || !result.OK {
		t.Fatalf("Submit() = %+v, %v", result, err)
	}
	if token, ok := Token(h.win.Storage()); !ok || token != "jwt-abc" {
		t.Fatalf("Token() = %q, %v", token, ok)
	}
	msg := h.doc.QuerySelector("#modal-message .modal-success .modal-title")
	if msg == nil || msg.TextContent() != "Успешный вход" {
		t.Fatalf("render = %s", h.doc.Render())
	}

	h.clock.Advance(time.Second)
	if len(h.win.Navigations()) != 0 {
		t.Fatal("redirected before delay")
	}
	h.clock.Advance(time.Second)
	nav := h.win.Navigations()
	if len(nav) != 1 {
		t.Fatalf("Navigations() = %v", nav)
	}
	if u, _ := url.Parse(nav[0]); u.Path != "/dashboard" {
		t.Fatalf("navigated to %q", nav[0])
	}
	if h.doc.GetElementByID("modal-message") != nil {
		t.Fatal("expected message closed on redirect")
	}
}

func TestInterpret(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(http.ResponseWriter, *http.Request) {})
	tests := []struct {
		name   string
		status int
		body   string
		want   Result
	}{
		{"unauthorized message", 401, `{"message":"Неверный логин"}`, Result{Title: "Ошибка авторизации", Text: "Неверный логин"}},
		{"detail string", 403, `{"detail":"Пользователь заблокирован"}`, Result{Title: "Доступ запрещен", Text: "Пользователь заблокирован"}},
		{"detail list", 422, `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, Result{Title: "Ошибка валидации", Text: "field required, too short"}},
		{"unmapped status", 418, `{}`, Result{Title: "Ошибка входа", Text: "Произошла ошибка"}},
		{"ok without token", 200, `{"status":"ok"}`, Result{Title: "Ошибка входа", Text: "Произошла ошибка"}},
		{"not json", 500, `<html>oops</html>`, Result{Title: "Ошибка клиента", Text: "Не удалось обработать ответ сервера"}},
		{"server error", 500, `{"detail":"db down"}`, Result{Title: "Ошибка сервера", Text: "db down"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.ctrl.Interpret(tt.status, []byte(tt.body)); got != tt.want {
				t.Fatalf("Interpret() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSubmitFailureShowsErrorAndCloses(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Неверные учетные данные"}`)
	})
	result, err := h.ctrl.Submit(context.Background(), url.Values{"username": {"x"}})
	if err != nil || result.OK {
		t.Fatalf("Submit() = %+v, %v", result, err)
	}
	if _, ok := Token(h.win.Storage()); ok {
		t.Fatal("token stored on failure")
	}
	if h.doc.QuerySelector("#modal-message .modal-error") == nil {
		t.Fatalf("render = %s", h.doc.Render())
	}
	h.clock.Advance(2 * time.Second)
	if h.doc.GetElementByID("modal-message") != nil {
		t.Fatal("expected error message closed")
	}
	if len(h.win.Navigations()) != 0 {
		t.Fatal("navigated after failure")
	}
}

func TestFormValues(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(page)
	got := FormValues(doc.QuerySelector("#auth-form"))
	want := url.Values{"username": {"admin"}, "password": {"secret"}, "remember": {"on"}}
	if got.Encode() != want.Encode() {
		t.Fatalf("FormValues() = %v, want %v", got, want)
	}
}

func TestTogglePassword(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(http.ResponseWriter, *http.Request) {})
	h.ctrl.Bind()
	defer h.ctrl.Release()

	input := h.doc.GetElementByID("auth-form__password-input")
	h.doc.Click(h.doc.QuerySelector(".toggle-password"))
	if typ, _ := input.Attr("type"); typ != "text" {
		t.Fatalf("type = %q, want text", typ)
	}
	if !dom.Hidden(h.doc.QuerySelector(".eye-show")) || dom.Hidden(h.doc.QuerySelector(".eye-hide")) {
		t.Fatal("eye icons not swapped")
	}
	h.doc.Click(h.doc.QuerySelector(".eye-hide"))
	if typ, _ := input.Attr("type"); typ != "password" {
		t.Fatalf("type = %q, want password", typ)
	}
}

func TestNewWithoutFormIsNil(t *testing.T) {
	t.Parallel()

	doc := htmldom.MustParse(`<body></body>`)
	win := htmldom.NewWindow("https://admin.example/login")
	if New(doc, win, fetch.New(win), nil, catalog.Localizer{}, Config{}) != nil {
		t.Fatal("expected nil controller")
	}
}
