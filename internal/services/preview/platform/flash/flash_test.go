package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/notify"
)

func newJar(secure bool) *Jar {
	return NewJar(catalog.NewLocalizer(nil, "en-US"), secure)
}

func carry(t *testing.T, rr *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	setCookieHeader := rr.Header().Get("Set-Cookie")
	if setCookieHeader == "" {
		t.Fatalf("expected Set-Cookie header")
	}
	cookie, err := http.ParseSetCookie(setCookieHeader)
	if err != nil {
		t.Fatalf("ParseSetCookie() error = %v", err)
	}
	next := httptest.NewRequest(http.MethodGet, "/news", nil)
	next.AddCookie(cookie)
	return next
}

func TestSetAndTakeLocalizesNotice(t *testing.T) {
	t.Parallel()

	jar := newJar(false)
	writeRR := httptest.NewRecorder()
	if err := jar.Success(writeRR, "notices.result.saved"); err != nil {
		t.Fatalf("Success() error = %v", err)
	}
	cookie, _ := http.ParseSetCookie(writeRR.Header().Get("Set-Cookie"))
	if cookie == nil || cookie.Secure || !cookie.HttpOnly {
		t.Fatalf("cookie = %+v", cookie)
	}

	readRR := httptest.NewRecorder()
	got, ok := jar.Take(readRR, carry(t, writeRR))
	if !ok {
		t.Fatalf("Take() ok = false, want true")
	}
	want := Rendered{Kind: notify.KindSuccess, Text: "Changes saved"}
	if got != want {
		t.Fatalf("Take() = %+v, want %+v", got, want)
	}
	cleared, err := http.ParseSetCookie(readRR.Header().Get("Set-Cookie"))
	if err != nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected expiring Set-Cookie, got %v (%v)", cleared, err)
	}
}

func TestSetCarriesRedirect(t *testing.T) {
	t.Parallel()

	jar := newJar(false)
	writeRR := httptest.NewRecorder()
	notice := Notice{Kind: notify.KindInfo, Key: "notices.result.created", Redirect: "/news?page=2&show_hidden=true"}
	if err := jar.Set(writeRR, notice); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok := jar.Take(httptest.NewRecorder(), carry(t, writeRR))
	if !ok {
		t.Fatalf("Take() ok = false, want true")
	}
	if got.Kind != notify.KindInfo || got.Redirect != "/news?page=2&show_hidden=true" {
		t.Fatalf("Take() = %+v", got)
	}
}

func TestSetRejectsInvalidNotice(t *testing.T) {
	t.Parallel()

	jar := newJar(false)
	cases := map[string]Notice{
		"unknown kind":    {Kind: "loud", Key: "notices.result.saved"},
		"title-case kind": {Kind: "Success", Key: "notices.result.saved"},
		"missing key":     {Kind: notify.KindSuccess},
		"unknown key":     {Kind: notify.KindSuccess, Key: "notices.result.teleported"},
		"absolute url":    {Kind: notify.KindSuccess, Key: "notices.result.saved", Redirect: "https://elsewhere.test/"},
		"scheme relative": {Kind: notify.KindSuccess, Key: "notices.result.saved", Redirect: "//elsewhere.test/"},
		"relative path":   {Kind: notify.KindSuccess, Key: "notices.result.saved", Redirect: "news"},
	}
	for name, notice := range cases {
		rr := httptest.NewRecorder()
		if err := jar.Set(rr, notice); err == nil {
			t.Fatalf("%s: Set(%+v) error = nil", name, notice)
		}
		if rr.Header().Get("Set-Cookie") != "" {
			t.Fatalf("%s: Set(%+v) wrote a cookie", name, notice)
		}
	}
}

func TestTakeDropsTamperedCookie(t *testing.T) {
	t.Parallel()

	jar := newJar(false)
	for _, value := range []string{"%zz", "k=success&m=notices.missing", "k=shout&m=notices.result.saved", "k=error&m=notices.result.saved&r=%2F%2Fevil.test"} {
		req := httptest.NewRequest(http.MethodGet, "/news", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: value})
		rr := httptest.NewRecorder()
		if got, ok := jar.Take(rr, req); ok {
			t.Fatalf("Take(%q) = %+v, want dropped", value, got)
		}
		if rr.Header().Get("Set-Cookie") == "" {
			t.Fatalf("Take(%q) left the cookie in place", value)
		}
	}
}

func TestTakeWithoutCookie(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	if _, ok := newJar(false).Take(rr, httptest.NewRequest(http.MethodGet, "/news", nil)); ok {
		t.Fatal("Take() ok = true without a cookie")
	}
	if rr.Header().Get("Set-Cookie") != "" {
		t.Fatal("Take() wrote a cookie without one to clear")
	}
}

func TestSecureJarMarksCookie(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	if err := newJar(true).Set(rr, Notice{Kind: notify.KindError, Key: "notices.action_failed"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil || !cookie.Secure {
		t.Fatalf("cookie = %v, err = %v", cookie, err)
	}
}
