// Package flash carries one notice across the redirect that follows a form
// post. The next rendered page turns it into the .flash markup the
// notification manager adopts.
package flash

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	"github.com/campusdesk/backoffice/internal/ui/notify"
)

// CookieName is the cookie carrying the pending notice.
const CookieName = "bo_flash"

// Notice is what a handler queues for the next page.
type Notice struct {
	Kind notify.Kind
	// Key is a catalog message key.
	Key string
	// Redirect becomes data-redirect-after on the page that shows the
	// notice, so a success there navigates straight on.
	Redirect string
}

// Rendered is a notice resolved for the page: localized text and a
// validated redirect target.
type Rendered struct {
	Kind     notify.Kind
	Text     string
	Redirect string
}

// Jar reads and writes the notice cookie for one locale.
type Jar struct {
	loc    catalog.Localizer
	secure bool
}

// NewJar returns a Jar. secure marks the cookie Secure for TLS deployments.
func NewJar(loc catalog.Localizer, secure bool) *Jar {
	return &Jar{loc: loc, secure: secure}
}

// Success queues a success notice for key.
func (j *Jar) Success(w http.ResponseWriter, key string) error {
	return j.Set(w, Notice{Kind: notify.KindSuccess, Key: key})
}

// Set queues n. Unknown kinds, keys missing from the catalog and redirects
// that leave the site are rejected and nothing is written.
func (j *Jar) Set(w http.ResponseWriter, n Notice) error {
	n, err := j.check(n)
	if err != nil {
		return err
	}
	v := url.Values{"k": {string(n.Kind)}, "m": {n.Key}}
	if n.Redirect != "" {
		v.Set("r", n.Redirect)
	}
	http.SetCookie(w, j.cookie(v.Encode(), 0))
	return nil
}

// Take returns the queued notice resolved for the page and expires the
// cookie. A cookie that no longer checks out is dropped.
func (j *Jar) Take(w http.ResponseWriter, r *http.Request) (Rendered, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Rendered{}, false
	}
	http.SetCookie(w, j.cookie("", -1))
	v, err := url.ParseQuery(c.Value)
	if err != nil {
		return Rendered{}, false
	}
	n, err := j.check(Notice{Kind: notify.Kind(v.Get("k")), Key: v.Get("m"), Redirect: v.Get("r")})
	if err != nil {
		return Rendered{}, false
	}
	return Rendered{Kind: n.Kind, Text: j.loc.Text(n.Key), Redirect: n.Redirect}, true
}

func (j *Jar) check(n Notice) (Notice, error) {
	n.Key = strings.TrimSpace(n.Key)
	known := false
	for _, kind := range notify.Kinds {
		if n.Kind == kind {
			known = true
			break
		}
	}
	if !known {
		return Notice{}, fmt.Errorf("flash kind %q is not a notification kind", n.Kind)
	}
	if _, ok := j.loc.Bundle.Message(j.loc.Locale, n.Key); !ok {
		return Notice{}, fmt.Errorf("flash key %q is not in the catalog", n.Key)
	}
	if n.Redirect != "" && (!strings.HasPrefix(n.Redirect, "/") || strings.HasPrefix(n.Redirect, "//")) {
		return Notice{}, fmt.Errorf("flash redirect %q leaves the site", n.Redirect)
	}
	return n, nil
}

func (j *Jar) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}
