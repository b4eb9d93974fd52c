// Package preview serves fixture-backed admin pages so the browser bundle can
// be exercised without the production backend.
package preview

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/campusdesk/backoffice/internal/platform/errors"
	"github.com/campusdesk/backoffice/internal/platform/i18n/catalog"
	platformotel "github.com/campusdesk/backoffice/internal/platform/otel"
	"github.com/campusdesk/backoffice/internal/platform/requestctx"
	"github.com/campusdesk/backoffice/internal/platform/timeouts"
	"github.com/campusdesk/backoffice/internal/services/preview/platform/flash"
	"github.com/campusdesk/backoffice/internal/services/preview/platform/httpx"
	"github.com/campusdesk/backoffice/internal/ui/notify"
	"github.com/campusdesk/backoffice/internal/ui/page"
)

const (
	// CSRFHeader and CSRFField match what the admin bundle sends.
	CSRFHeader = "X-CSRFToken"
	CSRFField  = "csrf_token"

	roleCookie = "bo_role"
)

var tracer = platformotel.Tracer("preview")

// Config defines startup inputs for the preview server.
type Config struct {
	HTTPAddr string
	// AssetsDir holds backoffice.wasm and wasm_exec.js.
	AssetsDir string
	// Fixtures is a YAML path; blank uses the embedded fixtures.
	Fixtures string
	// CSRFKey is the 32-byte token key; blank generates one per process.
	CSRFKey string
	Locale  string
	// SecureCookies marks cookies Secure, for serving behind TLS.
	SecureCookies bool
}

// Server hosts the preview HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

type handler struct {
	store *store
	loc   catalog.Localizer
	flash *flash.Jar
}

// NewHandler builds the root handler.
func NewHandler(cfg Config) (http.Handler, error) {
	fx, err := LoadFixtures(cfg.Fixtures)
	if err != nil {
		return nil, err
	}
	key, err := csrfKey(cfg.CSRFKey)
	if err != nil {
		return nil, err
	}
	loc := catalog.NewLocalizer(nil, cfg.Locale)
	h := &handler{store: newStore(fx), loc: loc, flash: flash.NewJar(loc, cfg.SecureCookies)}

	r := chi.NewRouter()
	r.Get("/", h.dashboard)
	r.Get("/dashboard", h.dashboard)
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	if dir := strings.TrimSpace(cfg.AssetsDir); dir != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(dir))))
	} else {
		r.Handle("/assets/*", http.NotFoundHandler())
	}
	r.Get("/schedule/template/{college}", h.template)
	r.Post("/schedule/delete-all-templates", h.deleteTemplates)
	r.Get("/vacancy-applications", h.applications)
	r.Post("/vacancy-applications/status", h.applicationStatus)
	r.Post("/users/invite", h.invite)
	r.Get("/{page}", h.listing)
	r.Post("/{page}/create", h.create)
	r.Get("/{page}/{id}", h.detail)
	r.Get("/{page}/{id}/image", h.image)
	r.Post("/{page}/{id}/edit", h.edit)
	r.Post("/{page}/{id}/{verb}", h.action)

	protect := csrf.Protect(key,
		csrf.RequestHeader(CSRFHeader),
		csrf.FieldName(CSRFField),
		csrf.Path("/"),
		csrf.Secure(cfg.SecureCookies),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)
	return httpx.Chain(r,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.RequestLogger(log.Default()),
		viewerRole(),
		markPlaintext(cfg.SecureCookies),
		protect,
	), nil
}

// markPlaintext tells the CSRF layer when a request arrived over plain HTTP
// so it skips the Referer check reserved for TLS.
func markPlaintext(secure bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secure && r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	log.Printf("csrf rejected %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	_ = httpx.WriteJSONError(w, http.StatusForbidden, "CSRF token missing or invalid")
}

func csrfKey(raw string) ([]byte, error) {
	if raw = strings.TrimSpace(raw); raw != "" {
		if len(raw) != 32 {
			return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(raw))
		}
		return []byte(raw), nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	return key, nil
}

// NewServer validates config and constructs a preview server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if dir := strings.TrimSpace(cfg.AssetsDir); dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return nil, fmt.Errorf("assets dir %q is not a directory", dir)
		}
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose preview handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("preview server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("preview listening on %s", s.httpAddr)
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown preview http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve preview http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}

// viewerRole resolves the viewer role into the request context. The ?as=
// query switches it and the choice sticks in a cookie.
func viewerRole() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := requestctx.RoleViewer
			if as := r.URL.Query().Get("as"); as != "" {
				if as == requestctx.RoleAdmin {
					role = requestctx.RoleAdmin
				}
				http.SetCookie(w, &http.Cookie{Name: roleCookie, Value: role, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
			} else if c, err := r.Cookie(roleCookie); err == nil && c.Value == requestctx.RoleAdmin {
				role = requestctx.RoleAdmin
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithRole(r.Context(), role)))
		})
	}
}

// base fills the page chrome shared by every view.
func (h *handler) base(w http.ResponseWriter, r *http.Request, name, title string) pageView {
	v := pageView{
		Name:      name,
		Title:     title,
		Admin:     requestctx.IsAdmin(r.Context()),
		CSRFToken: csrf.Token(r),
		Loc:       h.loc,
	}
	if notice, ok := h.flash.Take(w, r); ok {
		v.Flash = &flashView{Kind: string(notice.Kind), Text: notice.Text}
		v.RedirectAfter = notice.Redirect
	}
	for _, pageName := range h.store.names() {
		if pageName == "login" {
			continue
		}
		p, _ := h.store.page(pageName)
		v.Nav = append(v.Nav, navLink{Href: "/" + pageName, Title: p.Title})
	}
	return v
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, v pageView, content func(pageView) error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := content(v); err != nil {
		log.Printf("render %s: %v", r.URL.Path, err)
	}
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "preview.dashboard")
	defer span.End()
	v := h.base(w, r, "dashboard", h.loc.Text("notices.dashboard"))
	h.render(w, r, v, func(v pageView) error {
		return layout(v, dashboardContent(v)).Render(ctx, w)
	})
}

func (h *handler) loginPage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "preview.login_page")
	defer span.End()
	title := h.loc.Text("login.form.submit")
	if p, ok := h.store.page("login"); ok && p.Title != "" {
		title = p.Title
	}
	v := h.base(w, r, "login", title)
	h.render(w, r, v, func(v pageView) error {
		return layout(v, loginContent(v)).Render(ctx, w)
	})
}

// login checks the form credentials and answers with the token JSON the
// login page expects.
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "preview.login")
	defer span.End()
	if err := r.ParseForm(); err != nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	creds := h.store.credentials()
	if r.PostForm.Get("username") != creds.Username || r.PostForm.Get("password") != creds.Password {
		span.SetAttributes(attribute.Bool("login.accepted", false))
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, h.loc.Text("login.form.invalid"))
		return
	}
	span.SetAttributes(attribute.Bool("login.accepted", true))
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"token": creds.Token, "token_type": "bearer"})
}

// descriptor resolves a listing page: registered, backed by a fixture and
// carrying a filter.
func (h *handler) descriptor(name string) (page.Descriptor, PageFixture, error) {
	d, err := page.Lookup(name)
	if err != nil {
		return page.Descriptor{}, PageFixture{}, err
	}
	p, ok := h.store.page(name)
	if !ok || d.Filter == nil {
		return page.Descriptor{}, PageFixture{}, apperrors.WithMetadata(apperrors.CodePageUnknown, "no listing fixture", map[string]string{"Page": name})
	}
	return d, p, nil
}

func (h *handler) listing(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	ctx, span := tracer.Start(r.Context(), "preview.listing", trace.WithAttributes(attribute.String("page", name)))
	defer span.End()
	d, p, err := h.descriptor(name)
	if err != nil {
		span.RecordError(err)
		httpx.WriteError(w, err)
		return
	}
	v := listingView{pageView: h.base(w, r, name, p.Title), Descriptor: d, Fixture: p}
	if d.Templates {
		v.Colleges = h.store.colleges()
	}
	if p.RedirectAfter != "" {
		v.RedirectAfter = p.RedirectAfter
	}
	h.render(w, r, v.pageView, func(base pageView) error {
		return layout(base, listingContent(v)).Render(ctx, w)
	})
}

func (h *handler) detail(w http.ResponseWriter, r *http.Request) {
	name, itemID := chi.URLParam(r, "page"), chi.URLParam(r, "id")
	_, span := tracer.Start(r.Context(), "preview.detail", trace.WithAttributes(
		attribute.String("page", name), attribute.String("item", itemID)))
	defer span.End()
	it, err := h.store.item(name, itemID)
	if err != nil {
		_ = httpx.WriteJSONError(w, httpx.HTTPStatus(err), apperrors.UserMessage(h.loc.Bundle, h.loc.Locale, err))
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, it.Detail())
}

const placeholderImage = `<svg xmlns="http://www.w3.org/2000/svg" width="120" height="80"><rect width="120" height="80" fill="#dfe6e9"/></svg>`

func (h *handler) image(w http.ResponseWriter, r *http.Request) {
	it, err := h.store.item(chi.URLParam(r, "page"), chi.URLParam(r, "id"))
	if err != nil || it.ImageURL == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(placeholderImage))
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", "notices.result.created")
}

func (h *handler) edit(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"), "notices.result.saved")
}

// save stores a submitted dialog form and redirects back to the listing
// with a flash notice. A posted next path rides along with the notice and
// becomes the listing's redirect-after target.
func (h *handler) save(w http.ResponseWriter, r *http.Request, itemID, noticeKey string) {
	name := chi.URLParam(r, "page")
	_, span := tracer.Start(r.Context(), "preview.save", trace.WithAttributes(
		attribute.String("page", name), attribute.String("item", itemID)))
	defer span.End()
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	values := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		values[k] = r.PostForm.Get(k)
	}
	if _, err := h.store.save(name, itemID, values); err != nil {
		span.RecordError(err)
		httpx.WriteError(w, err)
		return
	}
	notice := flash.Notice{Kind: notify.KindSuccess, Key: noticeKey, Redirect: r.PostForm.Get("next")}
	if err := h.flash.Set(w, notice); err != nil {
		log.Printf("flash %s: %v", r.URL.Path, err)
		_ = h.flash.Success(w, noticeKey)
	}
	http.Redirect(w, r, "/"+url.PathEscape(name), http.StatusSeeOther)
}

// action applies a row action. Row actions answer JSON for the bundle; the
// feedback reply is a plain form post and redirects.
func (h *handler) action(w http.ResponseWriter, r *http.Request) {
	name, itemID, verb := chi.URLParam(r, "page"), chi.URLParam(r, "id"), chi.URLParam(r, "verb")
	_, span := tracer.Start(r.Context(), "preview.action", trace.WithAttributes(
		attribute.String("page", name), attribute.String("item", itemID), attribute.String("verb", verb)))
	defer span.End()

	d, err := page.Lookup(name)
	if err != nil || !allows(d, verb) {
		_ = httpx.WriteJSONError(w, http.StatusNotFound, apperrors.UserMessage(h.loc.Bundle, h.loc.Locale, apperrors.New(apperrors.CodeNotFound, "no such action")))
		return
	}
	if err := h.store.apply(name, itemID, verb); err != nil {
		span.RecordError(err)
		_ = httpx.WriteJSONError(w, httpx.HTTPStatus(err), apperrors.UserMessage(h.loc.Bundle, h.loc.Locale, err))
		return
	}
	if err := h.flash.Success(w, "notices.result."+resultKey(verb)); err != nil {
		log.Printf("flash %s: %v", r.URL.Path, err)
	}
	if verb == "respond" {
		http.Redirect(w, r, "/"+url.PathEscape(name), http.StatusSeeOther)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// template serves one college's schedule template.
func (h *handler) template(w http.ResponseWriter, r *http.Request) {
	college := chi.URLParam(r, "college")
	if unescaped, err := url.PathUnescape(college); err == nil {
		college = unescaped
	}
	_, span := tracer.Start(r.Context(), "preview.template", trace.WithAttributes(attribute.String("college", college)))
	defer span.End()
	tpl, ok := h.store.template(college)
	if !ok {
		err := apperrors.WithMetadata(apperrors.CodeNotFound, "no schedule template", map[string]string{"College": college})
		_ = httpx.WriteJSONError(w, http.StatusNotFound, apperrors.UserMessage(h.loc.Bundle, h.loc.Locale, err))
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, tpl.Document(college))
}

func (h *handler) deleteTemplates(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "preview.delete_templates")
	defer span.End()
	span.SetAttributes(attribute.Int("templates.deleted", h.store.dropTemplates()))
	if err := h.flash.Success(w, "notices.result.templates_deleted"); err != nil {
		log.Printf("flash %s: %v", r.URL.Path, err)
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *handler) applications(w http.ResponseWriter, r *http.Request) {
	const name = "vacancy-applications"
	ctx, span := tracer.Start(r.Context(), "preview.applications")
	defer span.End()
	p, ok := h.store.page(name)
	if !ok {
		err := apperrors.WithMetadata(apperrors.CodePageUnknown, "no applications fixture", map[string]string{"Page": name})
		span.RecordError(err)
		httpx.WriteError(w, err)
		return
	}
	v := applicationsView{pageView: h.base(w, r, name, p.Title), Fixture: p}
	h.render(w, r, v.pageView, func(base pageView) error {
		return layout(base, applicationsContent(v)).Render(ctx, w)
	})
}

// applicationStatus sets the status of one student (student_id) or of the
// bulk selection (student_ids).
func (h *handler) applicationStatus(w http.ResponseWriter, r *http.Request) {
	const name = "vacancy-applications"
	_, span := tracer.Start(r.Context(), "preview.application_status")
	defer span.End()
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := strings.TrimSpace(r.PostForm.Get("status"))
	ids := r.PostForm["student_ids"]
	if one := strings.TrimSpace(r.PostForm.Get("student_id")); one != "" {
		ids = []string{one}
	}
	if !knownStatus(status) || len(ids) == 0 {
		err := apperrors.WithMetadata(apperrors.CodeInvalidInput, "status and students are required", map[string]string{"Status": status})
		span.RecordError(err)
		httpx.WriteError(w, err)
		return
	}
	span.SetAttributes(attribute.Int("students", len(ids)), attribute.String("status", status))
	if err := h.store.setStatus(name, ids, status); err != nil {
		span.RecordError(err)
		httpx.WriteError(w, err)
		return
	}
	if err := h.flash.Success(w, "notices.result.status_updated"); err != nil {
		log.Printf("flash %s: %v", r.URL.Path, err)
	}
	http.Redirect(w, r, "/"+name, http.StatusSeeOther)
}

func (h *handler) invite(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "preview.invite")
	defer span.End()
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(r.PostForm.Get("email")) == "" {
		err := apperrors.WithMetadata(apperrors.CodeInvalidInput, "email is required", map[string]string{"Field": "email"})
		span.RecordError(err)
		httpx.WriteError(w, err)
		return
	}
	if err := h.flash.Success(w, "notices.result.invited"); err != nil {
		log.Printf("flash %s: %v", r.URL.Path, err)
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func allows(d page.Descriptor, verb string) bool {
	if verb == "respond" {
		return d.Respond != nil
	}
	if d.Actions == nil {
		return false
	}
	for _, v := range d.Actions.Verbs {
		if v == verb {
			return true
		}
	}
	return false
}

func resultKey(verb string) string {
	switch verb {
	case "approve":
		return "approved"
	case "reject":
		return "rejected"
	case "delete":
		return "deleted"
	case "respond":
		return "responded"
	case "toggle":
		return "toggled"
	default:
		return "saved"
	}
}
