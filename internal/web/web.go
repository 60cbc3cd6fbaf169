// Package web serves the expense-report front as server-rendered HTML. Each
// page is driven by a controller; the page views implement the controller
// view models and controller navigation becomes an HTTP redirect.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mmynk/billed/internal/auth"
	"github.com/mmynk/billed/internal/client"
	"github.com/mmynk/billed/internal/controller"
	"github.com/mmynk/billed/internal/middleware"
	"github.com/mmynk/billed/internal/models"
	"github.com/mmynk/billed/internal/routes"
)

// SessionCookie holds the bearer token of the signed-in user.
const SessionCookie = "user"

// API is the remote side the front talks to.
type API interface {
	Login(ctx context.Context, email, password string) (models.Session, error)

	// Store returns the bill store scoped to session.
	Store(session models.Session) controller.Store
}

// SessionValidator checks the token stored in the session cookie.
type SessionValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// NewClientAPI adapts the Connect client to the API the front needs.
func NewClientAPI(c *client.Client) API {
	return clientAPI{c: c}
}

type clientAPI struct {
	c *client.Client
}

func (a clientAPI) Login(ctx context.Context, email, password string) (models.Session, error) {
	return a.c.Login(ctx, email, password)
}

func (a clientAPI) Store(session models.Session) controller.Store {
	return sessionStore{c: a.c.WithSession(session)}
}

type sessionStore struct {
	c *client.Client
}

func (s sessionStore) Bills() controller.BillResource {
	return s.c.Bills()
}

// Options configures the front.
type Options struct {
	// RequestTimeout bounds every store call made while serving a request.
	RequestTimeout time.Duration

	// FormTTL is how long an untouched new-bill form is kept.
	FormTTL time.Duration

	MaxReceiptBytes int64
	SecureCookie    bool
	Logger          *slog.Logger
}

// Server is the HTML front.
type Server struct {
	api      API
	sessions SessionValidator
	forms    *formRegistry
	opts     Options
	logger   *slog.Logger
}

// New creates the front. Zero options get defaults.
func New(api API, sessions SessionValidator, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.FormTTL <= 0 {
		opts.FormTTL = time.Hour
	}
	if opts.MaxReceiptBytes <= 0 {
		opts.MaxReceiptBytes = 10 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		api:      api,
		sessions: sessions,
		forms:    newFormRegistry(opts.FormTTL),
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Handler returns the router serving every page.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/bills", s.handleBills)
		r.Post("/bills", s.handleNewBillClick)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/bills/new", func(r chi.Router) {
			r.Get("/", s.handleOpenForm)
			r.Get("/{formID}", s.handleForm)
			r.Post("/{formID}", s.handleSubmit)
			r.Post("/{formID}/file", s.handleFile)
		})
	})

	return r
}

type sessionKey struct{}

func sessionFrom(ctx context.Context) models.Session {
	s, _ := ctx.Value(sessionKey{}).(models.Session)
	return s
}

func (s *Server) session(r *http.Request) (models.Session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return models.Session{}, false
	}
	claims, err := s.sessions.Validate(cookie.Value)
	if err != nil {
		s.logger.Debug("Rejected session cookie", "error", err)
		return models.Session{}, false
	}
	return claims.Session(cookie.Value), true
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.session(r)
		if !ok {
			s.clearCookie(w)
			redirect(w, r, routes.Login)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
}

func redirect(w http.ResponseWriter, r *http.Request, route routes.Route) {
	http.Redirect(w, r, route.Path(), http.StatusSeeOther)
}

func homeRoute(session models.Session) routes.Route {
	if session.IsAdmin() {
		return routes.Dashboard
	}
	return routes.Bills
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render page", "page", name, "error", err)
	}
}

type loginPage struct {
	Title   string
	Session models.Session
	Email   string
	Err     string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if session, ok := s.session(r); ok {
		redirect(w, r, homeRoute(session))
		return
	}
	redirect(w, r, routes.Login)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login", loginPage{Title: "Connexion"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "login", loginPage{Title: "Connexion", Err: "Formulaire invalide"})
		return
	}
	email := r.PostFormValue("email")

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	session, err := s.api.Login(ctx, email, r.PostFormValue("password"))
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		s.render(w, http.StatusUnauthorized, "login", loginPage{
			Title: "Connexion",
			Email: email,
			Err:   "Identifiants invalides",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("User signed in", "email", session.Email, "type", session.Type)
	redirect(w, r, homeRoute(session))
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearCookie(w)
	redirect(w, r, routes.Login)
}

type billsPage struct {
	Title   string
	Session models.Session
	billsView
}

func (s *Server) renderBills(w http.ResponseWriter, r *http.Request, title string) {
	session := sessionFrom(r.Context())
	page := &billsPage{Title: title, Session: session}
	nav := &navigation{}
	ctrl := controller.NewBillsController(s.api.Store(session), &page.billsView, nav.navigate,
		controller.WithLogger(s.logger))

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	status := http.StatusOK
	if _, err := ctrl.FetchAndRender(ctx); err != nil {
		s.logger.Error("Failed to fetch bills", "email", session.Email, "error", err)
		status = http.StatusBadGateway
	}

	if url := r.URL.Query().Get("preview"); url != "" {
		if listedReceipt(page.Bills, url) {
			_ = ctrl.OnClickPreviewIcon(controller.Attrs{controller.ReceiptURLAttribute: url})
		} else {
			s.logger.Warn("Preview of an unlisted receipt refused", "email", session.Email, "url", url)
		}
	}

	s.render(w, status, "bills", page)
}

// listedReceipt reports whether url is the receipt of one of the listed bills.
func listedReceipt(bills []controller.DisplayBill, url string) bool {
	for _, b := range bills {
		if b.FileURL != "" && b.FileURL == url {
			return true
		}
	}
	return false
}

func (s *Server) handleBills(w http.ResponseWriter, r *http.Request) {
	s.renderBills(w, r, "Mes notes de frais")
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !sessionFrom(r.Context()).IsAdmin() {
		redirect(w, r, routes.Bills)
		return
	}
	s.renderBills(w, r, "Validations")
}

func (s *Server) handleNewBillClick(w http.ResponseWriter, r *http.Request) {
	nav := &navigation{}
	controller.NewBillsController(nil, &billsView{}, nav.navigate).OnClickNewBill()
	if route, ok := nav.take(); ok {
		redirect(w, r, route)
		return
	}
	redirect(w, r, routes.Bills)
}

type newBillPage struct {
	Title    string
	Session  models.Session
	FormID   string
	FileName string
	Uploaded bool
	Form     controller.BillForm
	Types    []string
	Flash    flash
}

func (s *Server) handleOpenForm(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	store := s.api.Store(session)
	f := s.forms.open(session.Email, func(view controller.NewBillView, navigate controller.Navigator) *controller.NewBill {
		return controller.NewBillController(store, view, navigate, session, controller.WithLogger(s.logger))
	})
	http.Redirect(w, r, "/bills/new/"+f.id, http.StatusSeeOther)
}

// lookupForm resolves the form in the URL, redirecting to a fresh form when it is gone.
func (s *Server) lookupForm(w http.ResponseWriter, r *http.Request) (*form, bool) {
	f, ok := s.forms.get(chi.URLParam(r, "formID"), sessionFrom(r.Context()).Email)
	if !ok {
		redirect(w, r, routes.NewBill)
		return nil, false
	}
	return f, true
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, f *form, values controller.BillForm) {
	s.render(w, status, "newbill", newBillPage{
		Title:    "Nouvelle note de frais",
		Session:  sessionFrom(r.Context()),
		FormID:   f.id,
		FileName: f.ctrl.FileName(),
		Uploaded: f.ctrl.State() == controller.StateFileUploaded,
		Form:     values,
		Types:    billTypes,
		Flash:    f.view.drain(),
	})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	s.renderForm(w, r, http.StatusOK, f, controller.BillForm{})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookupForm(w, r)
	if !ok {
		return
	}

	sel, err := s.readSelection(w, r)
	if err != nil {
		f.view.RenderError(err)
		s.renderForm(w, r, http.StatusBadRequest, f, controller.BillForm{})
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	status := http.StatusOK
	if err := f.ctrl.OnFileSelected(ctx, sel); err != nil {
		status = s.controllerStatus(f, err)
	}
	s.renderForm(w, r, status, f, controller.BillForm{})
}

func (s *Server) readSelection(w http.ResponseWriter, r *http.Request) (controller.FileSelection, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxReceiptBytes+(1<<20))
	if err := r.ParseMultipartForm(s.opts.MaxReceiptBytes); err != nil {
		return controller.FileSelection{}, fmt.Errorf("failed to parse upload: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return controller.FileSelection{}, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return controller.FileSelection{}, fmt.Errorf("failed to read file: %w", err)
	}
	return controller.FileSelection{Path: header.Filename, Data: data}, nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	f, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		f.view.RenderError(err)
		s.renderForm(w, r, http.StatusBadRequest, f, controller.BillForm{})
		return
	}

	values := controller.BillForm{
		Type:       r.PostFormValue("expense-type"),
		Name:       r.PostFormValue("expense-name"),
		Date:       r.PostFormValue("datepicker"),
		Amount:     r.PostFormValue("amount"),
		VAT:        r.PostFormValue("vat"),
		Pct:        r.PostFormValue("pct"),
		Commentary: r.PostFormValue("commentary"),
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	if err := f.ctrl.OnSubmit(ctx, values); err != nil {
		s.renderForm(w, r, s.controllerStatus(f, err), f, values)
		return
	}

	s.forms.close(f.id)
	if route, ok := f.nav.take(); ok {
		redirect(w, r, route)
		return
	}
	redirect(w, r, routes.Bills)
}

// controllerStatus maps a controller error to a status code. Errors the
// controller did not surface itself are surfaced here.
func (s *Server) controllerStatus(f *form, err error) int {
	switch {
	case errors.Is(err, controller.ErrInvalidExtension),
		errors.Is(err, controller.ErrInvalidForm),
		errors.Is(err, controller.ErrUploadRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, controller.ErrInvalidTransition):
		f.view.RenderError(err)
		return http.StatusConflict
	}
	s.logger.Error("Store call failed", "form_id", f.id, "error", err)
	return http.StatusBadGateway
}
