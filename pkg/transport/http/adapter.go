package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth"
	"github.com/rhuss/paydesk/pkg/auth/token"
	"github.com/rhuss/paydesk/pkg/observability"
	"github.com/rhuss/paydesk/pkg/transport"
)

// Services bundles the handlers' collaborators.
type Services struct {
	Accounts transport.AccountService
	Records  transport.RecordService
	Exports  transport.ExportService
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	// CookieName names the session cookie set at login.
	CookieName string

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool

	// AllowedOrigins are the browser origins allowed to send credentialed
	// cross-origin requests. Empty disables CORS handling.
	AllowedOrigins []string

	// LoginLimiter throttles POST /api/auth/login per client address.
	// Nil disables throttling.
	LoginLimiter auth.RateLimiter

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string

	// HealthCheck backs GET /healthz. Nil always reports healthy.
	HealthCheck func(ctx context.Context) error
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:     auth.DefaultCookieName,
		AllowedOrigins: []string{"http://localhost:3000"},
		MetricsPath:    "/metrics",
	}
}

// Adapter serves the paydesk API over HTTP.
type Adapter struct {
	svc     Services
	gate    *auth.Gate
	config  Config
	router  *mux.Router
	handler http.Handler
}

// NewAdapter creates an HTTP adapter. Middleware wraps the whole router
// in the given order, outermost first.
func NewAdapter(svc Services, gate *auth.Gate, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if cfg.CookieName == "" {
		cfg.CookieName = auth.DefaultCookieName
	}

	a := &Adapter{
		svc:    svc,
		gate:   gate,
		config: cfg,
		router: mux.NewRouter(),
	}
	a.routes()

	var h http.Handler = a.router
	if len(cfg.AllowedOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", transport.RequestIDHeader},
			ExposedHeaders:   []string{transport.RequestIDHeader},
			AllowCredentials: true,
		}).Handler(h)
	}
	if len(middlewares) > 0 {
		h = transport.Chain(middlewares...)(h)
	}
	a.handler = h

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.handler
}

func (a *Adapter) routes() {
	r := a.router
	r.Use(observability.MetricsMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteAPIError(w, api.NewNotFoundError("Route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteErrorResponse(w, api.NewInvalidRequestError("method", "Method not allowed"), http.StatusMethodNotAllowed)
	})

	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	if a.config.MetricsPath != "" {
		r.Handle(a.config.MetricsPath, observability.Handler()).Methods(http.MethodGet)
	}

	authed := a.gate.Middleware
	admin := a.gate.RequireRole(api.RoleAdmin)
	throttle := auth.RateLimit(a.config.LoginLimiter, "login", auth.ClientIP)

	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/healthchecker", a.handleHealthChecker).Methods(http.MethodGet)

	s.HandleFunc("/auth/register", a.handleRegister).Methods(http.MethodPost)
	s.Handle("/auth/login", throttle(http.HandlerFunc(a.handleLogin))).Methods(http.MethodPost)
	s.Handle("/auth/logout", authed(http.HandlerFunc(a.handleLogout))).Methods(http.MethodGet)

	s.Handle("/users/me", authed(http.HandlerFunc(a.handleMe))).Methods(http.MethodGet)
	s.Handle("/users", admin(http.HandlerFunc(a.handleListUsers))).Methods(http.MethodGet)

	s.Handle("/records/export", admin(http.HandlerFunc(a.handleCreateExport))).Methods(http.MethodPost)
	s.Handle("/records/export", admin(http.HandlerFunc(a.handleDownloadExport))).Methods(http.MethodGet)
	s.Handle("/records", authed(http.HandlerFunc(a.handleListRecords))).Methods(http.MethodGet)
	s.Handle("/records", authed(http.HandlerFunc(a.handleCreateRecord))).Methods(http.MethodPost)
	s.Handle("/records/{id:[0-9]+}", authed(http.HandlerFunc(a.handleUpdateRecord))).Methods(http.MethodPut)
	s.Handle("/records/{id:[0-9]+}", admin(http.HandlerFunc(a.handleDeleteRecord))).Methods(http.MethodDelete)
}

// sessionCookie builds the cookie carrying tok. An empty tok clears it.
func (a *Adapter) sessionCookie(tok string) *http.Cookie {
	c := &http.Cookie{
		Name:     a.config.CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(token.Lifetime / time.Second),
	}
	if tok == "" {
		c.MaxAge = -1
	}
	return c
}
