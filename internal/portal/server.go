// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

/*
Package portal wires together the HTTP router, middleware chain, views, and
all proxy handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/portal are allowed to import net/http server primitives.
*/
package portal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sigepsi/portal/internal/auth"
	"github.com/sigepsi/portal/internal/fichas"
	"github.com/sigepsi/portal/internal/platform/config"
	"github.com/sigepsi/portal/internal/platform/constants"
	"github.com/sigepsi/portal/internal/platform/middleware"
	"github.com/sigepsi/portal/internal/reportes"
	"github.com/sigepsi/portal/internal/usuarios"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all route handler sets.
//
// # Usage
//
// New proxy domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Views renders the portal's own pages and session operations.
	Views *ViewHandler

	// Fichas relays the evaluation form endpoints.
	Fichas *fichas.Handler

	// Usuarios relays account administration (administrator only).
	Usuarios *usuarios.Handler

	// Reportes relays the aggregate report endpoints.
	Reportes *reportes.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, hub *auth.Hub, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics(prometheus.DefaultRegisterer))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration; kept outside the
	// session group so probe traffic never touches the hub or the logs.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// # Portal Routes
	// Everything below runs with the browser session loaded. The structured
	// logger sits after session loading so it can attribute requests.
	r.Group(func(portal chi.Router) {
		portal.Use(middleware.LoadSession(hub))
		portal.Use(middleware.StructuredLogger(log))

		// Guest-only: a signed-in account is bounced to its landing page.
		portal.Group(func(guest chi.Router) {
			guest.Use(middleware.RequireGuest)
			guest.Get(constants.PathLogin, h.Views.getLogin)
			guest.With(httprate.LimitByIP(constants.LoginRateLimit, constants.LoginRateWindow)).
				Post(constants.PathLogin, h.Views.postLogin)
		})

		// Any authenticated role.
		portal.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireSession)
			authed.Get("/", h.Views.getHome)
			authed.Get(constants.PathReportes, h.Views.getReportes)
			authed.Get(constants.PathPerfil, h.Views.getPerfil)
			authed.Post(constants.PathPerfil+"/password", h.Views.postPerfilPassword)
			authed.Post("/logout", h.Views.postLogout)
			authed.Get("/api/session", h.Views.jsonSession)
		})

		// Role-gated landing pages.
		portal.With(middleware.RequireRoles(auth.RolePsicologo)).
			Get(constants.PathPsicologo, h.Views.getPsicologo)
		portal.With(middleware.RequireRoles(auth.RoleAdministrador)).
			Get(constants.PathAdmin, h.Views.getAdmin)

		// # Proxied API
		portal.Route("/api", func(api chi.Router) {
			api.Route("/fichas", func(router chi.Router) {
				router.Use(middleware.RequireRoles(auth.RolePsicologo, auth.RoleAdministrador))
				h.Fichas.RegisterRoutes(router)
			})
			api.Route("/usuarios", func(router chi.Router) {
				router.Use(middleware.RequireRoles(auth.RoleAdministrador))
				h.Usuarios.RegisterRoutes(router)
			})
			api.Route("/reportes", func(router chi.Router) {
				router.Use(middleware.RequireSession)
				h.Reportes.RegisterRoutes(router)
			})
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
