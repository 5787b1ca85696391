// internal/server/router.go
//
// Root handler assembly.
//
// Context
// -------
// One chi router serves the JSON API.  The middleware order matters:
//
//   1. RequestID, RealIP       – so later layers log the real client.
//   2. Recoverer               – a panicking handler answers 500.
//   3. ForceHTTPS, Security    – transport policy and headers.
//   4. CORS                    – the marketing site may live on its own
//                                origin; credentials (cookies) allowed.
//   5. requestinfo.Enricher    – UA, geo, and request-scoped logger.
//
// Under /api the session middleware resolves the client and session
// cookies, then the CSRF guard checks unsafe methods.  Components mount
// beneath /api/<name>.
//
// Notes
// -----
//   • /healthz and /metrics stay outside /api, without cookies or CSRF.
//   • Oxford commas, two spaces after periods.

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/laxmi/internal/component"
	"github.com/yanizio/laxmi/internal/form"
	"github.com/yanizio/laxmi/internal/middleware"
	"github.com/yanizio/laxmi/internal/requestinfo"
	"github.com/yanizio/laxmi/internal/session"
)

// RouterDeps are the pieces the root handler is built from.
type RouterDeps struct {
	ForceHTTPS     bool
	AllowedOrigins []string
	Components     *component.Registry
	Cookies        *session.Manager
	CSRF           *form.Guard
	Info           *requestinfo.Enricher
	Health         http.Handler
	Metrics        http.Handler // nil uses promhttp.Handler()
}

// Router builds the root handler.
func Router(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ForceHTTPS(d.ForceHTTPS))
	r.Use(middleware.Security)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", form.HeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if d.Info != nil {
		r.Use(d.Info.Middleware)
	}

	if d.Health != nil {
		r.Method(http.MethodGet, "/healthz", d.Health)
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/api", func(api chi.Router) {
		api.Use(d.Cookies.Middleware)
		api.Use(d.CSRF.Middleware)
		api.Get("/csrf", d.CSRF.IssueHandler)
		d.Components.Mount(api)
	})

	return r
}
