// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/verwerkingenlog/internal/authz"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/middleware"
)

// RouterConfig holds the settings shared by both hosts.
type RouterConfig struct {
	Server    config.ServerConfig
	RateLimit config.RateLimitConfig
	// AuthHeader is the admission key header, allowed through CORS.
	AuthHeader string
}

// RouterConfigFrom extracts the router settings from the full config.
func RouterConfigFrom(cfg *config.Config) RouterConfig {
	return RouterConfig{
		Server:     cfg.Server,
		RateLimit:  cfg.RateLimit,
		AuthHeader: cfg.Auth.Header,
	}
}

// Router builds the operator and access HTTP handlers.
type Router struct {
	handler   *Handler
	admission *authz.Middleware
	cfg       RouterConfig
}

// NewRouter creates a router. Every route except /healthz, /metrics and
// /swagger/ goes through admission.
func NewRouter(handler *Handler, admission *authz.Middleware, cfg RouterConfig) *Router {
	return &Router{handler: handler, admission: admission, cfg: cfg}
}

// OperatorHandler serves the operator host: actions, dead letters, backup
// replay, health, metrics and the API docs.
func (router *Router) OperatorHandler() http.Handler {
	const host = authz.HostOperator
	r, mw := router.base(host, router.cfg.RateLimit.Operator)

	if router.cfg.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if router.cfg.Server.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("list"),
			httpSwagger.DomID("swagger-ui"),
		))
	}

	r.Group(func(r chi.Router) {
		router.protect(r, host, mw)

		r.Post("/actions", router.handler.CreateAction)
		r.With(middleware.Compression).Get("/actions", router.handler.ListActions)
		r.Patch("/actions", router.handler.PatchActions)
		r.Get("/actions/{actionId}", router.handler.GetAction)
		r.Put("/actions/{actionId}", router.handler.AmendAction)
		r.Delete("/actions/{actionId}", router.handler.DeleteAction)

		r.With(middleware.Compression).Get("/dead-letters", router.handler.ListDeadLetters)
		r.Get("/dead-letters/{id}", router.handler.GetDeadLetter)
		r.Delete("/dead-letters/{id}", router.handler.DeleteDeadLetter)
		r.Post("/dead-letters/{id}/redrive", router.handler.RedriveDeadLetter)

		r.Post("/backups/{actionId}/replay", router.handler.ReplayBackup)
	})

	return r
}

// AccessHandler serves the access host: the inzage routes and health.
func (router *Router) AccessHandler() http.Handler {
	const host = authz.HostAccess
	r, mw := router.base(host, router.cfg.RateLimit.Access)

	r.Group(func(r chi.Router) {
		router.protect(r, host, mw)

		r.With(middleware.Compression).Get("/processed-objects", router.handler.ListProcessedObjects)
		r.Get("/processed-objects/{id}", router.handler.GetProcessedObject)
	})

	return r
}

// base sets up the global middleware stack of one host.
func (router *Router) base(host string, limit config.LimitConfig) (chi.Router, *ChiMiddleware) {
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = router.cfg.Server.CORSOrigins
	mwCfg.RateLimit = limit
	if h := router.cfg.AuthHeader; h != "" && h != authz.DefaultHeader {
		mwCfg.CORSAllowedHeaders = append(mwCfg.CORSAllowedHeaders, h)
	}
	mw := NewChiMiddleware(host, mwCfg)

	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.PrometheusMetrics(host))
	r.Use(middleware.SlowRequests(middleware.DefaultSlowThreshold))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.APIVersion(router.cfg.Server.APIVersion))
	r.Use(mw.CORS()) // CORS must be global to handle OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondProblem(w, req, http.StatusNotFound, ProblemNotFound, "no route for "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondProblem(w, req, http.StatusMethodNotAllowed, ProblemMethod, req.Method+" not allowed on "+req.URL.Path)
	})

	r.Get("/healthz", router.handler.Health)

	return r, mw
}

// protect adds the host limiter, admission, the per-key limiter and the
// body limit, in that order.
func (router *Router) protect(r chi.Router, host string, mw *ChiMiddleware) {
	r.Use(mw.RateLimit())
	r.Use(router.admission.Admit(host))
	r.Use(mw.KeyRateLimit())
	if n := router.cfg.Server.MaxBodyBytes; n > 0 {
		r.Use(middleware.MaxBody(n))
	}
}
