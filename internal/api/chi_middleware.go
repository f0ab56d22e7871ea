// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/tomtom215/verwerkingenlog/internal/authz"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/middleware"
)

// ChiMiddlewareConfig holds configuration for the per-host Chi middleware.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Rate limiting configuration
	RateLimit config.LimitConfig
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{
			"Content-Type",
			authz.DefaultHeader,
			middleware.RequestIDHeader,
			middleware.CorrelationIDHeader,
		},
		CORSExposedHeaders: []string{
			middleware.APIVersionHeader,
			middleware.RequestIDHeader,
			"Retry-After",
		},
		CORSMaxAge: 86400,
	}
}

// ChiMiddleware provides the Chi middleware of one host.
type ChiMiddleware struct {
	host   string
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
	keys   *KeyLimiter
}

// NewChiMiddleware creates the middleware factory for host.
func NewChiMiddleware(host string, cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}

	corsHandler := noopMiddleware
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsHandler = cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   cfg.CORSAllowedMethods,
			AllowedHeaders:   cfg.CORSAllowedHeaders,
			ExposedHeaders:   cfg.CORSExposedHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		})
	}

	return &ChiMiddleware{
		host:   host,
		config: cfg,
		cors:   corsHandler,
		keys:   NewKeyLimiter(host, cfg.RateLimit),
	}
}

// CORS returns the go-chi/cors middleware, or a no-op when no origin is
// configured.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the host-wide go-chi/httprate limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return HostRateLimit(m.host, m.config.RateLimit)
}

// KeyRateLimit returns the per-key burst limiter. It must run after
// admission.
func (m *ChiMiddleware) KeyRateLimit() func(http.Handler) http.Handler {
	return m.keys.Middleware
}
