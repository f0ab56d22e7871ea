// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	"net/http"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

// DefaultHeader carries the admission key when none is configured.
const DefaultHeader = "X-API-Key"

// DenyFunc writes a rejection. status is 401, 403 or 500.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int, detail string)

// Middleware admits requests by key and route.
type Middleware struct {
	enforcer *Enforcer
	keys     *Keyring
	header   string
	deny     DenyFunc
	audit    *AuditLogger
}

// NewMiddleware creates the admission middleware. A nil deny writes plain
// text errors; a nil audit logger records nothing.
func NewMiddleware(enforcer *Enforcer, keys *Keyring, header string, deny DenyFunc, audit *AuditLogger) *Middleware {
	if header == "" {
		header = DefaultHeader
	}
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int, detail string) {
			http.Error(w, detail, status)
		}
	}
	return &Middleware{
		enforcer: enforcer,
		keys:     keys,
		header:   header,
		deny:     deny,
		audit:    audit,
	}
}

// Admit returns middleware for one host. A request without a key is
// rejected with 401. An unknown key, or a role the policy does not allow on
// the route, is rejected with 403. Admitted requests carry their Principal.
func (m *Middleware) Admit(host string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			event := &AuditEvent{
				RequestID: logging.RequestIDFromContext(r.Context()),
				Host:      host,
				Method:    r.Method,
				Path:      r.URL.Path,
				RemoteIP:  r.RemoteAddr,
			}

			key := r.Header.Get(m.header)
			if key == "" {
				m.reject(w, r, event, start, http.StatusUnauthorized, "missing admission key", "missing_key")
				return
			}

			p, ok := m.keys.Lookup(key)
			if !ok {
				event.KeyHint = logging.MaskKey(key)
				m.reject(w, r, event, start, http.StatusForbidden, "unknown admission key", "unknown_key")
				return
			}
			event.Role = p.Role
			event.KeyID = p.KeyID

			allowed, cacheHit, err := m.enforcer.Enforce(p.Role, host, r.URL.Path, r.Method)
			event.CacheHit = cacheHit
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				m.reject(w, r, event, start, http.StatusInternalServerError, "authorization error", "enforce_error")
				return
			}
			if !allowed {
				m.reject(w, r, event, start, http.StatusForbidden, "key not permitted on this route", "role_denied")
				return
			}

			event.Allowed = true
			event.Status = http.StatusOK
			event.Duration = time.Since(start)
			m.audit.LogDecision(event)

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, event *AuditEvent, start time.Time, status int, detail, reason string) {
	event.Status = status
	event.Reason = reason
	event.Duration = time.Since(start)
	m.audit.LogDecision(event)
	metrics.RecordAdmissionDenial(event.Host, status)
	m.deny(w, r, status, detail)
}
