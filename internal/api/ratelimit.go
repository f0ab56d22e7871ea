// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"golang.org/x/time/rate"

	"github.com/tomtom215/verwerkingenlog/internal/authz"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

// Limiter names used in metrics.
const (
	limiterGlobal = "global"
	limiterKey    = "key"
)

// idleBucketTTL is how long an unused key bucket is kept.
const idleBucketTTL = 10 * time.Minute

func noopMiddleware(next http.Handler) http.Handler { return next }

// HostRateLimit returns the host-wide limiter: cfg.Requests per cfg.Window
// shared by every caller of host.
func HostRateLimit(host string, cfg config.LimitConfig) func(http.Handler) http.Handler {
	if cfg.Disabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return noopMiddleware
	}
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(func(*http.Request) (string, error) {
			return host, nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(host, limiterGlobal)
			if w.Header().Get("Retry-After") == "" {
				setRetryAfter(w, cfg.Window)
			}
			respondProblem(w, r, http.StatusTooManyRequests, ProblemRateLimited, "host request rate exceeded")
		}),
	)
}

// KeyLimiter is a token bucket per admission key, for bursts from a single
// caller.
type KeyLimiter struct {
	host  string
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewKeyLimiter returns nil when per-key limiting is disabled.
func NewKeyLimiter(host string, cfg config.LimitConfig) *KeyLimiter {
	if cfg.Disabled || cfg.KeyRate <= 0 {
		return nil
	}
	burst := cfg.KeyBurst
	if burst < 1 {
		burst = 1
	}
	return &KeyLimiter{
		host:    host,
		limit:   rate.Limit(cfg.KeyRate),
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token for key. When none is available it returns the
// wait until one will be.
func (l *KeyLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	l.sweep(now)
	l.mu.Unlock()

	res := b.lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return false, d
	}
	return true, 0
}

// sweep drops idle buckets at most once per idleBucketTTL. l.mu is held.
func (l *KeyLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleBucketTTL {
		return
	}
	l.lastSweep = now
	for k, b := range l.buckets {
		if now.Sub(b.seen) > idleBucketTTL {
			delete(l.buckets, k)
		}
	}
}

// Middleware limits admitted requests by their key. It runs after
// authz admission; requests without a principal pass.
func (l *KeyLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := authz.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if allowed, wait := l.Allow(p.KeyID); !allowed {
			metrics.RecordRateLimitHit(l.host, limiterKey)
			setRetryAfter(w, wait)
			respondProblem(w, r, http.StatusTooManyRequests, ProblemRateLimited, "key request rate exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
