// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package breaker builds the circuit breakers that guard the record store
// and the remote backup backend.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// Config holds circuit breaker settings.
type Config struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultConfig returns production defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreaker is the breaker type used throughout the service.
type CircuitBreaker = gobreaker.CircuitBreaker[interface{}]

// New creates a circuit breaker. Only infrastructure failures count against
// it: a suppressed duplicate, a missing key, a validation failure or a
// permanent processing error says nothing about the health of the backend.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
		IsSuccessful: IsSuccessful,
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	return gobreaker.NewCircuitBreaker[interface{}](settings)
}

// IsSuccessful reports whether err leaves the breaker's failure count alone.
func IsSuccessful(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, models.ErrDuplicateSuppressed),
		errors.Is(err, models.ErrNotFound),
		models.IsValidation(err),
		models.IsPermanent(err):
		return true
	}
	return false
}

// IsOpen reports whether err was returned because the breaker rejected the
// call without running it.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Execute runs fn through cb.
func Execute(cb *CircuitBreaker, fn func() error) error {
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
