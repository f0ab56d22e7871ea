// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package breaker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/models"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cb := New(DefaultConfig("test-breaker"))
	if cb.Name() != "test-breaker" {
		t.Errorf("Name() = %s, want test-breaker", cb.Name())
	}
	if got := cb.State().String(); got != "closed" {
		t.Errorf("State() = %s, want closed", got)
	}
}

func TestExecute_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	cb := New(Config{
		Name:             "open-test",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})

	boom := errors.New("connection refused")
	for i := 0; i < 2; i++ {
		if err := Execute(cb, func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("Execute() error = %v, want %v", err, boom)
		}
	}

	called := false
	err := Execute(cb, func() error {
		called = true
		return nil
	})
	if !IsOpen(err) {
		t.Errorf("Execute() on open breaker error = %v, want open state", err)
	}
	if called {
		t.Error("fn ran while breaker was open")
	}
}

func TestExecute_DomainErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	cb := New(Config{
		Name:             "domain-test",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 1,
	})

	for _, err := range []error{
		models.ErrDuplicateSuppressed,
		fmt.Errorf("get: %w", models.ErrNotFound),
		models.NewValidationError("occurredAt", "in the future"),
		models.NewPermanentProcessingError("undecodable", nil),
	} {
		_ = Execute(cb, func() error { return err })
	}
	if got := cb.State().String(); got != "closed" {
		t.Errorf("State() = %s, want closed", got)
	}
}
