// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package models

import (
	"errors"
	"strings"
)

// ErrNotFound is returned for reads of an absent key. Deletes treat it as
// success.
var ErrNotFound = errors.New("not found")

// ErrDuplicateSuppressed reports that a write converged on state that was
// already stored: a redelivery, a stale upsert or a write after delete. It
// is not a failure and the message is acknowledged.
var ErrDuplicateSuppressed = errors.New("duplicate suppressed")

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

// ValidationError rejects a payload before anything is written. It is never
// retried.
type ValidationError struct {
	Fields []FieldError
	// WriteTime is set for the stricter checks the processor applies.
	WriteTime bool
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// TransientInfraError wraps a store, queue or backup failure that may succeed
// on retry, including timeouts.
type TransientInfraError struct {
	// Component is "store", "queue" or "backup".
	Component string
	Op        string
	Cause     error
	// BackupKey is set when a backup copy exists for the failed submission.
	BackupKey string
}

// NewTransientInfraError wraps cause.
func NewTransientInfraError(component, op string, cause error) *TransientInfraError {
	return &TransientInfraError{Component: component, Op: op, Cause: cause}
}

// Error implements the error interface.
func (e *TransientInfraError) Error() string {
	msg := e.Component + " " + e.Op + " unavailable"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TransientInfraError) Unwrap() error {
	return e.Cause
}

// PermanentProcessingError is a message the processor can never write. The
// message is dead-lettered instead of retried.
type PermanentProcessingError struct {
	Reason string
	Cause  error
}

// NewPermanentProcessingError wraps cause with a short reason.
func NewPermanentProcessingError(reason string, cause error) *PermanentProcessingError {
	return &PermanentProcessingError{Reason: reason, Cause: cause}
}

// Error implements the error interface.
func (e *PermanentProcessingError) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

// Unwrap returns the underlying cause.
func (e *PermanentProcessingError) Unwrap() error {
	return e.Cause
}

// IsPermanent reports whether err, or anything it wraps, is a
// PermanentProcessingError.
func IsPermanent(err error) bool {
	var pe *PermanentProcessingError
	return errors.As(err, &pe)
}

// IsTransient reports whether err, or anything it wraps, is a
// TransientInfraError.
func IsTransient(err error) bool {
	var te *TransientInfraError
	return errors.As(err, &te)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
