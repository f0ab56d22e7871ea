// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/backup"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/queue"
)

// ProblemContentType is the media type of error responses (RFC 9457).
const ProblemContentType = "application/problem+json"

// retryAfter is advertised on 503 responses.
const retryAfter = 5 * time.Second

// Problem types.
const (
	ProblemValidation      = "validation-error"
	ProblemWriteValidation = "write-validation-error"
	ProblemNotFound        = "not-found"
	ProblemUnavailable     = "service-unavailable"
	ProblemUnprocessable   = "unprocessable"
	ProblemTooLarge        = "payload-too-large"
	ProblemUnsupported     = "unsupported-media-type"
	ProblemUnauthorized    = "unauthorized"
	ProblemForbidden       = "forbidden"
	ProblemRateLimited     = "rate-limited"
	ProblemMethod          = "method-not-allowed"
	ProblemInternal        = "internal-error"
)

const problemTypeBase = "urn:verwerkingenlog:problem:"

// Problem is an RFC 9457 problem detail.
type Problem struct {
	Type      string              `json:"type"`
	Title     string              `json:"title"`
	Status    int                 `json:"status"`
	Detail    string              `json:"detail,omitempty"`
	Instance  string              `json:"instance,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
	Errors    []models.FieldError `json:"errors,omitempty"`
	// BackupKey names the backup copy of a submission whose enqueue failed,
	// for a later replay.
	BackupKey string `json:"backupKey,omitempty"`
}

func newProblem(r *http.Request, status int, kind, detail string) *Problem {
	return &Problem{
		Type:      problemTypeBase + kind,
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Instance:  r.URL.Path,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

func writeProblem(w http.ResponseWriter, p *Problem) {
	data, err := json.Marshal(p)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal problem response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(p.Status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write problem response")
	}
}

// respondProblem writes a problem without an underlying error.
func respondProblem(w http.ResponseWriter, r *http.Request, status int, kind, detail string) {
	writeProblem(w, newProblem(r, status, kind, detail))
}

// respondError maps err onto the error taxonomy and writes the problem:
//
//	ValidationError           400, or 422 for write-time checks
//	NotFound                  404
//	TransientInfraError       503 with Retry-After
//	PermanentProcessingError  422
//	anything else             500
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *models.ValidationError
		te  *models.TransientInfraError
		pe  *models.PermanentProcessingError
		mbe *http.MaxBytesError
	)

	switch {
	case errors.As(err, &ve):
		status, kind := http.StatusBadRequest, ProblemValidation
		if ve.WriteTime {
			status, kind = http.StatusUnprocessableEntity, ProblemWriteValidation
		}
		p := newProblem(r, status, kind, ve.Error())
		p.Errors = ve.Fields
		writeProblem(w, p)

	case errors.As(err, &mbe):
		respondProblem(w, r, http.StatusRequestEntityTooLarge, ProblemTooLarge,
			"request body exceeds "+strconv.FormatInt(mbe.Limit, 10)+" bytes")

	case errors.Is(err, errUnsupportedMediaType):
		respondProblem(w, r, http.StatusUnsupportedMediaType, ProblemUnsupported, err.Error())

	case isNotFound(err):
		respondProblem(w, r, http.StatusNotFound, ProblemNotFound, "resource not found")

	case errors.As(err, &te):
		logging.Ctx(r.Context()).Warn().Err(err).
			Str("component", te.Component).
			Str("op", te.Op).
			Str("backup_key", te.BackupKey).
			Msg("Request failed on unavailable infrastructure")
		p := newProblem(r, http.StatusServiceUnavailable, ProblemUnavailable, te.Component+" unavailable, retry later")
		p.BackupKey = te.BackupKey
		setRetryAfter(w, retryAfter)
		writeProblem(w, p)

	case errors.Is(err, context.DeadlineExceeded):
		setRetryAfter(w, retryAfter)
		respondProblem(w, r, http.StatusServiceUnavailable, ProblemUnavailable, "request timed out, retry later")

	case errors.As(err, &pe):
		respondProblem(w, r, http.StatusUnprocessableEntity, ProblemUnprocessable, pe.Error())

	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled API error")
		respondProblem(w, r, http.StatusInternalServerError, ProblemInternal, "internal error")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, queue.ErrNotFound) ||
		errors.Is(err, backup.ErrNotFound)
}

func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
}

// Deny writes admission rejections as problems. It satisfies authz.DenyFunc.
func Deny(w http.ResponseWriter, r *http.Request, status int, detail string) {
	kind := ProblemForbidden
	switch status {
	case http.StatusUnauthorized:
		kind = ProblemUnauthorized
		w.Header().Set("WWW-Authenticate", `APIKey realm="verwerkingenlog"`)
	case http.StatusInternalServerError:
		kind = ProblemInternal
	}
	respondProblem(w, r, status, kind, detail)
}
