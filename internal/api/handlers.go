// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/query"
)

// Intake accepts actions onto the queue.
type Intake interface {
	Create(ctx context.Context, raw []byte) (*models.Receipt, error)
	Amend(ctx context.Context, actionID string, raw []byte) (*models.Receipt, error)
	Replay(ctx context.Context, actionID string) (*models.Receipt, error)
	Patch(ctx context.Context, processingID string, raw []byte) (*models.PatchReceipt, error)
}

// Query is the operator read and direct-write path.
type Query interface {
	GetByActionID(ctx context.Context, actionID string) (*models.Record, error)
	List(ctx context.Context, sel query.Selector, filter models.Filter) (*models.Page, error)
	DeleteByActionID(ctx context.Context, actionID string) error
	AmendByActionID(ctx context.Context, actionID string, raw []byte) (*models.Record, error)
}

// Inzage is the data subject access path.
type Inzage interface {
	ListProcessedObjects(ctx context.Context, objectType, subjectIDKind, subjectID string, filter models.Filter) ([]models.InzageObject, string, error)
	GetProcessedObject(ctx context.Context, processedObjectID string) (*models.InzageObject, error)
}

// DeadLetterStore exposes the dead-letter partition of the queue.
type DeadLetterStore interface {
	DeadLetters(ctx context.Context, topic string, limit int) ([]models.DeadLetter, error)
	DeadLetter(ctx context.Context, topic, id string) (*models.DeadLetter, error)
	PurgeDeadLetter(ctx context.Context, topic, id string) error
	Stats(ctx context.Context, topic string) (models.QueueStats, error)
}

// Redriver moves a dead letter back onto the live transport.
type Redriver interface {
	Redrive(ctx context.Context, id string) error
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps are the services behind the handlers. Inzage is only needed on the
// access host; the rest only on the operator host.
type Deps struct {
	Intake      Intake
	Query       Query
	Inzage      Inzage
	DeadLetters DeadLetterStore
	Redriver    Redriver

	// Topic is the queue topic dead letters are read from.
	Topic string
	// Transport names the live queue backend in redrive responses.
	Transport string
	Version   string
	Checks    map[string]HealthCheck
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor and shared helpers
//   - handlers_actions.go: operator action endpoints
//   - handlers_dlq.go: dead-letter endpoints
//   - handlers_backup.go: backup replay
//   - handlers_inzage.go: access host endpoints
//   - handlers_health.go: health endpoint
type Handler struct {
	intake      Intake
	query       Query
	inzage      Inzage
	deadLetters DeadLetterStore
	redriver    Redriver

	topic     string
	transport string
	version   string
	checks    map[string]HealthCheck
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		intake:      d.Intake,
		query:       d.Query,
		inzage:      d.Inzage,
		deadLetters: d.DeadLetters,
		redriver:    d.Redriver,
		topic:       d.Topic,
		transport:   d.Transport,
		version:     d.Version,
		checks:      d.Checks,
		startTime:   time.Now(),
	}
}

// pathID returns the named URL parameter, or a validation error when it is
// empty.
func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if id == "" {
		return "", models.NewValidationError(name, name+" is required")
	}
	return id, nil
}
