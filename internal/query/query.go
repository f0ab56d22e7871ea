// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package query serves the operator read path and the operator-only write
// operations that bypass the queue: delete and the synchronous amend.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/backup"
	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/processor"
	"github.com/tomtom215/verwerkingenlog/internal/validation"
)

// RecordStore is the part of the record store the query service reads and
// deletes through.
type RecordStore interface {
	Get(ctx context.Context, actionID string) (*models.Record, error)
	Delete(ctx context.Context, actionID string) (bool, error)
	ListBySubject(ctx context.Context, subjectKey string, filter models.Filter) (*models.Page, error)
	ListByActivity(ctx context.Context, activityID string, filter models.Filter) (*models.Page, error)
	ListByProcessedObject(ctx context.Context, processedObjectID string, filter models.Filter) (*models.Page, error)
	ListByProcessing(ctx context.Context, processingID string, filter models.Filter) (*models.Page, error)
}

// Selector names the index a list query runs on. When several are set the
// first of subject, activity, processed object and processing is the
// primary selector; the others narrow the result.
type Selector struct {
	Subject           string
	ActivityID        string
	ProcessedObjectID string
	ProcessingID      string
}

// Service is the operator query service.
type Service struct {
	store   RecordStore
	sink    backup.Sink
	writer  *processor.Processor
	timeout time.Duration
	now     func() time.Time
}

// New creates a query service. writer performs the synchronous amend's
// upsert; timeout bounds store calls.
func New(st RecordStore, sink backup.Sink, writer *processor.Processor, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{store: st, sink: sink, writer: writer, timeout: timeout, now: time.Now}
}

// GetByActionID returns one record or models.ErrNotFound.
func (s *Service) GetByActionID(ctx context.Context, actionID string) (*models.Record, error) {
	id, err := validation.ParseActionID(actionID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError("get", err)
	}
	return rec, nil
}

// ListBySubject lists the actions that processed objectType:subjectIDKind:subjectID.
func (s *Service) ListBySubject(ctx context.Context, objectType, subjectIDKind, subjectID string, filter models.Filter) (*models.Page, error) {
	if err := checkFilter(&filter); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.store.ListBySubject(ctx, indexkey.SubjectKey(objectType, subjectIDKind, subjectID), filter)
	if err != nil {
		return nil, storeError("list", err)
	}
	return page, nil
}

// ListByActivity lists the actions of one processing activity.
func (s *Service) ListByActivity(ctx context.Context, activityID string, filter models.Filter) (*models.Page, error) {
	if err := checkFilter(&filter); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.store.ListByActivity(ctx, activityID, filter)
	if err != nil {
		return nil, storeError("list", err)
	}
	return page, nil
}

// ListByProcessedObject lists the actions that processed one object.
func (s *Service) ListByProcessedObject(ctx context.Context, processedObjectID string, filter models.Filter) (*models.Page, error) {
	if err := checkFilter(&filter); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.store.ListByProcessedObject(ctx, processedObjectID, filter)
	if err != nil {
		return nil, storeError("list", err)
	}
	return page, nil
}

// ListByProcessing lists the actions registered under one processing id.
func (s *Service) ListByProcessing(ctx context.Context, processingID string, filter models.Filter) (*models.Page, error) {
	if err := checkFilter(&filter); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, err := s.store.ListByProcessing(ctx, processingID, filter)
	if err != nil {
		return nil, storeError("list", err)
	}
	return page, nil
}

// List dispatches on the primary selector and turns the others into
// filters.
func (s *Service) List(ctx context.Context, sel Selector, filter models.Filter) (*models.Page, error) {
	filter.ProcessingID = sel.ProcessingID
	switch {
	case sel.Subject != "":
		objectType, kind, subjectID, err := indexkey.ParseSubject(sel.Subject)
		if err != nil {
			return nil, models.NewValidationError("subject", err.Error())
		}
		if sel.ActivityID != "" {
			filter.ActivityID = sel.ActivityID
		}
		filter.ProcessedObjectID = sel.ProcessedObjectID
		return s.ListBySubject(ctx, objectType, kind, subjectID, filter)

	case sel.ActivityID != "":
		filter.ProcessedObjectID = sel.ProcessedObjectID
		return s.ListByActivity(ctx, sel.ActivityID, filter)

	case sel.ProcessedObjectID != "":
		return s.ListByProcessedObject(ctx, sel.ProcessedObjectID, filter)

	case sel.ProcessingID != "":
		filter.ProcessingID = ""
		return s.ListByProcessing(ctx, sel.ProcessingID, filter)
	}
	return nil, models.NewValidationError("subject", "one of subject, activity, processedObject or processing is required")
}

// DeleteByActionID removes a record and leaves a tombstone. Deleting an
// unknown id succeeds.
func (s *Service) DeleteByActionID(ctx context.Context, actionID string) error {
	id, err := validation.ParseActionID(actionID)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return storeError("delete", err)
	}
	logging.Ctx(ctx).Info().Str("action_id", id).Bool("existed", existed).Msg("Action deleted")
	return nil
}

// AmendByActionID replaces an action synchronously: intake and write-time
// validation, a backup copy, then a direct upsert. It returns the stored
// record.
//
// Unlike the queued amend, nothing retries the upsert if the process stops
// after the backup is written; the backup copy can be replayed.
func (s *Service) AmendByActionID(ctx context.Context, actionID string, raw []byte) (*models.Record, error) {
	id, err := validation.ParseActionID(actionID)
	if err != nil {
		return nil, err
	}
	payload, err := validation.DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	registeredAt := s.now().UTC()
	if err := validation.CheckWriteTime(payload, registeredAt); err != nil {
		return nil, err
	}
	rec, err := processor.BuildRecord(id, registeredAt, payload)
	if err != nil {
		return nil, models.NewValidationError("retentionPeriod", err.Error())
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	ref, err := s.sink.Put(ctx, &backup.Entry{
		ActionID:   id,
		Kind:       models.KindAmend,
		ReceivedAt: registeredAt,
		Payload:    raw,
	})
	if err != nil {
		return nil, models.NewTransientInfraError("backup", "put", err)
	}

	err = s.writer.Write(ctx, rec)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrDuplicateSuppressed):
		// A newer write, or a delete, already landed; report what is stored.
		current, getErr := s.store.Get(ctx, id)
		if getErr != nil {
			return nil, storeError("get", getErr)
		}
		return current, nil
	case models.IsTransient(err):
		var te *models.TransientInfraError
		errors.As(err, &te)
		te.BackupKey = ref.Key
		return nil, te
	default:
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("action_id", id).Str("backup_key", ref.Key).Msg("Action amended synchronously")
	return rec, nil
}

// checkFilter validates filter bounds.
func checkFilter(f *models.Filter) error {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return models.NewValidationError("from", "from must not be after to")
	}
	if f.Confidentiality != "" && !f.Confidentiality.Valid() {
		return models.NewValidationError("confidentiality", fmt.Sprintf("unknown confidentiality %q", f.Confidentiality))
	}
	if f.Limit < 0 {
		return models.NewValidationError("limit", "limit must not be negative")
	}
	return nil
}

// storeError passes not-found and validation errors through and wraps
// everything else as a transient store failure.
func storeError(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || models.IsValidation(err) {
		return err
	}
	return models.NewTransientInfraError("store", op, err)
}
