// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package inzage answers a data subject's access request: which of their
// objects were processed, and by which actions.
//
// Responses carry only the disclosable subset of an action. Actions marked
// vertrouwelijk are left out entirely.
package inzage

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/store"
)

// maxPages bounds how many store pages one request walks.
const maxPages = 20

// RecordReader is the part of the record store inzage reads.
type RecordReader interface {
	ListBySubject(ctx context.Context, subjectKey string, filter models.Filter) (*models.Page, error)
	ListByProcessedObject(ctx context.Context, processedObjectID string, filter models.Filter) (*models.Page, error)
}

// Service is the read-only access service.
type Service struct {
	store   RecordReader
	timeout time.Duration

	pageSize int
	maxPages int
}

// New creates an inzage service. timeout bounds each request's store reads.
func New(r RecordReader, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{store: r, timeout: timeout, pageSize: store.MaxLimit, maxPages: maxPages}
}

// ListProcessedObjects returns the subject's processed objects, each with
// the disclosable actions on it, in order of first processing.
//
// One call reads at most maxPages store pages starting at filter.Cursor.
// When the subject has more actions than that, the returned cursor is
// non-empty and continues where this call stopped.
func (s *Service) ListProcessedObjects(ctx context.Context, objectType, subjectIDKind, subjectID string, filter models.Filter) ([]models.InzageObject, string, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, "", models.NewValidationError("from", "from must not be after to")
	}
	subjectKey := indexkey.SubjectKey(objectType, subjectIDKind, subjectID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, next, err := s.collect(ctx, filter, func(ctx context.Context, f models.Filter) (*models.Page, error) {
		return s.store.ListBySubject(ctx, subjectKey, f)
	})
	if err != nil {
		return nil, "", err
	}

	return group(records, func(rec *models.Record, i int) bool {
		return rec.Keys.SubjectKeys[i] == subjectKey
	}), next, nil
}

// GetProcessedObject returns one object with its disclosable actions, or
// models.ErrNotFound when none exist.
func (s *Service) GetProcessedObject(ctx context.Context, processedObjectID string) (*models.InzageObject, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, next, err := s.collect(ctx, models.Filter{}, func(ctx context.Context, f models.Filter) (*models.Page, error) {
		return s.store.ListByProcessedObject(ctx, processedObjectID, f)
	})
	if err != nil {
		return nil, err
	}
	if next != "" {
		logging.Ctx(ctx).Warn().
			Str("processed_object_id", processedObjectID).
			Int("records", len(records)).
			Msg("Processed object has more actions than one response holds, returning the oldest")
	}

	objects := group(records, func(rec *models.Record, i int) bool {
		return rec.Keys.ProcessedObjectIDs[i] == processedObjectID
	})
	if len(objects) == 0 {
		return nil, models.ErrNotFound
	}
	return &objects[0], nil
}

// collect walks the pages of one index from filter.Cursor and keeps the
// disclosable records. The returned cursor is empty once the index is
// exhausted.
func (s *Service) collect(ctx context.Context, filter models.Filter, list func(context.Context, models.Filter) (*models.Page, error)) ([]*models.Record, string, error) {
	filter.Limit = s.pageSize

	var out []*models.Record
	for i := 0; i < s.maxPages; i++ {
		page, err := list(ctx, filter)
		if err != nil {
			if models.IsValidation(err) || errors.Is(err, models.ErrNotFound) {
				return nil, "", err
			}
			return nil, "", models.NewTransientInfraError("store", "list", err)
		}
		for _, rec := range page.Items {
			if rec.Confidentiality == models.ConfidentialityConfidential {
				continue
			}
			out = append(out, rec)
		}
		if page.NextCursor == "" {
			return out, "", nil
		}
		filter.Cursor = page.NextCursor
	}
	return out, filter.Cursor, nil
}

// group turns records into objects. match selects which processed objects
// of a record belong in the response. Object attributes follow the most
// recently registered action.
func group(records []*models.Record, match func(rec *models.Record, i int) bool) []models.InzageObject {
	index := make(map[string]int)
	var objects []models.InzageObject

	for _, rec := range records {
		seen := make(map[string]bool)
		for i, po := range rec.ProcessedObjects {
			if i >= len(rec.Keys.ProcessedObjectIDs) || !match(rec, i) {
				continue
			}
			id := rec.Keys.ProcessedObjectIDs[i]
			if seen[id] {
				continue
			}
			seen[id] = true

			n, ok := index[id]
			if !ok {
				n = len(objects)
				index[id] = n
				objects = append(objects, models.InzageObject{
					ProcessedObjectID: id,
					Actions:           []models.InzageAction{},
				})
			}
			obj := &objects[n]
			obj.ObjectType = po.ObjectType
			obj.SubjectIDKind = po.SubjectIDKind
			obj.Involvement = po.Involvement
			obj.DataCategories = po.DataCategories
			obj.Actions = append(obj.Actions, models.InzageAction{
				ActivityID:        rec.ActivityID,
				ActivityURL:       rec.ActivityURL,
				ProcessingName:    rec.ProcessingName,
				ActorOrganization: rec.ActorOrganization,
				OccurredAt:        rec.OccurredAt,
			})
		}
	}
	return objects
}
