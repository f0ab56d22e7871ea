// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package processor

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/store"
	"github.com/tomtom215/verwerkingenlog/internal/validation"
)

// replaceAttempts bounds re-reads of a record that keeps changing under a
// processing patch.
const replaceAttempts = 3

// ProcessingStore is the store surface a processing patch needs.
type ProcessingStore interface {
	RecordWriter
	Get(ctx context.Context, actionID string) (*models.Record, error)
	Replace(ctx context.Context, rec *models.Record, readAt time.Time) error
	Delete(ctx context.Context, actionID string) (bool, error)
	ListByProcessing(ctx context.Context, processingID string, filter models.Filter) (*models.Page, error)
}

type patchResult int

const (
	patchSkipped patchResult = iota
	patchApplied
	patchDeleted
)

// applyPatch sets confidentiality and/or retention on every action of one
// processing that was registered before the patch. Each record is rewritten
// with the patch time as its registeredAt, so redelivering the patch finds
// nothing left to do. A record whose new retention has already elapsed is
// deleted.
func (p *Processor) applyPatch(ctx context.Context, am *models.ActionMessage) error {
	ps, ok := p.store.(ProcessingStore)
	if !ok {
		return models.NewPermanentProcessingError("record store cannot apply processing patches", nil)
	}

	var patch models.ProcessingPatch
	if err := json.Unmarshal(am.Payload, &patch); err != nil {
		return models.NewPermanentProcessingError("undecodable patch", err)
	}
	if err := validation.ValidatePatch(&patch); err != nil {
		return models.NewPermanentProcessingError("invalid patch", err)
	}
	patchedAt := am.RegisteredAt.UTC()

	ids, err := p.patchTargets(ctx, ps, patch.ProcessingID, patchedAt)
	if err != nil {
		return err
	}

	var applied, deleted int
	for _, id := range ids {
		res, err := p.patchRecord(ctx, ps, id, &patch, patchedAt)
		if err != nil {
			return err
		}
		switch res {
		case patchApplied:
			applied++
		case patchDeleted:
			deleted++
		}
	}

	logging.Ctx(ctx).Info().
		Str("processing_id", patch.ProcessingID).
		Int("matched", len(ids)).
		Int("applied", applied).
		Int("deleted", deleted).
		Msg("Processing patch applied")
	return nil
}

// patchTargets lists the ids of every record under processingID registered
// before patchedAt. The ids are collected first because patched records
// move to the end of the index.
func (p *Processor) patchTargets(ctx context.Context, ps ProcessingStore, processingID string, patchedAt time.Time) ([]string, error) {
	var ids []string
	filter := models.Filter{Limit: store.MaxLimit}
	for {
		var page *models.Page
		err := p.call(ctx, "list", func(ctx context.Context) error {
			var err error
			page, err = ps.ListByProcessing(ctx, processingID, filter)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Items {
			if rec.RegisteredAt.Before(patchedAt) {
				ids = append(ids, rec.ActionID)
			}
		}
		if page.NextCursor == "" {
			return ids, nil
		}
		filter.Cursor = page.NextCursor
	}
}

// patchRecord applies patch to one record, re-reading it when a concurrent
// write lands between the read and the replace.
func (p *Processor) patchRecord(ctx context.Context, ps ProcessingStore, actionID string, patch *models.ProcessingPatch, patchedAt time.Time) (patchResult, error) {
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		var current *models.Record
		err := p.call(ctx, "get", func(ctx context.Context) error {
			var err error
			current, err = ps.Get(ctx, actionID)
			return err
		})
		if errors.Is(err, models.ErrNotFound) {
			return patchSkipped, nil
		}
		if err != nil {
			return patchSkipped, err
		}
		if !current.RegisteredAt.Before(patchedAt) || current.ProcessingID != patch.ProcessingID {
			return patchSkipped, nil
		}

		rec, err := patchedRecord(current, patch, patchedAt)
		if err != nil {
			return patchSkipped, models.NewPermanentProcessingError("cannot patch record", err)
		}

		if rec.Expired(time.Now()) {
			err = p.call(ctx, "delete", func(ctx context.Context) error {
				_, err := ps.Delete(ctx, actionID)
				return err
			})
			if err != nil {
				return patchSkipped, err
			}
			return patchDeleted, nil
		}

		changed := false
		err = p.call(ctx, "replace", func(ctx context.Context) error {
			err := ps.Replace(ctx, rec, current.RegisteredAt)
			switch {
			case errors.Is(err, store.ErrChanged):
				changed = true
				return nil
			case errors.Is(err, store.ErrExpired):
				return models.NewPermanentProcessingError("retention elapsed", err)
			}
			return err
		})
		switch {
		case changed:
			continue
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrDuplicateSuppressed):
			return patchSkipped, nil
		case err != nil:
			return patchSkipped, err
		}
		return patchApplied, nil
	}
	return patchSkipped, models.NewTransientInfraError("store", "replace", store.ErrChanged)
}

// patchedRecord copies rec with the patch applied and its expiry
// recomputed. Index keys are unchanged: neither field is indexed.
func patchedRecord(rec *models.Record, patch *models.ProcessingPatch, patchedAt time.Time) (*models.Record, error) {
	out := *rec
	if patch.Confidentiality != "" {
		out.Confidentiality = patch.Confidentiality
	}
	if patch.RetentionPeriod != "" {
		out.RetentionPeriod = patch.RetentionPeriod
	}
	expiresAt, err := indexkey.ExpiresAt(&out.Payload)
	if err != nil {
		return nil, err
	}
	out.ExpiresAt = expiresAt
	out.RegisteredAt = patchedAt
	return &out, nil
}
