// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package processor

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/breaker"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/queue"
	"github.com/tomtom215/verwerkingenlog/internal/store"
	"github.com/tomtom215/verwerkingenlog/internal/validation"
)

// RecordWriter is the part of the record store the processor writes to.
type RecordWriter interface {
	Upsert(ctx context.Context, rec *models.Record) error
}

// Processor writes action messages to the record store.
type Processor struct {
	store   RecordWriter
	cb      *breaker.CircuitBreaker
	timeout time.Duration
}

// New creates a processor. storeTimeout bounds each upsert.
func New(w RecordWriter, cfg config.ProcessorConfig, storeTimeout time.Duration) *Processor {
	bc := breaker.DefaultConfig("record-store")
	if cfg.BreakerMaxFails > 0 {
		bc.FailureThreshold = cfg.BreakerMaxFails
	}
	if cfg.BreakerTimeout > 0 {
		bc.Timeout = cfg.BreakerTimeout
	}
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Processor{
		store:   w,
		cb:      breaker.New(bc),
		timeout: storeTimeout,
	}
}

// Handle implements message.NoPublishHandlerFunc.
func (p *Processor) Handle(msg *message.Message) (err error) {
	start := time.Now()
	ctx := msg.Context()
	if cid := msg.Metadata.Get(models.MetadataCorrelationID); cid != "" {
		ctx = logging.ContextWithCorrelationID(ctx, cid)
	}
	if id := msg.Metadata.Get(models.MetadataActionID); id != "" {
		ctx = logging.ContextWithActionID(ctx, id)
	}

	outcome := "stored"
	defer func() { metrics.RecordProcessed(outcome, time.Since(start)) }()

	var am models.ActionMessage
	if err := json.Unmarshal(msg.Payload, &am); err != nil {
		outcome = "permanent"
		return p.permanent(ctx, msg, models.NewPermanentProcessingError("undecodable message", err))
	}
	if am.ActionID == "" || am.RegisteredAt.IsZero() {
		outcome = "permanent"
		return p.permanent(ctx, msg, models.NewPermanentProcessingError("incomplete message", nil))
	}

	err = p.Process(ctx, &am)
	switch {
	case err == nil:
		logging.Ctx(ctx).Debug().Str("kind", string(am.Kind)).Msg("Action stored")
		return nil
	case errors.Is(err, models.ErrDuplicateSuppressed):
		outcome = "suppressed"
		logging.Ctx(ctx).Debug().Str("kind", string(am.Kind)).Msg("Duplicate or stale action suppressed")
		return nil
	case models.IsPermanent(err):
		outcome = "permanent"
		return p.permanent(ctx, msg, err)
	default:
		outcome = "transient"
		logging.Ctx(ctx).Warn().Err(err).Str("deliveries", msg.Metadata.Get(queue.DeliveriesKey)).Msg("Store write failed, message will be redelivered")
		return err
	}
}

func (p *Processor) permanent(ctx context.Context, msg *message.Message, err error) error {
	e := logging.Ctx(ctx).Warn().Err(err).Str("message_id", msg.UUID)
	e = logging.Payload(e, "payload", msg.Payload)
	e.Msg("Action cannot be processed, dead-lettering")
	return err
}

// Process validates and stores one action message. Failures are
// PermanentProcessingError or TransientInfraError; a suppressed write
// returns models.ErrDuplicateSuppressed.
func (p *Processor) Process(ctx context.Context, am *models.ActionMessage) error {
	if am.Kind == models.KindPatch {
		return p.applyPatch(ctx, am)
	}

	payload, err := validation.DecodePayload(am.Payload)
	if err != nil {
		return models.NewPermanentProcessingError("invalid payload", err)
	}
	if err := validation.CheckWriteTime(payload, am.RegisteredAt); err != nil {
		return models.NewPermanentProcessingError("write-time validation failed", err)
	}

	rec, err := BuildRecord(am.ActionID, am.RegisteredAt, payload)
	if err != nil {
		return models.NewPermanentProcessingError("cannot build record", err)
	}
	return p.Write(ctx, rec)
}

// Write upserts rec through the circuit breaker with the store timeout.
// An expired record is classified before the breaker sees it: it is a
// property of the data and must not count as a store failure.
func (p *Processor) Write(ctx context.Context, rec *models.Record) error {
	return p.call(ctx, "upsert", func(ctx context.Context) error {
		err := p.store.Upsert(ctx, rec)
		if errors.Is(err, store.ErrExpired) {
			return models.NewPermanentProcessingError("retention elapsed", err)
		}
		return err
	})
}

// call runs one store operation through the circuit breaker with the store
// timeout. Outcomes the breaker counts as successes pass through unchanged;
// anything else becomes a TransientInfraError.
func (p *Processor) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := breaker.Execute(p.cb, func() error {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return fn(ctx)
	})
	if breaker.IsSuccessful(err) {
		return err
	}
	return models.NewTransientInfraError("store", op, err)
}

// BuildRecord materialises a validated payload: index keys come from
// indexkey.Derive over the raw payload, subject identifiers are replaced by
// their pseudonyms and every processed object gets its stable id.
func BuildRecord(actionID string, registeredAt time.Time, payload *models.Payload) (*models.Record, error) {
	expiresAt, err := indexkey.ExpiresAt(payload)
	if err != nil {
		return nil, err
	}
	keys := indexkey.Derive(payload)

	rec := &models.Record{
		ActionID:     actionID,
		RegisteredAt: registeredAt.UTC(),
		ExpiresAt:    expiresAt,
		Keys:         keys,
		Payload:      *payload,
	}
	rec.OccurredAt = payload.OccurredAt.UTC()
	rec.ProcessedObjects = make([]models.ProcessedObject, len(payload.ProcessedObjects))
	for i, o := range payload.ProcessedObjects {
		o.SubjectID = indexkey.Pseudonym(o.SubjectID)
		o.ProcessedObjectID = keys.ProcessedObjectIDs[i]
		rec.ProcessedObjects[i] = o
	}
	return rec, nil
}
