// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/verwerkingenlog/internal/backup"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/validation"
)

// backupAttempts bounds retries when two submissions of one action land on
// the same receipt time and therefore the same backup key.
const backupAttempts = 3

// Service accepts submissions.
type Service struct {
	sink      backup.Sink
	publisher message.Publisher
	topic     string
	timeout   time.Duration

	now   func() time.Time
	newID func() (uuid.UUID, error)
}

// New creates an intake service publishing to topic.
func New(sink backup.Sink, publisher message.Publisher, topic string, cfg config.IntakeConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		sink:      sink,
		publisher: publisher,
		topic:     topic,
		timeout:   timeout,
		now:       time.Now,
		newID:     uuid.NewV7,
	}
}

// Create accepts a new action. The action id is a time-ordered UUIDv7.
func (s *Service) Create(ctx context.Context, raw []byte) (receipt *models.Receipt, err error) {
	start := time.Now()
	defer func() { metrics.RecordIntake(string(models.KindCreate), outcome(err), time.Since(start)) }()

	if _, err := validation.DecodePayload(raw); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate action id: %w", err)
	}
	return s.submit(ctx, id.String(), models.KindCreate, raw)
}

// Amend accepts a replacement for an existing action. The processor treats
// it as an idempotent replace; amending an unknown id creates it.
func (s *Service) Amend(ctx context.Context, actionID string, raw []byte) (receipt *models.Receipt, err error) {
	start := time.Now()
	defer func() { metrics.RecordIntake(string(models.KindAmend), outcome(err), time.Since(start)) }()

	id, err := validation.ParseActionID(actionID)
	if err != nil {
		return nil, err
	}
	if _, err := validation.DecodePayload(raw); err != nil {
		return nil, err
	}
	return s.submit(ctx, id, models.KindAmend, raw)
}

// Patch queues a change of confidentiality and/or retention for every action
// registered under processingID. The patch gets its own UUIDv7, keys its own
// backup copy and is applied by the processor at its receipt time: actions
// registered later are left alone.
func (s *Service) Patch(ctx context.Context, processingID string, raw []byte) (receipt *models.PatchReceipt, err error) {
	start := time.Now()
	defer func() { metrics.RecordIntake(string(models.KindPatch), outcome(err), time.Since(start)) }()

	patch, err := validation.DecodePatch(processingID, raw)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate patch id: %w", err)
	}
	r, err := s.submit(ctx, id.String(), models.KindPatch, body)
	if err != nil {
		return nil, err
	}
	return &models.PatchReceipt{PatchID: r.ActionID, ProcessingID: patch.ProcessingID, RegisteredAt: r.RegisteredAt}, nil
}

// Replay publishes the newest backup copy of an action again, with its
// original registration time. The upsert is idempotent and suppresses stale
// writes, so replaying an action that was already processed is harmless.
func (s *Service) Replay(ctx context.Context, actionID string) (receipt *models.Receipt, err error) {
	start := time.Now()
	defer func() { metrics.RecordIntake("replay", outcome(err), time.Since(start)) }()

	id, err := validation.ParseActionID(actionID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.detach(ctx)
	defer cancel()

	entry, key, err := backup.Latest(ctx, s.sink, id)
	if errors.Is(err, backup.ErrNotFound) {
		return nil, fmt.Errorf("backup of action %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, models.NewTransientInfraError("backup", "read", err)
	}

	if err := s.publish(ctx, entry, key); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().
		Str("action_id", id).
		Str("backup_key", key).
		Msg("Action replayed from backup")
	return &models.Receipt{ActionID: id, RegisteredAt: entry.ReceivedAt}, nil
}

// submit stamps the receipt time, writes the backup copy and publishes the
// queue message.
func (s *Service) submit(ctx context.Context, actionID string, kind models.MessageKind, raw []byte) (*models.Receipt, error) {
	ctx, cancel := s.detach(ctx)
	defer cancel()
	ctx = logging.ContextWithActionID(ctx, actionID)

	entry := &backup.Entry{
		ActionID:   actionID,
		Kind:       kind,
		ReceivedAt: s.now().UTC(),
		Payload:    raw,
	}

	var ref *backup.Ref
	var err error
	for attempt := 0; attempt < backupAttempts; attempt++ {
		ref, err = s.sink.Put(ctx, entry)
		if !errors.Is(err, backup.ErrExists) {
			break
		}
		entry.ReceivedAt = entry.ReceivedAt.Add(time.Microsecond)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("backend", s.sink.Backend()).Msg("Backup write failed, nothing enqueued")
		return nil, models.NewTransientInfraError("backup", "put", err)
	}

	if err := s.publish(ctx, entry, ref.Key); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().Str("kind", string(kind)).Str("backup_key", ref.Key).Msg("Action accepted")
	return &models.Receipt{ActionID: actionID, RegisteredAt: entry.ReceivedAt}, nil
}

// publish sends one action message. Each call gets a fresh message UUID:
// a create and a later amend of the same action are different messages.
func (s *Service) publish(ctx context.Context, entry *backup.Entry, backupKey string) error {
	body, err := json.Marshal(models.ActionMessage{
		ActionID:     entry.ActionID,
		Kind:         entry.Kind,
		RegisteredAt: entry.ReceivedAt,
		Payload:      entry.Payload,
	})
	if err != nil {
		return fmt.Errorf("encode action message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(models.MetadataActionID, entry.ActionID)
	msg.Metadata.Set(models.MetadataKind, string(entry.Kind))
	msg.Metadata.Set(models.MetadataBackupKey, backupKey)
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		msg.Metadata.Set(models.MetadataCorrelationID, cid)
	}
	msg.SetContext(ctx)

	// Not every publisher honours the message context, so the wait is
	// bounded here. A publish that completes after the timeout leaves a
	// duplicate message at worst, which the processor suppresses.
	done := make(chan error, 1)
	go func() { done <- s.publisher.Publish(s.topic, msg) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("backup_key", backupKey).
			Msg("Enqueue failed after backup; replay the backup copy")
		return &models.TransientInfraError{Component: "queue", Op: "publish", Cause: err, BackupKey: backupKey}
	}
	return nil
}

// detach returns a context that ignores the caller's cancellation but keeps
// its values, bounded by the intake timeout.
func (s *Service) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case models.IsValidation(err):
		return "invalid"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case models.IsTransient(err):
		var te *models.TransientInfraError
		errors.As(err, &te)
		return te.Component + "_failed"
	default:
		return "error"
	}
}
