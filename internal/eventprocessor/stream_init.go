// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// streamManager is the part of jetstream.JetStream that ensureStream needs.
type streamManager interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// jetStreamConfig maps the action stream settings onto JetStream.
//
// Limits retention with file storage: the durable consumer tracks delivery,
// and the duplicate window drops a republish that reuses a Nats-Msg-Id.
func (c StreamConfig) jetStreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:       c.Name,
		Subjects:   c.Subjects,
		Retention:  jetstream.LimitsPolicy,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
		MaxAge:     c.MaxAge,
		MaxBytes:   c.MaxBytes,
		MaxMsgs:    c.MaxMsgs,
		Duplicates: c.DuplicateWindow,
		Replicas:   c.Replicas,
	}
}

// ensureStream creates the action stream, or brings an existing one in line
// with cfg. Safe to call on every start.
func ensureStream(ctx context.Context, js streamManager, cfg StreamConfig) error {
	if cfg.Name == "" || len(cfg.Subjects) == 0 {
		return errors.New("stream name and subjects are required")
	}
	want := cfg.jetStreamConfig()

	_, err := js.Stream(ctx, cfg.Name)
	switch {
	case err == nil:
		if _, err := js.UpdateStream(ctx, want); err != nil {
			return fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := js.CreateStream(ctx, want); err != nil {
			return fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
	default:
		return fmt.Errorf("look up stream %s: %w", cfg.Name, err)
	}
	return nil
}
