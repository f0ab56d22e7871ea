// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

// ledgerEntry is the delivery history of a message owned by another
// transport.
type ledgerEntry struct {
	Deliveries int    `json:"deliveries"`
	Failures   int    `json:"failures"`
	LastError  string `json:"lastError,omitempty"`
}

// Ledger counts deliveries of messages whose transport (NATS JetStream)
// redelivers on its own but has no dead-letter partition. It runs the same
// state machine as the badger queue: a claim after MaxDeliveries failures
// moves the message into the queue's dead-letter partition.
type Ledger struct {
	q *Queue
}

// NewLedger creates a ledger backed by q.
func NewLedger(q *Queue) *Ledger {
	return &Ledger{q: q}
}

// Begin records a delivery. It returns true when the message has exhausted
// its budget and was dead-lettered instead.
func (l *Ledger) Begin(ctx context.Context, topic string, msg *message.Message) (bool, error) {
	if err := l.q.check(ctx); err != nil {
		return false, err
	}

	deadLettered := false
	err := l.q.update(func(txn *badger.Txn) error {
		deadLettered = false
		now := l.q.now().UTC()

		entry, err := getLedger(txn, topic, msg.UUID)
		if errors.Is(err, ErrNotFound) {
			entry = &ledgerEntry{}
		} else if err != nil {
			return err
		}

		m := &Message{
			ID:          msg.UUID,
			Topic:       topic,
			Body:        msg.Payload,
			Metadata:    copyMetadata(msg.Metadata),
			State:       StateEnqueued,
			Deliveries:  entry.Deliveries,
			Failures:    entry.Failures,
			Redrives:    redrivesFrom(msg.Metadata),
			LastError:   entry.LastError,
			EnqueuedAt:  now,
			AvailableAt: now,
		}
		outcome, err := l.q.policy.Apply(m, EventClaim, now, "ledger", "")
		if err != nil {
			return err
		}
		if outcome == OutcomeDeadLettered {
			deadLettered = true
			if err := txn.Delete(ledgerKey(topic, msg.UUID)); err != nil {
				return err
			}
			return putMessage(txn, m, nil)
		}

		entry.Deliveries = m.Deliveries
		return putLedger(txn, topic, msg.UUID, entry)
	})
	if err != nil {
		return false, fmt.Errorf("ledger begin: %w", err)
	}
	if deadLettered {
		metrics.RecordDeadLettered(topic, ReasonMaxDeliveries)
	}
	return deadLettered, nil
}

// Fail records a failed delivery.
func (l *Ledger) Fail(ctx context.Context, topic, id, cause string) error {
	if err := l.q.check(ctx); err != nil {
		return err
	}
	err := l.q.update(func(txn *badger.Txn) error {
		entry, err := getLedger(txn, topic, id)
		if err != nil {
			return err
		}
		m := &Message{ID: id, State: StateInFlight, Deliveries: entry.Deliveries, Failures: entry.Failures}
		if _, err := l.q.policy.Apply(m, EventNack, l.q.now(), "", cause); err != nil {
			return err
		}
		entry.Failures = m.Failures
		entry.LastError = m.LastError
		return putLedger(txn, topic, id, entry)
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err == nil {
		metrics.RecordRedelivery(topic, "nack")
	}
	return err
}

// Done forgets a message that was handled.
func (l *Ledger) Done(ctx context.Context, topic, id string) error {
	if err := l.q.check(ctx); err != nil {
		return err
	}
	return l.q.update(func(txn *badger.Txn) error {
		return txn.Delete(ledgerKey(topic, id))
	})
}

// Middleware enforces the delivery budget in a Watermill router. Messages
// over budget are dead-lettered and acked without running the handler.
func (l *Ledger) Middleware(topic string) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx := msg.Context()
			over, err := l.Begin(ctx, topic, msg)
			if err != nil {
				return nil, err
			}
			if over {
				logging.Warn().
					Str("topic", topic).
					Str("message_id", msg.UUID).
					Msg("Delivery budget exhausted, message dead-lettered")
				return nil, nil
			}

			produced, err := h(msg)
			if err != nil {
				if ferr := l.Fail(ctx, topic, msg.UUID, err.Error()); ferr != nil {
					logging.Error().Err(ferr).Str("message_id", msg.UUID).Msg("Failed to record failed delivery")
				}
				return produced, err
			}
			if derr := l.Done(ctx, topic, msg.UUID); derr != nil {
				logging.Error().Err(derr).Str("message_id", msg.UUID).Msg("Failed to clear delivery ledger")
			}
			return produced, nil
		}
	}
}

func getLedger(txn *badger.Txn, topic, id string) (*ledgerEntry, error) {
	item, err := txn.Get(ledgerKey(topic, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	var e ledgerEntry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &e)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal ledger entry: %w", err)
	}
	return &e, nil
}

func putLedger(txn *badger.Txn, topic, id string, e *ledgerEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}
	return txn.Set(ledgerKey(topic, id), data)
}

func copyMetadata(md message.Metadata) map[string]string {
	if len(md) == 0 {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

func redrivesFrom(md map[string]string) int {
	n, err := strconv.Atoi(md[RedrivesKey])
	if err != nil || n < 0 {
		return 0
	}
	return n
}
