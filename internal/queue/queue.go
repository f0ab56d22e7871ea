// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// Claimers contend on the same partition keys, so conflicts are expected
// under load.
const maxTxnRetries = 64

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("queue is closed")
	// ErrNotFound is returned for an unknown message or dead letter.
	ErrNotFound = errors.New("message not found")
	// ErrLeaseLost is returned when a consumer acks or nacks a message whose
	// lease passed to another consumer.
	ErrLeaseLost = errors.New("message lease lost")
)

// Delivery is a message handed to one consumer.
type Delivery struct {
	ID         string
	Topic      string
	Body       []byte
	Metadata   map[string]string
	Deliveries int
	Failures   int
	holder     string
}

// Queue is a durable message queue with a dead-letter partition, stored in
// BadgerDB. Every state change happens in one badger transaction; concurrent
// claimers of the same message conflict and retry, so a message is held by at
// most one consumer at a time.
type Queue struct {
	db     *badger.DB
	policy Policy
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the queue database described by cfg.
func Open(cfg config.QueueConfig) (*Queue, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	// Queue state must survive a crash once Enqueue returns.
	opts.SyncWrites = true

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	q := &Queue{
		db: db,
		policy: Policy{
			MaxDeliveries: cfg.MaxDeliveries,
			Visibility:    cfg.VisibilityTimeout,
			BackoffBase:   cfg.BackoffBase,
			BackoffMax:    cfg.BackoffMax,
		},
		now: time.Now,
	}
	if q.policy.MaxDeliveries < 1 {
		q.policy.MaxDeliveries = 3
	}
	if q.policy.Visibility <= 0 {
		q.policy.Visibility = time.Minute
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("max_deliveries", q.policy.MaxDeliveries).
		Dur("visibility_timeout", q.policy.Visibility).
		Msg("Queue opened")
	return q, nil
}

// Policy returns the state machine parameters.
func (q *Queue) Policy() Policy {
	return q.policy
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	return q.db.Close()
}

func (q *Queue) check(ctx context.Context) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (q *Queue) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = q.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Microsecond)
	}
	return err
}

// Enqueue adds a message to topic. Enqueueing an id that is already known
// is a no-op.
func (q *Queue) Enqueue(ctx context.Context, topic, id string, body []byte, metadata map[string]string) error {
	if err := q.check(ctx); err != nil {
		return err
	}
	if id == "" {
		return errors.New("message id is required")
	}

	now := q.now().UTC()
	m := &Message{
		ID:          id,
		Topic:       topic,
		Body:        body,
		Metadata:    metadata,
		State:       StateEnqueued,
		EnqueuedAt:  now,
		AvailableAt: now,
	}

	created := false
	err := q.update(func(txn *badger.Txn) error {
		created = false
		_, err := getMessage(txn, topic, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		created = true
		return putMessage(txn, m, nil)
	})
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	if created {
		metrics.RecordEnqueue(topic)
	}
	return nil
}

// Claim hands the next available message of topic to consumer. It first
// returns expired leases to the queue, counting them as failed deliveries.
// Messages whose failures reached MaxDeliveries are dead-lettered instead of
// delivered. Claim returns nil when nothing is available.
func (q *Queue) Claim(ctx context.Context, topic, consumer string) (*Delivery, error) {
	if err := q.check(ctx); err != nil {
		return nil, err
	}

	var (
		delivery     *Delivery
		expired      int
		deadLettered int
	)
	err := q.update(func(txn *badger.Txn) error {
		delivery, expired, deadLettered = nil, 0, 0
		now := q.now().UTC()

		leaseKeys, err := keysUpTo(txn, leasePrefix(topic), now)
		if err != nil {
			return err
		}
		for _, id := range leaseKeys {
			m, err := getMessage(txn, topic, id)
			if err != nil {
				return err
			}
			prev := *m
			if _, err := q.policy.Apply(m, EventLeaseExpired, now, "", ""); err != nil {
				return err
			}
			if err := putMessage(txn, m, &prev); err != nil {
				return err
			}
			expired++
		}

		readyIDs, err := keysUpTo(txn, readyPrefix(topic), now)
		if err != nil {
			return err
		}
		for _, id := range readyIDs {
			m, err := getMessage(txn, topic, id)
			if err != nil {
				return err
			}
			prev := *m
			outcome, err := q.policy.Apply(m, EventClaim, now, consumer, "")
			if err != nil {
				return err
			}
			if err := putMessage(txn, m, &prev); err != nil {
				return err
			}
			if outcome == OutcomeDeadLettered {
				deadLettered++
				continue
			}
			delivery = &Delivery{
				ID:         m.ID,
				Topic:      topic,
				Body:       m.Body,
				Metadata:   m.Metadata,
				Deliveries: m.Deliveries,
				Failures:   m.Failures,
				holder:     consumer,
			}
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}

	for i := 0; i < expired; i++ {
		metrics.RecordRedelivery(topic, "lease_expired")
	}
	for i := 0; i < deadLettered; i++ {
		metrics.RecordDeadLettered(topic, ReasonMaxDeliveries)
	}
	if deadLettered > 0 {
		logging.Warn().
			Str("topic", topic).
			Int("count", deadLettered).
			Int("max_deliveries", q.policy.MaxDeliveries).
			Msg("Messages moved to dead-letter queue")
	}
	return delivery, nil
}

// Ack removes a delivered message. Acking a message that was dead-lettered
// while in flight is a no-op.
func (q *Queue) Ack(ctx context.Context, d *Delivery) error {
	return q.settle(ctx, d, EventAck, "")
}

// Nack counts a failed delivery and schedules the message for redelivery
// after the backoff for its failure count.
func (q *Queue) Nack(ctx context.Context, d *Delivery, cause string) error {
	err := q.settle(ctx, d, EventNack, cause)
	if err == nil {
		metrics.RecordRedelivery(d.Topic, "nack")
	}
	return err
}

// Release returns an in-flight message without counting a failure. Used
// when a consumer shuts down before handing the message on.
func (q *Queue) Release(ctx context.Context, d *Delivery) error {
	return q.settle(ctx, d, EventRelease, "")
}

func (q *Queue) settle(ctx context.Context, d *Delivery, ev Event, cause string) error {
	if err := q.check(ctx); err != nil {
		return err
	}
	return q.update(func(txn *badger.Txn) error {
		m, err := getMessage(txn, d.Topic, d.ID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if m.State == StateDeadLettered {
			return nil
		}
		if m.State != StateInFlight || m.LeaseHolder != d.holder {
			return ErrLeaseLost
		}

		prev := *m
		outcome, err := q.policy.Apply(m, ev, q.now().UTC(), "", cause)
		if err != nil {
			return err
		}
		if outcome == OutcomeRemoved {
			return deleteMessage(txn, &prev)
		}
		return putMessage(txn, m, &prev)
	})
}

// Poison dead-letters a message immediately. A message still held by the
// queue is moved in place; an unknown id (a message from another transport)
// is recorded from body and metadata.
func (q *Queue) Poison(ctx context.Context, topic, id string, body []byte, metadata map[string]string, cause string) error {
	if err := q.check(ctx); err != nil {
		return err
	}
	err := q.update(func(txn *badger.Txn) error {
		now := q.now().UTC()
		m, err := getMessage(txn, topic, id)
		var prev *Message
		switch {
		case errors.Is(err, ErrNotFound):
			m = &Message{
				ID:          id,
				Topic:       topic,
				Body:        body,
				Metadata:    metadata,
				State:       StateEnqueued,
				Redrives:    redrivesFrom(metadata),
				EnqueuedAt:  now,
				AvailableAt: now,
			}
			if l, err := getLedger(txn, topic, id); err == nil {
				m.Deliveries, m.Failures = l.Deliveries, l.Failures
				if err := txn.Delete(ledgerKey(topic, id)); err != nil {
					return err
				}
			}
		case err != nil:
			return err
		default:
			p := *m
			prev = &p
		}
		if _, err := q.policy.Apply(m, EventPoison, now, "", cause); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				return nil
			}
			return err
		}
		return putMessage(txn, m, prev)
	})
	if err != nil {
		return fmt.Errorf("poison: %w", err)
	}
	metrics.RecordDeadLettered(topic, ReasonPermanent)
	return nil
}

// Stats returns the depth of each partition of topic.
func (q *Queue) Stats(ctx context.Context, topic string) (models.QueueStats, error) {
	stats := models.QueueStats{Topic: topic}
	if err := q.check(ctx); err != nil {
		return stats, err
	}
	err := q.db.View(func(txn *badger.Txn) error {
		var err error
		if stats.Ready, err = countPrefix(txn, readyPrefix(topic)); err != nil {
			return err
		}
		if stats.InFlight, err = countPrefix(txn, leasePrefix(topic)); err != nil {
			return err
		}
		stats.DeadLetters, err = countPrefix(txn, deadPrefix(topic))
		return err
	})
	return stats, err
}

// Get returns the stored message, whatever its state.
func (q *Queue) Get(ctx context.Context, topic, id string) (*Message, error) {
	if err := q.check(ctx); err != nil {
		return nil, err
	}
	var m *Message
	err := q.db.View(func(txn *badger.Txn) error {
		var err error
		m, err = getMessage(txn, topic, id)
		return err
	})
	return m, err
}

// DeadLetters lists up to limit dead letters of topic, oldest first.
func (q *Queue) DeadLetters(ctx context.Context, topic string, limit int) ([]models.DeadLetter, error) {
	if err := q.check(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	out := []models.DeadLetter{}
	err := q.db.View(func(txn *badger.Txn) error {
		ids, err := keysUpTo(txn, deadPrefix(topic), time.Time{})
		if err != nil {
			return err
		}
		for _, id := range ids {
			if len(out) == limit {
				break
			}
			m, err := getMessage(txn, topic, id)
			if err != nil {
				return err
			}
			out = append(out, toDeadLetter(m))
		}
		return nil
	})
	return out, err
}

// DeadLetter returns one dead letter.
func (q *Queue) DeadLetter(ctx context.Context, topic, id string) (*models.DeadLetter, error) {
	m, err := q.Get(ctx, topic, id)
	if err != nil {
		return nil, err
	}
	if m.State != StateDeadLettered {
		return nil, ErrNotFound
	}
	dl := toDeadLetter(m)
	return &dl, nil
}

// Redrive moves one dead letter back to the main queue with a fresh
// delivery budget.
func (q *Queue) Redrive(ctx context.Context, topic, id string) error {
	if err := q.check(ctx); err != nil {
		return err
	}
	err := q.update(func(txn *badger.Txn) error {
		m, err := getMessage(txn, topic, id)
		if err != nil {
			return err
		}
		if m.State != StateDeadLettered {
			return ErrNotFound
		}
		prev := *m
		if _, err := q.policy.Apply(m, EventRedrive, q.now().UTC(), "", ""); err != nil {
			return err
		}
		return putMessage(txn, m, &prev)
	})
	if err != nil {
		return err
	}
	metrics.RecordRedrive(topic, "manual", 1)
	return nil
}

// RedriveAll redrives every dead letter of topic that has been redriven
// fewer than maxRedrives times. A non-positive maxRedrives redrives all.
func (q *Queue) RedriveAll(ctx context.Context, topic string, maxRedrives int) (int, error) {
	if err := q.check(ctx); err != nil {
		return 0, err
	}
	ids, err := q.deadLetterIDs(topic)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		err := q.update(func(txn *badger.Txn) error {
			m, err := getMessage(txn, topic, id)
			if err != nil {
				return err
			}
			if m.State != StateDeadLettered || (maxRedrives > 0 && m.Redrives >= maxRedrives) {
				return errSkip
			}
			prev := *m
			if _, err := q.policy.Apply(m, EventRedrive, q.now().UTC(), "", ""); err != nil {
				return err
			}
			return putMessage(txn, m, &prev)
		})
		switch {
		case errors.Is(err, errSkip), errors.Is(err, ErrNotFound):
		case err != nil:
			return n, err
		default:
			n++
		}
	}
	return n, nil
}

var errSkip = errors.New("skip")

// PurgeDeadLetter deletes a dead letter permanently.
func (q *Queue) PurgeDeadLetter(ctx context.Context, topic, id string) error {
	if err := q.check(ctx); err != nil {
		return err
	}
	return q.update(func(txn *badger.Txn) error {
		m, err := getMessage(txn, topic, id)
		if err != nil {
			return err
		}
		if m.State != StateDeadLettered {
			return ErrNotFound
		}
		return deleteMessage(txn, m)
	})
}

func (q *Queue) deadLetterIDs(topic string) ([]string, error) {
	var ids []string
	err := q.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = keysUpTo(txn, deadPrefix(topic), time.Time{})
		return err
	})
	return ids, err
}

func toDeadLetter(m *Message) models.DeadLetter {
	return models.DeadLetter{
		ID:             m.ID,
		Topic:          m.Topic,
		Deliveries:     m.Deliveries,
		Redrives:       m.Redrives,
		LastError:      m.LastError,
		EnqueuedAt:     m.EnqueuedAt,
		DeadLetteredAt: m.DeadLetteredAt,
		Metadata:       m.Metadata,
		Body:           m.Body,
	}
}

// putMessage stores m and moves its partition entry from the one implied by
// prev (nil for a new message) to the one implied by m.
func putMessage(txn *badger.Txn, m, prev *Message) error {
	if prev != nil {
		if k := partitionKey(prev); k != nil {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("delete partition entry: %w", err)
			}
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := txn.Set(messageKey(m.Topic, m.ID), data); err != nil {
		return fmt.Errorf("set message: %w", err)
	}
	if k := partitionKey(m); k != nil {
		if err := txn.Set(k, nil); err != nil {
			return fmt.Errorf("set partition entry: %w", err)
		}
	}
	return nil
}

func deleteMessage(txn *badger.Txn, m *Message) error {
	if k := partitionKey(m); k != nil {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("delete partition entry: %w", err)
		}
	}
	if err := txn.Delete(messageKey(m.Topic, m.ID)); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func getMessage(txn *badger.Txn, topic, id string) (*Message, error) {
	item, err := txn.Get(messageKey(topic, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	var m Message
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &m)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	return &m, nil
}
