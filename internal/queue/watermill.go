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
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Metadata keys set on delivered messages.
const (
	// ErrorKey carries the handler error of a failed delivery into Nack.
	ErrorKey = "error"
	// DeliveriesKey is the delivery attempt number, starting at 1.
	DeliveriesKey = "deliveries"
	// RedrivesKey carries the redrive count of a message republished onto
	// another transport, so the count survives the trip.
	RedrivesKey = "redrives"
)

// settleTimeout bounds ack/nack/release writes, which run after the
// subscriber's context may already be canceled.
const settleTimeout = 5 * time.Second

// Publisher adapts the queue to message.Publisher. The Watermill message
// UUID is the queue message id, so publishing the same message twice
// enqueues it once.
type Publisher struct {
	q *Queue
}

// NewPublisher creates a publisher onto q.
func NewPublisher(q *Queue) *Publisher {
	return &Publisher{q: q}
}

// Publish implements message.Publisher.
func (p *Publisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		err := p.q.Enqueue(msg.Context(), topic, msg.UUID, msg.Payload, copyMetadata(msg.Metadata))
		if err != nil {
			return fmt.Errorf("publish message %s: %w", msg.UUID, err)
		}
	}
	return nil
}

// Close implements message.Publisher. The queue is closed by its owner.
func (p *Publisher) Close() error {
	return nil
}

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	// Consumers is the number of concurrent claim loops per subscription.
	Consumers int
	// PollInterval is the wait between claims when the topic is empty.
	PollInterval time.Duration
	// Name prefixes consumer names recorded as lease holders.
	Name string
}

// Subscriber adapts the queue to message.Subscriber. Each consumer claims
// one message, hands it out and waits for Ack or Nack before claiming the
// next. Messages still held when the subscriber closes are released.
type Subscriber struct {
	q      *Queue
	cfg    SubscriberConfig
	logger watermill.LoggerAdapter

	closing chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewSubscriber creates a subscriber on q.
func NewSubscriber(q *Queue, cfg SubscriberConfig, logger watermill.LoggerAdapter) *Subscriber {
	if cfg.Consumers < 1 {
		cfg.Consumers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.Name == "" {
		cfg.Name = "consumer"
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Subscriber{
		q:       q,
		cfg:     cfg,
		logger:  logger,
		closing: make(chan struct{}),
	}
}

// Subscribe implements message.Subscriber. The returned channel is closed
// once every consumer has stopped.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("subscriber is closed")
	}

	out := make(chan *message.Message)
	var consumers sync.WaitGroup
	for i := 0; i < s.cfg.Consumers; i++ {
		name := fmt.Sprintf("%s-%s-%d", s.cfg.Name, watermill.NewShortUUID(), i)
		consumers.Add(1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer consumers.Done()
			s.consume(ctx, topic, name, out)
		}()
	}
	go func() {
		consumers.Wait()
		close(out)
	}()

	s.logger.Info("Subscribed to queue", watermill.LogFields{
		"topic":     topic,
		"consumers": s.cfg.Consumers,
	})
	return out, nil
}

func (s *Subscriber) consume(ctx context.Context, topic, consumer string, out chan<- *message.Message) {
	for {
		if s.stopping(ctx) {
			return
		}

		d, err := s.q.Claim(ctx, topic, consumer)
		if err != nil {
			if errors.Is(err, ErrClosed) || s.stopping(ctx) {
				return
			}
			s.logger.Error("Claim failed", err, watermill.LogFields{"topic": topic, "consumer": consumer})
			s.wait(ctx)
			continue
		}
		if d == nil {
			s.wait(ctx)
			continue
		}
		s.deliver(ctx, d, out)
	}
}

func (s *Subscriber) deliver(ctx context.Context, d *Delivery, out chan<- *message.Message) {
	msg := message.NewMessage(d.ID, d.Body)
	for k, v := range d.Metadata {
		msg.Metadata.Set(k, v)
	}
	msg.Metadata.Set(DeliveriesKey, strconv.Itoa(d.Deliveries))

	msgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	msg.SetContext(msgCtx)

	select {
	case out <- msg:
	case <-ctx.Done():
		s.settle(d, s.q.Release, "release")
		return
	case <-s.closing:
		s.settle(d, s.q.Release, "release")
		return
	}

	select {
	case <-msg.Acked():
		s.settle(d, s.q.Ack, "ack")
	case <-msg.Nacked():
		cause := msg.Metadata.Get(ErrorKey)
		if cause == "" {
			cause = "nacked"
		}
		s.settle(d, func(ctx context.Context, d *Delivery) error {
			return s.q.Nack(ctx, d, cause)
		}, "nack")
	case <-ctx.Done():
		s.settle(d, s.q.Release, "release")
	case <-s.closing:
		s.settle(d, s.q.Release, "release")
	}
}

func (s *Subscriber) settle(d *Delivery, fn func(context.Context, *Delivery) error, op string) {
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	if err := fn(ctx, d); err != nil && !errors.Is(err, ErrClosed) {
		s.logger.Error("Settle failed", err, watermill.LogFields{
			"op":         op,
			"message_id": d.ID,
			"topic":      d.Topic,
		})
	}
}

func (s *Subscriber) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *Subscriber) wait(ctx context.Context) {
	t := time.NewTimer(s.cfg.PollInterval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	case <-s.closing:
	}
}

// Close implements message.Subscriber. It stops all consumers and waits
// for them to release what they hold.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// DeadLetterPublisher receives messages from Watermill's poison queue
// middleware and parks them in the dead-letter partition of the topic they
// were consumed from.
type DeadLetterPublisher struct {
	q            *Queue
	defaultTopic string
}

// NewDeadLetterPublisher creates a dead-letter publisher. defaultTopic is
// used when a message carries no poisoned-topic metadata.
func NewDeadLetterPublisher(q *Queue, defaultTopic string) *DeadLetterPublisher {
	return &DeadLetterPublisher{q: q, defaultTopic: defaultTopic}
}

// Publish implements message.Publisher. The topic argument names the
// poison queue and is ignored.
func (p *DeadLetterPublisher) Publish(_ string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		topic := msg.Metadata.Get(middleware.PoisonedTopicKey)
		if topic == "" {
			topic = p.defaultTopic
		}
		cause := msg.Metadata.Get(middleware.ReasonForPoisonedKey)

		md := copyMetadata(msg.Metadata)
		for _, k := range []string{
			middleware.PoisonedTopicKey,
			middleware.PoisonedHandlerKey,
			middleware.PoisonedSubscriberKey,
			middleware.ReasonForPoisonedKey,
			DeliveriesKey,
			ErrorKey,
		} {
			delete(md, k)
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(msg.Context()), settleTimeout)
		err := p.q.Poison(ctx, topic, msg.UUID, msg.Payload, md, cause)
		cancel()
		if err != nil {
			return fmt.Errorf("dead-letter message %s: %w", msg.UUID, err)
		}
	}
	return nil
}

// Close implements message.Publisher.
func (p *DeadLetterPublisher) Close() error {
	return nil
}

// RecordCause stores a handler error in the message metadata so that the
// Subscriber can keep it as the message's last error on Nack.
func RecordCause(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil {
			msg.Metadata.Set(ErrorKey, err.Error())
		}
		return produced, err
	}
}
