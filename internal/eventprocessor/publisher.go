// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/verwerkingenlog/internal/breaker"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

// Publisher wraps the Watermill NATS publisher with a circuit breaker. It
// implements message.Publisher so intake can publish without knowing the
// transport.
type Publisher struct {
	publisher message.Publisher
	cb        *breaker.CircuitBreaker
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher creates the JetStream publisher for action messages. The
// stream must already exist (ensureStream); with TrackMsgId the
// stream's duplicate window drops a retried publish of the same action.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	// Publishes made while reconnecting are buffered, up to ReconnectBuffer.
	natsOpts := append(connOptions("publisher", cfg.MaxReconnects, cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer))

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			TrackMsgId: cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return &Publisher{
		publisher: pub,
		cb:        breaker.New(breaker.DefaultConfig("nats-publish")),
	}, nil
}

// Publish implements message.Publisher with circuit breaker protection.
// The message UUID is used as Nats-Msg-Id for deduplication if not already set.
func (p *Publisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPublisherClosed
	}
	p.mu.RUnlock()

	for _, msg := range msgs {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
		err := breaker.Execute(p.cb, func() error {
			return p.publisher.Publish(topic, msg)
		})
		if err != nil {
			return fmt.Errorf("publish message %s: %w", msg.UUID, err)
		}
		metrics.RecordEnqueue(topic)
	}
	return nil
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}
