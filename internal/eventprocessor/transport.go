// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
	"github.com/tomtom215/verwerkingenlog/internal/queue"
)

// Backends.
const (
	BackendBadger = "badger"
	BackendNATS   = "nats"
)

// Transport is the message plumbing between intake and the processor. The
// badger queue always holds the dead-letter partition; with the NATS
// backend JetStream carries the live messages and the queue's ledger
// enforces the delivery budget.
type Transport struct {
	Backend string
	Topic   string

	// Publisher is where intake publishes action messages.
	Publisher message.Publisher
	// DeadLetters receives poisoned messages from the router.
	DeadLetters message.Publisher
	// HandlerMiddleware is added to the processor handler.
	HandlerMiddleware []message.HandlerMiddleware
	// Services run alongside the router (embedded server).
	Services []suture.Service

	q             *queue.Queue
	newSubscriber func() (message.Subscriber, error)
	natsConn      *natsgo.Conn
	embedded      *EmbeddedServer
}

// NewTransport builds the transport selected by cfg.Queue.Backend.
func NewTransport(ctx context.Context, cfg *config.Config, q *queue.Queue, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	t := &Transport{
		Backend:     cfg.Queue.Backend,
		Topic:       cfg.Queue.Topic,
		DeadLetters: queue.NewDeadLetterPublisher(q, cfg.Queue.Topic),
		q:           q,
	}

	switch cfg.Queue.Backend {
	case BackendBadger, "":
		t.Backend = BackendBadger
		t.Publisher = queue.NewPublisher(q)
		subCfg := queue.SubscriberConfig{
			Consumers:    cfg.Queue.Consumers,
			PollInterval: cfg.Queue.PollInterval,
			Name:         consumerName(),
		}
		t.newSubscriber = func() (message.Subscriber, error) {
			return queue.NewSubscriber(q, subCfg, logger), nil
		}
		return t, nil

	case BackendNATS:
		if err := t.initNATS(ctx, cfg, logger); err != nil {
			t.Close()
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Queue.Backend)
}

func (t *Transport) initNATS(ctx context.Context, cfg *config.Config, logger watermill.LoggerAdapter) error {
	srvCfg, pubCfg, subCfg, streamCfg := NATSConfigs(cfg.NATS, cfg.Queue)

	if cfg.NATS.EmbeddedServer {
		srv, err := NewEmbeddedServer(&srvCfg)
		if err != nil {
			return err
		}
		t.embedded = srv
		t.Services = append(t.Services, srv)
		pubCfg.URL = srv.ClientURL()
		subCfg.URL = srv.ClientURL()
	}

	nc, err := natsgo.Connect(pubCfg.URL)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	t.natsConn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	if err := ensureStream(ctx, js, streamCfg); err != nil {
		return err
	}

	pub, err := NewPublisher(pubCfg, logger)
	if err != nil {
		return err
	}
	t.Publisher = pub
	t.newSubscriber = func() (message.Subscriber, error) {
		return NewSubscriber(&subCfg, logger)
	}
	t.HandlerMiddleware = append(t.HandlerMiddleware, queue.NewLedger(t.q).Middleware(cfg.Queue.Topic))

	logging.Info().
		Str("url", pubCfg.URL).
		Str("stream", streamCfg.Name).
		Int("max_deliver", subCfg.MaxDeliver).
		Msg("NATS JetStream transport ready")
	return nil
}

// NewSubscriber returns a fresh subscriber for one router run.
func (t *Transport) NewSubscriber() (message.Subscriber, error) {
	return t.newSubscriber()
}

// ConsumerService returns a supervised router that feeds the transport's
// topic to handler, with the transport's handler middleware applied. Each
// restart builds a fresh subscriber.
func (t *Transport) ConsumerService(rc RouterConfig, name string, handler message.NoPublishHandlerFunc, logger watermill.LoggerAdapter) *RouterService {
	return NewRouterService(func() (*Router, error) {
		sub, err := t.NewSubscriber()
		if err != nil {
			return nil, err
		}
		r, err := NewRouter(&rc, t.DeadLetters, logger)
		if err != nil {
			return nil, err
		}
		r.AddConsumerHandler(name, t.Topic, sub, handler)
		if err := r.AddHandlerMiddleware(name, t.HandlerMiddleware...); err != nil {
			return nil, err
		}
		return r, nil
	})
}

// Redrive moves a dead letter back onto the live transport. On the badger
// backend the message returns to the main queue in place; on NATS it is
// republished under a new Nats-Msg-Id so the stream's duplicate window does
// not drop it, and then removed from the dead-letter partition.
func (t *Transport) Redrive(ctx context.Context, id string) error {
	if t.Backend == BackendBadger {
		return t.q.Redrive(ctx, t.Topic, id)
	}

	m, err := t.q.Get(ctx, t.Topic, id)
	if err != nil {
		return err
	}
	if m.State != queue.StateDeadLettered {
		return queue.ErrNotFound
	}
	if err := t.republish(ctx, m); err != nil {
		return err
	}
	metrics.RecordRedrive(t.Topic, "manual", 1)
	return nil
}

// RedriveAll redrives every dead letter of topic redriven fewer than
// maxRedrives times. It satisfies queue.Redriver.
func (t *Transport) RedriveAll(ctx context.Context, topic string, maxRedrives int) (int, error) {
	if t.Backend == BackendBadger {
		return t.q.RedriveAll(ctx, topic, maxRedrives)
	}

	dls, err := t.q.DeadLetters(ctx, topic, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, dl := range dls {
		if maxRedrives > 0 && dl.Redrives >= maxRedrives {
			continue
		}
		m, err := t.q.Get(ctx, topic, dl.ID)
		if err != nil {
			continue
		}
		if err := t.republish(ctx, m); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (t *Transport) republish(ctx context.Context, m *queue.Message) error {
	msg := message.NewMessage(m.ID, m.Body)
	for k, v := range m.Metadata {
		msg.Metadata.Set(k, v)
	}
	redrives := strconv.Itoa(m.Redrives + 1)
	msg.Metadata.Set(queue.RedrivesKey, redrives)
	msg.Metadata.Set(natsgo.MsgIdHdr, m.ID+"-redrive-"+redrives)
	msg.SetContext(ctx)
	if err := t.Publisher.Publish(m.Topic, msg); err != nil {
		return err
	}
	return t.q.PurgeDeadLetter(ctx, m.Topic, m.ID)
}

// Close releases the publisher, the NATS connection and the embedded
// server.
func (t *Transport) Close() {
	if t.Publisher != nil {
		if err := t.Publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close publisher")
		}
	}
	if t.natsConn != nil {
		t.natsConn.Close()
	}
	if t.embedded != nil && t.embedded.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = t.embedded.Shutdown(ctx)
	}
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "consumer"
	}
	return host
}
