// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// NewSubscriber creates the processor's JetStream subscriber: one durable
// consumer shared by a queue group, so several instances split the actions
// stream between them. Acks are synchronous; an action is only gone from the
// stream once the record store has it.
func NewSubscriber(cfg *SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      connOptions("subscriber", cfg.MaxReconnects, cfg.ReconnectWait),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			// Without a bound stream Watermill provisions one per topic.
			AutoProvision:    cfg.StreamName == "",
			SubscribeOptions: subscribeOptions(cfg),
			DurablePrefix:    cfg.DurableName,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create JetStream subscriber: %w", err)
	}
	return sub, nil
}

func subscribeOptions(cfg *SubscriberConfig) []natsgo.SubOpt {
	opts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverAll(),
	}
	if cfg.StreamName != "" {
		opts = append(opts, natsgo.BindStream(cfg.StreamName))
	}
	return opts
}
