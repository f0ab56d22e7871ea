// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package queue implements the durable message queue and its dead-letter
partition on top of BadgerDB.

# State Machine

Every message is in exactly one state:

	Enqueued ──claim──▶ InFlight ──ack──▶ (removed)
	    ▲                  │
	    └──nack / lease────┘
	Enqueued ──claim, failures ≥ MaxDeliveries──▶ DeadLettered
	any ──poison──▶ DeadLettered ──redrive──▶ Enqueued

All transitions go through Policy.Apply. A message that failed exactly
MaxDeliveries times stays in the main queue until the next claim attempt,
which moves it to the dead-letter partition instead of delivering it.

Nacked messages become claimable again after an exponential backoff
(BackoffBase·2^(failures-1), capped at BackoffMax). A consumer that holds a
message past its visibility timeout loses the lease and the delivery counts
as failed.

# Watermill

Publisher, Subscriber and DeadLetterPublisher adapt the queue to Watermill
so the processor runs on a message.Router:

	pub := queue.NewPublisher(q)
	sub := queue.NewSubscriber(q, queue.SubscriberConfig{Consumers: 4}, logger)
	dlq := queue.NewDeadLetterPublisher(q, topic)

Ledger applies the same delivery budget to transports that redeliver on
their own (NATS JetStream), using the same dead-letter partition.

# Background Services

AutoRedriver and StatsReporter are suture services for optional automatic
redrive and queue depth gauges.
*/
package queue
