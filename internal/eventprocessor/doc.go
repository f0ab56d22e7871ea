// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package eventprocessor carries action messages from intake to the processor.

It wraps a Watermill router with the middleware every consumer needs and
provides two interchangeable transports behind Transport:

  - badger: the embedded durable queue from package queue. Redelivery,
    backoff and dead-lettering are handled by the queue's state machine.
  - nats: NATS JetStream through watermill-nats, optionally on an embedded
    nats-server. JetStream redelivers nacked messages; the queue's delivery
    ledger enforces the delivery budget and parks exhausted messages in the
    same dead-letter partition the badger backend uses.

# Middleware

Router-level middleware runs outermost first:

	RecordCause -> Recoverer -> PoisonQueue(IsPermanent) -> Timeout -> Throttle

A handler error is recorded on the message and the message is nacked, so the
transport redelivers it after backoff. A PermanentProcessingError is routed to
the dead-letter publisher at once and the original message is acked.

# Supervision

RouterService and EmbeddedServer implement suture.Service. A Watermill
router cannot be restarted, so RouterService builds a new router, with a new
subscriber, on every Serve.

Example:

	tr, err := eventprocessor.NewTransport(ctx, cfg, q, logging.NewWatermillLogger("transport"))
	if err != nil {
		return err
	}
	defer tr.Close()

	svc := eventprocessor.NewRouterService(func() (*eventprocessor.Router, error) {
		sub, err := tr.NewSubscriber()
		if err != nil {
			return nil, err
		}
		rc := eventprocessor.RouterConfigFrom(cfg.Processor)
		r, err := eventprocessor.NewRouter(&rc, tr.DeadLetters, logger)
		if err != nil {
			return nil, err
		}
		r.AddConsumerHandler("processor", tr.Topic, sub, proc.Handle)
		return r, r.AddHandlerMiddleware("processor", tr.HandlerMiddleware...)
	})
*/
package eventprocessor
