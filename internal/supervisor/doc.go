// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package supervisor runs every long-lived part of verwerkingenlog under a
suture v4 supervisor tree.

# Layers

	verwerkingenlog
	├── storage-layer
	│   ├── badger-gc          (store.GCService)
	│   └── backup-pruner      (backup.Pruner, local sink only)
	├── messaging-layer
	│   ├── nats-embedded      (nats backend only)
	│   ├── processor          (watermill router consuming the queue topic)
	│   ├── dlq-auto-redrive   (queue.AutoRedriver, when enabled)
	│   └── queue-stats        (queue.StatsReporter)
	└── api-layer
	    ├── operator-http
	    └── access-http

Each layer keeps its own failure count. A crash loop in the consumer backs off
inside the messaging layer while both listeners keep serving: intake only
needs the backup sink and the queue, so actions are still accepted and wait
in the queue until the consumer is back.

# Events

Supervisor events (start, stop, failure, backoff) go through sutureslog to a
*slog.Logger. In the server this is logging.NewSlogLogger, which bridges to
the process zerolog logger so supervisor events share its format and level.

# Shutdown

Cancelling the Serve context stops every service. ShutdownTimeout bounds how
long each one may take; UnstoppedServiceReport lists the ones that did not
make it. The stores are closed by the caller after Serve returns.
*/
package supervisor
