// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package services adapts components with a non-suture lifecycle to the suture
v4 Serve pattern.

Most long-running parts of verwerkingenlog (the badger GC loop, the backup
pruner, the dead-letter auto-redriver, the queue stats reporter, the embedded
NATS server and the watermill consumer) implement suture.Service directly.
The HTTP listeners do not: http.Server blocks in ListenAndServe and is stopped
with Shutdown. HTTPServerService bridges the two.

# Return Values

	nil         -> server closed on its own, not restarted
	error       -> listen or serve failed, supervisor restarts it
	ctx.Err()   -> shutdown requested

# Usage

	operator := &http.Server{Addr: cfg.Server.OperatorAddr, Handler: router.OperatorHandler()}
	tree.AddAPIService(services.NewHTTPServerService("operator-http", operator, cfg.Server.ShutdownTimeout))
*/
package services
