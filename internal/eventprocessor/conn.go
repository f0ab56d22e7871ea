// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// connOptions are the reconnect settings shared by the action publisher and
// subscriber. A broker outage never ends the connection: intake keeps
// returning 503 until it is back, and the consumer resumes where the durable
// consumer left off.
func connOptions(role string, maxReconnects int, wait time.Duration) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("verwerkingenlog-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(wait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Str("role", role).Msg("NATS connection lost")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("role", role).Str("url", nc.ConnectedUrl()).Msg("NATS connection restored")
		}),
	}
}
