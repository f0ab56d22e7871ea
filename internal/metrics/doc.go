// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package metrics provides Prometheus metrics for the processing action log.

All collectors are registered on the default registry with promauto and are
exposed by the operator host at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Intake:
  - intake_submissions_total{kind, outcome}
  - intake_duration_seconds{kind}

Backup sink:
  - backup_writes_total{backend, result}
  - backup_write_duration_seconds{backend}
  - backup_pruned_total

Queue:
  - queue_ready_messages{topic}, queue_in_flight_messages{topic}
  - queue_dead_letter_messages{topic}
  - queue_enqueued_total{topic}
  - queue_redeliveries_total{topic, reason}
  - queue_dead_lettered_total{topic, reason}
  - queue_redrives_total{topic, trigger}

Processor and record store:
  - processor_messages_total{outcome}
  - processor_duration_seconds
  - store_operations_total{operation, result}
  - store_operation_duration_seconds{operation}
  - store_size_bytes

HTTP API:
  - api_requests_total{host, method, route, status}
  - api_request_duration_seconds{host, method, route}
  - api_active_requests
  - api_rate_limit_hits_total{host, limiter}
  - api_admission_denials_total{host, status}

Circuit breakers:
  - circuit_breaker_state{name}
  - circuit_breaker_state_transitions_total{name, from_state, to_state}

# Usage

Callers use the Record helpers rather than the collectors directly:

	start := time.Now()
	err := store.Upsert(ctx, rec)
	metrics.RecordStoreOp("upsert", time.Since(start), err)

Label values are fixed strings chosen by the caller. Subject identifiers and
action ids never appear as labels.
*/
package metrics
