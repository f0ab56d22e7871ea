// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intake Metrics
	IntakeSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of submissions handled by intake",
		},
		[]string{"kind", "outcome"}, // outcome: accepted, invalid, backup_failed, enqueue_failed
	)

	IntakeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_duration_seconds",
			Help:    "Time from receipt to acknowledgement, backup plus enqueue",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Backup Sink Metrics
	BackupWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_writes_total",
			Help: "Total number of backup sink writes",
		},
		[]string{"backend", "result"},
	)

	BackupWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backup_write_duration_seconds",
			Help:    "Duration of backup sink writes",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"backend"},
	)

	BackupPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backup_pruned_total",
			Help: "Total number of backup entries removed by the retention pruner",
		},
	)

	// Queue Metrics
	QueueReady = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_ready_messages",
			Help: "Messages waiting for delivery",
		},
		[]string{"topic"},
	)

	QueueInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_in_flight_messages",
			Help: "Messages claimed by a consumer and not yet acked or nacked",
		},
		[]string{"topic"},
	)

	QueueDeadLetters = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_dead_letter_messages",
			Help: "Messages in the dead-letter partition",
		},
		[]string{"topic"},
	)

	QueueEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_enqueued_total",
			Help: "Total number of messages enqueued",
		},
		[]string{"topic"},
	)

	QueueRedeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_redeliveries_total",
			Help: "Total number of failed deliveries scheduled for retry",
		},
		[]string{"topic", "reason"}, // reason: nack, lease_expired
	)

	QueueDeadLettered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_dead_lettered_total",
			Help: "Total number of messages moved to the dead-letter partition",
		},
		[]string{"topic", "reason"}, // reason: max_deliveries, permanent
	)

	QueueRedrives = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_redrives_total",
			Help: "Total number of dead letters moved back to the main queue",
		},
		[]string{"topic", "trigger"}, // trigger: manual, auto
	)

	// Processor Metrics
	ProcessedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processor_messages_total",
			Help: "Total number of queue messages handled by the processor",
		},
		[]string{"outcome"}, // outcome: stored, suppressed, transient, permanent
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "processor_duration_seconds",
			Help:    "Duration of processing one queue message",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Record Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"operation", "result"},
	)

	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of record store operations",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	StoreSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_size_bytes",
			Help: "Record store LSM plus value log size in bytes",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"host", "method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"host", "method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests being served",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected with 429",
		},
		[]string{"host", "limiter"}, // limiter: global, key
	)

	AdmissionDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_admission_denials_total",
			Help: "Requests rejected for a missing or unauthorized admission key",
		},
		[]string{"host", "status"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordIntake records one intake submission.
func RecordIntake(kind, outcome string, duration time.Duration) {
	IntakeSubmissions.WithLabelValues(kind, outcome).Inc()
	IntakeDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordBackupWrite records a backup sink write.
func RecordBackupWrite(backend string, duration time.Duration, err error) {
	BackupWrites.WithLabelValues(backend, result(err)).Inc()
	BackupWriteDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordBackupPruned records entries removed by the retention pruner.
func RecordBackupPruned(n int) {
	BackupPruned.Add(float64(n))
}

// RecordEnqueue records a message entering a topic.
func RecordEnqueue(topic string) {
	QueueEnqueued.WithLabelValues(topic).Inc()
}

// RecordRedelivery records a failed delivery that will be retried.
func RecordRedelivery(topic, reason string) {
	QueueRedeliveries.WithLabelValues(topic, reason).Inc()
}

// RecordDeadLettered records a message moved to the dead-letter partition.
func RecordDeadLettered(topic, reason string) {
	QueueDeadLettered.WithLabelValues(topic, reason).Inc()
}

// RecordRedrive records dead letters moved back to the main queue.
func RecordRedrive(topic, trigger string, n int) {
	QueueRedrives.WithLabelValues(topic, trigger).Add(float64(n))
}

// UpdateQueueGauges sets the depth gauges of one topic.
func UpdateQueueGauges(topic string, ready, inFlight, deadLetters int) {
	QueueReady.WithLabelValues(topic).Set(float64(ready))
	QueueInFlight.WithLabelValues(topic).Set(float64(inFlight))
	QueueDeadLetters.WithLabelValues(topic).Set(float64(deadLetters))
}

// RecordProcessed records the outcome of one processed message.
func RecordProcessed(outcome string, duration time.Duration) {
	ProcessedMessages.WithLabelValues(outcome).Inc()
	ProcessingDuration.Observe(duration.Seconds())
}

// RecordStoreOp records a record store operation.
func RecordStoreOp(operation string, duration time.Duration, err error) {
	StoreOperations.WithLabelValues(operation, result(err)).Inc()
	StoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateStoreSize sets the record store size gauge.
func UpdateStoreSize(bytes int64) {
	StoreSizeBytes.Set(float64(bytes))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(host, method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(host, method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(host, method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a request rejected by a limiter.
func RecordRateLimitHit(host, limiter string) {
	RateLimitHits.WithLabelValues(host, limiter).Inc()
}

// RecordAdmissionDenial records a 401 or 403.
func RecordAdmissionDenial(host string, status int) {
	AdmissionDenials.WithLabelValues(host, strconv.Itoa(status)).Inc()
}

// RecordBreakerTransition records a circuit breaker state change. States are
// the gobreaker names: closed, half-open, open.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
