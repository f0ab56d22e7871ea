// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// AuditEvent is one admission decision.
type AuditEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Host      string    `json:"host"`
	Role      string    `json:"role,omitempty"`
	KeyID     string    `json:"key_id,omitempty"`
	// KeyHint is the masked key of a rejected request.
	KeyHint  string        `json:"key_hint,omitempty"`
	Method   string        `json:"method"`
	Path     string        `json:"path"`
	Status   int           `json:"status"`
	Allowed  bool          `json:"allowed"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	CacheHit bool          `json:"cache_hit"`
	RemoteIP string        `json:"remote_ip,omitempty"`
}

// AuditLoggerConfig configures the audit logger behavior.
type AuditLoggerConfig struct {
	Enabled bool

	// LogAllowed also records admitted requests. Denials are always
	// recorded when the logger is enabled.
	LogAllowed bool

	// BufferSize is the size of the async log buffer.
	// Events are dropped if buffer is full (non-blocking)
	BufferSize int
}

// DefaultAuditLoggerConfig returns production defaults: denials only.
func DefaultAuditLoggerConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		Enabled:    true,
		LogAllowed: false,
		BufferSize: 1000,
	}
}

// AuditLogger writes admission decisions to the log off the request path.
type AuditLogger struct {
	config   *AuditLoggerConfig
	events   chan *AuditEvent
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditLogger creates a new audit logger with the given configuration.
func NewAuditLogger(config *AuditLoggerConfig) *AuditLogger {
	if config == nil {
		config = DefaultAuditLoggerConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}

	al := &AuditLogger{
		config:   config,
		events:   make(chan *AuditEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}
	if config.Enabled {
		al.wg.Add(1)
		go al.processEvents()
	}
	return al
}

// LogDecision records an admission decision asynchronously.
// This method is non-blocking; events are dropped if the buffer is full.
func (al *AuditLogger) LogDecision(event *AuditEvent) {
	if al == nil || !al.config.Enabled {
		return
	}
	if event.Allowed && !al.config.LogAllowed {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case al.events <- event:
	default:
		logging.Warn().
			Str("host", event.Host).
			Str("path", event.Path).
			Msg("Audit log buffer full, event dropped")
	}
}

func (al *AuditLogger) processEvents() {
	defer al.wg.Done()

	for {
		select {
		case <-al.stopChan:
			al.drainEvents()
			return
		case event := <-al.events:
			al.writeEvent(event)
		}
	}
}

func (al *AuditLogger) drainEvents() {
	for {
		select {
		case event := <-al.events:
			al.writeEvent(event)
		default:
			return
		}
	}
}

func (al *AuditLogger) writeEvent(event *AuditEvent) {
	logEvent := logging.Info()
	if !event.Allowed {
		logEvent = logging.Warn()
	}

	logEvent = logEvent.
		Str("event_type", "admission_decision").
		Str("audit_id", event.ID).
		Time("audit_timestamp", event.Timestamp).
		Str("host", event.Host).
		Str("method", event.Method).
		Str("path", event.Path).
		Int("status", event.Status).
		Bool("allowed", event.Allowed).
		Dur("duration", event.Duration).
		Bool("cache_hit", event.CacheHit)

	if event.Role != "" {
		logEvent = logEvent.Str("role", event.Role)
	}
	if event.KeyID != "" {
		logEvent = logEvent.Str("key_id", event.KeyID)
	}
	if event.KeyHint != "" {
		logEvent = logEvent.Str("key_hint", event.KeyHint)
	}
	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	if event.Reason != "" {
		logEvent = logEvent.Str("reason", event.Reason)
	}
	if event.RemoteIP != "" {
		logEvent = logEvent.Str("remote_ip", event.RemoteIP)
	}

	logEvent.Msg("Admission decision")
}

// Close stops the logger after writing what is buffered. It is safe to
// call multiple times.
func (al *AuditLogger) Close() {
	if al == nil {
		return
	}
	al.stopOnce.Do(func() {
		close(al.stopChan)
	})
	al.wg.Wait()
}
