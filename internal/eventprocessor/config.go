// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/config"
)

// PoisonTopic names the router's poison queue. Poisoned messages are
// recorded in the dead-letter partition of the topic they came from, so the
// name only shows up in logs.
const PoisonTopic = "dead-letter"

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// HandlerTimeout cancels the message context of a slow handler.
	HandlerTimeout time.Duration

	// Throttle configuration (messages per second, 0 = disabled)
	ThrottlePerSecond int64
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:      30 * time.Second,
		HandlerTimeout:    30 * time.Second,
		ThrottlePerSecond: 0, // Disabled by default
	}
}

// RouterConfigFrom maps the processor section of the service config.
func RouterConfigFrom(cfg config.ProcessorConfig) RouterConfig {
	rc := DefaultRouterConfig()
	if cfg.CloseTimeout > 0 {
		rc.CloseTimeout = cfg.CloseTimeout
	}
	if cfg.HandlerTimeout > 0 {
		rc.HandlerTimeout = cfg.HandlerTimeout
	}
	rc.ThrottlePerSecond = int64(cfg.ThrottlePerSecond)
	return rc
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 10 << 30,  // 10GB
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds subscriber configuration.
type SubscriberConfig struct {
	URL              string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	// MaxDeliver is JetStream's own redelivery cap. It is set one above the
	// queue's delivery budget so the ledger sees the delivery that
	// dead-letters the message.
	MaxDeliver    int
	MaxAckPending int
	CloseTimeout  time.Duration
	MaxReconnects int
	ReconnectWait time.Duration
	// StreamName binds the subscriber to a stream created by
	// ensureStream instead of auto-provisioning one per topic.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for subscriber.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "verwerkingen-processor",
		QueueGroup:       "processors",
		SubscribersCount: 4,
		AckWaitTimeout:   60 * time.Second,
		MaxDeliver:       4,
		MaxAckPending:    1000, // Flow control
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// StreamConfig defines the action stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns production stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "VERWERKINGEN",
		Subjects:        []string{"verwerkingsacties"},
		MaxAge:          14 * 24 * time.Hour,
		MaxBytes:        -1,
		MaxMsgs:         -1, // Unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// NATSConfigs derives the server, publisher, subscriber and stream settings
// from the service config.
func NATSConfigs(nc config.NATSConfig, qc config.QueueConfig) (ServerConfig, PublisherConfig, SubscriberConfig, StreamConfig) {
	srv := DefaultServerConfig()
	if nc.StoreDir != "" {
		srv.StoreDir = nc.StoreDir
	}

	pub := DefaultPublisherConfig(nc.URL)

	sub := DefaultSubscriberConfig(nc.URL)
	if nc.DurableName != "" {
		sub.DurableName = nc.DurableName
	}
	if nc.QueueGroup != "" {
		sub.QueueGroup = nc.QueueGroup
	}
	if nc.AckWait > 0 {
		sub.AckWaitTimeout = nc.AckWait
	}
	if qc.Consumers > 0 {
		sub.SubscribersCount = qc.Consumers
	}
	if qc.MaxDeliveries > 0 {
		sub.MaxDeliver = qc.MaxDeliveries + 1
	}
	sub.StreamName = nc.Stream

	stream := DefaultStreamConfig()
	if nc.Stream != "" {
		stream.Name = nc.Stream
	}
	if qc.Topic != "" {
		stream.Subjects = []string{qc.Topic}
	}
	if nc.MaxAge > 0 {
		stream.MaxAge = nc.MaxAge
	}
	return srv, pub, sub, stream
}
