// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/verwerkingenlog/internal/config"
)

// RootName names the root supervisor in events.
const RootName = "verwerkingenlog"

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for a service to stop.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// TreeConfigFrom maps the loaded supervisor settings.
func TreeConfigFrom(cfg config.SupervisorConfig) TreeConfig {
	return TreeConfig{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		ShutdownTimeout:  cfg.ShutdownTimeout,
	}
}

// SupervisorTree is the process supervision hierarchy:
//
//	verwerkingenlog
//	├── storage-layer    badger value-log GC, backup pruner
//	├── messaging-layer  embedded NATS, processor consumer, auto-redrive, queue stats
//	└── api-layer        operator and access HTTP listeners
//
// Each layer counts failures on its own, so a consumer crash loop does not
// take the listeners down with it. Intake keeps accepting while the processor
// restarts; messages wait in the durable queue.
type SupervisorTree struct {
	root      *suture.Supervisor
	storage   *suture.Supervisor
	messaging *suture.Supervisor
	api       *suture.Supervisor
	logger    *slog.Logger
	config    TreeConfig
}

// NewSupervisorTree creates a tree. Zero config fields take the defaults.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Children inherit the EventHook when added to the root.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New(RootName, rootSpec)
	storage := suture.New("storage-layer", childSpec)
	messaging := suture.New("messaging-layer", childSpec)
	api := suture.New("api-layer", childSpec)

	root.Add(storage)
	root.Add(messaging)
	root.Add(api)

	return &SupervisorTree{
		root:      root,
		storage:   storage,
		messaging: messaging,
		api:       api,
		logger:    logger,
		config:    config,
	}, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddStorageService adds a service to the storage layer: store maintenance
// and backup retention.
func (t *SupervisorTree) AddStorageService(svc suture.Service) suture.ServiceToken {
	return t.storage.Add(svc)
}

// AddMessagingService adds a service to the messaging layer: the broker,
// the consumer and the queue housekeeping loops.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// AddMessagingServices adds each service to the messaging layer.
func (t *SupervisorTree) AddMessagingServices(svcs ...suture.Service) {
	for _, svc := range svcs {
		t.messaging.Add(svc)
	}
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// RemoveMessagingService stops and removes a messaging layer service.
func (t *SupervisorTree) RemoveMessagingService(token suture.ServiceToken) error {
	return t.messaging.Remove(token)
}

// Serve runs the tree until ctx is cancelled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	t.logger.Info("supervisor tree starting",
		"failure_threshold", t.config.FailureThreshold,
		"failure_backoff", t.config.FailureBackoff,
		"shutdown_timeout", t.config.ShutdownTimeout)
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives the
// result when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
