// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/queue"
)

// Router wraps the Watermill Router with pre-configured middleware.
// It provides automatic Ack/Nack handling, panic recovery, handler timeouts
// and poison queue routing for permanently failing messages. Transient
// failures are not retried in-process: the message is nacked and the
// transport redelivers it after its backoff.
type Router struct {
	router    *message.Router
	config    RouterConfig
	logger    watermill.LoggerAdapter
	poisonPub message.Publisher
	running   atomic.Bool
	handlers  map[string]*message.Handler
}

// NewRouter creates a new Watermill Router with pre-configured middleware.
// The router handles:
//   - Recording the handler error for the transport's Nack
//   - Panic recovery with stack trace logging
//   - Poison queue routing for PermanentProcessingError
//   - Per-message handler timeout
//   - Optional rate limiting (throttling)
func NewRouter(
	cfg *RouterConfig,
	poisonPublisher message.Publisher,
	logger watermill.LoggerAdapter,
) (*Router, error) {
	if poisonPublisher == nil {
		return nil, ErrNilPublisher
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:    wmRouter,
		config:    *cfg,
		logger:    logger,
		poisonPub: poisonPublisher,
		handlers:  make(map[string]*message.Handler),
	}

	// Middleware in order (outer to inner):
	// 1. RecordCause - keep the error for the subscriber's Nack
	// 2. Recoverer - catch panics and convert to errors
	// 3. Poison Queue - dead-letter permanent failures
	// 4. Timeout - bound handler run time
	// 5. Throttle - rate limiting (if enabled)
	wmRouter.AddMiddleware(queue.RecordCause)
	wmRouter.AddMiddleware(middleware.Recoverer)

	poisonQueue, err := middleware.PoisonQueueWithFilter(poisonPublisher, PoisonTopic, models.IsPermanent)
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	wmRouter.AddMiddleware(poisonQueue)

	if cfg.HandlerTimeout > 0 {
		wmRouter.AddMiddleware(middleware.Timeout(cfg.HandlerTimeout))
	}

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	return r, nil
}

// AddConsumerHandler registers a handler that doesn't produce output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(
		name,
		subscribeTopic,
		subscriber,
		handler,
	)
	r.handlers[name] = h
	return h
}

// AddHandlerMiddleware adds middleware to a specific handler.
// Handler-level middleware runs after router-level middleware.
func (r *Router) AddHandlerMiddleware(handlerName string, m ...message.HandlerMiddleware) error {
	h, exists := r.handlers[handlerName]
	if !exists {
		return fmt.Errorf("handler %q not found", handlerName)
	}
	h.AddMiddleware(m...)
	return nil
}

// Run starts the router and blocks until context cancellation or Close().
// All registered handlers begin processing messages.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router.
// Waits for in-flight messages to complete up to CloseTimeout.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// RouterService runs a router under suture. A Watermill router cannot be
// run twice, so every Serve builds a fresh one.
type RouterService struct {
	build func() (*Router, error)

	current atomic.Pointer[Router]
}

// NewRouterService creates a service that runs routers made by build.
func NewRouterService(build func() (*Router, error)) *RouterService {
	return &RouterService{build: build}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	r, err := s.build()
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	s.current.Store(r)
	defer s.current.Store(nil)

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	return ctx.Err()
}

// IsRunning reports whether a router is currently processing messages.
func (s *RouterService) IsRunning() bool {
	r := s.current.Load()
	return r != nil && r.IsRunning()
}

// String implements fmt.Stringer for suture logging.
func (s *RouterService) String() string {
	return "watermill-router"
}
