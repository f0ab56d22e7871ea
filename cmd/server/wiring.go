// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tomtom215/verwerkingenlog/internal/api"
	"github.com/tomtom215/verwerkingenlog/internal/authz"
	"github.com/tomtom215/verwerkingenlog/internal/backup"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/eventprocessor"
	"github.com/tomtom215/verwerkingenlog/internal/intake"
	"github.com/tomtom215/verwerkingenlog/internal/inzage"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/processor"
	"github.com/tomtom215/verwerkingenlog/internal/query"
	"github.com/tomtom215/verwerkingenlog/internal/queue"
	"github.com/tomtom215/verwerkingenlog/internal/store"
)

// app is the wired service graph.
type app struct {
	cfg *config.Config

	store     *store.Store
	queue     *queue.Queue
	sink      backup.Sink
	transport *eventprocessor.Transport
	processor *processor.Processor
	enforcer  *authz.Enforcer
	audit     *authz.AuditLogger

	operator *http.Server
	access   *http.Server

	closers []func()
}

// build opens the stores and wires every component. On error, whatever was
// opened so far is closed again.
func build(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.store, err = store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	a.onClose("record store", a.store.Close)
	logging.Info().Str("path", cfg.Store.Path).Bool("in_memory", cfg.Store.InMemory).Msg("Record store opened")

	a.queue, err = queue.Open(cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	a.onClose("queue", a.queue.Close)
	logging.Info().Str("path", cfg.Queue.Path).Str("topic", cfg.Queue.Topic).Msg("Queue opened")

	a.sink, err = backup.New(ctx, cfg.Backup)
	if err != nil {
		return nil, fmt.Errorf("open backup sink: %w", err)
	}

	a.transport, err = eventprocessor.NewTransport(ctx, cfg, a.queue, logging.NewWatermillLogger("transport"))
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}
	a.closers = append(a.closers, a.transport.Close)
	logging.Info().Str("backend", a.transport.Backend).Str("topic", a.transport.Topic).Msg("Transport initialized")

	a.processor = processor.New(a.store, cfg.Processor, cfg.Store.Timeout)

	admission, err := a.admission()
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(api.Deps{
		Intake:      intake.New(a.sink, a.transport.Publisher, a.transport.Topic, cfg.Intake),
		Query:       query.New(a.store, a.sink, a.processor, cfg.Store.Timeout),
		Inzage:      inzage.New(a.store, cfg.Store.Timeout),
		DeadLetters: a.queue,
		Redriver:    a.transport,
		Topic:       a.transport.Topic,
		Transport:   a.transport.Backend,
		Version:     version,
		Checks: map[string]api.HealthCheck{
			"store": a.store.Ping,
		},
	})
	router := api.NewRouter(handler, admission, api.RouterConfigFrom(cfg))

	a.operator = a.httpServer(cfg.Server.OperatorAddr, router.OperatorHandler())
	a.access = a.httpServer(cfg.Server.AccessAddr, router.AccessHandler())
	return a, nil
}

// admission builds the Casbin enforcer, the key ring and the decision audit
// log behind both hosts.
func (a *app) admission() (*authz.Middleware, error) {
	cfg := a.cfg.Auth

	enfCfg := authz.DefaultEnforcerConfig()
	enfCfg.PolicyPath = cfg.PolicyPath
	enforcer, err := authz.NewEnforcer(enfCfg)
	if err != nil {
		return nil, fmt.Errorf("create admission enforcer: %w", err)
	}
	a.enforcer = enforcer
	a.closers = append(a.closers, enforcer.Close)

	keys := authz.NewKeyring(cfg)
	if keys.Len() == 0 {
		logging.Warn().Msg("No admission keys configured; every protected route will answer 401")
	}

	a.audit = authz.NewAuditLogger(authz.DefaultAuditLoggerConfig())
	a.closers = append(a.closers, a.audit.Close)

	logging.Info().
		Int("keys", keys.Len()).
		Str("header", cfg.Header).
		Bool("policy_file", cfg.PolicyPath != "").
		Msg("Admission configured")
	return authz.NewMiddleware(enforcer, keys, cfg.Header, api.Deny, a.audit), nil
}

func (a *app) httpServer(addr string, h http.Handler) *http.Server {
	s := a.cfg.Server
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       s.ReadTimeout,
		ReadHeaderTimeout: s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

func (a *app) onClose(name string, fn func() error) {
	a.closers = append(a.closers, func() {
		if err := fn(); err != nil {
			logging.Error().Err(err).Str("resource", name).Msg("Close failed")
		}
	})
}

// Close releases everything build opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
