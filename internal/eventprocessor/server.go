// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

const (
	serverReadyTimeout    = 30 * time.Second
	serverShutdownTimeout = 10 * time.Second

	// Action messages are a payload plus metadata; 1 MiB leaves room for
	// large processed-object lists.
	serverMaxPayload = 1 << 20
)

// EmbeddedServer is an in-process NATS server with JetStream, used when
// the nats backend is selected without an external URL.
type EmbeddedServer struct {
	ns        *server.Server
	storeDir  string
	clientURL string
}

// NewEmbeddedServer starts the server and blocks until it accepts
// connections. A Port of -1 picks a free port.
func NewEmbeddedServer(cfg *ServerConfig) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName:         "verwerkingenlog",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		MaxPayload:         serverMaxPayload,
		NoSigs:             true,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLoggerV2(natsLogger{logging.WithComponent("nats-server")}, false, false, false)

	go ns.Start()
	if !ns.ReadyForConnections(serverReadyTimeout) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready for connections")
	}

	s := &EmbeddedServer{ns: ns, storeDir: cfg.StoreDir, clientURL: ns.ClientURL()}
	logging.Info().
		Str("url", s.clientURL).
		Str("store_dir", s.storeDir).
		Msg("Embedded NATS server started")
	return s, nil
}

// ClientURL is the URL publishers and subscribers connect to.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server and waits until it has exited or ctx is done.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.ns.Shutdown()

	done := make(chan struct{})
	go func() {
		s.ns.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EmbeddedServer) IsRunning() bool {
	return s.ns.Running()
}

func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.ns.JetStreamEnabled()
}

// Serve holds the already running server until ctx is canceled, then shuts
// it down. Publishers hold connections to it, so it is never restarted in
// place.
func (s *EmbeddedServer) Serve(ctx context.Context) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS server shutdown incomplete")
	}
	return suture.ErrDoNotRestart
}

func (s *EmbeddedServer) String() string {
	return "nats-server"
}

// natsLogger routes server log lines into zerolog. Notices are logged at
// debug level; the server is chatty on startup.
type natsLogger struct {
	log zerolog.Logger
}

func (l natsLogger) Noticef(format string, v ...any) { l.log.Debug().Msgf(format, v...) }
func (l natsLogger) Warnf(format string, v ...any)   { l.log.Warn().Msgf(format, v...) }
func (l natsLogger) Fatalf(format string, v ...any)  { l.log.Error().Msgf(format, v...) }
func (l natsLogger) Errorf(format string, v ...any)  { l.log.Error().Msgf(format, v...) }
func (l natsLogger) Debugf(format string, v ...any)  { l.log.Debug().Msgf(format, v...) }
func (l natsLogger) Tracef(format string, v ...any)  { l.log.Trace().Msgf(format, v...) }
