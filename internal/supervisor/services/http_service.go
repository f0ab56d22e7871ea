// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// DefaultShutdownTimeout bounds connection draining when none is configured.
const DefaultShutdownTimeout = 10 * time.Second

// HTTPServer is the lifecycle half of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs one HTTP listener under a supervisor.
//
// ListenAndServe runs in a goroutine. Cancelling the Serve context calls
// Shutdown with a fresh context bounded by the shutdown timeout, so in-flight
// requests drain even though the parent context is already done.
type HTTPServerService struct {
	name            string
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server. name identifies the listener in
// supervisor events; the operator and access hosts each get their own.
func NewHTTPServerService(name string, server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	if name == "" {
		name = "http-server"
	}
	return &HTTPServerService{
		name:            name,
		server:          server,
		shutdownTimeout: shutdownTimeout,
	}
}

// Serve implements suture.Service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if addr := listenAddr(h.server); addr != "" {
		logging.Info().Str("service", h.name).Str("addr", addr).Msg("HTTP listener starting")
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%s: %w", h.name, err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s shutdown: %w", h.name, err)
		}
		<-errCh
		logging.Info().Str("service", h.name).Msg("HTTP listener stopped")
		return ctx.Err()
	}
}

// String implements fmt.Stringer for suture events.
func (h *HTTPServerService) String() string {
	return h.name
}

func listenAddr(server HTTPServer) string {
	if s, ok := server.(*http.Server); ok {
		return s.Addr
	}
	return ""
}
