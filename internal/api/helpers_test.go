// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/authz"
	"github.com/tomtom215/verwerkingenlog/internal/backup"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/eventprocessor"
	"github.com/tomtom215/verwerkingenlog/internal/intake"
	"github.com/tomtom215/verwerkingenlog/internal/inzage"
	"github.com/tomtom215/verwerkingenlog/internal/processor"
	"github.com/tomtom215/verwerkingenlog/internal/query"
	"github.com/tomtom215/verwerkingenlog/internal/queue"
	"github.com/tomtom215/verwerkingenlog/internal/store"
)

const (
	operatorKey = "operator-key-0123456789"
	inzageKey   = "inzage-key-0123456789"
)

// testServer is the full service graph behind both hosts, on in-memory
// badger and a temporary backup directory.
type testServer struct {
	cfg      *config.Config
	q        *queue.Queue
	store    *store.Store
	sink     *backup.LocalSink
	tr       *eventprocessor.Transport
	proc     *processor.Processor
	operator http.Handler
	access   http.Handler
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Queue.InMemory = true
	cfg.Queue.PollInterval = 5 * time.Millisecond
	cfg.Queue.BackoffBase = time.Millisecond
	cfg.Queue.BackoffMax = 5 * time.Millisecond
	cfg.Auth.OperatorKeys = []string{operatorKey}
	cfg.Auth.InzageKeys = []string{inzageKey}
	cfg.RateLimit.Operator.Disabled = true
	cfg.RateLimit.Access.Disabled = true
	for _, m := range mutate {
		m(cfg)
	}

	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	q, err := queue.Open(cfg.Queue)
	if err != nil {
		t.Fatalf("queue.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	sink, err := backup.NewLocalSink(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalSink() error = %v", err)
	}

	tr, err := eventprocessor.NewTransport(context.Background(), cfg, q, nil)
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	t.Cleanup(tr.Close)

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)
	admission := authz.NewMiddleware(enforcer, authz.NewKeyring(cfg.Auth), cfg.Auth.Header, Deny, nil)

	proc := processor.New(st, cfg.Processor, time.Second)
	h := NewHandler(Deps{
		Intake:      intake.New(sink, tr.Publisher, tr.Topic, cfg.Intake),
		Query:       query.New(st, sink, proc, time.Second),
		Inzage:      inzage.New(st, time.Second),
		DeadLetters: q,
		Redriver:    tr,
		Topic:       tr.Topic,
		Transport:   tr.Backend,
		Version:     "test",
	})
	router := NewRouter(h, admission, RouterConfigFrom(cfg))

	return &testServer{
		cfg:      cfg,
		q:        q,
		store:    st,
		sink:     sink,
		tr:       tr,
		proc:     proc,
		operator: router.OperatorHandler(),
		access:   router.AccessHandler(),
	}
}

// startProcessor consumes the queue until the test ends.
func (s *testServer) startProcessor(t *testing.T) {
	t.Helper()
	rc := eventprocessor.DefaultRouterConfig()
	rc.CloseTimeout = 2 * time.Second
	svc := s.tr.ConsumerService(rc, "processor", s.proc.Handle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitFor(t, svc.IsRunning)
}

func do(t *testing.T, h http.Handler, method, path, key string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if key != "" {
		req.Header.Set(authz.DefaultHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
