// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// captureLog swaps the global logger; tests using it must not run in
// parallel.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := logging.Logger()
	var buf bytes.Buffer
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })
	return &buf
}

func TestAuditLoggerRecordsDenialsOnly(t *testing.T) {
	buf := captureLog(t)
	al := NewAuditLogger(DefaultAuditLoggerConfig())

	al.LogDecision(&AuditEvent{Host: HostOperator, Path: "/actions/allowed", Method: "GET", Allowed: true, Status: 200})
	al.LogDecision(&AuditEvent{Host: HostOperator, Path: "/actions/denied", Method: "GET", Status: 403, Reason: "role_denied"})
	al.Close()

	out := buf.String()
	if strings.Contains(out, "/actions/allowed") {
		t.Error("allowed decision logged with LogAllowed=false")
	}
	if !strings.Contains(out, "/actions/denied") || !strings.Contains(out, `"reason":"role_denied"`) {
		t.Errorf("denial not logged: %s", out)
	}
	if !strings.Contains(out, `"audit_id":"`) {
		t.Error("audit_id not assigned")
	}
}

func TestAuditLoggerMasksRejectedKey(t *testing.T) {
	buf := captureLog(t)
	al := NewAuditLogger(&AuditLoggerConfig{Enabled: true, LogAllowed: true})
	mw := NewMiddleware(newTestEnforcer(t), testKeyring(), "", nil, al)
	h := mw.Admit(HostOperator)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	const rejected = "leaked-secret-0123456789"
	req := httptest.NewRequest(http.MethodGet, "/actions", nil)
	req.Header.Set(DefaultHeader, rejected)
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/actions", nil)
	req.Header.Set(DefaultHeader, operatorKey)
	h.ServeHTTP(httptest.NewRecorder(), req)
	al.Close()

	out := buf.String()
	if strings.Contains(out, rejected) || strings.Contains(out, operatorKey) {
		t.Errorf("raw key in audit log: %s", out)
	}
	if !strings.Contains(out, `"key_hint":"leak****"`) {
		t.Errorf("masked key missing from audit log: %s", out)
	}
	if !strings.Contains(out, `"role":"operator"`) {
		t.Errorf("allowed decision missing with LogAllowed=true: %s", out)
	}
}

func TestAuditLoggerDisabledAndNil(t *testing.T) {
	t.Parallel()
	al := NewAuditLogger(&AuditLoggerConfig{Enabled: false})
	al.LogDecision(&AuditEvent{Host: HostAccess})
	al.Close()

	var nilLogger *AuditLogger
	nilLogger.LogDecision(&AuditEvent{Host: HostAccess})
	nilLogger.Close()
}
