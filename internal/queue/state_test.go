// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package queue

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)

func testPolicy() Policy {
	return Policy{
		MaxDeliveries: 3,
		Visibility:    time.Minute,
		BackoffBase:   2 * time.Second,
		BackoffMax:    10 * time.Second,
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()
	p := testPolicy()

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{30, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Backoff(tt.failures); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}

	if got := (Policy{}).Backoff(3); got != 0 {
		t.Errorf("Backoff without base = %v, want 0", got)
	}
}

func TestApplyClaimAndAck(t *testing.T) {
	t.Parallel()
	p := testPolicy()
	m := &Message{ID: "m1", State: StateEnqueued}

	out, err := p.Apply(m, EventClaim, t0, "c1", "")
	if err != nil {
		t.Fatalf("Apply(claim) error = %v", err)
	}
	if out != OutcomeDelivered || m.State != StateInFlight {
		t.Fatalf("claim = %v/%s, want delivered/in_flight", out, m.State)
	}
	if m.LeaseHolder != "c1" || !m.LeaseExpiry.Equal(t0.Add(time.Minute)) {
		t.Errorf("lease = %s until %v, want c1 until %v", m.LeaseHolder, m.LeaseExpiry, t0.Add(time.Minute))
	}
	if m.Deliveries != 1 {
		t.Errorf("Deliveries = %d, want 1", m.Deliveries)
	}

	out, err = p.Apply(m, EventAck, t0, "", "")
	if err != nil || out != OutcomeRemoved {
		t.Fatalf("Apply(ack) = %v, %v, want removed", out, err)
	}
	if m.LeaseHolder != "" {
		t.Errorf("LeaseHolder = %q after ack, want empty", m.LeaseHolder)
	}
}

func TestApplyDeadLettersOnlyAfterMaxFailures(t *testing.T) {
	t.Parallel()
	p := testPolicy()
	m := &Message{ID: "m1", State: StateEnqueued}
	now := t0

	for i := 1; i <= p.MaxDeliveries; i++ {
		out, err := p.Apply(m, EventClaim, now, "c", "")
		if err != nil || out != OutcomeDelivered {
			t.Fatalf("claim %d = %v, %v, want delivered", i, out, err)
		}
		if _, err := p.Apply(m, EventNack, now, "", "boom"); err != nil {
			t.Fatalf("nack %d error = %v", i, err)
		}
		if m.State != StateEnqueued {
			t.Fatalf("after %d failures state = %s, want enqueued", i, m.State)
		}
		if !m.AvailableAt.Equal(now.Add(p.Backoff(i))) {
			t.Errorf("AvailableAt after %d failures = %v, want %v", i, m.AvailableAt, now.Add(p.Backoff(i)))
		}
		now = m.AvailableAt
	}

	out, err := p.Apply(m, EventClaim, now, "c", "")
	if err != nil {
		t.Fatalf("final claim error = %v", err)
	}
	if out != OutcomeDeadLettered || m.State != StateDeadLettered {
		t.Fatalf("final claim = %v/%s, want dead-lettered", out, m.State)
	}
	if m.DeadLetterReason != ReasonMaxDeliveries {
		t.Errorf("DeadLetterReason = %q, want %q", m.DeadLetterReason, ReasonMaxDeliveries)
	}
	if m.LastError != "boom" {
		t.Errorf("LastError = %q, want boom", m.LastError)
	}
}

func TestApplyLeaseExpiredCountsFailure(t *testing.T) {
	t.Parallel()
	p := testPolicy()
	m := &Message{ID: "m1", State: StateEnqueued}
	_, _ = p.Apply(m, EventClaim, t0, "c", "")

	out, err := p.Apply(m, EventLeaseExpired, t0.Add(2*time.Minute), "", "")
	if err != nil || out != OutcomeRequeued {
		t.Fatalf("Apply(lease_expired) = %v, %v, want requeued", out, err)
	}
	if m.Failures != 1 {
		t.Errorf("Failures = %d, want 1", m.Failures)
	}
	if !m.AvailableAt.Equal(t0.Add(2 * time.Minute)) {
		t.Errorf("AvailableAt = %v, want immediate", m.AvailableAt)
	}
}

func TestApplyReleaseDoesNotCount(t *testing.T) {
	t.Parallel()
	p := testPolicy()
	m := &Message{ID: "m1", State: StateEnqueued}
	_, _ = p.Apply(m, EventClaim, t0, "c", "")

	if _, err := p.Apply(m, EventRelease, t0, "", ""); err != nil {
		t.Fatalf("Apply(release) error = %v", err)
	}
	if m.Deliveries != 0 || m.Failures != 0 {
		t.Errorf("Deliveries/Failures = %d/%d, want 0/0", m.Deliveries, m.Failures)
	}
}

func TestApplyPoisonAndRedrive(t *testing.T) {
	t.Parallel()
	p := testPolicy()
	m := &Message{ID: "m1", State: StateEnqueued, Failures: 2}
	_, _ = p.Apply(m, EventClaim, t0, "c", "")

	out, err := p.Apply(m, EventPoison, t0, "", "bad payload")
	if err != nil || out != OutcomeDeadLettered {
		t.Fatalf("Apply(poison) = %v, %v, want dead-lettered", out, err)
	}
	if m.DeadLetterReason != ReasonPermanent || m.LastError != "bad payload" {
		t.Errorf("reason/error = %q/%q, want permanent/bad payload", m.DeadLetterReason, m.LastError)
	}

	if _, err := p.Apply(m, EventPoison, t0, "", "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("poison twice error = %v, want ErrInvalidTransition", err)
	}

	out, err = p.Apply(m, EventRedrive, t0.Add(time.Hour), "", "")
	if err != nil || out != OutcomeRequeued {
		t.Fatalf("Apply(redrive) = %v, %v, want requeued", out, err)
	}
	if m.Failures != 0 || m.Redrives != 1 || m.State != StateEnqueued {
		t.Errorf("after redrive = failures %d redrives %d state %s, want 0/1/enqueued", m.Failures, m.Redrives, m.State)
	}
	if !m.DeadLetteredAt.IsZero() {
		t.Errorf("DeadLetteredAt = %v, want zero", m.DeadLetteredAt)
	}
}

func TestApplyInvalidTransitions(t *testing.T) {
	t.Parallel()
	p := testPolicy()

	tests := []struct {
		state State
		event Event
	}{
		{StateEnqueued, EventAck},
		{StateEnqueued, EventNack},
		{StateEnqueued, EventRelease},
		{StateInFlight, EventClaim},
		{StateInFlight, EventRedrive},
		{StateDeadLettered, EventClaim},
		{StateDeadLettered, EventAck},
	}
	for _, tt := range tests {
		m := &Message{ID: "m", State: tt.state}
		if _, err := p.Apply(m, tt.event, t0, "", ""); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Apply(%s on %s) error = %v, want ErrInvalidTransition", tt.event, tt.state, err)
		}
		if m.State != tt.state {
			t.Errorf("Apply(%s on %s) changed state to %s", tt.event, tt.state, m.State)
		}
	}
}
