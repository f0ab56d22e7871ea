// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package queue

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle position of a queued message.
type State string

const (
	StateEnqueued     State = "enqueued"
	StateInFlight     State = "in_flight"
	StateDeadLettered State = "dead_lettered"
)

// Event drives a state transition.
type Event string

const (
	// EventClaim hands an enqueued message to a consumer, or dead-letters it
	// when its delivery budget is spent.
	EventClaim Event = "claim"
	// EventAck removes an in-flight message.
	EventAck Event = "ack"
	// EventNack counts a failed delivery and schedules a retry.
	EventNack Event = "nack"
	// EventLeaseExpired counts a delivery whose consumer went silent.
	EventLeaseExpired Event = "lease_expired"
	// EventRelease returns an in-flight message on shutdown without
	// counting a failure.
	EventRelease Event = "release"
	// EventPoison dead-letters a message immediately.
	EventPoison Event = "poison"
	// EventRedrive moves a dead letter back to the main queue.
	EventRedrive Event = "redrive"
)

// Outcome tells the caller what to do with the message after a transition.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeRequeued
	OutcomeDeadLettered
	OutcomeRemoved
)

// Dead-letter reasons.
const (
	ReasonMaxDeliveries = "max_deliveries"
	ReasonPermanent     = "permanent"
)

// ErrInvalidTransition is returned when an event does not apply to the
// message's current state.
var ErrInvalidTransition = errors.New("invalid queue state transition")

// Message is the persisted form of a queued message.
type Message struct {
	ID       string            `json:"id"`
	Topic    string            `json:"topic"`
	Body     []byte            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`

	State State `json:"state"`
	// Deliveries counts hand-outs to consumers; Failures counts the ones that
	// ended in a nack or an expired lease.
	Deliveries int    `json:"deliveries"`
	Failures   int    `json:"failures"`
	Redrives   int    `json:"redrives"`
	LastError  string `json:"lastError,omitempty"`

	EnqueuedAt  time.Time `json:"enqueuedAt"`
	AvailableAt time.Time `json:"availableAt"`

	LeaseHolder string    `json:"leaseHolder,omitempty"`
	LeaseExpiry time.Time `json:"leaseExpiry,omitempty"`

	DeadLetteredAt   time.Time `json:"deadLetteredAt,omitempty"`
	DeadLetterReason string    `json:"deadLetterReason,omitempty"`
}

// Policy holds the parameters of the state machine.
type Policy struct {
	// MaxDeliveries is the number of failed deliveries a message may have.
	// The claim after the last allowed failure dead-letters it.
	MaxDeliveries int
	Visibility    time.Duration
	BackoffBase   time.Duration
	BackoffMax    time.Duration
}

// Backoff returns the redelivery delay after the given number of failures:
// base·2^(failures-1), capped at BackoffMax.
func (p Policy) Backoff(failures int) time.Duration {
	if failures < 1 || p.BackoffBase <= 0 {
		return 0
	}
	d := p.BackoffBase
	for i := 1; i < failures; i++ {
		d *= 2
		if p.BackoffMax > 0 && d >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if p.BackoffMax > 0 && d > p.BackoffMax {
		return p.BackoffMax
	}
	return d
}

// Apply performs one transition on m in place. holder names the consumer
// for claims; cause is recorded for failures and poison.
func (p Policy) Apply(m *Message, ev Event, now time.Time, holder, cause string) (Outcome, error) {
	switch ev {
	case EventClaim:
		if m.State != StateEnqueued {
			break
		}
		if m.Failures >= p.MaxDeliveries {
			m.deadLetter(now, ReasonMaxDeliveries)
			return OutcomeDeadLettered, nil
		}
		m.State = StateInFlight
		m.Deliveries++
		m.LeaseHolder = holder
		m.LeaseExpiry = now.Add(p.Visibility)
		return OutcomeDelivered, nil

	case EventAck:
		if m.State != StateInFlight {
			break
		}
		m.clearLease()
		return OutcomeRemoved, nil

	case EventNack:
		if m.State != StateInFlight {
			break
		}
		m.Failures++
		m.LastError = cause
		m.requeue(now.Add(p.Backoff(m.Failures)))
		return OutcomeRequeued, nil

	case EventLeaseExpired:
		if m.State != StateInFlight {
			break
		}
		m.Failures++
		m.LastError = "visibility timeout expired"
		m.requeue(now)
		return OutcomeRequeued, nil

	case EventRelease:
		if m.State != StateInFlight {
			break
		}
		if m.Deliveries > 0 {
			m.Deliveries--
		}
		m.requeue(now)
		return OutcomeRequeued, nil

	case EventPoison:
		if m.State == StateDeadLettered {
			break
		}
		m.LastError = cause
		m.deadLetter(now, ReasonPermanent)
		return OutcomeDeadLettered, nil

	case EventRedrive:
		if m.State != StateDeadLettered {
			break
		}
		m.Failures = 0
		m.Redrives++
		m.DeadLetteredAt = time.Time{}
		m.DeadLetterReason = ""
		m.requeue(now)
		return OutcomeRequeued, nil
	}
	return 0, fmt.Errorf("%w: %s on %s message %s", ErrInvalidTransition, ev, m.State, m.ID)
}

func (m *Message) requeue(availableAt time.Time) {
	m.State = StateEnqueued
	m.AvailableAt = availableAt
	m.clearLease()
}

func (m *Message) deadLetter(now time.Time, reason string) {
	m.State = StateDeadLettered
	m.DeadLetteredAt = now
	m.DeadLetterReason = reason
	m.clearLease()
}

func (m *Message) clearLease() {
	m.LeaseHolder = ""
	m.LeaseExpiry = time.Time{}
}
