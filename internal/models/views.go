// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package models

import "time"

// Filter narrows list queries. Zero values disable a criterion.
type Filter struct {
	// From and To bound occurredAt, both inclusive.
	From            time.Time
	To              time.Time
	ActivityID      string
	Confidentiality Confidentiality
	// SubjectKey and ProcessedObjectID require the record to touch that
	// object. They and ProcessingID let a secondary selector narrow a list
	// on another index.
	SubjectKey        string
	ProcessedObjectID string
	ProcessingID      string
	Limit             int
	// Cursor is the opaque continuation token from a previous page.
	Cursor string
}

// Match reports whether r passes the filter's value criteria. Paging is
// handled by the caller.
func (f *Filter) Match(r *Record) bool {
	if !f.From.IsZero() && r.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.OccurredAt.After(f.To) {
		return false
	}
	if f.ActivityID != "" && r.ActivityID != f.ActivityID {
		return false
	}
	if f.Confidentiality != "" && r.Confidentiality != f.Confidentiality {
		return false
	}
	if f.SubjectKey != "" && !contains(r.Keys.SubjectKeys, f.SubjectKey) {
		return false
	}
	if f.ProcessedObjectID != "" && !contains(r.Keys.ProcessedObjectIDs, f.ProcessedObjectID) {
		return false
	}
	if f.ProcessingID != "" && r.ProcessingID != f.ProcessingID {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Page is one page of list results.
type Page struct {
	Items      []*Record `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// InzageAction is the subset of an action disclosed to a data subject.
type InzageAction struct {
	ActivityID        string    `json:"activityId"`
	ActivityURL       string    `json:"activityUrl,omitempty"`
	ProcessingName    string    `json:"processingName,omitempty"`
	ActorOrganization string    `json:"actorOrganization,omitempty"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// InzageObject is a processed object with the disclosable actions on it.
type InzageObject struct {
	ProcessedObjectID string         `json:"processedObjectId"`
	ObjectType        string         `json:"objectType"`
	SubjectIDKind     string         `json:"subjectIdKind"`
	Involvement       string         `json:"involvement,omitempty"`
	DataCategories    []DataCategory `json:"dataCategories,omitempty"`
	Actions           []InzageAction `json:"actions"`
}

// DeadLetter is a message parked in the dead-letter partition.
type DeadLetter struct {
	ID             string            `json:"id"`
	Topic          string            `json:"topic"`
	Deliveries     int               `json:"deliveries"`
	Redrives       int               `json:"redrives"`
	LastError      string            `json:"lastError,omitempty"`
	EnqueuedAt     time.Time         `json:"enqueuedAt"`
	DeadLetteredAt time.Time         `json:"deadLetteredAt"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Body           []byte            `json:"-"`
}

// QueueStats is a point-in-time view of one topic.
type QueueStats struct {
	Topic       string `json:"topic"`
	Ready       int    `json:"ready"`
	InFlight    int    `json:"inFlight"`
	DeadLetters int    `json:"deadLetters"`
}
