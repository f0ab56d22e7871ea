// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Confidentiality is the disclosure level of a processing action.
type Confidentiality string

const (
	// ConfidentialityNormal actions are disclosed to the data subject.
	ConfidentialityNormal Confidentiality = "normaal"
	// ConfidentialityConfidential actions are withheld from inzage responses.
	ConfidentialityConfidential Confidentiality = "vertrouwelijk"
	// ConfidentialityLifted marks a former confidential action as disclosable.
	ConfidentialityLifted Confidentiality = "opgeheven"
)

// Valid reports whether c is one of the known levels.
func (c Confidentiality) Valid() bool {
	switch c {
	case ConfidentialityNormal, ConfidentialityConfidential, ConfidentialityLifted:
		return true
	}
	return false
}

// DataCategory is one category of personal data that was processed.
type DataCategory struct {
	Category string `json:"category" validate:"required,max=200"`
}

// ProcessedObject identifies a personal-data object acted upon.
//
// SubjectID holds the raw identifier at intake. Stored records replace it
// with its pseudonym and fill in ProcessedObjectID.
type ProcessedObject struct {
	ProcessedObjectID string         `json:"processedObjectId,omitempty" validate:"omitempty,uuid"`
	ObjectType        string         `json:"objectType" validate:"required,max=100,excludes=:,nocontrol"`
	SubjectIDKind     string         `json:"subjectIdKind" validate:"required,max=100,excludes=:,nocontrol"`
	SubjectID         string         `json:"subjectId" validate:"required,max=200,nocontrol"`
	Involvement       string         `json:"involvement,omitempty" validate:"max=100"`
	DataCategories    []DataCategory `json:"dataCategories,omitempty" validate:"max=100,dive"`
}

// Payload is a processing action as submitted by a caller. It carries
// neither actionId nor registeredAt; both are assigned at intake.
type Payload struct {
	ActionName     string `json:"actionName" validate:"required,max=200"`
	OperationName  string `json:"operationName,omitempty" validate:"max=200"`
	ProcessingID   string `json:"processingId,omitempty" validate:"max=200,nocontrol"`
	ProcessingName string `json:"processingName,omitempty" validate:"max=200"`

	ActivityID  string `json:"activityId" validate:"required,max=200,nocontrol"`
	ActivityURL string `json:"activityUrl,omitempty" validate:"omitempty,url"`

	Confidentiality Confidentiality `json:"confidentiality" validate:"required,confidentiality"`
	RetentionPeriod string          `json:"retentionPeriod,omitempty" validate:"omitempty,iso8601duration"`

	ActorOrganization string `json:"actorOrganization,omitempty" validate:"max=200"`
	ActorSystem       string `json:"actorSystem,omitempty" validate:"max=200"`
	ActorUser         string `json:"actorUser,omitempty" validate:"max=200"`
	DataSource        string `json:"dataSource,omitempty" validate:"max=200"`

	RecipientOrganizationKind string `json:"recipientOrganizationKind,omitempty" validate:"max=200"`
	RecipientOrganization     string `json:"recipientOrganization,omitempty" validate:"max=200"`
	RecipientActivityID       string `json:"recipientActivityId,omitempty" validate:"max=200"`
	RecipientActivityURL      string `json:"recipientActivityUrl,omitempty" validate:"omitempty,url"`
	RecipientProcessingID     string `json:"recipientProcessingId,omitempty" validate:"max=200"`

	OccurredAt       time.Time         `json:"occurredAt" validate:"required"`
	ProcessedObjects []ProcessedObject `json:"processedObjects" validate:"required,min=1,max=100,dive"`
}

// IndexKeys are the alternate lookup keys of one action. They are only ever
// produced by indexkey.Derive.
type IndexKeys struct {
	SubjectKeys        []string `json:"subjectKeys"`
	ActivityID         string   `json:"activityId"`
	ProcessedObjectIDs []string `json:"processedObjectIds"`
	ProcessingID       string   `json:"processingId,omitempty"`
}

// Record is a materialised processing action as held by the Record Store.
type Record struct {
	ActionID     string     `json:"actionId"`
	RegisteredAt time.Time  `json:"registeredAt"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	Keys         IndexKeys  `json:"indexKeys"`
	Payload
}

// Expired reports whether the record's retention has elapsed at now.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// MessageKind tells the processor how a queue message came to be.
type MessageKind string

const (
	// KindCreate is a POST /actions submission.
	KindCreate MessageKind = "create"
	// KindAmend is a PUT /actions/{id} submission. Processed as a replace.
	KindAmend MessageKind = "amend"
	// KindPatch is a PATCH /actions?processingId= submission. Its payload is
	// a ProcessingPatch and its action id names the patch, not an action.
	KindPatch MessageKind = "patch"
)

// Valid reports whether k is a known message kind.
func (k MessageKind) Valid() bool {
	switch k {
	case KindCreate, KindAmend, KindPatch:
		return true
	}
	return false
}

// ProcessingPatch changes the confidentiality and/or the retention period of
// every action recorded under one processing id.
type ProcessingPatch struct {
	ProcessingID    string          `json:"processingId" validate:"required,max=200,nocontrol"`
	Confidentiality Confidentiality `json:"confidentiality,omitempty" validate:"omitempty,confidentiality"`
	RetentionPeriod string          `json:"retentionPeriod,omitempty" validate:"omitempty,iso8601duration"`
}

// ActionMessage is the queue message body. Payload is the verbatim accepted
// request body; the processor decodes and re-validates it.
type ActionMessage struct {
	ActionID     string          `json:"actionId"`
	Kind         MessageKind     `json:"kind"`
	RegisteredAt time.Time       `json:"registeredAt"`
	Payload      json.RawMessage `json:"payload"`
}

// Receipt is returned to callers of intake.
type Receipt struct {
	ActionID     string    `json:"actionId"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// PatchReceipt acknowledges a queued processing patch. PatchID keys its
// backup copy and can be replayed like an action id.
type PatchReceipt struct {
	PatchID      string    `json:"patchId"`
	ProcessingID string    `json:"processingId"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Metadata keys carried on queue messages next to the ActionMessage body.
const (
	MetadataActionID      = "action_id"
	MetadataKind          = "kind"
	MetadataBackupKey     = "backup_key"
	MetadataCorrelationID = "correlation_id"
)
