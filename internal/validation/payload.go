// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package validation

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// MaxClockSkew is how far occurredAt may lie after registeredAt before the
// write-time checks reject the action.
const MaxClockSkew = 5 * time.Minute

// DecodePayload strictly decodes a request body and runs intake validation.
// Unknown fields, trailing data and an actionId or registeredAt in the body
// are rejected. Errors are *models.ValidationError.
func DecodePayload(raw []byte) (*models.Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, models.NewValidationError("body", "request body is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p models.Payload
	if err := dec.Decode(&p); err != nil {
		return nil, models.NewValidationError("body", fmt.Sprintf("malformed payload: %v", err))
	}
	if dec.More() {
		return nil, models.NewValidationError("body", "unexpected data after payload")
	}

	if err := ValidatePayload(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ValidatePayload runs the struct rules on an already decoded payload.
func ValidatePayload(p *models.Payload) error {
	for i := range p.ProcessedObjects {
		if p.ProcessedObjects[i].ProcessedObjectID != "" {
			return models.NewValidationError(
				fmt.Sprintf("processedObjects[%d].processedObjectId", i),
				"processedObjectId is assigned by the service and must not be supplied",
			)
		}
	}
	if verr := ValidateStruct(p); verr != nil {
		return verr.ToModelError()
	}
	return nil
}

// DecodePatch strictly decodes a processing patch body. The processing id
// comes from the request; a body that names a different one is rejected.
func DecodePatch(processingID string, raw []byte) (*models.ProcessingPatch, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, models.NewValidationError("body", "request body is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p models.ProcessingPatch
	if err := dec.Decode(&p); err != nil {
		return nil, models.NewValidationError("body", fmt.Sprintf("malformed patch: %v", err))
	}
	if dec.More() {
		return nil, models.NewValidationError("body", "unexpected data after patch")
	}
	if p.ProcessingID != "" && p.ProcessingID != processingID {
		return nil, models.NewValidationError("processingId", "processingId in the body does not match the request")
	}
	p.ProcessingID = processingID

	if err := ValidatePatch(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ValidatePatch runs the struct rules on a decoded patch and requires it to
// change at least one field.
func ValidatePatch(p *models.ProcessingPatch) error {
	if verr := ValidateStruct(p); verr != nil {
		return verr.ToModelError()
	}
	if p.Confidentiality == "" && p.RetentionPeriod == "" {
		return models.NewValidationError("body", "patch must set confidentiality or retentionPeriod")
	}
	return nil
}

// CheckWriteTime applies the stricter checks made when a record is about to
// be written. It assumes ValidatePayload already passed. A failure here is
// permanent: retrying the same message cannot make it pass.
func CheckWriteTime(p *models.Payload, registeredAt time.Time) error {
	var fields []models.FieldError

	if p.OccurredAt.After(registeredAt.Add(MaxClockSkew)) {
		fields = append(fields, models.FieldError{
			Field:   "occurredAt",
			Tag:     "notfuture",
			Message: "occurredAt lies after the registration time",
		})
	}

	expiresAt, err := indexkey.ExpiresAt(p)
	switch {
	case err != nil:
		fields = append(fields, models.FieldError{
			Field:   "retentionPeriod",
			Tag:     "iso8601duration",
			Message: err.Error(),
		})
	case expiresAt != nil && !expiresAt.After(registeredAt):
		fields = append(fields, models.FieldError{
			Field:   "retentionPeriod",
			Tag:     "notelapsed",
			Message: "retention period had already elapsed at registration",
		})
	}

	if len(fields) == 0 {
		return nil
	}
	return &models.ValidationError{Fields: fields, WriteTime: true}
}

// ParseActionID checks a caller-supplied action id and returns it in
// canonical form.
func ParseActionID(actionID string) (string, error) {
	id, err := uuid.Parse(actionID)
	if err != nil {
		return "", models.NewValidationError("actionId", "actionId must be a valid UUID")
	}
	return id.String(), nil
}
