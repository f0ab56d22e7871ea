// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package indexkey derives the alternate lookup keys of a processing action.
//
// The processor calls Derive when it writes a record; the query and inzage
// services call SubjectKey and ProcessedObjectID when they build a lookup.
// Both sides go through this package so the keys cannot drift apart. All
// functions are pure.
package indexkey

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// Separator joins the parts of a subject key.
const Separator = ":"

// processedObjectNamespace scopes the UUIDv5 processed object ids.
var processedObjectNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:verwerkingenlog:processed-object"))

// Pseudonym returns the hex SHA3-256 digest of a subject identifier.
func Pseudonym(subjectID string) string {
	sum := sha3.Sum256([]byte(subjectID))
	return hex.EncodeToString(sum[:])
}

// SubjectKey returns objectType:subjectIdKind:pseudonym(subjectId).
func SubjectKey(objectType, subjectIDKind, subjectID string) string {
	return objectType + Separator + subjectIDKind + Separator + Pseudonym(subjectID)
}

// ProcessedObjectID returns the stable id of the object behind subjectKey.
// The same object gets the same id in every action that touches it.
func ProcessedObjectID(subjectKey string) string {
	return uuid.NewSHA1(processedObjectNamespace, []byte(subjectKey)).String()
}

// Derive computes all alternate lookup keys of p. Lists follow the order of
// p.ProcessedObjects; an object listed twice yields its keys twice.
func Derive(p *models.Payload) models.IndexKeys {
	keys := models.IndexKeys{
		SubjectKeys:        make([]string, len(p.ProcessedObjects)),
		ActivityID:         p.ActivityID,
		ProcessedObjectIDs: make([]string, len(p.ProcessedObjects)),
		ProcessingID:       p.ProcessingID,
	}
	for i, o := range p.ProcessedObjects {
		sk := SubjectKey(o.ObjectType, o.SubjectIDKind, o.SubjectID)
		keys.SubjectKeys[i] = sk
		keys.ProcessedObjectIDs[i] = ProcessedObjectID(sk)
	}
	return keys
}

// Unique returns keys with duplicates removed, keeping first occurrences.
func Unique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// ParseSubject splits a "type:kind:id" selector. The id may itself contain
// the separator.
func ParseSubject(selector string) (objectType, subjectIDKind, subjectID string, err error) {
	parts := strings.SplitN(selector, Separator, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("subject %q must have the form objectType:subjectIdKind:subjectId", selector)
	}
	return parts[0], parts[1], parts[2], nil
}

// ExpiresAt returns occurredAt plus the retention period, or nil when no
// retention period is set.
func ExpiresAt(p *models.Payload) (*time.Time, error) {
	if p.RetentionPeriod == "" {
		return nil, nil
	}
	d, err := ParseISODuration(p.RetentionPeriod)
	if err != nil {
		return nil, err
	}
	t := d.AddTo(p.OccurredAt).UTC()
	return &t, nil
}
