// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package store

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// Key layout
//
//	rec:<actionId>                                 record JSON
//	tomb:<actionId>                                tombstone JSON
//	idx:<index>:<value>\x00<registeredAt>\x00<id>  empty
//
// registeredAt is UnixNano zero padded to 20 digits so index entries sort by
// registration time, then by action id.
const (
	prefixRecord    = "rec:"
	prefixTombstone = "tomb:"
	prefixIndex     = "idx:"
)

// Index names the alternate lookup index of a list query.
type Index string

const (
	IndexSubject         Index = "sub"
	IndexActivity        Index = "act"
	IndexProcessedObject Index = "obj"
	IndexProcessing      Index = "prc"
)

const keySep = 0x00

func recordKey(actionID string) []byte {
	return []byte(prefixRecord + actionID)
}

func tombstoneKey(actionID string) []byte {
	return []byte(prefixTombstone + actionID)
}

// indexPrefix returns the prefix shared by every entry of one index value.
func indexPrefix(idx Index, value string) []byte {
	b := make([]byte, 0, len(prefixIndex)+len(idx)+len(value)+2)
	b = append(b, prefixIndex...)
	b = append(b, idx...)
	b = append(b, ':')
	b = append(b, value...)
	b = append(b, keySep)
	return b
}

func indexSuffix(registeredAt time.Time, actionID string) []byte {
	b := make([]byte, 0, 21+len(actionID))
	b = append(b, fmt.Sprintf("%020d", registeredAt.UnixNano())...)
	b = append(b, keySep)
	b = append(b, actionID...)
	return b
}

func indexKey(idx Index, value string, registeredAt time.Time, actionID string) []byte {
	return append(indexPrefix(idx, value), indexSuffix(registeredAt, actionID)...)
}

// indexKeys returns every index entry a record owns. Repeated subject keys
// and object ids within one action collapse into one entry.
func indexKeys(rec *models.Record) [][]byte {
	var keys [][]byte
	for _, sk := range indexkey.Unique(rec.Keys.SubjectKeys) {
		keys = append(keys, indexKey(IndexSubject, sk, rec.RegisteredAt, rec.ActionID))
	}
	if rec.Keys.ActivityID != "" {
		keys = append(keys, indexKey(IndexActivity, rec.Keys.ActivityID, rec.RegisteredAt, rec.ActionID))
	}
	for _, id := range indexkey.Unique(rec.Keys.ProcessedObjectIDs) {
		keys = append(keys, indexKey(IndexProcessedObject, id, rec.RegisteredAt, rec.ActionID))
	}
	if rec.Keys.ProcessingID != "" {
		keys = append(keys, indexKey(IndexProcessing, rec.Keys.ProcessingID, rec.RegisteredAt, rec.ActionID))
	}
	return keys
}

// actionIDFromIndex extracts the action id from a full index key.
func actionIDFromIndex(key, prefix []byte) (string, bool) {
	suffix := key[len(prefix):]
	i := bytes.IndexByte(suffix, keySep)
	if i < 0 {
		return "", false
	}
	return string(suffix[i+1:]), true
}

// encodeCursor turns the suffix of the last returned index entry into an
// opaque continuation token.
func encodeCursor(suffix []byte) string {
	return base64.RawURLEncoding.EncodeToString(suffix)
}

func decodeCursor(cursor string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, models.NewValidationError("cursor", "cursor is not valid")
	}
	i := bytes.IndexByte(b, keySep)
	if i != 20 || len(b) == i+1 {
		return nil, models.NewValidationError("cursor", "cursor is not valid")
	}
	if _, err := strconv.ParseInt(string(b[:i]), 10, 64); err != nil {
		return nil, models.NewValidationError("cursor", "cursor is not valid")
	}
	return b, nil
}
