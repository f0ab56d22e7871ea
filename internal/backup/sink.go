// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package backup

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// KeyTimeFormat is the fixed-width receipt time embedded in every key, so
// keys of one action sort chronologically.
const KeyTimeFormat = "20060102T150405.000000000Z"

var (
	// ErrExists is returned when an entry already exists under the key.
	// Backup entries are never overwritten.
	ErrExists = errors.New("backup entry already exists")
	// ErrNotFound is returned by Get for an unknown key and by Latest for an
	// action without backups.
	ErrNotFound = errors.New("backup entry not found")
)

// Entry is one verbatim copy of a submission.
type Entry struct {
	ActionID   string
	Kind       models.MessageKind
	ReceivedAt time.Time
	// Payload is the request body exactly as received.
	Payload []byte
}

// Ref identifies a stored entry.
type Ref struct {
	Key  string
	Size int64
}

// Sink stores backup entries. Implementations must be safe for concurrent
// use and must reject a Put whose key already exists with ErrExists.
type Sink interface {
	Put(ctx context.Context, e *Entry) (*Ref, error)
	Get(ctx context.Context, key string) (*Entry, error)
	// List returns the keys of one action in chronological order.
	List(ctx context.Context, actionID string) ([]string, error)
	// Backend names the implementation for logs and metrics.
	Backend() string
}

// Key returns the object key of e below prefix:
// <prefix>/actions/<actionId>/<receivedAt>-<kind>.json.
func Key(prefix string, e *Entry) string {
	name := e.ReceivedAt.UTC().Format(KeyTimeFormat) + "-" + string(e.Kind) + ".json"
	return path.Join(prefix, "actions", e.ActionID, name)
}

// ActionPrefix returns the key prefix shared by all entries of one action.
func ActionPrefix(prefix, actionID string) string {
	return path.Join(prefix, "actions", actionID) + "/"
}

// ParseKey recovers the action id, receipt time and kind from a key.
func ParseKey(key string) (actionID string, receivedAt time.Time, kind models.MessageKind, err error) {
	dir, name := path.Split(key)
	actionID = path.Base(strings.TrimSuffix(dir, "/"))
	if !strings.HasSuffix(dir, "actions/"+actionID+"/") || actionID == "" {
		return "", time.Time{}, "", fmt.Errorf("backup key %q has no action id", key)
	}

	name = strings.TrimSuffix(name, ".json")
	ts, k, ok := strings.Cut(name, "-")
	if !ok {
		return "", time.Time{}, "", fmt.Errorf("backup key %q has no kind", key)
	}
	receivedAt, err = time.Parse(KeyTimeFormat, ts)
	if err != nil {
		return "", time.Time{}, "", fmt.Errorf("backup key %q: %w", key, err)
	}

	kind = models.MessageKind(k)
	if !kind.Valid() {
		return "", time.Time{}, "", fmt.Errorf("backup key %q has unknown kind %q", key, k)
	}
	return actionID, receivedAt, kind, nil
}

// Latest returns the newest entry stored for actionID.
func Latest(ctx context.Context, s Sink, actionID string) (*Entry, string, error) {
	keys, err := s.List(ctx, actionID)
	if err != nil {
		return nil, "", err
	}
	if len(keys) == 0 {
		return nil, "", ErrNotFound
	}
	sort.Strings(keys)
	key := keys[len(keys)-1]

	e, err := s.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return e, key, nil
}

// entryFromKey builds an Entry from its key and stored bytes.
func entryFromKey(key string, payload []byte) (*Entry, error) {
	actionID, receivedAt, kind, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	return &Entry{ActionID: actionID, Kind: kind, ReceivedAt: receivedAt, Payload: payload}, nil
}
