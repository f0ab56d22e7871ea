// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

const (
	// DefaultLimit is the page size when a filter does not set one.
	DefaultLimit = 100
	// MaxLimit caps the page size of list queries.
	MaxLimit = 1000

	defaultTombstoneTTL = 14 * 24 * time.Hour
	maxTxnRetries       = 5
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("record store is closed")
	// ErrExpired is returned when a record's retention ended before it
	// could be written.
	ErrExpired = errors.New("record retention already elapsed")
	// ErrChanged is returned by Replace when the stored record is no longer
	// the version the caller read.
	ErrChanged = errors.New("record changed since it was read")
)

// tombstone marks a deleted action id. Upserts registered at or before
// DeletedAt are suppressed.
type tombstone struct {
	DeletedAt time.Time `json:"deletedAt"`
}

// Store is the badger-backed Record Store. Records live under their action
// id; three alternate indexes (subject, activity, processed object) point at
// them. A record and its index entries are always written in one
// transaction and carry the same TTL.
type Store struct {
	db           *badger.DB
	tombstoneTTL time.Duration

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the record store described by cfg.
func Open(cfg config.StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	ttl := cfg.TombstoneTTL
	if ttl <= 0 {
		ttl = defaultTombstoneTTL
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Dur("tombstone_ttl", ttl).
		Msg("Record store opened")

	return &Store{db: db, tombstoneTTL: ttl}, nil
}

// OpenInMemory opens an in-memory store. Used by tests and local runs.
func OpenInMemory() (*Store, error) {
	return Open(config.StoreConfig{InMemory: true})
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping reports whether the store is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

func (s *Store) check(ctx context.Context) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return ctx.Err()
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent writers of the same keys.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Get returns the record stored under actionID, or models.ErrNotFound.
func (s *Store) Get(ctx context.Context, actionID string) (rec *models.Record, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOp("get", time.Since(start), ignoreNotFound(err)) }()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		var getErr error
		rec, getErr = getRecord(txn, actionID)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	if rec.Expired(time.Now()) {
		return nil, models.ErrNotFound
	}
	return rec, nil
}

// Upsert writes rec and replaces its index entries. A write whose
// registeredAt is not newer than the stored record, or not newer than a
// tombstone for the same id, returns models.ErrDuplicateSuppressed and
// leaves the store unchanged.
func (s *Store) Upsert(ctx context.Context, rec *models.Record) error {
	return s.write(ctx, "upsert", rec, nil)
}

// Replace writes rec like Upsert, but only while the stored record still
// carries registeredAt readAt. Otherwise it returns ErrChanged, or
// models.ErrNotFound when the record is gone.
func (s *Store) Replace(ctx context.Context, rec *models.Record, readAt time.Time) error {
	return s.write(ctx, "replace", rec, &readAt)
}

func (s *Store) write(ctx context.Context, op string, rec *models.Record, readAt *time.Time) (err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, models.ErrDuplicateSuppressed) || errors.Is(err, ErrChanged) {
			metrics.RecordStoreOp(op, time.Since(start), nil)
			return
		}
		metrics.RecordStoreOp(op, time.Since(start), err)
	}()

	if err := s.check(ctx); err != nil {
		return err
	}
	if rec.ActionID == "" {
		return errors.New("record has no action id")
	}

	var ttl time.Duration
	if rec.ExpiresAt != nil {
		ttl = time.Until(*rec.ExpiresAt)
		if ttl <= 0 {
			return ErrExpired
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	newKeys := indexKeys(rec)

	return s.update(func(txn *badger.Txn) error {
		tomb, err := getTombstone(txn, rec.ActionID)
		if err != nil {
			return err
		}
		if tomb != nil {
			if !rec.RegisteredAt.After(tomb.DeletedAt) {
				return models.ErrDuplicateSuppressed
			}
			if err := txn.Delete(tombstoneKey(rec.ActionID)); err != nil {
				return fmt.Errorf("delete tombstone: %w", err)
			}
		}

		current, err := getRecord(txn, rec.ActionID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			if readAt != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if readAt != nil && !current.RegisteredAt.Equal(*readAt) {
				return ErrChanged
			}
			if !rec.RegisteredAt.After(current.RegisteredAt) {
				return models.ErrDuplicateSuppressed
			}
			for _, k := range indexKeys(current) {
				if err := txn.Delete(k); err != nil {
					return fmt.Errorf("delete index entry: %w", err)
				}
			}
		}

		if err := setWithTTL(txn, recordKey(rec.ActionID), data, ttl); err != nil {
			return fmt.Errorf("set record: %w", err)
		}
		for _, k := range newKeys {
			if err := setWithTTL(txn, k, nil, ttl); err != nil {
				return fmt.Errorf("set index entry: %w", err)
			}
		}
		return nil
	})
}

// Delete removes the record and its index entries and leaves a tombstone.
// Deleting an absent id is not an error; existed reports whether a record
// was removed.
func (s *Store) Delete(ctx context.Context, actionID string) (existed bool, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOp("delete", time.Since(start), err) }()

	if err := s.check(ctx); err != nil {
		return false, err
	}

	tomb, err := json.Marshal(tombstone{DeletedAt: time.Now().UTC()})
	if err != nil {
		return false, fmt.Errorf("marshal tombstone: %w", err)
	}

	err = s.update(func(txn *badger.Txn) error {
		existed = false
		current, err := getRecord(txn, actionID)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			return err
		default:
			existed = true
			for _, k := range indexKeys(current) {
				if err := txn.Delete(k); err != nil {
					return fmt.Errorf("delete index entry: %w", err)
				}
			}
			if err := txn.Delete(recordKey(actionID)); err != nil {
				return fmt.Errorf("delete record: %w", err)
			}
		}
		return setWithTTL(txn, tombstoneKey(actionID), tomb, s.tombstoneTTL)
	})
	return existed, err
}

// List returns the records under one index value in registration order,
// applying filter server-side. The returned page carries a cursor when more
// matching records follow.
func (s *Store) List(ctx context.Context, idx Index, value string, filter models.Filter) (page *models.Page, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOp("list_"+string(idx), time.Since(start), err) }()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	prefix := indexPrefix(idx, value)
	seek := prefix
	var after []byte
	if filter.Cursor != "" {
		suffix, err := decodeCursor(filter.Cursor)
		if err != nil {
			return nil, err
		}
		after = append(append([]byte{}, prefix...), suffix...)
		seek = after
	}

	page = &models.Page{Items: []*models.Record{}}
	now := time.Now()

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var lastSuffix []byte
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := it.Item().KeyCopy(nil)
			if after != nil && bytes.Equal(key, after) {
				continue
			}
			actionID, ok := actionIDFromIndex(key, prefix)
			if !ok {
				continue
			}

			rec, err := getRecord(txn, actionID)
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if rec.Expired(now) || !filter.Match(rec) {
				continue
			}

			if len(page.Items) == limit {
				// One more match exists beyond this page.
				page.NextCursor = encodeCursor(lastSuffix)
				return nil
			}
			page.Items = append(page.Items, rec)
			lastSuffix = key[len(prefix):]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListBySubject lists records whose processed objects include subjectKey.
func (s *Store) ListBySubject(ctx context.Context, subjectKey string, filter models.Filter) (*models.Page, error) {
	return s.List(ctx, IndexSubject, subjectKey, filter)
}

// ListByActivity lists records of one processing activity.
func (s *Store) ListByActivity(ctx context.Context, activityID string, filter models.Filter) (*models.Page, error) {
	return s.List(ctx, IndexActivity, activityID, filter)
}

// ListByProcessedObject lists records that processed one object.
func (s *Store) ListByProcessedObject(ctx context.Context, processedObjectID string, filter models.Filter) (*models.Page, error) {
	return s.List(ctx, IndexProcessedObject, processedObjectID, filter)
}

// ListByProcessing lists records registered under one processing id.
func (s *Store) ListByProcessing(ctx context.Context, processingID string, filter models.Filter) (*models.Page, error) {
	return s.List(ctx, IndexProcessing, processingID, filter)
}

// Size returns the LSM and value log sizes in bytes.
func (s *Store) Size() (lsm, vlog int64) {
	return s.db.Size()
}

// RunGC runs value log garbage collection until nothing is left to rewrite.
func (s *Store) RunGC(ratio float64) (int, error) {
	if err := s.check(context.Background()); err != nil {
		return 0, err
	}
	runs := 0
	for {
		err := s.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return runs, nil
		}
		if err != nil {
			return runs, err
		}
		runs++
	}
}

func getRecord(txn *badger.Txn, actionID string) (*models.Record, error) {
	item, err := txn.Get(recordKey(actionID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	var rec models.Record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func getTombstone(txn *badger.Txn, actionID string) (*tombstone, error) {
	item, err := txn.Get(tombstoneKey(actionID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tombstone: %w", err)
	}

	var t tombstone
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &t)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal tombstone: %w", err)
	}
	return &t, nil
}

func setWithTTL(txn *badger.Txn, key, value []byte, ttl time.Duration) error {
	e := badger.NewEntry(key, value)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return txn.SetEntry(e)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	return err
}
