// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package queue

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key layout, per topic:
//
//	q:<topic>:m:<id>                  message JSON
//	q:<topic>:r:<availableAt>:<id>    ready partition
//	q:<topic>:l:<leaseExpiry>:<id>    in-flight partition
//	q:<topic>:d:<deadLetteredAt>:<id> dead-letter partition
//	q:<topic>:g:<id>                  delivery ledger
//
// Times are UnixNano zero padded to 20 digits, so each partition iterates in
// time order. A message has exactly one partition entry, matching its state.

const (
	stampLen = 20

	// scanBatch bounds how many partition entries one claim examines.
	scanBatch = 64
)

func topicPrefix(topic, part string) string {
	return "q:" + topic + ":" + part + ":"
}

func messageKey(topic, id string) []byte {
	return []byte(topicPrefix(topic, "m") + id)
}

func ledgerKey(topic, id string) []byte {
	return []byte(topicPrefix(topic, "g") + id)
}

func readyPrefix(topic string) []byte {
	return []byte(topicPrefix(topic, "r"))
}

func leasePrefix(topic string) []byte {
	return []byte(topicPrefix(topic, "l"))
}

func deadPrefix(topic string) []byte {
	return []byte(topicPrefix(topic, "d"))
}

func stamped(prefix []byte, t time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefix, t.UnixNano(), id))
}

// partitionKey returns the partition entry implied by m's state.
func partitionKey(m *Message) []byte {
	switch m.State {
	case StateEnqueued:
		return stamped(readyPrefix(m.Topic), m.AvailableAt, m.ID)
	case StateInFlight:
		return stamped(leasePrefix(m.Topic), m.LeaseExpiry, m.ID)
	case StateDeadLettered:
		return stamped(deadPrefix(m.Topic), m.DeadLetteredAt, m.ID)
	}
	return nil
}

// keysUpTo returns the ids of partition entries stamped at or before until,
// oldest first. A zero until returns every entry; otherwise at most
// scanBatch ids are returned.
func keysUpTo(txn *badger.Txn, prefix []byte, until time.Time) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		rest := it.Item().Key()[len(prefix):]
		if len(rest) < stampLen+2 {
			continue
		}
		if !until.IsZero() {
			stamp, err := strconv.ParseInt(string(rest[:stampLen]), 10, 64)
			if err != nil {
				continue
			}
			if stamp > until.UnixNano() || len(ids) == scanBatch {
				break
			}
		}
		ids = append(ids, string(rest[stampLen+1:]))
	}
	return ids, nil
}

func countPrefix(txn *badger.Txn, prefix []byte) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n, nil
}
