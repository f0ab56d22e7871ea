// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

const tmpSuffix = ".tmp"

// LocalSink stores entries as files below a base directory.
//
// A write goes to a temporary file created with O_EXCL, is fsynced and is
// then linked into place, so a reader never sees a partial entry and an
// existing entry is never replaced.
type LocalSink struct {
	basePath string
	prefix   string
}

// NewLocalSink creates the base directory if needed.
func NewLocalSink(basePath, prefix string) (*LocalSink, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &LocalSink{basePath: basePath, prefix: prefix}, nil
}

// Backend implements Sink.
func (s *LocalSink) Backend() string {
	return "local"
}

func (s *LocalSink) fullPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// Put implements Sink.
func (s *LocalSink) Put(ctx context.Context, e *Entry) (ref *Ref, err error) {
	start := time.Now()
	defer func() { metrics.RecordBackupWrite(s.Backend(), time.Since(start), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := Key(s.prefix, e)
	full := s.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	tmp := full + tmpSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("create file: %w", err)
	}

	if err := writeAndSync(f, e.Payload); err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}

	// Link fails if the target exists, unlike Rename.
	if err := os.Link(tmp, full); err != nil {
		_ = os.Remove(tmp)
		if errors.Is(err, fs.ErrExist) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("publish file: %w", err)
	}
	if err := os.Remove(tmp); err != nil {
		logging.Warn().Err(err).Str("path", tmp).Msg("Failed to remove temporary backup file")
	}
	if err := syncDir(filepath.Dir(full)); err != nil {
		return nil, err
	}

	return &Ref{Key: key, Size: int64(len(e.Payload))}, nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}

// Get implements Sink.
func (s *LocalSink) Get(ctx context.Context, key string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return entryFromKey(key, data)
}

// List implements Sink.
func (s *LocalSink) List(ctx context.Context, actionID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := ActionPrefix(s.prefix, actionID)
	entries, err := os.ReadDir(s.fullPath(prefix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		keys = append(keys, prefix+de.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// Prune removes entries received before cutoff, plus temporary files left
// behind by interrupted writes, and empty action directories. It returns the
// number of entries removed.
func (s *LocalSink) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	root := s.fullPath(strings.TrimSuffix(ActionPrefix(s.prefix, ""), "/"))
	actionDirs, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read backup root: %w", err)
	}

	removed := 0
	for _, ad := range actionDirs {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !ad.IsDir() {
			continue
		}
		dir := filepath.Join(root, ad.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			logging.Warn().Err(err).Str("dir", dir).Msg("Failed to read backup directory")
			continue
		}

		for _, f := range files {
			name := f.Name()
			if strings.HasSuffix(name, tmpSuffix) {
				if info, err := f.Info(); err == nil && info.ModTime().Before(cutoff) {
					_ = os.Remove(filepath.Join(dir, name))
				}
				continue
			}
			ts, _, ok := strings.Cut(strings.TrimSuffix(name, ".json"), "-")
			if !ok {
				continue
			}
			receivedAt, err := time.Parse(KeyTimeFormat, ts)
			if err != nil || !receivedAt.Before(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				logging.Warn().Err(err).Str("file", name).Msg("Failed to prune backup entry")
				continue
			}
			removed++
		}

		// Only succeeds when the directory is empty.
		_ = os.Remove(dir)
	}
	return removed, nil
}
