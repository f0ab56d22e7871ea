// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

//go:build integration

package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/testinfra"
)

func TestS3Sink_MinIO(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	minio := testinfra.StartMinIO(t, ctx)

	sink, err := NewS3Sink(ctx, config.S3Config{
		Bucket:          "verwerkingenlog-backup",
		Endpoint:        minio.Endpoint,
		AccessKeyID:     minio.AccessKey,
		SecretAccessKey: minio.SecretKey,
	}, "it")
	if err != nil {
		t.Fatalf("NewS3Sink() error = %v", err)
	}
	if err := sink.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket() error = %v", err)
	}

	create := testEntry("a1", receivedAt, models.KindCreate)
	ref, err := sink.Put(ctx, create)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := sink.Put(ctx, create); !errors.Is(err, ErrExists) {
		t.Errorf("second Put() error = %v, want ErrExists", err)
	}

	amend := testEntry("a1", receivedAt.Add(time.Minute), models.KindAmend)
	if _, err := sink.Put(ctx, amend); err != nil {
		t.Fatalf("Put(amend) error = %v", err)
	}

	got, err := sink.Get(ctx, ref.Key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Payload) != string(create.Payload) {
		t.Errorf("Payload = %s, want %s", got.Payload, create.Payload)
	}

	latest, _, err := Latest(ctx, sink, "a1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.Kind != models.KindAmend {
		t.Errorf("Latest().Kind = %q, want amend", latest.Kind)
	}

	if _, err := sink.Get(ctx, "it/actions/a1/20000101T000000.000000000Z-create.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}
