// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

//go:build integration

package testinfra

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// StartMinIO starts a MinIO container for t, or skips t when no container
// runtime is reachable. The container is terminated when t finishes.
func StartMinIO(t *testing.T, ctx context.Context, opts ...MinIOOption) *MinIOContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	minio, err := NewMinIOContainer(ctx, opts...)
	if err != nil {
		t.Fatalf("NewMinIOContainer() error = %v", err)
	}
	t.Cleanup(func() { terminate(t, minio.Container) })
	return minio
}

// terminate stops c on a fresh context; the test's own context may already
// be done by cleanup time.
func terminate(t *testing.T, c testcontainers.Container) {
	t.Helper()
	if c == nil {
		return
	}
	if err := c.Terminate(context.Background()); err != nil {
		t.Logf("terminate container: %v", err)
	}
}
