// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package testinfra provides test fixtures and container helpers for
// integration tests.
//
// # Fixtures
//
// Payload returns a valid action about person/BSN/1234567 and Body encodes
// it as a request body. They are available without build tags.
//
// # Containers
//
// The container helpers carry the integration build tag:
//
//	go test -tags integration ./...
//
// # MinIO
//
// StartMinIO starts an S3-compatible server for the backup sink and
// terminates it when the test ends:
//
//	minio := testinfra.StartMinIO(t, ctx)
//
//	sink, err := backup.NewS3Sink(ctx, config.S3Config{
//	    Bucket:          "backups",
//	    Endpoint:        minio.Endpoint,
//	    AccessKeyID:     minio.AccessKey,
//	    SecretAccessKey: minio.SecretKey,
//	}, "")
//
// Without a reachable Docker daemon the test is skipped, not failed.
package testinfra
