// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMinIOImage is the MinIO server image used for S3 tests.
	DefaultMinIOImage = "minio/minio:RELEASE.2024-11-07T00-52-20Z"

	// DefaultMinIOPort is the S3 API port inside the container.
	DefaultMinIOPort = "9000"

	// MinIO root credentials used by the test container.
	DefaultMinIOAccessKey = "verwerkingenlog"
	DefaultMinIOSecretKey = "verwerkingenlog-secret"
)

// MinIOContainer represents a running MinIO server.
type MinIOContainer struct {
	testcontainers.Container
	Endpoint  string
	AccessKey string
	SecretKey string
}

// MinIOOption configures the MinIO container.
type MinIOOption func(*minioConfig)

type minioConfig struct {
	image        string
	startTimeout time.Duration
}

// WithMinIOImage sets a custom MinIO Docker image.
func WithMinIOImage(image string) MinIOOption {
	return func(c *minioConfig) {
		c.image = image
	}
}

// WithStartTimeout sets the timeout for waiting for the container to start.
func WithStartTimeout(timeout time.Duration) MinIOOption {
	return func(c *minioConfig) {
		c.startTimeout = timeout
	}
}

// NewMinIOContainer starts a single-node MinIO server. Most tests want
// StartMinIO instead.
func NewMinIOContainer(ctx context.Context, opts ...MinIOOption) (*MinIOContainer, error) {
	cfg := &minioConfig{
		image:        DefaultMinIOImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMinIOPort + "/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     DefaultMinIOAccessKey,
			"MINIO_ROOT_PASSWORD": DefaultMinIOSecretKey,
		},
		Cmd: []string{"server", "/data"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMinIOPort+"/tcp"),
			wait.ForHTTP("/minio/health/live").WithPort(DefaultMinIOPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultMinIOPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &MinIOContainer{
		Container: container,
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		AccessKey: DefaultMinIOAccessKey,
		SecretKey: DefaultMinIOSecretKey,
	}, nil
}
