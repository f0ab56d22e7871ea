// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/tomtom215/verwerkingenlog/internal/breaker"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

const defaultRegion = "us-east-1"

// S3Sink stores entries in an S3-compatible bucket. Writes are conditional
// (If-None-Match: *), so an existing object is never replaced. Remote calls
// go through a circuit breaker.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
	cb     *breaker.CircuitBreaker
}

// NewS3Sink builds an S3 client from cfg.
//
// Credentials come from the static key pair when set, otherwise from the
// default AWS chain (environment, shared config, instance role). When
// RoleARN is set that role is assumed on top of the base credentials.
func NewS3Sink(ctx context.Context, cfg config.S3Config, prefix string) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket name is required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if cfg.RoleARN != "" {
		stsClient := sts.NewFromConfig(awsCfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			if cfg.RoleSessionName != "" {
				o.RoleSessionName = cfg.RoleSessionName
			}
			if cfg.ExternalID != "" {
				o.ExternalID = aws.String(cfg.ExternalID)
			}
		})
		awsCfg.Credentials = aws.NewCredentialsCache(provider)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Sink{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: prefix,
		cb:     breaker.New(breaker.DefaultConfig("backup-s3")),
	}, nil
}

// Backend implements Sink.
func (s *S3Sink) Backend() string {
	return "s3"
}

// EnsureBucket creates the bucket if it does not exist. Used by local
// MinIO setups and tests; production buckets are provisioned externally.
func (s *S3Sink) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Put implements Sink.
func (s *S3Sink) Put(ctx context.Context, e *Entry) (ref *Ref, err error) {
	start := time.Now()
	defer func() { metrics.RecordBackupWrite(s.Backend(), time.Since(start), err) }()

	key := Key(s.prefix, e)
	err = breaker.Execute(s.cb, func() error {
		_, putErr := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(e.Payload),
			ContentLength: aws.Int64(int64(len(e.Payload))),
			ContentType:   aws.String("application/json"),
			IfNoneMatch:   aws.String("*"),
		})
		if isPreconditionFailed(putErr) {
			return ErrExists
		}
		return putErr
	})
	if err != nil {
		if errors.Is(err, ErrExists) {
			return nil, err
		}
		return nil, fmt.Errorf("put object: %w", err)
	}
	return &Ref{Key: key, Size: int64(len(e.Payload))}, nil
}

// Get implements Sink.
func (s *S3Sink) Get(ctx context.Context, key string) (*Entry, error) {
	var data []byte
	err := breaker.Execute(s.cb, func() error {
		out, getErr := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if getErr != nil {
			var nsk *types.NoSuchKey
			if errors.As(getErr, &nsk) {
				return ErrNotFound
			}
			return getErr
		}
		defer out.Body.Close()
		data, getErr = io.ReadAll(out.Body)
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return entryFromKey(key, data)
}

// List implements Sink.
func (s *S3Sink) List(ctx context.Context, actionID string) ([]string, error) {
	prefix := ActionPrefix(s.prefix, actionID)
	var keys []string
	err := breaker.Execute(s.cb, func() error {
		keys = keys[:0]
		p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, obj := range page.Contents {
				if obj.Key != nil {
					keys = append(keys, *obj.Key)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// isPreconditionFailed reports whether a conditional write lost because the
// key exists. S3 answers 412; some compatible stores answer 409.
func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		return code == http.StatusPreconditionFailed || code == http.StatusConflict
	}
	return false
}
