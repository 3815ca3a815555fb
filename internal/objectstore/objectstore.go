// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package objectstore is the Object Store Adapter: an S3-compatible media
// blob store for raw uploads and derived thumbnails (SPEC_FULL.md §4,
// domain stack: aws-sdk-go-v2). Grounded on the pack's declared
// aws-sdk-go-v2/service/s3 dependency (jordigilh-kubernaut/go.mod); no
// concrete usage file was retrieved for it, so the client construction
// below follows the SDK's own documented idiom rather than a pack example —
// see DESIGN.md.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker/v2"

	"github.com/attentionmap/attention-map-server/internal/config"
	"github.com/attentionmap/attention-map-server/internal/logging"
	"github.com/attentionmap/attention-map-server/internal/metrics"
)

// Store puts media blobs under the event's id.
type Store interface {
	// PutMedia uploads the raw upload body and returns its durable URL.
	PutMedia(ctx context.Context, eventID string, contentType string, body []byte) (url string, err error)
	// PutThumbnail uploads a derived JPEG thumbnail and returns its URL.
	PutThumbnail(ctx context.Context, eventID string, body []byte) (url string, err error)
}

// Client is the gobreaker-wrapped S3 adapter used in production.
type Client struct {
	s3     *s3.Client
	bucket string
	cb     *gobreaker.CircuitBreaker[any]
}

// New builds a Client, creating cfg.Bucket if it does not already exist.
// When neither an endpoint nor static credentials are configured (local
// development, CI, environments relying purely on ambient AWS credentials
// being absent by design) it returns NoopStore instead, per the
// runtime-object-polymorphism design note: the pipeline holds one
// interface reference per capability, never a concrete client it must
// special-case around.
func New(ctx context.Context, cfg *config.ObjectStoreConfig) (Store, error) {
	if cfg.Endpoint == "" && cfg.AccessKey == "" {
		logging.Warn().Msg("object store endpoint/credentials not configured, using no-op store")
		return NoopStore{}, nil
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	c := &Client{
		s3:     s3Client,
		bucket: cfg.Bucket,
		cb: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:    "objectstore",
			Timeout: 30 * time.Second,
		}),
	}

	if err := c.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket") {
		_, createErr := c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
		return createErr
	}

	logging.Warn().Err(err).Str("bucket", c.bucket).Msg("bucket existence check failed, assuming it is reachable")
	return nil
}

// PutMedia uploads the raw upload under events/{eventID}/media.
func (c *Client) PutMedia(ctx context.Context, eventID, contentType string, body []byte) (string, error) {
	return c.put(ctx, mediaKey(eventID), contentType, body)
}

// PutThumbnail uploads the derived keyframe thumbnail under
// events/{eventID}/media_thumb.jpg.
func (c *Client) PutThumbnail(ctx context.Context, eventID string, body []byte) (string, error) {
	return c.put(ctx, thumbnailKey(eventID), "image/jpeg", body)
}

func (c *Client) put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		return nil, err
	})
	metrics.ExternalCallDuration.WithLabelValues("objectstore").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrors.WithLabelValues("objectstore").Inc()
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", c.bucket, key), nil
}

func mediaKey(eventID string) string     { return fmt.Sprintf("events/%s/media", eventID) }
func thumbnailKey(eventID string) string { return fmt.Sprintf("events/%s/media_thumb.jpg", eventID) }
