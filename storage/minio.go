package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nitro-legacy/inventory-tooling/interfaces"
)

// MinIOBackend stores objects in a self-hosted S3-compatible server such as
// MinIO, where the endpoint is part of the location rather than a region.
// Like S3Backend it is read-only without credentials.
type MinIOBackend struct {
	client      *minio.Client
	bucket      string
	prefix      string
	log         *slog.Logger
	locationURI string
	canWrite    bool
}

func NewMinIOBackend(endpoint, bucket, prefix, accessKey, secretKey string, useSSL bool, log *slog.Logger) (*MinIOBackend, error) {
	if endpoint == "" || bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", interfaces.ErrInvalidLocationURI)
	}
	prefix = strings.Trim(prefix, "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	uri := fmt.Sprintf("minio://%s/%s/%s", endpoint, bucket, prefix)
	if !useSSL {
		uri += "?tls=false"
	}

	return &MinIOBackend{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		log:         log,
		locationURI: uri,
		canWrite:    accessKey != "" && secretKey != "",
	}, nil
}

func (b *MinIOBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	objectKey, err := b.objectKey(key)
	if err != nil {
		return nil, err
	}

	obj, err := b.client.GetObject(ctx, b.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			b.log.Debug("Content not found in MinIO",
				slog.String("bucket", b.bucket),
				slog.String("key", objectKey))
			return nil, interfaces.ErrContentNotFound
		}
		b.log.Error("Failed to get object from MinIO",
			slog.String("bucket", b.bucket),
			slog.String("key", objectKey),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from MinIO: %w", err)
	}

	b.log.Debug("Fetched content from MinIO",
		slog.String("bucket", b.bucket),
		slog.String("key", objectKey),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

func (b *MinIOBackend) Store(ctx context.Context, key string, data []byte) error {
	if !b.canWrite {
		return interfaces.ErrReadOnlyBackend
	}
	objectKey, err := b.objectKey(key)
	if err != nil {
		return err
	}

	_, err = b.client.PutObject(ctx, b.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object to MinIO: %w", err)
	}
	return nil
}

func (b *MinIOBackend) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil || !exists {
		b.log.Warn("MinIO backend unavailable", slog.String("bucket", b.bucket), "err", err)
		return false
	}
	return true
}

func (b *MinIOBackend) Name() string {
	return fmt.Sprintf("minio-%s", b.bucket)
}

func (b *MinIOBackend) LocationURI() string {
	return b.locationURI
}

func (b *MinIOBackend) objectKey(key string) (string, error) {
	cleaned, err := interfaces.CleanKey(key)
	if err != nil {
		return "", err
	}
	if b.prefix == "" {
		return cleaned, nil
	}
	return path.Join(b.prefix, cleaned), nil
}
