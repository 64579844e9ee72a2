// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions configures [NewMinioHost].
type MinioOptions struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Region        string
	Bucket        string
	PublicBaseURL string
}

// MinioHost stores avatars in a MinIO bucket.
type MinioHost struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioHost connects to MinIO and makes sure the bucket exists.
func NewMinioHost(ctx context.Context, options MinioOptions, logger *slog.Logger) (*MinioHost, error) {
	client, err := minio.New(options.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(options.AccessKey, options.SecretKey, ""),
		Secure: options.UseSSL,
		Region: options.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("media: failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, options.Bucket)
	if err != nil {
		return nil, fmt.Errorf("media: failed to check bucket %s: %w", options.Bucket, err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, options.Bucket, minio.MakeBucketOptions{Region: options.Region}); err != nil {
			return nil, fmt.Errorf("media: failed to create bucket %s: %w", options.Bucket, err)
		}
		logger.Info("minio_bucket_created", slog.String("bucket", options.Bucket))
	}

	baseURL := options.PublicBaseURL
	if baseURL == "" {
		baseURL = client.EndpointURL().String() + "/" + options.Bucket
	}

	logger.Info("minio client connected",
		slog.String("endpoint", options.Endpoint),
		slog.String("bucket", options.Bucket),
	)

	return &MinioHost{client: client, bucket: options.Bucket, baseURL: baseURL}, nil
}

// Upload implements [Host].
func (host *MinioHost) Upload(ctx context.Context, folder string, file Upload) (*Asset, error) {
	key := newKey(folder, file.Extension)

	_, err := host.client.PutObject(ctx, host.bucket, key, file.Body, file.Size, minio.PutObjectOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("minio_upload_failed: %w", err)
	}

	return &Asset{Key: key, URL: publicURL(host.baseURL, key)}, nil
}

// Delete implements [Host].
func (host *MinioHost) Delete(ctx context.Context, key string) error {
	if err := host.client.RemoveObject(ctx, host.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio_delete_failed: %w", err)
	}
	return nil
}
