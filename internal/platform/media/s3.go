// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures [NewS3Host].
type S3Options struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// S3Host stores avatars in an S3-compatible bucket (AWS, R2, MinIO gateway).
type S3Host struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Host builds an S3 client from static credentials and an optional endpoint.
func NewS3Host(ctx context.Context, options S3Options, logger *slog.Logger) (*S3Host, error) {
	loadOptions := []func(*config.LoadOptions) error{config.WithRegion(options.Region)}
	if options.AccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKey, options.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("media: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if options.Endpoint != "" {
			o.BaseEndpoint = aws.String(options.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := options.PublicBaseURL
	if baseURL == "" {
		if options.Endpoint != "" {
			baseURL = publicURL(options.Endpoint, options.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", options.Bucket, options.Region)
		}
	}

	logger.Info("s3 client configured",
		slog.String("bucket", options.Bucket),
		slog.String("region", options.Region),
	)

	return &S3Host{client: client, bucket: options.Bucket, baseURL: baseURL}, nil
}

// Upload implements [Host].
func (host *S3Host) Upload(ctx context.Context, folder string, file Upload) (*Asset, error) {
	key := newKey(folder, file.Extension)

	_, err := host.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(host.bucket),
		Key:           aws.String(key),
		Body:          file.Body,
		ContentLength: aws.Int64(file.Size),
		ContentType:   aws.String(file.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3_upload_failed: %w", err)
	}

	return &Asset{Key: key, URL: publicURL(host.baseURL, key)}, nil
}

// Delete implements [Host].
func (host *S3Host) Delete(ctx context.Context, key string) error {
	_, err := host.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(host.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3_delete_failed: %w", err)
	}
	return nil
}
