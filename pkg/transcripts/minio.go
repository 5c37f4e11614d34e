package transcripts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig locates the bucket transcripts are archived in.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioArchiver archives transcripts in an S3 compatible bucket.
type MinioArchiver struct {
	// l is the logger.
	l *slog.Logger

	client *minio.Client
	bucket string
}

// NewMinioArchiver connects to the object store and creates the bucket when it does not exist.
func NewMinioArchiver(ctx context.Context, l *slog.Logger, cfg *MinioConfig) (*MinioArchiver, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("error creating bucket %s: %w", cfg.Bucket, err)
		}
		l.Info("Transcript bucket created", slog.String("bucket", cfg.Bucket))
	}

	return &MinioArchiver{
		l:      l,
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (a *MinioArchiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("error uploading transcript: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}

// Ping checks the bucket is still reachable.
func (a *MinioArchiver) Ping(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket %s: %w", a.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", a.bucket)
	}
	return nil
}
