// Package storage provides the artifact object store boundary: raw bytes
// keyed by bucket and object key, backed by S3 (or any S3-compatible
// endpoint such as minio), with an optional redis read-through cache.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds connection settings for the artifact store.
type Config struct {
	// "http://127.0.0.1:9000" for minio; empty for AWS default endpoints.
	EndpointURL string
	// "us-east-1"
	Region    string
	AccessKey string
	SecretKey string
}

// Connect builds an S3 client for the configured endpoint.
func Connect(cfg Config) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	})
}

// S3Store fetches and uploads artifact objects through an S3 client.
type S3Store struct {
	client *s3.Client
}

// NewS3Store wraps an S3 client. The client must not be nil.
func NewS3Store(client *s3.Client) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client can't be nil")
	}
	return &S3Store{client: client}, nil
}

// Fetch downloads one object and returns its bytes.
func (s *S3Store) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s body: %w", bucket, key, err)
	}
	return data, nil
}

// Upload writes one object.
func (s *S3Store) Upload(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (s *S3Store) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		// Tolerate pre-existing buckets, either owned or being created.
		msg := err.Error()
		if strings.Contains(msg, "BucketAlreadyOwnedByYou") || strings.Contains(msg, "BucketAlreadyExists") {
			return nil
		}
		return fmt.Errorf("create bucket %s: %v", bucket, err)
	}
	return nil
}
