package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"jamsesh/internal/config"
	"jamsesh/internal/middleware"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the subset of *s3.Client the driver uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Storage stores objects in an S3-compatible service (AWS S3, MinIO, ...).
// Each logical bucket maps to the S3 bucket of the same name.
type S3Storage struct {
	client    s3API
	publicURL string
	logger    *slog.Logger
}

var _ ObjectStorage = (*S3Storage)(nil)

// S3Option configures an S3Storage.
type S3Option func(*S3Storage)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) S3Option {
	return func(s *S3Storage) {
		s.logger = l
	}
}

// WithClient replaces the SDK client.
func WithClient(c s3API) S3Option {
	return func(s *S3Storage) {
		s.client = c
	}
}

// NewS3Storage builds an S3 driver from cfg.
func NewS3Storage(cfg *config.Config, opts ...S3Option) (*S3Storage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.S3PublicURL == "" {
		return nil, errors.New("S3 public URL is required")
	}
	if _, err := url.Parse(cfg.S3PublicURL); err != nil {
		return nil, fmt.Errorf("invalid S3 public URL: %w", err)
	}

	s := &S3Storage{
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
		logger:    middleware.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client != nil {
		return s, nil
	}

	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, errors.New("S3 access key and secret key are required")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	return s, nil
}

// EnsureBuckets creates any missing bucket. Call during startup.
func (s *S3Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range Buckets {
		if err := s.ensureBucket(ctx, bucket); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Storage) ensureBucket(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}

	s.logger.Info("Creating storage bucket", slog.String("bucket", bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

func (s *S3Storage) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := checkObject(bucket, key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func (s *S3Storage) Delete(ctx context.Context, bucket, key string) error {
	if err := checkObject(bucket, key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL assumes path-style public access: <S3_PUBLIC_URL>/<bucket>/<key>.
func (s *S3Storage) PublicURL(bucket, key string) string {
	return s.publicURL + "/" + bucket + "/" + key
}
