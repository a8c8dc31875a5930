package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	pkglogger "github.com/campusbridge/marketplace-backend/pkg/logger"
)

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint        string // e.g. https://xxx.r2.cloudflarestorage.com
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	BasePath        string // prefix for all objects (e.g. "state/")
	ForcePathStyle  bool   // true for MinIO/R2
}

// S3Store keeps each key as one JSON object in an S3/R2/MinIO bucket
type S3Store struct {
	client   *s3.Client
	bucket   string
	basePath string
}

// NewS3Store creates a new S3-compatible key-value store
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}
	opts := func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}

	client := s3.New(s3.Options{}, opts)

	pkglogger.GetLogger().Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 state store initialized")

	return &S3Store{
		client:   client,
		bucket:   cfg.Bucket,
		basePath: cfg.BasePath,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	return s.basePath + key + ".json"
}

// Get downloads the object stored under key
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Set uploads value as the object for key
func (s *S3Store) Set(ctx context.Context, key string, value []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put failed: %w", err)
	}
	return nil
}
