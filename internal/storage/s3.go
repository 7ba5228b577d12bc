package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadURLExpiry is how long a pre-signed upload URL stays valid
const UploadURLExpiry = 15 * time.Minute

var (
	// ErrScanNotFound is returned when a scan key does not exist in the bucket
	ErrScanNotFound = errors.New("scan not found")
	// ErrScanTooLarge is returned when a stored scan exceeds the configured size limit
	ErrScanTooLarge = errors.New("scan exceeds size limit")
)

// ScanStore is where uploaded scan exports are fetched from
type ScanStore interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	DownloadScan(ctx context.Context, key string) ([]byte, error)
	EnsureBucket(ctx context.Context) error
}

type s3Service struct {
	client   *s3.Client
	bucket   string
	region   string
	maxBytes int64
}

// S3Config holds configuration for S3 service
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	MaxBytes  int64
}

// NewS3Service creates a new S3 service instance
func NewS3Service(ctx context.Context, cfg S3Config) (ScanStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	region := cfg.Region
	if region == "" || cfg.Endpoint != "" {
		region = "us-east-1" // MinIO doesn't care about region
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "http://" + endpoint
		}

		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // MinIO requires path-style URLs
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	return &s3Service{
		client:   client,
		bucket:   cfg.Bucket,
		region:   region,
		maxBytes: maxBytes,
	}, nil
}

// GenerateUploadURL generates a pre-signed URL for uploading a scan export
func (s *s3Service) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	if err := validateContentType(contentType); err != nil {
		return "", err
	}

	presignClient := s3.NewPresignClient(s.client)

	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = UploadURLExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return request.URL, nil
}

// DownloadScan fetches a scan export, refusing objects larger than the size limit
func (s *s3Service) DownloadScan(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrScanNotFound, key)
		}
		return nil, fmt.Errorf("failed to download scan: %w", err)
	}
	defer result.Body.Close()

	if result.ContentLength != nil && *result.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrScanTooLarge, key, *result.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(result.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read scan: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s", ErrScanTooLarge, key)
	}

	return data, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *s3Service) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err = s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// validateContentType validates that the content type is one analyzers export
func validateContentType(contentType string) error {
	validTypes := map[string]bool{
		"text/csv":                 true,
		"text/plain":               true,
		"application/vnd.ms-excel": true, // what Windows browsers report for .csv
		"application/octet-stream": true,
	}

	if !validTypes[contentType] {
		return fmt.Errorf("invalid content type: %s. Supported types: text/csv, text/plain, application/vnd.ms-excel, application/octet-stream", contentType)
	}

	return nil
}
