package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
)

// Resolver presigns GET URLs for objects in the asset bucket
type Resolver struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	config        *config.StorageConfig
	logger        ports.Logger
	metrics       ports.Metrics
}

// New creates an S3 resolver using the default AWS credential chain, or the
// static credentials in cfg when both are set
func New(ctx context.Context, cfg *config.StorageConfig, logger ports.Logger, metrics ports.Metrics) (*Resolver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("invalid S3 configuration: bucket is required")
	}

	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	r := NewWithAWSConfig(awsCfg, cfg, logger, metrics)

	logger.Info("S3 resolver initialized",
		"bucket", cfg.Bucket,
		"region", cfg.S3.Region,
		"prefix", cfg.KeyPrefix,
		"endpoint", cfg.S3.Endpoint)
	return r, nil
}

// NewWithAWSConfig creates a resolver from an already loaded AWS config
func NewWithAWSConfig(awsCfg aws.Config, cfg *config.StorageConfig, logger ports.Logger, metrics ports.Metrics) *Resolver {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Resolver{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		config:        cfg,
		logger:        logger,
		metrics:       metrics,
	}
}

// ResolveSignedURL returns a presigned GET URL for key under the access level prefix
func (r *Resolver) ResolveSignedURL(ctx context.Context, key string) (string, error) {
	start := time.Now()
	objectKey := r.objectKey(key)

	if r.config.VerifyKeys {
		exists, err := r.Exists(ctx, key)
		if err != nil {
			return "", domain.ErrResolution.Wrap(err).WithKey(key)
		}
		if !exists {
			r.metrics.IncrementCounter("s3.presign.not_found", nil)
			return "", domain.ErrKeyNotFound.WithKey(key)
		}
	}

	req, err := r.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.config.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(r.config.SignedURLExpiry))
	if err != nil {
		r.logger.Error("Failed to presign object",
			"error", err,
			"bucket", r.config.Bucket,
			"key", objectKey)
		r.metrics.IncrementCounter("s3.presign.errors", nil)
		return "", domain.ErrResolution.Wrap(err).WithKey(key)
	}

	r.metrics.IncrementCounter("s3.presign.success", nil)
	r.metrics.RecordHistogram("s3.presign.duration", time.Since(start).Seconds(), nil)
	return req.URL, nil
}

// Exists checks if an object exists in the bucket
func (r *Resolver) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	objectKey := r.objectKey(key)

	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.config.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFoundError(err) {
			r.metrics.IncrementCounter("s3.exists.not_found", nil)
			return false, nil
		}
		r.logger.Error("Failed to check object existence",
			"error", err,
			"bucket", r.config.Bucket,
			"key", objectKey)
		r.metrics.IncrementCounter("s3.exists.errors", nil)
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	r.metrics.IncrementCounter("s3.exists.found", nil)
	r.metrics.RecordHistogram("s3.exists.duration", time.Since(start).Seconds(), nil)
	return true, nil
}

func (r *Resolver) objectKey(key string) string {
	return r.config.KeyPrefix + strings.TrimPrefix(key, "/")
}

func buildAWSConfig(ctx context.Context, cfg *config.StorageConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	s3Config := cfg.S3

	if s3Config.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(s3Config.Region))
	}

	// Use static credentials if provided
	if s3Config.AccessKeyID != "" && s3Config.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3Config.AccessKeyID,
				s3Config.SecretAccessKey,
				"",
			),
		))
	}

	if cfg.MaxRetries > 0 {
		optFns = append(optFns, awsconfig.WithRetryMaxAttempts(cfg.MaxRetries))
	}

	optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{
		Timeout: cfg.Timeout,
	}))

	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

// isNotFoundError checks if an error is a not found error
func isNotFoundError(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
