// Package public resolves keys to unsigned object URLs for buckets whose
// images/ prefix is publicly readable.
package public

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
)

// Resolver builds public object URLs
type Resolver struct {
	base    *url.URL
	config  *config.StorageConfig
	client  *http.Client
	logger  ports.Logger
	metrics ports.Metrics
}

// New creates a public URL resolver. The base URL is the explicit bucket
// domain, the custom endpoint (path style) or the regional S3 host, in that order.
func New(cfg *config.StorageConfig, logger ports.Logger, metrics ports.Metrics) (*Resolver, error) {
	raw := baseURL(cfg)
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid public bucket URL %q: %w", raw, err)
	}

	logger.Info("Public resolver initialized", "base_url", base.String(), "prefix", cfg.KeyPrefix)

	return &Resolver{
		base:    base,
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: metrics,
	}, nil
}

// ResolveSignedURL returns the unsigned URL for key
func (r *Resolver) ResolveSignedURL(ctx context.Context, key string) (string, error) {
	if r.config.VerifyKeys {
		exists, err := r.Exists(ctx, key)
		if err != nil {
			return "", domain.ErrResolution.Wrap(err).WithKey(key)
		}
		if !exists {
			return "", domain.ErrKeyNotFound.WithKey(key)
		}
	}

	r.metrics.IncrementCounter("public.resolve.success", nil)
	return r.objectURL(key), nil
}

// Exists issues a HEAD request for the object
func (r *Resolver) Exists(ctx context.Context, key string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.objectURL(key), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.metrics.IncrementCounter("public.exists.errors", nil)
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	defer resp.Body.Close()

	r.metrics.RecordHistogram("public.exists.duration", time.Since(start).Seconds(), nil)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		// S3 answers 403 for missing keys when listing is not allowed
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}

func (r *Resolver) objectURL(key string) string {
	u := *r.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + r.config.KeyPrefix + strings.TrimPrefix(key, "/")
	return u.String()
}

func baseURL(cfg *config.StorageConfig) string {
	switch {
	case cfg.BucketDomain != "":
		if strings.Contains(cfg.BucketDomain, "://") {
			return cfg.BucketDomain
		}
		return "https://" + cfg.BucketDomain
	case cfg.S3.Endpoint != "":
		return strings.TrimSuffix(cfg.S3.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.S3.Region == "" || cfg.S3.Region == "us-east-1":
		return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.S3.Region)
	}
}
