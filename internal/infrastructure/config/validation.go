package config

import (
	"fmt"
	"strings"
)

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errors []string

	// Core validations
	if c.ServiceName == "" {
		errors = append(errors, "SERVICE_NAME is required")
	}

	if err := c.Adapters.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.ContentAPI.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Storage.Validate(c.Adapters); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Download.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Build.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Observability.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate validates adapter configuration
func (a *AdapterConfig) Validate() error {
	validStorage := map[string]bool{"s3": true, "public": true}
	if !validStorage[a.Storage] {
		return fmt.Errorf("invalid storage adapter: %s (must be s3 or public)", a.Storage)
	}

	validSite := map[string]bool{"jsonfile": true}
	if !validSite[a.Site] {
		return fmt.Errorf("invalid site adapter: %s (must be jsonfile)", a.Site)
	}

	validLogger := map[string]bool{"logrus": true}
	if !validLogger[a.Logger] {
		return fmt.Errorf("invalid logger adapter: %s (must be logrus)", a.Logger)
	}

	validMetrics := map[string]bool{"prometheus": true, "noop": true}
	if !validMetrics[a.Metrics] {
		return fmt.Errorf("invalid metrics adapter: %s (must be prometheus or noop)", a.Metrics)
	}

	return nil
}

// Validate validates content API configuration
func (a *ContentAPIConfig) Validate() error {
	if a.Endpoint == "" {
		return fmt.Errorf("APPSYNC_GRAPHQL_ENDPOINT is required")
	}
	if a.PageSize <= 0 {
		return fmt.Errorf("APPSYNC_PAGE_SIZE must be positive")
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("APPSYNC_TIMEOUT must be positive")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("APPSYNC_MAX_RETRIES cannot be negative")
	}
	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate(adapters AdapterConfig) error {
	if s.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("STORAGE_MAX_RETRIES cannot be negative")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive")
	}
	if s.KeyPrefix != "" && !strings.HasSuffix(s.KeyPrefix, "/") {
		return fmt.Errorf("STORAGE_KEY_PREFIX must end with a slash")
	}

	if adapters.Storage == "s3" {
		if s.S3.Region == "" {
			return fmt.Errorf("S3_BUCKET_REGION or AWS_REGION is required for S3 storage")
		}
		if s.SignedURLExpiry <= 0 {
			return fmt.Errorf("STORAGE_SIGNED_URL_EXPIRY must be positive")
		}
	}

	return nil
}

// Validate validates download configuration
func (d *DownloadConfig) Validate() error {
	if d.Timeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT must be positive")
	}
	if d.MaxRetries < 0 {
		return fmt.Errorf("DOWNLOAD_MAX_RETRIES cannot be negative")
	}
	if d.InitialBackoff <= 0 {
		return fmt.Errorf("DOWNLOAD_INITIAL_BACKOFF must be positive")
	}
	if d.MaxBackoff < d.InitialBackoff {
		return fmt.Errorf("DOWNLOAD_MAX_BACKOFF must be >= DOWNLOAD_INITIAL_BACKOFF")
	}
	if d.MaxBytes <= 0 {
		return fmt.Errorf("DOWNLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// Validate validates build configuration
func (b *BuildConfig) Validate() error {
	if b.CacheDir == "" {
		return fmt.Errorf("BUILD_CACHE_DIR is required")
	}
	if b.OutputDir == "" {
		return fmt.Errorf("BUILD_OUTPUT_DIR is required")
	}
	if b.MaxConcurrency <= 0 {
		return fmt.Errorf("BUILD_MAX_CONCURRENCY must be positive")
	}
	if b.AssetMaxConcurrency <= 0 {
		return fmt.Errorf("ASSET_MAX_CONCURRENCY must be positive")
	}
	return nil
}

// Validate validates observability configuration
func (o *ObservabilityConfig) Validate() error {
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[o.LogFormat] {
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be json or text)", o.LogFormat)
	}
	return nil
}
