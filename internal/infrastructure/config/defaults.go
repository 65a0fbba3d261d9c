package config

import (
	"time"
)

// DefaultConfig returns a complete configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		// Core settings
		Environment: "development",
		ServiceName: "jamstack-cms",
		LogLevel:    "info",
		Version:     "1.0.0",

		// Component configurations with defaults
		Adapters:      DefaultAdapterConfig(),
		ContentAPI:    DefaultContentAPIConfig(),
		Storage:       DefaultStorageConfig(),
		Download:      DefaultDownloadConfig(),
		Build:         DefaultBuildConfig(),
		Observability: DefaultObservabilityConfig(),
	}
}

// DefaultAdapterConfig returns default adapter selection
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Storage: "s3",
		Site:    "jsonfile",
		Logger:  "logrus",
		Metrics: "noop",
	}
}

// DefaultContentAPIConfig returns sensible defaults for the content API client
func DefaultContentAPIConfig() ContentAPIConfig {
	return ContentAPIConfig{
		PageSize:   500,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// DefaultStorageConfig returns sensible defaults for storage configuration
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		KeyPrefix:       "public/",
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		SignedURLExpiry: 15 * time.Minute,
		VerifyKeys:      true,
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// DefaultDownloadConfig returns sensible defaults for the asset download client
func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		Timeout:        60 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		MaxBytes:       25 * 1024 * 1024, // 25MB
		UserAgent:      "jamstack-cms-build/1.0",
	}
}

// DefaultBuildConfig returns sensible defaults for page generation
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		CacheDir:            "public/downloads",
		PublicPrefix:        "../downloads",
		OutputDir:           ".cache/jamstack-cms",
		Component:           "src/templates/blog-post.js",
		MaxConcurrency:      8,
		AssetMaxConcurrency: 8,
		IndexOnBuild:        true,
	}
}

// DefaultObservabilityConfig returns sensible defaults for observability
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogFormat: "text",
	}
}

// applyDefaults fills unset values with defaults
func applyDefaults(cfg *Config) {
	adapters := DefaultAdapterConfig()
	if cfg.Adapters.Storage == "" {
		cfg.Adapters.Storage = adapters.Storage
	}
	if cfg.Adapters.Site == "" {
		cfg.Adapters.Site = adapters.Site
	}
	if cfg.Adapters.Logger == "" {
		cfg.Adapters.Logger = adapters.Logger
	}
	if cfg.Adapters.Metrics == "" {
		cfg.Adapters.Metrics = adapters.Metrics
		if cfg.Observability.MetricsTextfile != "" {
			cfg.Adapters.Metrics = "prometheus"
		}
	}

	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = DefaultStorageConfig().S3.Region
	}

	build := DefaultBuildConfig()
	if cfg.Build.CacheDir == "" {
		cfg.Build.CacheDir = build.CacheDir
	}
	if cfg.Build.PublicPrefix == "" {
		cfg.Build.PublicPrefix = build.PublicPrefix
	}
	if cfg.Build.OutputDir == "" {
		cfg.Build.OutputDir = build.OutputDir
	}
	if cfg.Build.Component == "" {
		cfg.Build.Component = build.Component
	}

	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = DefaultObservabilityConfig().LogFormat
		if cfg.IsProduction() {
			cfg.Observability.LogFormat = "json"
		}
	}
}
