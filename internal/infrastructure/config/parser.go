package config

// parse reads configuration from environment variables
func parse() (*Config, error) {
	cfg := &Config{
		// Core
		Environment: getEnv("ENVIRONMENT", "local"),
		ServiceName: getEnv("SERVICE_NAME", "jamstack-cms"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Version:     getEnv("SERVICE_VERSION", "1.0.0"),

		// Adapter selection
		Adapters: AdapterConfig{
			Storage: getEnv("ADAPTER_STORAGE", ""),
			Site:    getEnv("ADAPTER_SITE", ""),
			Logger:  getEnv("ADAPTER_LOGGER", ""),
			Metrics: getEnv("ADAPTER_METRICS", ""),
		},

		// Content API Configuration
		ContentAPI: ContentAPIConfig{
			Endpoint:   getEnv("APPSYNC_GRAPHQL_ENDPOINT", ""),
			APIKey:     getEnv("APPSYNC_API_KEY", ""),
			PageSize:   getInt("APPSYNC_PAGE_SIZE", 500),
			Timeout:    getDuration("APPSYNC_TIMEOUT", "30s"),
			MaxRetries: getInt("APPSYNC_MAX_RETRIES", 3),
		},

		// Storage Configuration
		Storage: StorageConfig{
			Bucket:          getEnv("S3_BUCKET", ""),
			BucketDomain:    getEnv("ASSET_BUCKET_DOMAIN", ""),
			KeyPrefix:       getEnv("STORAGE_KEY_PREFIX", "public/"),
			Timeout:         getDuration("STORAGE_TIMEOUT", "30s"),
			MaxRetries:      getInt("STORAGE_MAX_RETRIES", 3),
			SignedURLExpiry: getDuration("STORAGE_SIGNED_URL_EXPIRY", "15m"),
			VerifyKeys:      getBool("STORAGE_VERIFY_KEYS", true),
			S3: S3Config{
				Region:          getEnv("S3_BUCKET_REGION", getEnv("AWS_REGION", "")),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
		},

		// Download Configuration
		Download: DownloadConfig{
			Timeout:        getDuration("DOWNLOAD_TIMEOUT", "60s"),
			MaxRetries:     getInt("DOWNLOAD_MAX_RETRIES", 3),
			InitialBackoff: getDuration("DOWNLOAD_INITIAL_BACKOFF", "200ms"),
			MaxBackoff:     getDuration("DOWNLOAD_MAX_BACKOFF", "5s"),
			MaxBytes:       getInt64("DOWNLOAD_MAX_BYTES", 25*1024*1024),
			UserAgent:      getEnv("DOWNLOAD_USER_AGENT", "jamstack-cms-build/1.0"),
			ReuseExisting:  getBool("DOWNLOAD_REUSE_EXISTING", false),
		},

		// Build Configuration
		Build: BuildConfig{
			CacheDir:            getEnv("BUILD_CACHE_DIR", ""),
			PublicPrefix:        getEnv("BUILD_PUBLIC_PREFIX", ""),
			OutputDir:           getEnv("BUILD_OUTPUT_DIR", ""),
			Component:           getEnv("BUILD_COMPONENT", ""),
			MaxConcurrency:      getInt("BUILD_MAX_CONCURRENCY", 8),
			AssetMaxConcurrency: getInt("ASSET_MAX_CONCURRENCY", 8),
			IndexOnBuild:        getBool("BUILD_INDEX_IMAGE_KEYS", true),
		},

		// Observability Configuration
		Observability: ObservabilityConfig{
			LogFormat:       getEnv("LOG_FORMAT", ""),
			MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
		},
	}

	return cfg, nil
}
