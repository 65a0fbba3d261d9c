package config

import (
	"time"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	Environment string
	ServiceName string
	LogLevel    string
	Version     string

	// Adapter selection
	Adapters AdapterConfig

	// Component configurations
	ContentAPI    ContentAPIConfig
	Storage       StorageConfig
	Download      DownloadConfig
	Build         BuildConfig
	Observability ObservabilityConfig
}

// AdapterConfig specifies which implementations to use
type AdapterConfig struct {
	Storage string // "s3", "public"
	Site    string // "jsonfile"
	Logger  string // "logrus"
	Metrics string // "prometheus", "noop"
}

// ContentAPIConfig holds the GraphQL content API configuration
type ContentAPIConfig struct {
	Endpoint   string
	APIKey     string
	PageSize   int
	Timeout    time.Duration
	MaxRetries int
}

// StorageConfig holds the asset bucket configuration
type StorageConfig struct {
	Bucket       string
	BucketDomain string // Optional host override (CloudFront, custom endpoint)
	KeyPrefix    string // Access level prefix, "public/" for Amplify public uploads
	Timeout      time.Duration
	MaxRetries   int

	// Presigned URL lifetime
	SignedURLExpiry time.Duration

	// Check the object exists before signing a URL for it
	VerifyKeys bool

	S3 S3Config
}

// S3Config holds S3-specific configuration
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // For MinIO or S3-compatible services
}

// DownloadConfig holds the asset download client configuration
type DownloadConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxBytes       int64
	UserAgent      string
	ReuseExisting  bool
}

// BuildConfig holds page generation settings
type BuildConfig struct {
	CacheDir            string // Where downloaded assets are written
	PublicPrefix        string // How rewritten content references the cache dir
	OutputDir           string // Where page and node descriptors are written
	Component           string // Template the site generator renders posts with
	MaxConcurrency      int    // Posts assembled in parallel
	AssetMaxConcurrency int    // Assets resolved/downloaded in parallel per post
	IndexOnBuild        bool
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	LogFormat       string // "json", "text"
	MetricsTextfile string // node_exporter textfile path, empty disables
}
