package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APPSYNC_GRAPHQL_ENDPOINT", "https://example.appsync-api.us-east-1.amazonaws.com/graphql")
	t.Setenv("APPSYNC_API_KEY", "da2-test")
	t.Setenv("S3_BUCKET", "mybucket")
	t.Setenv("AWS_REGION", "us-east-1")
}

func TestParse_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "jamstack-cms", cfg.ServiceName)
	assert.Equal(t, "s3", cfg.Adapters.Storage)
	assert.Equal(t, "jsonfile", cfg.Adapters.Site)
	assert.Equal(t, "noop", cfg.Adapters.Metrics)
	assert.Equal(t, "public/", cfg.Storage.KeyPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Storage.SignedURLExpiry)
	assert.Equal(t, "public/downloads", cfg.Build.CacheDir)
	assert.Equal(t, "../downloads", cfg.Build.PublicPrefix)
	assert.Equal(t, "src/templates/blog-post.js", cfg.Build.Component)
	assert.Equal(t, 500, cfg.ContentAPI.PageSize)
	assert.Equal(t, int64(25*1024*1024), cfg.Download.MaxBytes)
	assert.False(t, cfg.Download.ReuseExisting)
	assert.True(t, cfg.Build.IndexOnBuild)
	assert.Equal(t, "text", cfg.Observability.LogFormat)
}

func TestParse_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("S3_BUCKET_REGION", "eu-west-1")
	t.Setenv("DOWNLOAD_TIMEOUT", "5s")
	t.Setenv("DOWNLOAD_REUSE_EXISTING", "true")
	t.Setenv("BUILD_MAX_CONCURRENCY", "2")
	t.Setenv("METRICS_TEXTFILE", "/tmp/jamstack.prom")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.Equal(t, 5*time.Second, cfg.Download.Timeout)
	assert.True(t, cfg.Download.ReuseExisting)
	assert.Equal(t, 2, cfg.Build.MaxConcurrency)
	assert.Equal(t, "prometheus", cfg.Adapters.Metrics)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.True(t, cfg.IsProduction())
}

func TestParse_InvalidValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DOWNLOAD_TIMEOUT", "soon")
	t.Setenv("BUILD_MAX_CONCURRENCY", "many")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 8, cfg.Build.MaxConcurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing endpoint",
			mutate:  func(c *Config) { c.ContentAPI.Endpoint = "" },
			wantErr: "APPSYNC_GRAPHQL_ENDPOINT is required",
		},
		{
			name:    "missing bucket",
			mutate:  func(c *Config) { c.Storage.Bucket = "" },
			wantErr: "S3_BUCKET is required",
		},
		{
			name:    "unknown storage adapter",
			mutate:  func(c *Config) { c.Adapters.Storage = "gcs" },
			wantErr: "invalid storage adapter: gcs",
		},
		{
			name:    "prefix without slash",
			mutate:  func(c *Config) { c.Storage.KeyPrefix = "public" },
			wantErr: "STORAGE_KEY_PREFIX must end with a slash",
		},
		{
			name: "backoff inverted",
			mutate: func(c *Config) {
				c.Download.InitialBackoff = time.Second
				c.Download.MaxBackoff = time.Millisecond
			},
			wantErr: "DOWNLOAD_MAX_BACKOFF",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Build.MaxConcurrency = 0 },
			wantErr: "BUILD_MAX_CONCURRENCY must be positive",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Observability.LogFormat = "xml" },
			wantErr: "invalid LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ContentAPI.Endpoint = "https://api.example.com/graphql"
			cfg.Storage.Bucket = "mybucket"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPSYNC_GRAPHQL_ENDPOINT is required")
	assert.Contains(t, err.Error(), "S3_BUCKET is required")
}

func TestLoad_CachesInstance(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Chdir(t.TempDir())
	setRequiredEnv(t)

	first, err := Load()
	require.NoError(t, err)
	assert.True(t, IsLoaded())

	t.Setenv("S3_BUCKET", "otherbucket")
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "mybucket", second.Storage.Bucket)
}

func TestEnvFiles(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{"no environment", nil, []string{".env", ".env.local"}},
		{"explicit environment", map[string]string{"ENVIRONMENT": "staging", "NODE_ENV": "production"}, []string{".env", ".env.staging", ".env.local"}},
		{"gatsby environment", map[string]string{"GATSBY_ACTIVE_ENV": "preview", "NODE_ENV": "production"}, []string{".env", ".env.preview", ".env.local"}},
		{"node environment", map[string]string{"NODE_ENV": "development"}, []string{".env", ".env.development", ".env.local"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, name := range []string{"ENVIRONMENT", "GATSBY_ACTIVE_ENV", "NODE_ENV"} {
				t.Setenv(name, tt.env[name])
			}
			assert.Equal(t, tt.want, envFiles())
		})
	}
}

func TestLoad_EnvFilePrecedence(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	dir := t.TempDir()
	t.Chdir(dir)
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("GATSBY_ACTIVE_ENV", "")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("BUILD_OUTPUT_DIR", "")
	t.Setenv("BUILD_CACHE_DIR", "")
	t.Setenv("BUILD_COMPONENT", "")

	require.NoError(t, os.WriteFile(".env", []byte("S3_BUCKET=fromdotenv\nBUILD_OUTPUT_DIR=base-out\n"), 0o644))
	require.NoError(t, os.WriteFile(".env.production", []byte("BUILD_OUTPUT_DIR=prod-out\n"), 0o644))
	extra := filepath.Join(dir, "ci.env")
	require.NoError(t, os.WriteFile(extra, []byte("BUILD_CACHE_DIR=ci-cache\n"), 0o644))
	t.Setenv(EnvFileVar, extra)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mybucket", cfg.Storage.Bucket, ".env does not override the process environment")
	assert.Equal(t, "prod-out", cfg.Build.OutputDir)
	assert.Equal(t, "ci-cache", cfg.Build.CacheDir)
	assert.Equal(t, "src/templates/blog-post.js", cfg.Build.Component)
}

func TestLoad_MissingExplicitEnvFile(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Chdir(t.TempDir())
	setRequiredEnv(t)
	t.Setenv(EnvFileVar, "does-not-exist.env")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvFileVar)
	assert.False(t, IsLoaded())
}
