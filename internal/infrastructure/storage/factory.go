package storage

import (
	"context"
	"fmt"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/storage/adapters/fs"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/storage/adapters/public"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/storage/adapters/s3"
)

// Factory builds the storage collaborators selected by configuration
type Factory struct {
	logger  ports.Logger
	metrics ports.Metrics
}

// NewFactory creates a storage factory
func NewFactory(logger ports.Logger, metrics ports.Metrics) *Factory {
	if logger == nil || metrics == nil {
		panic("logger and metrics are required for storage factory")
	}
	return &Factory{
		logger:  logger,
		metrics: metrics,
	}
}

// CreateResolver returns the signed URL resolver for cfg.Adapters.Storage
func (f *Factory) CreateResolver(ctx context.Context, cfg *config.Config) (ports.SignedURLResolver, error) {
	switch cfg.Adapters.Storage {
	case "s3":
		f.logger.Info("Creating S3 storage adapter",
			"bucket", cfg.Storage.Bucket,
			"region", cfg.Storage.S3.Region)
		r, err := s3.New(ctx, &cfg.Storage, f.logger, f.metrics)
		if err != nil {
			return nil, err
		}
		return r, nil

	case "public":
		f.logger.Info("Creating public storage adapter",
			"bucket", cfg.Storage.Bucket)
		r, err := public.New(&cfg.Storage, f.logger, f.metrics)
		if err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unsupported storage adapter: %s", cfg.Adapters.Storage)
	}
}

// CreateCache returns the local asset cache rooted at the build cache dir
func (f *Factory) CreateCache(cfg *config.Config) (ports.AssetCache, error) {
	c, err := fs.NewCache(cfg.Build.CacheDir, f.logger, f.metrics)
	if err != nil {
		return nil, err
	}
	return c, nil
}
