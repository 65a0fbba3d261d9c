package cli

import (
	"context"
	"fmt"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/application/usecase"
	"github.com/jimcal/jamstack-cms/internal/domain/asset"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/contentapi/graphql"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/http"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/observability"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/site/jsonfile"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/storage"
)

// Dependencies holds all initialized infrastructure components
type Dependencies struct {
	obs      ports.Observability
	content  ports.ContentAPI
	resolver ports.SignedURLResolver
	cache    ports.AssetCache
	fetcher  ports.Fetcher
	site     ports.PageCreator
}

// Application holds the use cases the commands run
type Application struct {
	cfg       *config.Config
	obs       ports.Observability
	builder   *usecase.Builder
	indexer   *usecase.Indexer
	previewer *usecase.Previewer
	logger    ports.Logger
	metrics   ports.Metrics
}

// newApplication wires the full stack for cfg
func newApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	deps, err := initializeDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return buildApplication(cfg, deps)
}

// initializeDependencies sets up all infrastructure dependencies
func initializeDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	obs, err := observability.CreateObservability(cfg)
	if err != nil {
		return nil, err
	}

	logStartup(cfg, obs)

	logger, metrics, err := obs.ComponentsScoped("storage")
	if err != nil {
		return nil, err
	}
	factory := storage.NewFactory(logger, metrics)

	resolver, err := factory.CreateResolver(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	cache, err := factory.CreateCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset cache: %w", err)
	}

	logger, metrics, err = obs.ComponentsScoped("client.http")
	if err != nil {
		return nil, err
	}
	fetcher := http.NewClient(cfg.Download, logger, metrics)

	logger, metrics, err = obs.ComponentsScoped("client.graphql")
	if err != nil {
		return nil, err
	}
	content, err := graphql.NewClient(cfg.ContentAPI, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content API: %w", err)
	}

	site, err := createSite(cfg, obs)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		obs:      obs,
		content:  content,
		resolver: resolver,
		cache:    cache,
		fetcher:  fetcher,
		site:     site,
	}, nil
}

func createSite(cfg *config.Config, obs ports.Observability) (ports.PageCreator, error) {
	logger, metrics, err := obs.ComponentsScoped("site." + cfg.Adapters.Site)
	if err != nil {
		return nil, err
	}

	switch cfg.Adapters.Site {
	case "jsonfile":
		s, err := jsonfile.NewSink(cfg.Build.OutputDir, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize site output: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported site adapter: %s", cfg.Adapters.Site)
	}
}

// logStartup logs application startup information
func logStartup(cfg *config.Config, obs ports.Observability) {
	logger, metrics, err := obs.ComponentsScoped("main")
	if err != nil {
		return
	}

	logger.Info("Starting application",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment)

	metrics.IncrementCounter("application.starts", nil)
}

// buildApplication assembles the application layers
func buildApplication(cfg *config.Config, deps *Dependencies) (*Application, error) {
	scanner := asset.NewScanner(asset.NewBucketMatcher(cfg.Storage.Bucket, cfg.Storage.BucketDomain))

	resolver, err := usecase.NewResolver(deps.resolver, deps.obs)
	if err != nil {
		return nil, err
	}

	downloader, err := usecase.NewDownloader(deps.fetcher, deps.cache, nil, usecase.DownloaderOptions{
		PublicPrefix:  cfg.Build.PublicPrefix,
		ReuseExisting: cfg.Download.ReuseExisting,
	}, deps.obs)
	if err != nil {
		return nil, err
	}

	assembler, err := usecase.NewAssembler(scanner, resolver, downloader, usecase.AssemblerOptions{
		Component:        cfg.Build.Component,
		AssetConcurrency: cfg.Build.AssetMaxConcurrency,
	}, deps.obs)
	if err != nil {
		return nil, err
	}

	indexer, err := usecase.NewIndexer(deps.content, scanner, deps.site, deps.obs)
	if err != nil {
		return nil, err
	}

	var buildIndexer *usecase.Indexer
	if cfg.Build.IndexOnBuild {
		buildIndexer = indexer
	}

	builder, err := usecase.NewBuilder(deps.content, assembler, buildIndexer, deps.site, cfg.Build.MaxConcurrency, deps.obs)
	if err != nil {
		return nil, err
	}

	previewer, err := usecase.NewPreviewer(deps.content, scanner, resolver, cfg.Build.AssetMaxConcurrency, deps.obs)
	if err != nil {
		return nil, err
	}

	logger, metrics, err := deps.obs.ComponentsScoped("cli")
	if err != nil {
		return nil, err
	}

	return &Application{
		cfg:       cfg,
		obs:       deps.obs,
		builder:   builder,
		indexer:   indexer,
		previewer: previewer,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// close flushes buffered metrics
func (a *Application) close() {
	if err := a.obs.Flush(); err != nil {
		a.logger.Warn("Failed to flush metrics", "error", err)
	}
}
