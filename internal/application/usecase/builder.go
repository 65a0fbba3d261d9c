package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
)

// Builder runs a full site build: fetch, assemble every published post and
// hand the pages to the site generator
type Builder struct {
	content        ports.ContentAPI
	assembler      *Assembler
	indexer        *Indexer
	site           ports.PageCreator
	maxConcurrency int
	logger         ports.Logger
	metrics        ports.Metrics
}

// NewBuilder creates a builder. indexer may be nil to skip the index pass.
func NewBuilder(content ports.ContentAPI, assembler *Assembler, indexer *Indexer, site ports.PageCreator, maxConcurrency int, obs ports.Observability) (*Builder, error) {
	logger, metrics, err := obs.ComponentsScoped("usecase.builder")
	if err != nil {
		return nil, err
	}
	return &Builder{
		content:        content,
		assembler:      assembler,
		indexer:        indexer,
		site:           site,
		maxConcurrency: maxConcurrency,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Build runs the pipeline. Asset failures and pages the site generator
// rejects end up in the report and never abort the build.
func (b *Builder) Build(ctx context.Context) (*domain.BuildReport, error) {
	report := &domain.BuildReport{
		BuildID:   uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger := b.logger.WithFields(map[string]interface{}{"build_id": report.BuildID})
	logger.Info("Build started")

	if b.indexer != nil {
		if _, err := b.indexer.Run(ctx); err != nil {
			report.IndexError = err.Error()
			logger.Error("Image key index failed, continuing build", "error", err)
		}
	}

	posts, err := b.content.ListPosts(ctx)
	if err != nil {
		b.metrics.IncrementCounter("build.failed", map[string]string{"stage": "fetch"})
		logger.Error("Failed to fetch posts", "error", err)
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	report.Posts = len(posts)

	// navigation needs the whole published list before any post is assembled
	published := domain.PublishedOnly(posts)
	navs := domain.Navigation(published)
	report.Published = len(published)

	pages := make([]domain.Page, len(published))

	g, gctx := errgroup.WithContext(ctx)
	if b.maxConcurrency > 0 {
		g.SetLimit(b.maxConcurrency)
	}
	for i, post := range published {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, pr := b.assembler.Assemble(gctx, post, navs[i])
			pages[i] = page
			report.Add(pr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble posts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build cancelled: %w", err)
	}

	for _, page := range pages {
		if err := b.site.CreatePage(ctx, page); err != nil {
			report.Skipped++
			report.PageFailures = append(report.PageFailures, domain.PageFailure{
				PostID: page.Context.ID,
				Path:   page.Path,
				Error:  err.Error(),
			})
			b.metrics.IncrementCounter("build.pages.skipped", nil)
			logger.Error("Site generator rejected page, skipping post",
				"post_id", page.Context.ID,
				"path", page.Path,
				"error", err)
			continue
		}
		report.Pages++
	}
	if err := b.site.Flush(ctx); err != nil {
		b.metrics.IncrementCounter("build.failed", map[string]string{"stage": "flush"})
		return nil, fmt.Errorf("flush pages: %w", err)
	}

	report.Duration = time.Since(report.StartedAt)

	b.metrics.IncrementCounter("build.completed", nil)
	b.metrics.RecordGauge("build.pages", float64(report.Pages), nil)
	b.metrics.RecordGauge("build.pages.skipped", float64(report.Skipped), nil)
	b.metrics.RecordGauge("build.assets.failed", float64(report.Failed), nil)
	b.metrics.RecordHistogram("build.duration", report.Duration.Seconds(), nil)

	logger.Info("Build completed",
		"posts", report.Posts,
		"pages", report.Pages,
		"skipped", report.Skipped,
		"assets", report.Assets,
		"downloaded", report.Downloaded,
		"cached", report.Cached,
		"failed", report.Failed,
		"duration_ms", report.Duration.Milliseconds())

	return report, nil
}
