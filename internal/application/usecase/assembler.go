package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/domain/asset"
)

// Failure stages reported in PostReport
const (
	stageExtract  = "extract"
	stageResolve  = "resolve"
	stageDownload = "download"
	stageRewrite  = "rewrite"
	stageCover    = "cover"
)

// AssemblerOptions configures page assembly
type AssemblerOptions struct {
	Component        string
	AssetConcurrency int
}

// Assembler turns a fetched post into a page with its bucket images mirrored
// locally. Asset failures degrade the page, they never drop it.
type Assembler struct {
	scanner    *asset.Scanner
	resolver   *Resolver
	downloader *Downloader
	opts       AssemblerOptions
	logger     ports.Logger
	metrics    ports.Metrics
}

// NewAssembler creates an assembler
func NewAssembler(scanner *asset.Scanner, resolver *Resolver, downloader *Downloader, opts AssemblerOptions, obs ports.Observability) (*Assembler, error) {
	logger, metrics, err := obs.ComponentsScoped("usecase.assembler")
	if err != nil {
		return nil, err
	}
	return &Assembler{
		scanner:    scanner,
		resolver:   resolver,
		downloader: downloader,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Assemble produces the page for post. The post itself is not modified.
func (a *Assembler) Assemble(ctx context.Context, post *domain.Post, nav domain.Nav) (domain.Page, domain.PostReport) {
	report := domain.PostReport{PostID: post.ID}
	logger := a.logger.WithFields(map[string]interface{}{"post_id": post.ID})

	content := a.rewriteContent(ctx, post, &report, logger)
	localCover := a.mirrorCover(ctx, post, &report, logger)

	slug := post.Slug()
	page := domain.Page{
		Path:      slug,
		Component: a.opts.Component,
		Context: domain.PageContext{
			ID:              post.ID,
			Content:         content,
			Title:           post.Title,
			Published:       post.Published,
			CreatedAt:       post.CreatedAt,
			CoverImage:      post.CoverImage,
			LocalCoverImage: localCover,
			Description:     post.Description,
			Slug:            slug,
			Type:            domain.PageType,
			Previous:        nav.Previous,
			Next:            nav.Next,
		},
	}

	if len(report.Failures) > 0 {
		logger.Warn("Post assembled with asset failures",
			"failures", len(report.Failures),
			"matches", report.Matches)
		a.metrics.IncrementCounter("assemble.degraded", nil)
	}
	a.metrics.IncrementCounter("assemble.completed", nil)

	return page, report
}

// rewriteContent mirrors every bucket URL in the post content and returns
// the rewritten content
func (a *Assembler) rewriteContent(ctx context.Context, post *domain.Post, report *domain.PostReport, logger ports.Logger) string {
	matches := a.scanner.Scan(post.Content)
	report.Matches = len(matches)
	if len(matches) == 0 {
		return post.Content
	}

	// keys per match, "" when the URL has no usable key
	keys := make([]string, len(matches))
	var unique []string
	seen := make(map[string]bool)
	for i, m := range matches {
		key, err := asset.ExtractKey(m.Text)
		if err != nil {
			report.Failures = append(report.Failures, failure(post.ID, "", m.Text, stageExtract, err))
			logger.Warn("Bucket URL has no image key, leaving it remote", "url", redactURL(m.Text), "error", err)
			continue
		}
		keys[i] = key
		if !seen[key] {
			seen[key] = true
			unique = append(unique, key)
		}
	}

	resolved := a.resolver.ResolveAll(ctx, unique, a.opts.AssetConcurrency)
	downloads := a.downloadAll(ctx, unique, resolved)

	for _, key := range unique {
		res := resolved[key]
		if res.Err != nil {
			report.Failures = append(report.Failures, failure(post.ID, key, "", stageResolve, res.Err))
			logger.Error("Failed to resolve asset, leaving it remote", "key", key, "error", res.Err)
			continue
		}
		report.Resolved++

		dl := downloads[key]
		if dl.Err != nil {
			report.Failures = append(report.Failures, failure(post.ID, key, "", stageDownload, dl.Err))
			logger.Error("Failed to download asset, leaving it remote", "key", key, "error", dl.Err)
			continue
		}
		countResult(report, dl)
	}

	replacements := make([]string, len(matches))
	for i, key := range keys {
		if key == "" {
			continue
		}
		if dl, ok := downloads[key]; ok && dl.OK() {
			replacements[i] = dl.Ref.LocalPath
			report.Rewritten++
		}
	}

	content, err := asset.Rewrite(post.Content, matches, replacements)
	if err != nil {
		report.Rewritten = 0
		report.Failures = append(report.Failures, failure(post.ID, "", "", stageRewrite, err))
		logger.Error("Failed to rewrite content, keeping original", "error", err)
		return post.Content
	}
	return content
}

// downloadAll downloads every resolved key concurrently
func (a *Assembler) downloadAll(ctx context.Context, keys []string, resolved map[string]Resolution) map[string]domain.AssetResult {
	out := make(map[string]domain.AssetResult, len(keys))
	var mu sync.Mutex

	var g errgroup.Group
	if a.opts.AssetConcurrency > 0 {
		g.SetLimit(a.opts.AssetConcurrency)
	}
	for _, key := range keys {
		res := resolved[key]
		if res.Err != nil {
			continue
		}
		g.Go(func() error {
			r := a.downloader.Download(ctx, key, res.SignedURL)
			mu.Lock()
			out[key] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// mirrorCover downloads the cover image and returns its local path, or ""
// when there is no cover or it could not be stored
func (a *Assembler) mirrorCover(ctx context.Context, post *domain.Post, report *domain.PostReport, logger ports.Logger) string {
	if post.CoverImage == "" {
		return ""
	}
	report.CoverFound = true

	key, source, err := a.coverSource(ctx, post.CoverImage, logger)
	if err != nil {
		report.Failures = append(report.Failures, failure(post.ID, "", post.CoverImage, stageCover, err))
		logger.Error("Cover image has no usable key", "url", redactURL(post.CoverImage), "error", err)
		return ""
	}

	dl := a.downloader.Download(ctx, key, source)
	if dl.Err != nil {
		report.Failures = append(report.Failures, failure(post.ID, key, "", stageCover, dl.Err))
		logger.Error("Failed to download cover image", "key", key, "error", dl.Err)
		return ""
	}

	countResult(report, dl)
	report.CoverSaved = true
	return dl.Ref.LocalPath
}

// coverSource picks the key and download URL for a cover image. Bucket covers
// are signed; when signing fails the stored URL is tried directly.
func (a *Assembler) coverSource(ctx context.Context, raw string, logger ports.Logger) (string, string, error) {
	if a.scanner.IsBucketURL(raw) {
		if key, err := asset.ExtractKey(raw); err == nil {
			signed, err := a.resolver.Resolve(ctx, key)
			if err != nil {
				logger.Warn("Failed to sign cover image, trying stored URL", "key", key, "error", err)
				return key, raw, nil
			}
			return key, signed, nil
		}
	}

	key, err := asset.FileKey(raw)
	if err != nil {
		return "", "", err
	}
	return key, raw, nil
}

func countResult(report *domain.PostReport, r domain.AssetResult) {
	if r.Cached {
		report.Cached++
	} else {
		report.Downloaded++
	}
}

func failure(postID, key, url, stage string, err error) domain.AssetFailure {
	return domain.AssetFailure{
		PostID: postID,
		Key:    key,
		URL:    redactURL(url),
		Stage:  stage,
		Error:  err.Error(),
	}
}
