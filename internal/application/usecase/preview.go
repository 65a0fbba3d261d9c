package usecase

import (
	"context"
	"fmt"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/domain/asset"
)

// PreviewReport summarises a preview render
type PreviewReport struct {
	PostID   string                `json:"post_id"`
	Matches  int                   `json:"matches"`
	Signed   int                   `json:"signed"`
	Failures []domain.AssetFailure `json:"failures,omitempty"`
}

// Previewer renders a single post with bucket images pointing at freshly
// signed URLs instead of local copies
type Previewer struct {
	content          ports.ContentAPI
	scanner          *asset.Scanner
	resolver         *Resolver
	assetConcurrency int
	logger           ports.Logger
	metrics          ports.Metrics
}

// NewPreviewer creates a previewer
func NewPreviewer(content ports.ContentAPI, scanner *asset.Scanner, resolver *Resolver, assetConcurrency int, obs ports.Observability) (*Previewer, error) {
	logger, metrics, err := obs.ComponentsScoped("usecase.preview")
	if err != nil {
		return nil, err
	}
	return &Previewer{
		content:          content,
		scanner:          scanner,
		resolver:         resolver,
		assetConcurrency: assetConcurrency,
		logger:           logger,
		metrics:          metrics,
	}, nil
}

// Preview fetches post id and returns a copy with signed image URLs
func (p *Previewer) Preview(ctx context.Context, id string) (*domain.Post, PreviewReport, error) {
	report := PreviewReport{PostID: id}

	post, err := p.content.GetPost(ctx, id)
	if err != nil {
		return nil, report, fmt.Errorf("fetch post: %w", err)
	}
	out := *post

	matches := p.scanner.Scan(post.Content)
	report.Matches = len(matches)

	keys := make([]string, len(matches))
	var unique []string
	seen := make(map[string]bool)
	for i, m := range matches {
		key, err := asset.ExtractKey(m.Text)
		if err != nil {
			report.Failures = append(report.Failures, failure(id, "", m.Text, stageExtract, err))
			continue
		}
		keys[i] = key
		if !seen[key] {
			seen[key] = true
			unique = append(unique, key)
		}
	}

	resolved := p.resolver.ResolveAll(ctx, unique, p.assetConcurrency)
	for _, key := range unique {
		if err := resolved[key].Err; err != nil {
			report.Failures = append(report.Failures, failure(id, key, "", stageResolve, err))
		}
	}

	replacements := make([]string, len(matches))
	for i, key := range keys {
		if res, ok := resolved[key]; ok && key != "" && res.Err == nil {
			replacements[i] = res.SignedURL
			report.Signed++
		}
	}

	content, err := asset.Rewrite(post.Content, matches, replacements)
	if err != nil {
		return nil, report, err
	}
	out.Content = content

	if post.CoverImage != "" && p.scanner.IsBucketURL(post.CoverImage) {
		if key, err := asset.ExtractKey(post.CoverImage); err == nil {
			if signed, err := p.resolver.Resolve(ctx, key); err == nil {
				out.CoverImage = signed
			} else {
				report.Failures = append(report.Failures, failure(id, key, "", stageCover, err))
			}
		}
	}

	p.metrics.IncrementCounter("preview.completed", nil)
	p.logger.Info("Preview rendered", "post_id", id, "matches", report.Matches, "signed", report.Signed)
	return &out, report, nil
}
