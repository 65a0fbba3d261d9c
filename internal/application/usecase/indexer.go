package usecase

import (
	"context"
	"fmt"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/domain/asset"
)

// Indexer lists every image key referenced by any post, published or not,
// and emits them as the image-keys node. Nothing is downloaded.
type Indexer struct {
	content ports.ContentAPI
	scanner *asset.Scanner
	site    ports.PageCreator
	logger  ports.Logger
	metrics ports.Metrics
}

// NewIndexer creates an indexer
func NewIndexer(content ports.ContentAPI, scanner *asset.Scanner, site ports.PageCreator, obs ports.Observability) (*Indexer, error) {
	logger, metrics, err := obs.ComponentsScoped("usecase.indexer")
	if err != nil {
		return nil, err
	}
	return &Indexer{
		content: content,
		scanner: scanner,
		site:    site,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Run fetches all posts and emits the node. Keys keep post order and
// duplicates.
func (ix *Indexer) Run(ctx context.Context) (domain.Node, error) {
	posts, err := ix.content.ListPosts(ctx)
	if err != nil {
		return domain.Node{}, fmt.Errorf("fetch posts: %w", err)
	}

	keys := ix.Keys(posts)

	node, err := domain.NewImageKeysNode(keys)
	if err != nil {
		return domain.Node{}, err
	}
	if err := ix.site.CreateNode(ctx, node); err != nil {
		return domain.Node{}, fmt.Errorf("create node: %w", err)
	}

	ix.metrics.RecordGauge("index.image_keys", float64(len(keys)), nil)
	ix.logger.Info("Image keys indexed", "posts", len(posts), "keys", len(keys))
	return node, nil
}

// Keys returns images/<key> for every bucket URL in content and every cover
func (ix *Indexer) Keys(posts []*domain.Post) []string {
	keys := []string{}
	for _, post := range posts {
		if post == nil {
			continue
		}

		for _, m := range ix.scanner.Scan(post.Content) {
			key, err := asset.ExtractKey(m.Text)
			if err != nil {
				ix.logger.Warn("Skipping bucket URL without image key", "post_id", post.ID, "url", redactURL(m.Text))
				continue
			}
			keys = append(keys, asset.StorageKey(key))
		}

		if post.CoverImage != "" {
			key, err := asset.ExtractKey(post.CoverImage)
			if err != nil {
				key, err = asset.FileKey(post.CoverImage)
			}
			if err != nil {
				ix.logger.Warn("Skipping cover image without key", "post_id", post.ID)
				continue
			}
			keys = append(keys, asset.StorageKey(key))
		}
	}
	return keys
}
