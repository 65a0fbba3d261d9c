package ports

import (
	"context"

	"github.com/jimcal/jamstack-cms/internal/domain"
)

// PageCreator receives the build output for the site generator.
type PageCreator interface {
	CreatePage(ctx context.Context, page domain.Page) error
	CreateNode(ctx context.Context, node domain.Node) error
	Flush(ctx context.Context) error
}
