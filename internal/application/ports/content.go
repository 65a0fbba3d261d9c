package ports

import (
	"context"

	"github.com/jimcal/jamstack-cms/internal/domain"
)

// ContentAPI reads posts from the hosted GraphQL API.
type ContentAPI interface {
	// ListPosts returns every post in source order, following pagination.
	ListPosts(ctx context.Context) ([]*domain.Post, error)

	// GetPost returns a single post by id.
	GetPost(ctx context.Context, id string) (*domain.Post, error)
}
