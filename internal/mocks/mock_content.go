package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jimcal/jamstack-cms/internal/domain"
)

// MockContentAPI is a mock implementation of ContentAPI interface
type MockContentAPI struct {
	mock.Mock
}

// ListPosts mocks the ListPosts method
func (m *MockContentAPI) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Post), args.Error(1)
}

// GetPost mocks the GetPost method
func (m *MockContentAPI) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Post), args.Error(1)
}

// MockPageCreator is a mock implementation of PageCreator interface
type MockPageCreator struct {
	mock.Mock
}

// CreatePage mocks the CreatePage method
func (m *MockPageCreator) CreatePage(ctx context.Context, page domain.Page) error {
	args := m.Called(ctx, page)
	return args.Error(0)
}

// CreateNode mocks the CreateNode method
func (m *MockPageCreator) CreateNode(ctx context.Context, node domain.Node) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

// Flush mocks the Flush method
func (m *MockPageCreator) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
