package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockSignedURLResolver is a mock implementation of SignedURLResolver interface
type MockSignedURLResolver struct {
	mock.Mock
}

// ResolveSignedURL mocks the ResolveSignedURL method
func (m *MockSignedURLResolver) ResolveSignedURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// Exists mocks the Exists method
func (m *MockSignedURLResolver) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockFetcher is a mock implementation of Fetcher interface
type MockFetcher struct {
	mock.Mock
}

// Fetch mocks the Fetch method
func (m *MockFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}
