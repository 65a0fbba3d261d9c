package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/mocks"
)

func newTestSink(t *testing.T) (*Sink, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	s, err := NewSink(dir, mocks.NewLooseLogger(), mocks.NewLooseMetrics())
	require.NoError(t, err)
	return s, dir
}

func page(id, title string) domain.Page {
	return domain.Page{
		Path:      domain.Slugify(title),
		Component: "src/templates/blog-post.js",
		Context: domain.PageContext{
			ID:    id,
			Title: title,
			Slug:  domain.Slugify(title),
			Type:  domain.PageType,
		},
	}
}

func TestFlush_WritesPagesInOrder(t *testing.T) {
	s, dir := newTestSink(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePage(ctx, page("1", "First Post")))
	require.NoError(t, s.CreatePage(ctx, page("2", "Second Post")))
	require.NoError(t, s.Flush(ctx))

	data, err := os.ReadFile(filepath.Join(dir, "pages.json"))
	require.NoError(t, err)

	var pages []domain.Page
	require.NoError(t, json.Unmarshal(data, &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "first-post", pages[0].Path)
	assert.Equal(t, "appsyncData", pages[1].Context.Type)
}

func TestCreatePage_DuplicatePathReplaces(t *testing.T) {
	s, dir := newTestSink(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePage(ctx, page("1", "Same")))
	require.NoError(t, s.CreatePage(ctx, page("2", "Same")))
	require.NoError(t, s.Flush(ctx))

	data, err := os.ReadFile(filepath.Join(dir, "pages.json"))
	require.NoError(t, err)

	var pages []domain.Page
	require.NoError(t, json.Unmarshal(data, &pages))
	require.Len(t, pages, 1)
	assert.Equal(t, "2", pages[0].Context.ID)
}

func TestCreatePage_EmptyPath(t *testing.T) {
	s, _ := newTestSink(t)
	assert.Error(t, s.CreatePage(context.Background(), domain.Page{}))
}

func TestCreateNode(t *testing.T) {
	s, dir := newTestSink(t)

	node, err := domain.NewImageKeysNode([]string{"images/a.png"})
	require.NoError(t, err)
	require.NoError(t, s.CreateNode(context.Background(), node))

	data, err := os.ReadFile(filepath.Join(dir, "nodes", "image-keys.json"))
	require.NoError(t, err)

	var got domain.Node
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, node.ID, got.ID)
	assert.Equal(t, []string{"images/a.png"}, got.Data)
	assert.Equal(t, node.Internal.ContentDigest, got.Internal.ContentDigest)
}

func TestFlush_Empty(t *testing.T) {
	s, dir := newTestSink(t)
	require.NoError(t, s.Flush(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "pages.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
