package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
	"github.com/jimcal/jamstack-cms/internal/mocks"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultContentAPIConfig()
	cfg.Endpoint = srv.URL
	cfg.APIKey = "da2-test"
	cfg.Timeout = 2 * time.Second
	cfg.MaxRetries = 1

	c, err := NewClient(cfg, mocks.NewLooseLogger(), mocks.NewLooseMetrics())
	require.NoError(t, err)
	return c
}

func decodeRequest(t *testing.T, r *http.Request) request {
	t.Helper()
	var req request
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func TestListPosts_Paginates(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "da2-test", r.Header.Get("x-api-key"))
		assert.Equal(t, http.MethodPost, r.Method)

		req := decodeRequest(t, r)
		assert.Contains(t, req.Query, "listPosts")
		assert.Equal(t, "listPosts", req.OperationName)

		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Nil(t, req.Variables["nextToken"])
			_, _ = w.Write([]byte(`{"data":{"listPosts":{"items":[{"id":"1","title":"First","published":true},null],"nextToken":"tok"}}}`))
			return
		}
		assert.Equal(t, "tok", req.Variables["nextToken"])
		_, _ = w.Write([]byte(`{"data":{"listPosts":{"items":[{"id":"2","title":"Second","published":false,"cover_image":"https://x/y.png"}],"nextToken":null}}}`))
	})

	posts, err := c.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "1", posts[0].ID)
	assert.Equal(t, "2", posts[1].ID)
	assert.False(t, posts[1].Published)
	assert.Equal(t, "https://x/y.png", posts[1].CoverImage)
}

func TestListPosts_GraphQLErrorsAreFetchErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"Unauthorized","errorType":"UnauthorizedException"}]}`))
	})

	_, err := c.ListPosts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestListPosts_RetriesServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"listPosts":{"items":[],"nextToken":null}}}`))
	})

	posts, err := c.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListPosts_Malformed(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.ListPosts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestListPosts_MissingField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	_, err := c.ListPosts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

func TestGetPost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Equal(t, "abc", req.Variables["id"])
		assert.Contains(t, req.Query, "getPost")
		_, _ = w.Write([]byte(`{"data":{"getPost":{"id":"abc","title":"Hello","content":"body"}}}`))
	})

	post, err := c.GetPost(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "body", post.Content)
}

func TestGetPost_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"getPost":null}}`))
	})

	_, err := c.GetPost(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetch))
}

func TestPrintQuery(t *testing.T) {
	q, err := printQuery(listPostsQuery)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(q, "query listPosts"))

	_, err = printQuery("query { broken")
	assert.Error(t, err)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(config.DefaultContentAPIConfig(), mocks.NewLooseLogger(), mocks.NewLooseMetrics())
	assert.Error(t, err)
}
