// Package graphql reads posts from an AppSync GraphQL endpoint using API key auth.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
)

// maxPages guards against an API that keeps returning the same nextToken
const maxPages = 1000

var errMalformed = errors.New("malformed response")

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type gqlError struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type listPostsData struct {
	ListPosts *struct {
		Items     []*domain.Post `json:"items"`
		NextToken *string        `json:"nextToken"`
	} `json:"listPosts"`
}

type getPostData struct {
	GetPost *domain.Post `json:"getPost"`
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// Client implements ports.ContentAPI
type Client struct {
	endpoint  string
	apiKey    string
	pageSize  int
	http      *http.Client
	executor  failsafe.Executor[*response]
	listQuery string
	getQuery  string
	logger    ports.Logger
	metrics   ports.Metrics
}

// NewClient creates a content API client. Query documents are validated and
// normalized once here.
func NewClient(cfg config.ContentAPIConfig, logger ports.Logger, metrics ports.Metrics) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("content API endpoint is required")
	}

	listQuery, err := printQuery(listPostsQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid listPosts query: %w", err)
	}
	getQuery, err := printQuery(getPostQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid getPost query: %w", err)
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	policy := retrypolicy.NewBuilder[*response]().
		WithBackoff(200*time.Millisecond, 5*time.Second).
		WithMaxRetries(retries).
		WithJitterFactor(0.1).
		HandleIf(func(_ *response, err error) bool {
			return shouldRetry(err)
		}).
		Build()

	return &Client{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		pageSize:  cfg.PageSize,
		http:      &http.Client{Timeout: cfg.Timeout},
		executor:  failsafe.With[*response](policy),
		listQuery: listQuery,
		getQuery:  getQuery,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// ListPosts returns every post in source order, following nextToken. Null
// items are dropped.
func (c *Client) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	start := time.Now()
	var posts []*domain.Post
	var nextToken *string

	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, domain.ErrFetch.Wrap(fmt.Errorf("pagination did not terminate after %d pages", maxPages))
		}

		vars := map[string]interface{}{"limit": c.pageSize}
		if nextToken != nil {
			vars["nextToken"] = *nextToken
		}

		var data listPostsData
		if err := c.execute(ctx, "listPosts", c.listQuery, vars, &data); err != nil {
			return nil, err
		}
		if data.ListPosts == nil {
			return nil, domain.ErrFetch.Wrap(errors.New("response has no listPosts field"))
		}

		for _, p := range data.ListPosts.Items {
			if p != nil {
				posts = append(posts, p)
			}
		}

		nextToken = data.ListPosts.NextToken
		if nextToken == nil || *nextToken == "" {
			break
		}
	}

	c.logger.Info("Fetched posts", "count", len(posts), "duration_ms", time.Since(start).Milliseconds())
	c.metrics.RecordGauge("contentapi.posts", float64(len(posts)), nil)
	return posts, nil
}

// GetPost returns a single post by id
func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var data getPostData
	if err := c.execute(ctx, "getPost", c.getQuery, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.GetPost == nil {
		return nil, domain.ErrFetch.Wrap(fmt.Errorf("post %q not found", id)).WithPost(id)
	}
	return data.GetPost, nil
}

func (c *Client) execute(ctx context.Context, op, query string, vars map[string]interface{}, out interface{}) error {
	start := time.Now()
	tags := map[string]string{"operation": op}

	body, err := json.Marshal(request{Query: query, OperationName: op, Variables: vars})
	if err != nil {
		return domain.ErrFetch.Wrap(fmt.Errorf("failed to encode request: %w", err))
	}

	resp, err := c.executor.WithContext(ctx).Get(func() (*response, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		c.logger.Error("Content API request failed", "operation", op, "error", err)
		c.metrics.IncrementCounter("contentapi.request.errors", tags)
		return domain.ErrFetch.Wrap(err)
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		c.metrics.IncrementCounter("contentapi.request.errors", tags)
		return domain.ErrFetch.Wrap(fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; ")))
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return domain.ErrFetch.Wrap(errors.New("response has no data"))
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return domain.ErrFetch.Wrap(fmt.Errorf("malformed response data: %w", err))
	}

	c.metrics.IncrementCounter("contentapi.request.success", tags)
	c.metrics.RecordHistogram("contentapi.request.duration", time.Since(start).Seconds(), tags)
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{code: resp.StatusCode}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return &out, nil
}

func shouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return !errors.Is(err, errMalformed)
}

// printQuery parses a query document and prints it in canonical form
func printQuery(q string) (string, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: q})
	if err != nil {
		return "", err
	}
	if len(doc.Operations) != 1 {
		return "", fmt.Errorf("expected one operation, got %d", len(doc.Operations))
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String(), nil
}
