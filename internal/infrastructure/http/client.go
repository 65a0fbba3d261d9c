package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
)

// ErrTooLarge is returned by the body reader once MaxBytes is exceeded
var ErrTooLarge = errors.New("response body exceeds size limit")

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// Client implements ports.Fetcher with a per-download timeout and bounded retry
type Client struct {
	client   *http.Client
	config   config.DownloadConfig
	executor failsafe.Executor[io.ReadCloser]
	logger   ports.Logger
	metrics  ports.Metrics
}

// NewClient creates a new download client
func NewClient(cfg config.DownloadConfig, logger ports.Logger, metrics ports.Metrics) *Client {
	return NewClientWithHTTP(&http.Client{}, cfg, logger, metrics)
}

// NewClientWithHTTP creates a download client around an existing http.Client
func NewClientWithHTTP(hc *http.Client, cfg config.DownloadConfig, logger ports.Logger, metrics ports.Metrics) *Client {
	c := &Client{
		client:  hc,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
	c.executor = failsafe.With[io.ReadCloser](c.retryPolicy())
	return c
}

func (c *Client) retryPolicy() retrypolicy.RetryPolicy[io.ReadCloser] {
	base, max := c.config.InitialBackoff, c.config.MaxBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if max < base {
		max = base
	}
	retries := c.config.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return retrypolicy.NewBuilder[io.ReadCloser]().
		WithBackoff(base, max).
		WithMaxRetries(retries).
		WithJitterFactor(0.1).
		HandleIf(func(_ io.ReadCloser, err error) bool {
			return ShouldRetry(err)
		}).
		OnRetry(func(e failsafe.ExecutionEvent[io.ReadCloser]) {
			c.metrics.IncrementCounter("http.download.retries", nil)
			c.logger.Debug("Retrying download", "attempt", e.Attempts(), "error", e.LastError())
		}).
		Build()
}

// Fetch downloads url. The returned body must be closed; the timeout covers
// the whole transfer, body included.
func (c *Client) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)

	body, err := c.executor.WithContext(ctx).Get(func() (io.ReadCloser, error) {
		return c.do(ctx, rawURL)
	})
	if err != nil {
		cancel()
		c.metrics.IncrementCounter("http.download.errors", map[string]string{"error_type": categorizeError(err)})
		return nil, fmt.Errorf("request failed: %w", err)
	}

	c.metrics.RecordHistogram("http.download.ttfb", time.Since(start).Seconds(), nil)

	limit := c.config.MaxBytes
	if limit <= 0 {
		limit = math.MaxInt64
	}
	return &limitedBody{body: body, remaining: limit, cancel: cancel}, nil
}

func (c *Client) do(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: redact(rawURL)}
	}

	if c.config.MaxBytes > 0 && resp.ContentLength > c.config.MaxBytes {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: content length %d", ErrTooLarge, resp.ContentLength)
	}

	return resp.Body, nil
}

// ShouldRetry retries network failures, 5xx and 429 responses
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTooLarge) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only HTTP and HTTPS URLs are supported, got %q", u.Scheme)
	}
	return nil
}

// redact drops the query string, which carries the signature for presigned URLs
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	return u.String()
}

func categorizeError(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.As(err, &se) && se.StatusCode == http.StatusNotFound:
		return "not_found"
	case errors.As(err, &se) && se.StatusCode == http.StatusForbidden:
		return "forbidden"
	case errors.As(err, &se) && se.StatusCode >= 500:
		return "server_error"
	case errors.As(err, &se):
		return "client_error"
	default:
		return "connection"
	}
}

// limitedBody enforces the size limit while streaming and releases the
// request context on close
type limitedBody struct {
	body      io.ReadCloser
	remaining int64
	cancel    context.CancelFunc
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		// probe one byte so a body of exactly MaxBytes still succeeds
		var one [1]byte
		n, err := b.body.Read(one[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.body.Read(p)
	b.remaining -= int64(n)
	return n, err
}

func (b *limitedBody) Close() error {
	err := b.body.Close()
	b.cancel()
	return err
}
