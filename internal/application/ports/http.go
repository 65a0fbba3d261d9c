package ports

import (
	"context"
	"io"
)

// Fetcher performs GET requests for asset bytes.
type Fetcher interface {
	// Fetch returns the response body for url. Non-2xx responses are errors.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}
