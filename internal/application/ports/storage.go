package ports

import (
	"context"
	"io"
)

// SignedURLResolver turns storage keys into downloadable URLs.
type SignedURLResolver interface {
	// ResolveSignedURL returns a time-limited URL for the object at key (images/<key>).
	ResolveSignedURL(ctx context.Context, key string) (string, error)

	// Exists checks whether the object at key is present in the bucket.
	Exists(ctx context.Context, key string) (bool, error)
}

// AssetCache stores downloaded assets on local disk, addressed by key.
type AssetCache interface {
	// Path returns the file path for key without touching the disk.
	Path(key string) (string, error)

	// Has reports whether a file for key already exists.
	Has(key string) (bool, error)

	// Put writes r to the file for key atomically and returns the bytes written.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
}
