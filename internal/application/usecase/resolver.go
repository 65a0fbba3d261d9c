package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/domain/asset"
)

// Resolution is the outcome of resolving one key
type Resolution struct {
	Key       string
	SignedURL string
	Err       error
}

// Resolver maps storage keys to signed download URLs
type Resolver struct {
	storage ports.SignedURLResolver
	logger  ports.Logger
	metrics ports.Metrics
}

// NewResolver creates a new resolver
func NewResolver(storage ports.SignedURLResolver, obs ports.Observability) (*Resolver, error) {
	logger, metrics, err := obs.ComponentsScoped("usecase.resolver")
	if err != nil {
		return nil, err
	}
	return &Resolver{
		storage: storage,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Resolve returns a signed URL for key (without the images/ prefix). Every
// failure is a ResolutionError, or KeyNotFound when the object is missing.
func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	start := time.Now()

	signed, err := r.storage.ResolveSignedURL(ctx, asset.StorageKey(key))
	if err == nil && signed == "" {
		err = errors.New("storage returned an empty URL")
	}
	if err != nil {
		r.metrics.IncrementCounter("resolve.errors", nil)
		var de *domain.Error
		if errors.As(err, &de) && (de.Code == domain.ErrKeyNotFound.Code || de.Code == domain.ErrResolution.Code) {
			return "", de.WithKey(key)
		}
		return "", domain.ErrResolution.Wrap(err).WithKey(key)
	}

	r.metrics.IncrementCounter("resolve.success", nil)
	r.metrics.RecordHistogram("resolve.duration", time.Since(start).Seconds(), nil)
	return signed, nil
}

// ResolveAll resolves keys concurrently, at most limit at a time. Results are
// keyed by key; failures are reported per key and never cancel siblings.
func (r *Resolver) ResolveAll(ctx context.Context, keys []string, limit int) map[string]Resolution {
	out := make(map[string]Resolution, len(keys))
	var mu sync.Mutex

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, key := range keys {
		g.Go(func() error {
			signed, err := r.Resolve(ctx, key)
			mu.Lock()
			out[key] = Resolution{Key: key, SignedURL: signed, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}
