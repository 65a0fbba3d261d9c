package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/domain/asset"
)

// CachedAsset is what the DownloadRecord keeps per key
type CachedAsset struct {
	Path     string
	Size     int64
	Checksum string
}

// DownloadRecord maps storage keys to files already written in this process
type DownloadRecord struct {
	mu      sync.RWMutex
	entries map[string]CachedAsset
}

// NewDownloadRecord creates an empty record
func NewDownloadRecord() *DownloadRecord {
	return &DownloadRecord{entries: make(map[string]CachedAsset)}
}

// Get returns the entry for key
func (r *DownloadRecord) Get(key string) (CachedAsset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	return e, ok
}

// Set records key as stored
func (r *DownloadRecord) Set(key string, e CachedAsset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = e
}

// Len returns the number of recorded keys
func (r *DownloadRecord) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Downloader fetches assets into the local cache, once per key
type Downloader struct {
	fetcher       ports.Fetcher
	cache         ports.AssetCache
	record        *DownloadRecord
	group         singleflight.Group
	publicPrefix  string
	reuseExisting bool
	logger        ports.Logger
	metrics       ports.Metrics
}

// DownloaderOptions configures a Downloader
type DownloaderOptions struct {
	// PublicPrefix is how rewritten content refers to the cache dir
	PublicPrefix string
	// ReuseExisting skips keys whose file is already on disk
	ReuseExisting bool
}

// NewDownloader creates a downloader. record may be shared between
// downloaders; nil creates a fresh one.
func NewDownloader(fetcher ports.Fetcher, cache ports.AssetCache, record *DownloadRecord, opts DownloaderOptions, obs ports.Observability) (*Downloader, error) {
	logger, metrics, err := obs.ComponentsScoped("usecase.downloader")
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = NewDownloadRecord()
	}
	return &Downloader{
		fetcher:       fetcher,
		cache:         cache,
		record:        record,
		publicPrefix:  opts.PublicPrefix,
		reuseExisting: opts.ReuseExisting,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Record exposes the download record
func (d *Downloader) Record() *DownloadRecord {
	return d.record
}

// Download stores the asset at sourceURL under key. Concurrent calls for one
// key share a single transfer; keys already recorded are not fetched again.
func (d *Downloader) Download(ctx context.Context, key, sourceURL string) domain.AssetResult {
	result := domain.AssetResult{
		Ref: domain.AssetReference{
			Key:       key,
			SignedURL: sourceURL,
		},
	}

	if e, ok := d.record.Get(key); ok {
		d.metrics.IncrementCounter("download.cache_hits", nil)
		return d.fill(result, e, true)
	}

	leader := false
	v, err, _ := d.group.Do(key, func() (interface{}, error) {
		leader = true
		return d.fetch(ctx, key, sourceURL)
	})
	if err != nil {
		result.Err = err
		return result
	}

	entry := v.(fetched)
	return d.fill(result, entry.CachedAsset, !leader || entry.reused)
}

type fetched struct {
	CachedAsset
	reused bool
}

func (d *Downloader) fetch(ctx context.Context, key, sourceURL string) (fetched, error) {
	if e, ok := d.record.Get(key); ok {
		return fetched{CachedAsset: e, reused: true}, nil
	}

	if d.reuseExisting {
		if e, ok := d.existing(key); ok {
			d.record.Set(key, e)
			d.metrics.IncrementCounter("download.reused", nil)
			d.logger.Debug("Reusing cached asset", "key", key, "path", e.Path)
			return fetched{CachedAsset: e, reused: true}, nil
		}
	}

	start := time.Now()
	path, err := d.cache.Path(key)
	if err != nil {
		return fetched{}, domain.ErrDownload.Wrap(err).WithKey(key)
	}

	body, err := d.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		d.metrics.IncrementCounter("download.errors", map[string]string{"stage": "fetch"})
		return fetched{}, domain.ErrDownload.Wrap(err).WithKey(key)
	}
	defer body.Close()

	hasher := sha256.New()
	size, err := d.cache.Put(ctx, key, io.TeeReader(body, hasher))
	if err != nil {
		d.metrics.IncrementCounter("download.errors", map[string]string{"stage": "store"})
		return fetched{}, domain.ErrDownload.Wrap(err).WithKey(key)
	}

	e := CachedAsset{Path: path, Size: size, Checksum: hex.EncodeToString(hasher.Sum(nil))}
	d.record.Set(key, e)

	duration := time.Since(start)
	d.logger.Info("Asset downloaded",
		"key", key,
		"path", path,
		"size_bytes", size,
		"duration_ms", duration.Milliseconds())
	d.metrics.IncrementCounter("download.success", nil)
	d.metrics.RecordHistogram("download.duration", duration.Seconds(), nil)
	d.metrics.RecordHistogram("download.size_bytes", float64(size), nil)

	return fetched{CachedAsset: e}, nil
}

// existing hashes a file left on disk by an earlier run
func (d *Downloader) existing(key string) (CachedAsset, bool) {
	ok, err := d.cache.Has(key)
	if err != nil || !ok {
		return CachedAsset{}, false
	}
	path, err := d.cache.Path(key)
	if err != nil {
		return CachedAsset{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return CachedAsset{}, false
	}
	defer f.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, f)
	if err != nil {
		return CachedAsset{}, false
	}
	return CachedAsset{Path: path, Size: size, Checksum: hex.EncodeToString(hasher.Sum(nil))}, true
}

func (d *Downloader) fill(r domain.AssetResult, e CachedAsset, cached bool) domain.AssetResult {
	r.Ref.LocalPath = asset.LocalPath(d.publicPrefix, r.Ref.Key)
	r.Size = e.Size
	r.Checksum = e.Checksum
	r.Cached = cached
	return r
}
