package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/storage/adapters/fs"
	"github.com/jimcal/jamstack-cms/internal/mocks"
)

func TestDownloader_StoresFile(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	r := p.downloader.Download(ctx, "abc123.png", "https://signed.test/a")
	require.NoError(t, r.Err)

	assert.False(t, r.Cached)
	assert.Equal(t, "../downloads/abc123.png", r.Ref.LocalPath)

	data, err := os.ReadFile(filepath.Join(p.dir, "abc123.png"))
	require.NoError(t, err)
	assert.Equal(t, "data:https://signed.test/a", string(data))

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), r.Checksum)
	assert.Equal(t, int64(len(data)), r.Size)
}

func TestDownloader_OncePerKey(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	first := p.downloader.Download(ctx, "abc123.png", "https://signed.test/a")
	second := p.downloader.Download(ctx, "abc123.png", "https://signed.test/b")

	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Checksum, second.Checksum)
	assert.Equal(t, 1, p.fetcher.total())
	assert.Equal(t, 1, p.downloader.Record().Len())
}

func TestDownloader_ConcurrentSameKey(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	const n = 16
	results := make([]domain.AssetResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.downloader.Download(ctx, "same.png", "https://signed.test/same")
		}()
	}
	wg.Wait()

	fresh := 0
	for _, r := range results {
		require.NoError(t, r.Err)
		if !r.Cached {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.Equal(t, 1, p.fetcher.total())
}

func TestDownloader_FetchFailure(t *testing.T) {
	p := newPipeline(t)
	p.fetcher.fail["https://signed.test/x"] = errors.New("connection reset")

	r := p.downloader.Download(context.Background(), "x.png", "https://signed.test/x")

	require.Error(t, r.Err)
	assert.ErrorIs(t, r.Err, domain.ErrDownload)
	assert.False(t, r.OK())
	assert.Equal(t, 0, p.downloader.Record().Len())

	_, err := os.Stat(filepath.Join(p.dir, "x.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloader_ReuseExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.png"), []byte("cached"), 0o644))

	cache, err := fs.NewCache(dir, mocks.NewLooseLogger(), mocks.NewLooseMetrics())
	require.NoError(t, err)

	fetcher := newCountingFetcher()
	d, err := NewDownloader(fetcher, cache, nil, DownloaderOptions{PublicPrefix: "../downloads", ReuseExisting: true}, newTestObs())
	require.NoError(t, err)

	r := d.Download(context.Background(), "old.png", "https://signed.test/old")
	require.NoError(t, r.Err)
	assert.True(t, r.Cached)
	assert.Equal(t, int64(6), r.Size)
	assert.Equal(t, 0, fetcher.total())
}

func TestDownloader_InvalidKey(t *testing.T) {
	p := newPipeline(t)

	r := p.downloader.Download(context.Background(), "../escape.png", "https://signed.test/e")

	require.Error(t, r.Err)
	assert.Equal(t, 0, p.fetcher.total())
}
