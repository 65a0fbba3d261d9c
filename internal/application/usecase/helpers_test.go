package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain/asset"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/config"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/observability"
	"github.com/jimcal/jamstack-cms/internal/infrastructure/storage/adapters/fs"
	"github.com/jimcal/jamstack-cms/internal/mocks"
)

const bucketURL = "https://mybucket.s3.us-east-1.amazonaws.com/public/images/"

func newTestObs() ports.Observability {
	return observability.New(config.DefaultConfig(), mocks.NewLooseLogger(), mocks.NewLooseMetrics())
}

func newTestScanner() *asset.Scanner {
	return asset.NewScanner(asset.NewBucketMatcher("mybucket", ""))
}

// signer returns signed URLs of the form https://signed.test/<key>, failing
// for keys listed in fail
type signer struct {
	fail map[string]error
}

func (s *signer) ResolveSignedURL(_ context.Context, key string) (string, error) {
	if err, ok := s.fail[key]; ok {
		return "", err
	}
	return "https://signed.test/" + key + "?X-Amz-Signature=secret", nil
}

func (s *signer) Exists(_ context.Context, key string) (bool, error) {
	_, failed := s.fail[key]
	return !failed, nil
}

// countingFetcher serves "data:<url>" and counts requests per URL
type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{calls: make(map[string]int), fail: make(map[string]error)}
}

func (f *countingFetcher) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	return io.NopCloser(strings.NewReader("data:" + url)), nil
}

func (f *countingFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type pipeline struct {
	dir        string
	signer     *signer
	fetcher    *countingFetcher
	resolver   *Resolver
	downloader *Downloader
	assembler  *Assembler
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	obs := newTestObs()
	dir := t.TempDir()

	cache, err := fs.NewCache(dir, mocks.NewLooseLogger(), mocks.NewLooseMetrics())
	require.NoError(t, err)

	p := &pipeline{
		dir:     dir,
		signer:  &signer{fail: map[string]error{}},
		fetcher: newCountingFetcher(),
	}

	p.resolver, err = NewResolver(p.signer, obs)
	require.NoError(t, err)

	p.downloader, err = NewDownloader(p.fetcher, cache, nil, DownloaderOptions{PublicPrefix: "../downloads"}, obs)
	require.NoError(t, err)

	p.assembler, err = NewAssembler(newTestScanner(), p.resolver, p.downloader,
		AssemblerOptions{Component: "src/templates/blog-post.js", AssetConcurrency: 4}, obs)
	require.NoError(t, err)

	return p
}

func signedURL(key string) string {
	return fmt.Sprintf("https://signed.test/images/%s?X-Amz-Signature=secret", key)
}
