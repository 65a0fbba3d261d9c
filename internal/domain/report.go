package domain

import (
	"sync"
	"time"
)

// AssetReference tracks one stored key through the pipeline.
type AssetReference struct {
	Key       string
	SignedURL string
	LocalPath string // relative path written into content, empty when not stored
}

// AssetResult is the outcome of mirroring one asset.
type AssetResult struct {
	Ref      AssetReference
	Size     int64
	Checksum string
	Cached   bool
	Err      error
}

// OK reports whether the asset was stored locally.
func (r AssetResult) OK() bool {
	return r.Err == nil
}

// AssetFailure records one asset that could not be mirrored.
type AssetFailure struct {
	PostID string `json:"post_id"`
	Key    string `json:"key"`
	URL    string `json:"url"`
	Stage  string `json:"stage"` // "resolve" or "download"
	Error  string `json:"error"`
}

// PageFailure records a page the site generator refused.
type PageFailure struct {
	PostID string `json:"post_id"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

// PostReport summarises the asset work done for one post.
type PostReport struct {
	PostID     string
	Matches    int
	Resolved   int
	Downloaded int
	Cached     int
	Rewritten  int
	CoverFound bool
	CoverSaved bool
	Failures   []AssetFailure
}

// BuildReport aggregates a whole build.
type BuildReport struct {
	BuildID    string         `json:"build_id"`
	StartedAt  time.Time      `json:"started_at"`
	Duration   time.Duration  `json:"duration"`
	Posts      int            `json:"posts"`
	Published  int            `json:"published"`
	Pages      int            `json:"pages"`
	Skipped    int            `json:"skipped"`
	Assets     int            `json:"assets"`
	Resolved   int            `json:"resolved"`
	Downloaded int            `json:"downloaded"`
	Cached     int            `json:"cached"`
	Failed     int            `json:"failed"`
	Failures   []AssetFailure `json:"failures,omitempty"`
	IndexError string         `json:"index_error,omitempty"`

	PageFailures []PageFailure `json:"page_failures,omitempty"`

	mu sync.Mutex
}

// Add merges a post report into the build totals.
func (b *BuildReport) Add(pr PostReport) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Assets += pr.Matches
	b.Resolved += pr.Resolved
	b.Downloaded += pr.Downloaded
	b.Cached += pr.Cached
	b.Failed += len(pr.Failures)
	b.Failures = append(b.Failures, pr.Failures...)
}
