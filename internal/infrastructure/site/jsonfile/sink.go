// Package jsonfile hands build output to the site generator as JSON files:
// <out>/pages.json holds every page and <out>/nodes/<key>.json each node.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
	"github.com/jimcal/jamstack-cms/internal/domain"
)

// Sink implements ports.PageCreator
type Sink struct {
	outDir  string
	logger  ports.Logger
	metrics ports.Metrics

	mu    sync.Mutex
	pages []domain.Page
	paths map[string]int
}

// NewSink creates a sink writing under outDir
func NewSink(outDir string, logger ports.Logger, metrics ports.Metrics) (*Sink, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Sink{
		outDir:  outDir,
		logger:  logger,
		metrics: metrics,
		paths:   make(map[string]int),
	}, nil
}

// CreatePage buffers a page until Flush. A second page with the same path
// replaces the first, as the site generator would.
func (s *Sink) CreatePage(ctx context.Context, page domain.Page) error {
	if page.Path == "" {
		return fmt.Errorf("page for post %q has an empty path", page.Context.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.paths[page.Path]; ok {
		s.logger.Warn("Duplicate page path, replacing earlier page",
			"path", page.Path,
			"post_id", page.Context.ID,
			"replaced_post_id", s.pages[i].Context.ID)
		s.pages[i] = page
		return nil
	}

	s.paths[page.Path] = len(s.pages)
	s.pages = append(s.pages, page)
	s.metrics.IncrementCounter("site.pages.created", nil)
	return nil
}

// CreateNode writes the node immediately
func (s *Sink) CreateNode(ctx context.Context, node domain.Node) error {
	if node.Key == "" {
		return fmt.Errorf("node %q has an empty key", node.ID)
	}
	path := filepath.Join(s.outDir, "nodes", node.Key+".json")
	if err := writeJSON(path, node); err != nil {
		return err
	}
	s.metrics.IncrementCounter("site.nodes.created", nil)
	s.logger.Info("Node written", "key", node.Key, "path", path, "digest", node.Internal.ContentDigest)
	return nil
}

// Flush writes pages.json
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	pages := make([]domain.Page, len(s.pages))
	copy(pages, s.pages)
	s.mu.Unlock()

	path := filepath.Join(s.outDir, "pages.json")
	if err := writeJSON(path, pages); err != nil {
		return err
	}
	s.logger.Info("Pages written", "count", len(pages), "path", path)
	return nil
}

// writeJSON writes v to path through a temp file and rename
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
