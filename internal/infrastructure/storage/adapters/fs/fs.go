package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jimcal/jamstack-cms/internal/application/ports"
)

// Cache stores downloaded assets under a base directory, one file per key
type Cache struct {
	basePath string
	logger   ports.Logger
	metrics  ports.Metrics
}

// NewCache creates a filesystem asset cache rooted at basePath
func NewCache(basePath string, logger ports.Logger, metrics ports.Metrics) (*Cache, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logger.Error("Failed to create cache directory", "path", basePath, "error", err)
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	logger.Info("Asset cache initialized", "base_path", basePath)

	return &Cache{
		basePath: basePath,
		logger:   logger,
		metrics:  metrics.WithTags(map[string]string{"storage": "filesystem"}),
	}, nil
}

// Path returns the file path for key
func (c *Cache) Path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid cache key: %q", key)
	}
	return filepath.Join(c.basePath, clean), nil
}

// Has reports whether a file for key exists
func (c *Cache) Has(key string) (bool, error) {
	p, err := c.Path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return info.Mode().IsRegular(), nil
}

// Put writes r to a temp file next to the target and renames it into place,
// so readers never observe a partial file and the last writer wins
func (c *Cache) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	startTime := time.Now()

	objectPath, err := c.Path(key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(objectPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		c.logger.Error("Failed to create cache directory", "path", dir, "error", err)
		c.metrics.IncrementCounter("storage.put.errors", map[string]string{"error": "mkdir"})
		return 0, fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(objectPath)+".*.tmp")
	if err != nil {
		c.metrics.IncrementCounter("storage.put.errors", map[string]string{"error": "create"})
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	bytesWritten, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		c.logger.Error("Failed to write asset", "key", key, "error", err)
		c.metrics.IncrementCounter("storage.put.errors", map[string]string{"error": "write"})
		return 0, fmt.Errorf("failed to write asset: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, objectPath); err != nil {
		c.metrics.IncrementCounter("storage.put.errors", map[string]string{"error": "rename"})
		return 0, fmt.Errorf("failed to move asset into place: %w", err)
	}

	duration := time.Since(startTime)
	c.logger.Debug("Asset stored",
		"key", key,
		"path", objectPath,
		"bytes", bytesWritten,
		"duration_ms", duration.Milliseconds())

	c.metrics.IncrementCounter("storage.put.success", nil)
	c.metrics.RecordHistogram("storage.put.bytes", float64(bytesWritten), nil)

	return bytesWritten, nil
}

// ctxReader stops a copy once the context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
