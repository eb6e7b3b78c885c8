// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/craftr/craftr/pkg/manifest"
)

// DefaultCacheSize is the number of parsed manifests kept by NewManifestCache.
const DefaultCacheSize = 256

type (
	// ManifestCache memoizes parsed manifests by file path, modification time
	// and size. It is safe for concurrent use.
	ManifestCache struct {
		entries *lru.Cache[cacheKey, *manifest.Manifest]
	}

	cacheKey struct {
		path    string
		modTime int64
		size    int64
	}

	// DiscoverOptions configures Discover.
	DiscoverOptions struct {
		// Logger receives skipped manifests. Nil means log.Default().
		Logger *log.Logger
		// Cache is consulted before parsing. Nil disables caching.
		Cache *ManifestCache
		// ParseOptions are passed to manifest.ParseFile.
		ParseOptions []manifest.ParseOption
	}
)

// NewManifestCache returns a cache holding up to size manifests.
func NewManifestCache(size int) (*ManifestCache, error) {
	entries, err := lru.New[cacheKey, *manifest.Manifest](size)
	if err != nil {
		return nil, err
	}
	return &ManifestCache{entries: entries}, nil
}

// Len returns the number of cached manifests.
func (c *ManifestCache) Len() int { return c.entries.Len() }

// Discover indexes the manifests found in paths. Each path is a package
// directory or a directory of package directories; a package directory holds
// manifest.json or craftr/manifest.json. Missing paths are ignored. Invalid
// manifests and duplicates are logged and skipped; earlier paths win.
func Discover(ctx context.Context, paths []string, opts DiscoverOptions) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("resolver")

	ix := NewIndex()
	seen := map[string]bool{}
	for _, root := range paths {
		if root == "" {
			continue
		}
		for _, dir := range packageDirs(root, logger) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			path, err := manifest.FindManifest(dir)
			if err != nil {
				if !errors.Is(err, manifest.ErrManifestNotFound) {
					logger.Warn("skipping directory", "path", dir, "err", err)
				}
				continue
			}
			if abs, absErr := filepath.Abs(path); absErr == nil {
				path = abs
			}
			if seen[path] {
				continue
			}
			seen[path] = true

			m, err := opts.Cache.parse(path, opts.ParseOptions)
			if err != nil {
				logger.Warn("skipping invalid manifest", "path", path, "err", err)
				continue
			}
			if err := ix.Add(m); err != nil {
				logger.Warn("skipping manifest", "path", path, "err", err)
				continue
			}
			logger.Debug("found module", "module", m.ID(), "path", path)
		}
	}
	return ix, nil
}

// packageDirs returns root and its non-hidden subdirectories.
func packageDirs(root string, logger *log.Logger) []string {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logger.Debug("search path does not exist", "path", root)
		return nil
	}

	dirs := []string{root}
	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Warn("cannot read search path", "path", root, "err", err)
		return dirs
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, filepath.Join(root, e.Name()))
	}
	return dirs
}

// parse reads path through the cache. A nil cache always parses.
func (c *ManifestCache) parse(path string, opts []manifest.ParseOption) (*manifest.Manifest, error) {
	if c == nil {
		return manifest.ParseFile(path, opts...)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := cacheKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}
	if m, ok := c.entries.Get(key); ok {
		return m, nil
	}

	m, err := manifest.ParseFile(path, opts...)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, m)
	return m, nil
}
