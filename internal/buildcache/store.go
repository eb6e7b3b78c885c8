// SPDX-License-Identifier: MPL-2.0

package buildcache

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/craftr/craftr/pkg/cueutil"
	"github.com/craftr/craftr/pkg/loader"
)

const (
	// FileName is the cache file inside a build directory.
	FileName = ".craftrcache"

	formatVersion = "1"
	header        = "// craftr build cache. Generated file, do not edit.\n\n"
)

//go:embed cache_schema.cue
var cacheSchema []byte

type (
	// Store maps module IDs to the last cache record of each of their
	// loaders. It is safe for concurrent use.
	Store struct {
		mu      sync.RWMutex
		modules map[string]map[string]loader.CacheRecord
	}

	// view is the loader.Cache of one module.
	view struct {
		store  *Store
		module string
	}

	cacheFile struct {
		Version string                 `json:"version"`
		Modules map[string]moduleEntry `json:"modules"`
	}

	moduleEntry struct {
		Loaders map[string]map[string]string `json:"loaders"`
	}
)

// New returns an empty store.
func New() *Store {
	return &Store{modules: map[string]map[string]loader.CacheRecord{}}
}

// Path returns the cache file of buildDir.
func Path(buildDir string) string {
	return filepath.Join(buildDir, FileName)
}

// Load reads the cache file at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read build cache: %w", err)
	}

	result, err := cueutil.ParseAndDecode[cacheFile](cacheSchema, data, "#Cache", cueutil.WithFilename(path))
	if err != nil {
		return nil, fmt.Errorf("invalid build cache: %w", err)
	}

	s := New()
	for module, entry := range result.Value.Modules {
		records := make(map[string]loader.CacheRecord, len(entry.Loaders))
		for name, rec := range entry.Loaders {
			records[name] = loader.CacheRecord(rec)
		}
		s.modules[module] = records
	}
	return s, nil
}

// Save writes the store to path atomically, creating parent directories.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	doc := cacheFile{Version: formatVersion, Modules: make(map[string]moduleEntry, len(s.modules))}
	for module, records := range s.modules {
		entry := moduleEntry{Loaders: make(map[string]map[string]string, len(records))}
		for name, rec := range records {
			entry.Loaders[name] = map[string]string(rec.Clone())
		}
		doc.Modules[module] = entry
	}
	s.mu.RUnlock()

	body, err := cueutil.Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode build cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write build cache: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(append([]byte(header), body...))
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		return fmt.Errorf("failed to write build cache: %w", firstErr(writeErr, closeErr))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup of temp file
		return fmt.Errorf("failed to rename build cache: %w", err)
	}
	return nil
}

// Get returns the record of loaderName in module.
func (s *Store) Get(module, loaderName string) (loader.CacheRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.modules[module][loaderName]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Set stores rec as the record of loaderName in module.
func (s *Store) Set(module, loaderName string, rec loader.CacheRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, ok := s.modules[module]
	if !ok {
		records = map[string]loader.CacheRecord{}
		s.modules[module] = records
	}
	records[loaderName] = rec.Clone()
}

// Delete forgets every record of module.
func (s *Store) Delete(module string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.modules, module)
}

// Modules returns the module IDs with records, sorted.
func (s *Store) Modules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.modules))
}

// Module returns the records of module as a loader.Cache.
func (s *Store) Module(module string) loader.Cache {
	return view{store: s, module: module}
}

// Get implements loader.Cache.
func (v view) Get(loaderName string) (loader.CacheRecord, bool) {
	return v.store.Get(v.module, loaderName)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
