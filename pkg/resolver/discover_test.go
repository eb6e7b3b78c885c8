// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/craftr/craftr/internal/testutil"
)

func writeManifest(t *testing.T, path, name, version string) {
	t.Helper()
	testutil.MustWriteFile(t, path, []byte(`{"name": "`+name+`", "version": "`+version+`"}`))
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	writeManifest(t, filepath.Join(project, "manifest.json"), "app", "1.0.0")
	writeManifest(t, filepath.Join(project, "vendor", "manifest.json"), "vendored", "0.1.0")

	libs := t.TempDir()
	writeManifest(t, filepath.Join(libs, "zlib", "manifest.json"), "zlib", "1.2.11")
	writeManifest(t, filepath.Join(libs, "png", "craftr", "manifest.json"), "png", "1.6.37")
	writeManifest(t, filepath.Join(libs, "deep", "nested", "pkg", "manifest.json"), "deep", "1.0.0")
	writeManifest(t, filepath.Join(libs, ".hidden", "manifest.json"), "hidden", "1.0.0")
	testutil.MustWriteFile(t, filepath.Join(libs, "broken", "manifest.json"), []byte(`{"name": "broken"`))

	// A second copy of zlib 1.2.11 later in the search path is ignored.
	shadow := t.TempDir()
	writeManifest(t, filepath.Join(shadow, "zlib", "manifest.json"), "zlib", "1.2.11")
	writeManifest(t, filepath.Join(shadow, "zlib-old", "manifest.json"), "zlib", "1.2.8")

	var logs bytes.Buffer
	ix, err := Discover(context.Background(),
		[]string{project, libs, filepath.Join(project, "missing"), shadow},
		DiscoverOptions{Logger: log.New(&logs)})
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}

	if got := ix.Names(); !slices.Equal(got, []string{"app", "png", "vendored", "zlib"}) {
		t.Errorf("Names() = %v", got)
	}
	if n := len(ix.Versions("zlib")); n != 2 {
		t.Errorf("zlib versions = %v", ix.Versions("zlib"))
	}
	m, err := ix.FindModule("zlib", mustCriteria(t, "=1.2.11"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(m.Path, libs) {
		t.Errorf("earlier search path should win, got %s", m.Path)
	}

	out := logs.String()
	if !strings.Contains(out, "skipping invalid manifest") || !strings.Contains(out, "broken") {
		t.Errorf("invalid manifest should be logged:\n%s", out)
	}
	if !strings.Contains(out, "duplicate module") {
		t.Errorf("duplicate should be logged:\n%s", out)
	}
}

func TestDiscover_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, filepath.Join(dir, "manifest.json"), "app", "1.0.0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Discover(ctx, []string{dir}, DiscoverOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Discover() error = %v, want context.Canceled", err)
	}
}

func TestManifestCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	writeManifest(t, path, "zlib", "1.2.11")

	cache, err := NewManifestCache(DefaultCacheSize)
	if err != nil {
		t.Fatal(err)
	}
	opts := DiscoverOptions{Cache: cache}

	first, err := Discover(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Discover(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Modules()[0] != second.Modules()[0] {
		t.Error("unchanged manifest should come from the cache")
	}

	// Rewriting the file invalidates the entry.
	writeManifest(t, path, "zlib", "1.2.12")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}
	third, err := Discover(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := third.Modules()[0].ID(); got != "zlib@1.2.12" {
		t.Errorf("changed manifest = %s, want zlib@1.2.12", got)
	}
	if cache.Len() != 2 {
		t.Errorf("cache.Len() = %d, want 2", cache.Len())
	}
}
