// SPDX-License-Identifier: MPL-2.0

package buildcache

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/craftr/craftr/internal/testutil"
	"github.com/craftr/craftr/pkg/loader"
)

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	path := Path(filepath.Join(t.TempDir(), "build"))
	s := New()
	s.Set("zlib@1.2.11", "source", loader.CacheRecord{
		loader.KeyDirectory:   "/build/zlib/zlib-1.2.11",
		loader.KeyURL:         "https://zlib.net/zlib-1.2.11.tar.gz",
		loader.KeyURLTemplate: "https://zlib.net/zlib-$VERSION.tar.gz",
	})
	s.Set("png@1.6.37", "local", loader.CacheRecord{loader.KeyDirectory: `C:\src\"png"`})

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "// craftr build cache") {
		t.Errorf("missing header:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v\n%s", err, data)
	}
	if got := loaded.Modules(); !slices.Equal(got, []string{"png@1.6.37", "zlib@1.2.11"}) {
		t.Errorf("Modules() = %v", got)
	}
	rec, ok := loaded.Module("zlib@1.2.11").Get("source")
	if !ok || rec.URLTemplate() != "https://zlib.net/zlib-$VERSION.tar.gz" || rec.Directory() != "/build/zlib/zlib-1.2.11" {
		t.Errorf("zlib record = %v", rec)
	}
	if rec, _ := loaded.Get("png@1.6.37", "local"); rec.Directory() != `C:\src\"png"` {
		t.Errorf("png record = %v", rec)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(s.Modules()) != 0 {
		t.Errorf("Modules() = %v, want none", s.Modules())
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"syntax":        `modules: {`,
		"wrong_version": `version: "0", modules: {}`,
		"wrong_shape":   `version: "1", modules: {"zlib@1.0.0": {loaders: {src: {directory: 3}}}}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), FileName)
			testutil.MustWriteFile(t, path, []byte(content))
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestStore_IsolatesRecords(t *testing.T) {
	t.Parallel()

	s := New()
	rec := loader.CacheRecord{loader.KeyDirectory: "/a"}
	s.Set("zlib@1.2.11", "source", rec)
	rec[loader.KeyDirectory] = "/mutated"

	got, _ := s.Get("zlib@1.2.11", "source")
	if got.Directory() != "/a" {
		t.Errorf("stored record changed through caller's map: %v", got)
	}
	got[loader.KeyDirectory] = "/mutated"
	if again, _ := s.Get("zlib@1.2.11", "source"); again.Directory() != "/a" {
		t.Errorf("stored record changed through returned map: %v", again)
	}

	s.Delete("zlib@1.2.11")
	if _, ok := s.Module("zlib@1.2.11").Get("source"); ok {
		t.Error("Delete() should drop the module")
	}
}

func TestStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := New()
	var wg sync.WaitGroup
	for _, module := range []string{"a@1.0.0", "b@1.0.0", "c@1.0.0", "d@1.0.0"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				s.Set(module, "source", loader.CacheRecord{loader.KeyURL: string(rune('a' + i%26))})
				s.Module(module).Get("source")
			}
		}()
	}
	wg.Wait()
	if len(s.Modules()) != 4 {
		t.Errorf("Modules() = %v", s.Modules())
	}
}
