// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/craftr/craftr/pkg/options"
)

type recordingReporter struct {
	mu      sync.Mutex
	begins  int
	updates int
	ends    int
	labels  []string
}

func (r *recordingReporter) Begin(label string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begins++
	r.labels = append(r.labels, label)
}

func (r *recordingReporter) Update(float64, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
}

func (r *recordingReporter) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends++
}

// countingFetcher fails every Open and records how often it was asked.
type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) Open(context.Context, string) (io.ReadCloser, int64, error) {
	f.calls.Add(1)
	return nil, 0, errors.New("network disabled in test")
}

// newTestContext returns a loader context rooted in a fresh build directory.
// HTTP fetches do not retry so unreachable hosts fail fast.
func newTestContext(t *testing.T, ns options.Namespace) *Context {
	t.Helper()

	build := t.TempDir()
	httpFetcher := NewHTTPFetcher(5*time.Second, 0)
	return &Context{
		ModuleName: "zlib",
		InstallDir: filepath.Join(build, "zlib"),
		TempDir:    filepath.Join(build, ".craftr", "downloads", "zlib"),
		Options:    ns,
		Logger:     log.New(io.Discard),
		Fetchers: map[string]Fetcher{
			"http":  httpFetcher,
			"https": httpFetcher,
		},
	}
}

// fileServer serves files from dir and counts requests per path.
type fileServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newFileServer(t *testing.T, dir string) *fileServer {
	t.Helper()

	fs := &fileServer{hits: map[string]int{}}
	files := http.FileServer(http.Dir(dir))
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits[r.URL.Path]++
		fs.mu.Unlock()
		files.ServeHTTP(w, r)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fileServer) hitCount(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[path]
}
