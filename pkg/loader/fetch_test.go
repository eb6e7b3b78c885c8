// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "payload")
	}))
	t.Cleanup(srv.Close)

	f := &HTTPFetcher{Retries: 3, InitialInterval: time.Millisecond}
	body, size, err := f.Open(context.Background(), srv.URL+"/pkg.tar.gz")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if string(data) != "payload" || size != int64(len("payload")) {
		t.Errorf("got %q (size %d)", data, size)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestHTTPFetcher_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	f := &HTTPFetcher{Retries: 5, InitialInterval: time.Millisecond}
	_, _, err := f.Open(context.Background(), srv.URL+"/missing.zip")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Open() error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Temporary() {
		t.Errorf("StatusError = %+v", se)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestHTTPFetcher_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	f := &HTTPFetcher{Retries: 2, InitialInterval: time.Millisecond}
	if _, _, err := f.Open(context.Background(), srv.URL); err == nil {
		t.Fatal("Open() should fail")
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestStatusError_Temporary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusTooManyRequests, true},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
	}
	for _, tt := range tests {
		if got := (&StatusError{StatusCode: tt.code}).Temporary(); got != tt.want {
			t.Errorf("Temporary(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestContext_FetcherFallback(t *testing.T) {
	t.Parallel()

	custom := &countingFetcher{}
	lc := &Context{Fetchers: map[string]Fetcher{"s3": custom}}

	if f, ok := lc.fetcher("s3"); !ok || f != custom {
		t.Error("registered fetcher should be used")
	}
	if f, ok := lc.fetcher("https"); !ok || f != defaultHTTPFetcher {
		t.Error("https should fall back to the default HTTP fetcher")
	}
	if _, ok := lc.fetcher("ftp"); ok {
		t.Error("ftp should not be supported")
	}
}
