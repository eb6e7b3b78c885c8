// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

const (
	// DefaultHTTPTimeout bounds a single HTTP request, body included.
	DefaultHTTPTimeout = 5 * time.Minute
	// DefaultHTTPRetries is the number of retries after a transient failure.
	DefaultHTTPRetries = 3
)

var defaultHTTPFetcher = NewHTTPFetcher(DefaultHTTPTimeout, DefaultHTTPRetries)

type (
	// Fetcher opens remote resources of one or more URL schemes.
	Fetcher interface {
		// Open returns the resource body and its size, -1 when unknown.
		Open(ctx context.Context, rawURL string) (body io.ReadCloser, size int64, err error)
	}

	// HTTPFetcher fetches http and https URLs. Server errors (5xx, 429) and
	// network timeouts are retried with exponential backoff; other client
	// errors and DNS failures are permanent.
	HTTPFetcher struct {
		Client *http.Client
		// Retries is the number of retries after the first attempt.
		Retries uint64
		// InitialInterval is the first backoff delay.
		InitialInterval time.Duration
		Logger          *log.Logger
	}

	// StatusError is returned for non-2xx HTTP responses.
	StatusError struct {
		URL        string
		StatusCode int
		Status     string
	}
)

// NewHTTPFetcher returns an HTTPFetcher with the given request timeout and
// retry count.
func NewHTTPFetcher(timeout time.Duration, retries int) *HTTPFetcher {
	return &HTTPFetcher{
		Client:          &http.Client{Timeout: timeout},
		Retries:         uint64(max(retries, 0)),
		InitialInterval: 500 * time.Millisecond,
	}
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Open implements Fetcher.
func (f *HTTPFetcher) Open(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := f.Logger
	if logger == nil {
		logger = log.Default()
	}

	var resp *http.Response
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := client.Do(req)
		if err != nil {
			if isTransientNetError(ctx, err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if r.StatusCode < 200 || r.StatusCode > 299 {
			_ = r.Body.Close() // Body is not used on failure.
			statusErr := &StatusError{URL: rawURL, StatusCode: r.StatusCode, Status: r.Status}
			if statusErr.Temporary() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		resp = r
		return nil
	}

	initial := f.InitialInterval
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(backoff.WithInitialInterval(initial)), f.Retries),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		logger.Debug("retrying download", "url", rawURL, "err", err, "in", next)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// isTransientNetError reports whether a transport error may go away on retry.
func isTransientNetError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
