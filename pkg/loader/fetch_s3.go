// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type (
	// S3Fetcher fetches s3://bucket/key URLs from an S3-compatible store.
	S3Fetcher struct {
		Client *minio.Client
	}

	// S3Config configures the object store behind S3Fetcher.
	S3Config struct {
		Endpoint  string
		Region    string
		AccessKey string
		SecretKey string
		UseSSL    bool
	}
)

// NewS3Fetcher connects an S3Fetcher to the configured endpoint.
// Anonymous access is used when no access key is set.
func NewS3Fetcher(cfg S3Config) (*S3Fetcher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is not configured")
	}
	creds := credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	if cfg.AccessKey == "" {
		creds = credentials.NewStatic("", "", "", credentials.SignatureAnonymous)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client for %s: %w", cfg.Endpoint, err)
	}
	return &S3Fetcher{Client: client}, nil
}

// Open implements Fetcher.
func (f *S3Fetcher) Open(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, err
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, 0, fmt.Errorf("invalid s3 URL %q: expected s3://bucket/key", rawURL)
	}

	obj, err := f.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", rawURL, err)
	}
	// GetObject is lazy; Stat surfaces missing objects and permission errors.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, fmt.Errorf("stat %s: %w", rawURL, err)
	}
	return obj, info.Size, nil
}
