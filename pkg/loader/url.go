// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

const (
	paramURLs          = "urls"
	paramUnpackExclude = "unpack_exclude"
	fileScheme         = "file://"
)

type (
	// URLLoader acquires a directory from the first usable URL of an ordered
	// template list. file:// URLs adopt an existing directory or local
	// archive; other schemes are downloaded through the context's fetchers.
	URLLoader struct {
		name          string
		urls          []string
		unpackExclude []string
		params        map[string]any

		mu        sync.Mutex
		directory string
	}

	// acquisition is the outcome of scanning the URL list.
	acquisition struct {
		url, template string
		directory     string
		archive       string
		// downloaded is true when archive was fetched by the loader and may
		// be deleted once unpacked.
		downloaded bool
		// reused is true when archive is a download left by an earlier run.
		reused bool
		// created is true when directory was produced by the loader rather
		// than adopted from the user.
		created bool
	}
)

// NewURLLoader builds a URL loader. Params: urls (list of strings,
// required), unpack_exclude (list of glob patterns).
func NewURLLoader(name string, params map[string]any) (*URLLoader, error) {
	l := &URLLoader{name: name, params: maps.Clone(params)}
	if l.params == nil {
		l.params = map[string]any{}
	}

	for _, key := range slices.Sorted(maps.Keys(params)) {
		var err error
		switch key {
		case paramURLs:
			l.urls, err = stringList(params[key])
		case paramUnpackExclude:
			l.unpackExclude, err = stringList(params[key])
		default:
			err = errors.New("unexpected argument")
		}
		if err != nil {
			return nil, &ParamError{Loader: name, Param: key, Reason: err.Error()}
		}
	}
	if _, ok := params[paramURLs]; !ok {
		return nil, &ParamError{Loader: name, Param: paramURLs, Reason: "missing required argument"}
	}
	return l, nil
}

// Name implements Loader.
func (l *URLLoader) Name() string { return l.name }

// Type implements Loader.
func (l *URLLoader) Type() string { return TypeURL }

// Params implements Loader.
func (l *URLLoader) Params() map[string]any { return maps.Clone(l.params) }

// URLs returns the declared URL templates.
func (l *URLLoader) URLs() []string { return slices.Clone(l.urls) }

// Directory returns the directory acquired by the last successful Load.
func (l *URLLoader) Directory() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.directory
}

// Load implements Loader.
func (l *URLLoader) Load(ctx context.Context, lc *Context, cached CacheRecord) (CacheRecord, error) {
	logger := lc.logger().With("loader", l.name)

	if record, ok := l.reuseCached(lc, cached, logger); ok {
		l.setDirectory(record.Directory())
		return record, nil
	}

	acq, err := l.scan(ctx, lc, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("URL applies", "url", acq.url)

	if acq.directory == "" {
		dir, unpackErr := l.unpack(lc, acq, logger)
		if unpackErr != nil && acq.reused {
			logger.Warn("discarding unusable cached download", "file", acq.archive, "err", unpackErr)
			template := acq.template
			if acq, err = l.download(ctx, lc, acq.url, logger, false); err != nil {
				return nil, &LoaderError{Loader: l.name, Message: "download failed", Err: err}
			}
			acq.template = template
			dir, unpackErr = l.unpack(lc, acq, logger)
		}
		if unpackErr != nil {
			return nil, unpackErr
		}
		acq.directory = dir
		acq.created = true
	}

	if err := WriteStamp(acq.directory, acq.url); err != nil {
		if acq.created {
			return nil, &LoaderError{Loader: l.name, Message: "cannot write download stamp", Err: err}
		}
		logger.Warn("cannot write download stamp", "path", acq.directory, "err", err)
	}

	l.setDirectory(acq.directory)
	return CacheRecord{
		KeyDirectory:   acq.directory,
		KeyURLTemplate: acq.template,
		KeyURL:         acq.url,
	}, nil
}

// reuseCached reports whether the previous record still applies: its
// directory exists and re-expanding its template yields the same URL.
func (l *URLLoader) reuseCached(lc *Context, cached CacheRecord, logger *log.Logger) (CacheRecord, bool) {
	if cached == nil || cached.Directory() == "" {
		return nil, false
	}
	if info, err := os.Stat(cached.Directory()); err != nil || !info.IsDir() {
		return nil, false
	}

	template := cached.URLTemplate()
	if template == "" || !slices.Contains(l.urls, template) {
		logger.Info("cached URL template is no longer declared", "template", template)
		return nil, false
	}
	expanded, err := lc.ExpandVariables(template)
	if err != nil || expanded != cached.URL() {
		logger.Info("cached URL is outdated", "url", cached.URL())
		return nil, false
	}

	logger.Info("reusing cached directory", "directory", cached.Directory())
	return cached.Clone(), true
}

// scan walks the URL templates in order and stops at the first usable one.
func (l *URLLoader) scan(ctx context.Context, lc *Context, logger *log.Logger) (acquisition, error) {
	var failures []error
	for _, template := range l.urls {
		u, err := lc.ExpandVariables(template)
		if err != nil {
			logger.Warn("cannot expand URL template", "template", template, "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", template, err))
			continue
		}
		if u == "" {
			continue
		}

		if strings.HasPrefix(u, fileScheme) {
			p := localPath(lc, u)
			info, statErr := os.Stat(p)
			switch {
			case statErr == nil && info.IsDir():
				logger.Info("using directory", "url", u)
				return acquisition{url: u, template: template, directory: p}, nil
			case statErr == nil && info.Mode().IsRegular():
				logger.Info("using archive", "url", u)
				return acquisition{url: u, template: template, archive: p}, nil
			default:
				logger.Info("path does not exist", "url", u)
				failures = append(failures, fmt.Errorf("%s: no such file or directory", u))
				continue
			}
		}

		acq, err := l.download(ctx, lc, u, logger, true)
		if err != nil {
			if ctx.Err() != nil {
				return acquisition{}, &LoaderError{Loader: l.name, Message: "download interrupted", Err: ctx.Err()}
			}
			logger.Warn("error reading URL", "url", u, "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", u, err))
			continue
		}
		acq.template = template
		return acq, nil
	}
	return acquisition{}, &LoaderError{Loader: l.name, Message: "no URL matched", Err: errors.Join(failures...)}
}

// download fetches u into the temporary directory. With reuse set, nothing
// is fetched if the directory the archive would unpack to carries a stamp
// for u or an earlier download of the same file is still present.
func (l *URLLoader) download(ctx context.Context, lc *Context, u string, logger *log.Logger, reuse bool) (acq acquisition, err error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return acquisition{}, err
	}
	fetcher, ok := lc.fetcher(parsed.Scheme)
	if !ok {
		return acquisition{}, fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	filename := path.Base(parsed.Path)
	if filename == "" || filename == "/" || filename == "." {
		return acquisition{}, fmt.Errorf("cannot derive a file name from %s", u)
	}

	dst := filepath.Join(lc.TempDir, filename)
	if reuse {
		if dir, dirErr := UnpackDir(lc.InstallDir, filename); dirErr == nil {
			if stamp, found := ReadStamp(dir); found && stamp == u {
				logger.Info("reusing existing directory", "directory", dir)
				return acquisition{url: u, directory: dir}, nil
			}
		}
		if info, statErr := os.Stat(dst); statErr == nil && info.Mode().IsRegular() {
			logger.Info("reusing cached download", "file", filename)
			return acquisition{url: u, archive: dst, downloaded: true, reused: true}, nil
		}
	}

	if err = os.MkdirAll(lc.TempDir, 0o755); err != nil {
		return acquisition{}, fmt.Errorf("failed to create download directory: %w", err)
	}

	body, size, err := fetcher.Open(ctx, u)
	if err != nil {
		return acquisition{}, err
	}
	defer func() {
		if closeErr := body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	part := dst + ".part"
	if err = writeWithProgress(part, body, size, "Downloading "+u, lc.reporter()); err != nil {
		_ = os.Remove(part) // Partial downloads are never reused.
		return acquisition{}, err
	}
	if err = os.Rename(part, dst); err != nil {
		return acquisition{}, fmt.Errorf("failed to finalize download: %w", err)
	}
	return acquisition{url: u, archive: dst, downloaded: true}, nil
}

// unpack extracts the acquired archive into the install directory. A
// downloaded archive is removed afterwards whether or not extraction
// succeeded, so a broken download is never picked up again.
func (l *URLLoader) unpack(lc *Context, acq acquisition, logger *log.Logger) (string, error) {
	dir, err := UnpackDir(lc.InstallDir, acq.archive)
	if err != nil {
		return "", &LoaderError{Loader: l.name, Message: "cannot unpack " + filepath.Base(acq.archive), Err: err}
	}
	logger.Info("unpacking", "archive", acq.archive, "directory", dir)
	extractErr := Extract(acq.archive, dir, ExtractOptions{Exclude: l.unpackExclude, Reporter: lc.reporter()})
	if acq.downloaded {
		if err := os.Remove(acq.archive); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove downloaded archive", "path", acq.archive, "err", err)
		}
	}
	if extractErr != nil {
		return "", &LoaderError{Loader: l.name, Message: "extraction failed", Err: extractErr}
	}
	return dir, nil
}

func (l *URLLoader) setDirectory(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.directory = dir
}

// writeWithProgress copies body into a new file at dst, reporting progress.
func writeWithProgress(dst string, body io.Reader, size int64, label string, reporter Reporter) (err error) {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	reporter.Begin(label, size <= 0)
	defer reporter.End()

	pw := &progressWriter{total: size, reporter: reporter}
	_, err = io.Copy(out, io.TeeReader(body, pw))
	return err
}

type progressWriter struct {
	done     int64
	total    int64
	reporter Reporter
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	p.reporter.Update(byteProgress(p.done, p.total))
	return len(b), nil
}

// localPath converts a file:// URL to a filesystem path. Relative paths
// resolve against the module directory when one is set.
func localPath(lc *Context, u string) string {
	p := filepath.FromSlash(strings.TrimPrefix(u, fileScheme))
	if p != "" && !filepath.IsAbs(p) && lc.Dir != "" {
		return filepath.Join(lc.Dir, p)
	}
	return p
}

func stringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d: expected string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", raw)
	}
}
