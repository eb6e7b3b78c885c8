// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// ErrUnsafePath is returned when an archive member would escape the
// extraction directory.
var ErrUnsafePath = errors.New("archive member escapes destination")

type (
	// ExtractOptions configures Extract.
	ExtractOptions struct {
		// Exclude lists glob patterns of members to skip. A pattern without a
		// "/" also matches a member's base name; a matching directory skips
		// its whole subtree.
		Exclude []string
		// Reporter receives extraction progress. Nil means NopReporter.
		Reporter Reporter
	}

	archiveFormat struct {
		suffix string
		open   func(path string, visit visitFunc) error
	}

	// visitFunc receives one archive member. total is the number of
	// members, -1 for streamed formats.
	visitFunc func(m member, index, total int) error

	member struct {
		name     string
		mode     os.FileMode
		isDir    bool
		linkname string
		open     func() (io.ReadCloser, error)
	}
)

// archiveFormats is ordered so that compound suffixes win over ".tar".
var archiveFormats = []archiveFormat{
	{".tar.gz", walkTarGzip},
	{".tgz", walkTarGzip},
	{".tar.bz2", walkTarBzip2},
	{".tbz2", walkTarBzip2},
	{".tbz", walkTarBzip2},
	{".tar.zst", walkTarZstd},
	{".tzst", walkTarZstd},
	{".tar", walkTarPlain},
	{".zip", walkZip},
}

// ArchiveSuffix returns the recognized archive suffix of name, or "".
func ArchiveSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, f := range archiveFormats {
		if strings.HasSuffix(lower, f.suffix) {
			return name[len(name)-len(f.suffix):]
		}
	}
	return ""
}

// UnpackDir returns the directory an archive is extracted to: its base name
// without the archive suffix, inside installDir.
func UnpackDir(installDir, archive string) (string, error) {
	base := filepath.Base(archive)
	suffix := ArchiveSuffix(base)
	if suffix == "" {
		return "", fmt.Errorf("unsupported archive format: %s", base)
	}
	stem := base[:len(base)-len(suffix)]
	if stem == "" {
		return "", fmt.Errorf("archive name has no stem: %s", base)
	}
	return filepath.Join(installDir, stem), nil
}

// Extract unpacks archive into dest. Members are written to a staging
// directory next to dest which is renamed into place once complete, so dest
// never holds a partial extraction. If the archive holds a single top-level
// directory, its contents become dest. An existing dest is replaced.
func Extract(archive, dest string, opts ExtractOptions) (err error) {
	format, ok := lookupFormat(archive)
	if !ok {
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archive))
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	parent := filepath.Dir(dest)
	if err = os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}
	staging := filepath.Join(parent, ".craftr-unpack-"+uuid.NewString())
	if err = os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil && err == nil {
			err = rmErr
		}
	}()

	x := newExtractor(staging, opts.Exclude)
	reporter.Begin("Unpacking "+filepath.Base(archive), true)
	reporter.Update(0, "Reading index...")
	walkErr := format.open(archive, func(m member, index, total int) error {
		if index == 0 && total > 0 {
			reporter.End()
			reporter.Begin("Unpacking "+filepath.Base(archive), false)
		}
		if total > 0 {
			reporter.Update(float64(index)/float64(total), fmt.Sprintf("%d / %d", index, total))
		} else {
			reporter.Update(0, m.name)
		}
		return x.extract(m)
	})
	reporter.End()
	if walkErr != nil {
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(archive), walkErr)
	}

	root, err := singleTopLevelDir(staging)
	if err != nil {
		return err
	}
	if err = os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	if err = os.Rename(root, dest); err != nil {
		return fmt.Errorf("failed to move extracted files to %s: %w", dest, err)
	}
	return nil
}

func lookupFormat(archive string) (archiveFormat, bool) {
	suffix := strings.ToLower(ArchiveSuffix(filepath.Base(archive)))
	for _, f := range archiveFormats {
		if f.suffix == suffix {
			return f, true
		}
	}
	return archiveFormat{}, false
}

// singleTopLevelDir returns the only directory inside staging if it has
// exactly one entry which is a directory, otherwise staging itself.
func singleTopLevelDir(staging string) (string, error) {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(staging, entries[0].Name()), nil
	}
	return staging, nil
}

// isExcluded reports whether an archive member (slash-separated, cleaned)
// matches any exclude pattern, directly or through a parent directory.
func isExcluded(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for candidate := name; candidate != "." && candidate != "/" && candidate != ""; candidate = path.Dir(candidate) {
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, candidate); ok {
				return true
			}
			if !strings.Contains(pattern, "/") {
				if ok, _ := doublestar.Match(pattern, path.Base(candidate)); ok {
					return true
				}
			}
		}
	}
	return false
}

// extractor writes archive members below root. It remembers the symlinks
// it created so that no later member is written through one of them.
type extractor struct {
	root    string
	exclude []string
	links   map[string]bool
}

func newExtractor(root string, exclude []string) *extractor {
	return &extractor{root: root, exclude: exclude, links: make(map[string]bool)}
}

// throughLink reports whether the slash-separated path name, taken relative
// to root, has an extracted symlink as a proper prefix or is one itself.
func (x *extractor) throughLink(name string) bool {
	for p := name; p != "." && p != ""; p = path.Dir(p) {
		if x.links[p] {
			return true
		}
	}
	return false
}

// resolveLink returns the root-relative target of a symlink at name, or
// false if it leaves root or follows another extracted symlink on the way.
func (x *extractor) resolveLink(name, linkname string) (string, bool) {
	if linkname == "" || path.IsAbs(linkname) || filepath.IsAbs(linkname) || filepath.VolumeName(linkname) != "" {
		return "", false
	}
	cur := path.Dir(name)
	parts := strings.Split(linkname, "/")
	for i, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if cur == "." {
				return "", false
			}
			cur = path.Dir(cur)
		default:
			cur = path.Join(cur, part)
		}
		if i < len(parts)-1 && x.links[cur] {
			return "", false
		}
	}
	return cur, true
}

// parentInside resolves the existing parent directory of target and checks
// that it still lies within root.
func (x *extractor) parentInside(target string) bool {
	rootReal, err := filepath.EvalSymlinks(x.root)
	if err != nil {
		return false
	}
	dirReal, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootReal, dirReal)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (x *extractor) extract(m member) (err error) {
	name := path.Clean(strings.TrimPrefix(strings.ReplaceAll(m.name, "\\", "/"), "./"))
	if name == "." || name == "" {
		return nil
	}
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return fmt.Errorf("%w: %s", ErrUnsafePath, m.name)
	}
	if isExcluded(name, x.exclude) {
		return nil
	}
	if x.throughLink(name) {
		return fmt.Errorf("%w: %s passes through a symlink", ErrUnsafePath, m.name)
	}

	target := filepath.Join(x.root, filepath.FromSlash(name))
	if rel, relErr := filepath.Rel(x.root, target); relErr != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%w: %s", ErrUnsafePath, m.name)
	}

	if m.isDir {
		return os.MkdirAll(target, dirMode(m.mode))
	}
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if !x.parentInside(target) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, m.name)
	}

	if m.linkname != "" {
		if _, ok := x.resolveLink(name, m.linkname); !ok {
			return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, m.name, m.linkname)
		}
		if err = os.Symlink(m.linkname, target); err != nil {
			return err
		}
		x.links[name] = true
		return nil
	}

	src, err := m.open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(m.mode))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, src)
	return err
}

func dirMode(m os.FileMode) os.FileMode {
	if perm := m.Perm(); perm != 0 {
		return perm | 0o700
	}
	return 0o755
}

func fileMode(m os.FileMode) os.FileMode {
	if perm := m.Perm(); perm != 0 {
		return perm | 0o600
	}
	return 0o644
}

func walkZip(archive string, visit visitFunc) (err error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := r.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	total := len(r.File)
	for i, f := range r.File {
		m := member{
			name:  f.Name,
			mode:  f.Mode(),
			isDir: f.FileInfo().IsDir(),
			open:  f.Open,
		}
		if f.Mode()&os.ModeSymlink != 0 {
			target, readErr := readZipLink(f)
			if readErr != nil {
				return readErr
			}
			m.linkname = target
		}
		if err = visit(m, i, total); err != nil {
			return err
		}
	}
	return nil
}

func readZipLink(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }() // Read-only.
	data, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func walkTarPlain(archive string, visit visitFunc) error {
	return walkTarWith(archive, visit, func(r io.Reader) (io.Reader, func(), error) {
		return r, func() {}, nil
	})
}

func walkTarGzip(archive string, visit visitFunc) error {
	return walkTarWith(archive, visit, func(r io.Reader) (io.Reader, func(), error) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	})
}

func walkTarBzip2(archive string, visit visitFunc) error {
	return walkTarWith(archive, visit, func(r io.Reader) (io.Reader, func(), error) {
		return bzip2.NewReader(r), func() {}, nil
	})
}

func walkTarZstd(archive string, visit visitFunc) error {
	return walkTarWith(archive, visit, func(r io.Reader) (io.Reader, func(), error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	})
}

func walkTarWith(archive string, visit visitFunc, decompress func(io.Reader) (io.Reader, func(), error)) (err error) {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	r, release, err := decompress(f)
	if err != nil {
		return err
	}
	defer release()

	tr := tar.NewReader(r)
	for index := 0; ; index++ {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}
		if nextErr != nil {
			return nextErr
		}

		m := member{name: hdr.Name, mode: hdr.FileInfo().Mode()}
		switch hdr.Typeflag {
		case tar.TypeDir:
			m.isDir = true
		case tar.TypeReg:
			m.open = func() (io.ReadCloser, error) { return io.NopCloser(tr), nil }
		case tar.TypeSymlink:
			m.linkname = hdr.Linkname
		default:
			// Hard links, devices and FIFOs are not materialized.
			continue
		}
		if err = visit(m, index, -1); err != nil {
			return err
		}
	}
}
