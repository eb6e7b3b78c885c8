// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// ArchiveEntry is one member of a fixture archive. A name ending in "/" is
// a directory; a non-empty Link makes a symlink.
type ArchiveEntry struct {
	Name string
	Body string
	Link string
}

// WriteArchive creates an archive at path holding entries, in order. The
// format follows the suffix: .zip, .tar, .tar.gz/.tgz or .tar.zst/.tzst.
// The test fails immediately on error or an unknown suffix.
func WriteArchive(t testing.TB, path string, entries []ArchiveEntry) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive %s: %v", path, err)
	}
	defer MustClose(t, f)

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		writeZip(t, f, entries)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		zw := gzip.NewWriter(f)
		writeTar(t, zw, entries)
		MustClose(t, zw)
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		zw, zErr := zstd.NewWriter(f)
		if zErr != nil {
			t.Fatalf("failed to create zstd writer: %v", zErr)
		}
		writeTar(t, zw, entries)
		MustClose(t, zw)
	case strings.HasSuffix(lower, ".tar"):
		writeTar(t, f, entries)
	default:
		t.Fatalf("unsupported fixture archive format: %s", path)
	}
}

func writeTar(t testing.TB, w io.Writer, entries []ArchiveEntry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0o644, Size: int64(len(e.Body)), Typeflag: tar.TypeReg}
		switch {
		case strings.HasSuffix(e.Name, "/"):
			hdr.Typeflag, hdr.Mode, hdr.Size = tar.TypeDir, 0o755, 0
		case e.Link != "":
			hdr.Typeflag, hdr.Linkname, hdr.Size = tar.TypeSymlink, e.Link, 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, e.Body); err != nil {
				t.Fatalf("failed to write tar member %s: %v", e.Name, err)
			}
		}
	}
	MustClose(t, tw)
}

func writeZip(t testing.TB, w io.Writer, entries []ArchiveEntry) {
	t.Helper()
	zw := zip.NewWriter(w)
	for _, e := range entries {
		fw, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("failed to add zip member %s: %v", e.Name, err)
		}
		if strings.HasSuffix(e.Name, "/") {
			continue
		}
		if _, err := io.WriteString(fw, e.Body); err != nil {
			t.Fatalf("failed to write zip member %s: %v", e.Name, err)
		}
	}
	MustClose(t, zw)
}
