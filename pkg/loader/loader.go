// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"maps"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/craftr/craftr/pkg/options"
)

const (
	// KeyDirectory is the cache key holding the acquired directory.
	KeyDirectory = "directory"
	// KeyURL is the cache key holding the expanded URL that was used.
	KeyURL = "url"
	// KeyURLTemplate is the cache key holding the template the URL came from.
	KeyURLTemplate = "url_template"
)

type (
	// Loader acquires one external resource of a module.
	Loader interface {
		// Name is the loader's declared name, unique within a manifest.
		Name() string
		// Type is the registry type name the loader was built from.
		Type() string
		// Params returns the constructor arguments for re-serialization.
		Params() map[string]any
		// Load acquires the resource. cached is the record returned by the
		// previous successful Load (nil if none). Failures are *LoaderError.
		Load(ctx context.Context, lc *Context, cached CacheRecord) (CacheRecord, error)
	}

	// CacheRecord is the persisted result of a successful Load.
	CacheRecord map[string]string

	// Cache provides the records of a module's previous loads by loader name.
	Cache interface {
		Get(loader string) (CacheRecord, bool)
	}

	// MapCache is a Cache backed by a map.
	MapCache map[string]CacheRecord

	// Context carries everything a loader may consult while loading. It is
	// built per module and must not be shared between concurrent runs.
	Context struct {
		// ModuleName is the manifest name of the module being prepared.
		ModuleName string
		// Dir is the module's project directory. Relative file:// URLs
		// resolve against it.
		Dir string
		// InstallDir receives unpacked archives.
		InstallDir string
		// TempDir receives downloads before they are unpacked.
		TempDir string
		// Options is the module's resolved option snapshot.
		Options options.Namespace
		// Reporter receives progress notifications. Nil means NopReporter.
		Reporter Reporter
		// Logger receives diagnostics. Nil means log.Default().
		Logger *log.Logger
		// Fetchers maps URL schemes to fetchers. Schemes not listed fall
		// back to an HTTPFetcher for "http" and "https".
		Fetchers map[string]Fetcher
	}
)

// Directory returns the acquired directory.
func (r CacheRecord) Directory() string { return r[KeyDirectory] }

// URL returns the expanded URL the directory was acquired from.
func (r CacheRecord) URL() string { return r[KeyURL] }

// URLTemplate returns the template URL was expanded from.
func (r CacheRecord) URLTemplate() string { return r[KeyURLTemplate] }

// Clone returns an independent copy of r.
func (r CacheRecord) Clone() CacheRecord { return maps.Clone(r) }

// Get implements Cache.
func (c MapCache) Get(loader string) (CacheRecord, bool) {
	r, ok := c[loader]
	return r, ok
}

// ExpandVariables substitutes $NAME and ${NAME} references with the
// module's option values; $$ stands for a literal dollar sign. References to
// undeclared options and malformed references are kept verbatim, and null
// options expand to the empty string. Backslashes and quotes are ordinary
// characters.
func (c *Context) ExpandVariables(template string) (string, error) {
	if !strings.Contains(template, "$") {
		return template, nil
	}
	return shell.Expand(c.quoteTemplate(template), func(name string) string {
		s, _ := c.Options.Lookup(name)
		return s
	})
}

// quoteTemplate escapes everything in template that the shell would
// interpret, except references to declared options.
func (c *Context) quoteTemplate(template string) string {
	var b strings.Builder
	for i := 0; i < len(template); {
		switch ch := template[i]; ch {
		case '\\', '`':
			b.WriteByte('\\')
			b.WriteByte(ch)
			i++
		case '$':
			if strings.HasPrefix(template[i:], "$$") {
				b.WriteString(`\$`)
				i += 2
				continue
			}
			name, n := templateRef(template[i:])
			if _, ok := c.Options.Lookup(name); n > 0 && ok {
				b.WriteString(template[i : i+n])
				i += n
				continue
			}
			b.WriteString(`\$`)
			i++
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}

// templateRef parses a $NAME or ${NAME} reference at the start of s and
// returns the name and the reference's length, or zero if there is none.
func templateRef(s string) (string, int) {
	if strings.HasPrefix(s, "${") {
		end := strings.IndexByte(s, '}')
		if end < 0 || !isIdentifier(s[2:end]) {
			return "", 0
		}
		return s[2:end], end + 1
	}
	n := 1
	for n < len(s) && isIdentByte(s[n], n == 1) {
		n++
	}
	if n == 1 {
		return "", 0
	}
	return s[1:n], n
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if !isIdentByte(s[i], i == 0) {
			return false
		}
	}
	return true
}

func isIdentByte(ch byte, first bool) bool {
	switch {
	case ch == '_', 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z':
		return true
	default:
		return !first && '0' <= ch && ch <= '9'
	}
}

func (c *Context) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c *Context) reporter() Reporter {
	if c.Reporter != nil {
		return c.Reporter
	}
	return NopReporter{}
}

func (c *Context) fetcher(scheme string) (Fetcher, bool) {
	if f, ok := c.Fetchers[scheme]; ok && f != nil {
		return f, true
	}
	switch scheme {
	case "http", "https":
		return defaultHTTPFetcher, true
	default:
		return nil, false
	}
}
