// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/craftr/craftr/pkg/cueutil"
	"github.com/craftr/craftr/pkg/loader"
	"github.com/craftr/craftr/pkg/options"
	"github.com/craftr/craftr/pkg/semver"
)

const (
	// FileName is the manifest file name inside a package directory.
	FileName = "manifest.json"

	// DefaultMain is the build script used when a manifest names none.
	DefaultMain = "Craftrfile"
)

//go:embed manifest_schema.cue
var manifestSchema []byte

type (
	// Manifest is a validated package descriptor. It is immutable after
	// parsing; loaders keep their own acquisition state.
	Manifest struct {
		Name       string
		Version    semver.Version
		Main       string
		ProjectDir string
		Author     string
		URL        string

		// Dependencies maps package names to the versions this package accepts.
		Dependencies map[string]semver.Criteria

		// Options in declaration order.
		Options []options.Descriptor

		// Loaders in fallback order.
		Loaders []loader.Loader

		// Path is the file the manifest was read from, empty if parsed from
		// memory.
		Path string
	}

	// ParseOption configures Parse.
	ParseOption func(*parseConfig)

	parseConfig struct {
		options *options.Registry
		loaders *loader.Registry
	}

	// rawManifest is the schema-validated document before type resolution.
	rawManifest struct {
		Name         string            `json:"name"`
		Version      string            `json:"version"`
		Main         string            `json:"main"`
		ProjectDir   string            `json:"project_dir"`
		Author       string            `json:"author"`
		URL          string            `json:"url"`
		Dependencies map[string]string `json:"dependencies"`
		Options      map[string]any    `json:"options"`
		Loaders      []map[string]any  `json:"loaders"`
	}
)

// WithOptionRegistry resolves option types through r instead of
// options.DefaultRegistry().
func WithOptionRegistry(r *options.Registry) ParseOption {
	return func(c *parseConfig) { c.options = r }
}

// WithLoaderRegistry resolves loader types through r instead of
// loader.DefaultRegistry().
func WithLoaderRegistry(r *loader.Registry) ParseOption {
	return func(c *parseConfig) { c.loaders = r }
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string, opts ...ParseOption) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest at %s: %w", path, err)
	}
	return ParseBytes(data, path, opts...)
}

// Parse reads a manifest from r.
func Parse(r io.Reader, opts ...ParseOption) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InvalidManifestError{Reason: "cannot read input", Err: err}
	}
	return ParseBytes(data, "", opts...)
}

// ParseBytes parses manifest content. path is recorded in the result and
// used in error messages; it may be empty.
func ParseBytes(data []byte, path string, opts ...ParseOption) (*Manifest, error) {
	cfg := parseConfig{options: options.DefaultRegistry(), loaders: loader.DefaultRegistry()}
	for _, opt := range opts {
		opt(&cfg)
	}

	filename := path
	if filename == "" {
		filename = FileName
	}
	result, err := cueutil.ParseAndDecode[rawManifest](manifestSchema, data, "#Manifest",
		cueutil.WithJSON(), cueutil.WithFilename(filename))
	if err != nil {
		return nil, documentError(path, err)
	}
	raw := result.Value

	if err := ValidatePackageName(raw.Name); err != nil {
		return nil, &InvalidManifestError{
			Path:   path,
			Field:  "name",
			Value:  raw.Name,
			Reason: "must start with a letter or digit and contain only letters, digits, '.', '-' and '_'",
		}
	}

	deps := make(map[string]semver.Criteria, len(raw.Dependencies))
	for _, pkg := range slices.Sorted(maps.Keys(raw.Dependencies)) {
		text := raw.Dependencies[pkg]
		c, err := semver.ParseCriteria(text)
		if err != nil {
			return nil, &InvalidManifestError{
				Path:   path,
				Field:  "dependencies." + pkg,
				Value:  text,
				Reason: "invalid version criteria",
				Err:    err,
			}
		}
		deps[pkg] = c
	}

	order, err := cueutil.FieldOrder(result.Unified, "options")
	if err != nil {
		return nil, &InvalidManifestError{Path: path, Field: "options", Reason: "cannot read declaration order", Err: err}
	}
	decls, err := buildOptions(raw.Options, order, cfg.options, path)
	if err != nil {
		return nil, err
	}

	loaders, err := buildLoaders(raw.Loaders, cfg.loaders, path)
	if err != nil {
		return nil, err
	}

	version, err := semver.ParseVersion(raw.Version)
	if err != nil {
		return nil, &InvalidManifestError{Path: path, Field: "version", Value: raw.Version, Reason: "not a semantic version", Err: err}
	}

	return &Manifest{
		Name:         raw.Name,
		Version:      version,
		Main:         raw.Main,
		ProjectDir:   raw.ProjectDir,
		Author:       raw.Author,
		URL:          raw.URL,
		Dependencies: deps,
		Options:      decls,
		Loaders:      loaders,
		Path:         path,
	}, nil
}

func buildOptions(decls map[string]any, order []string, reg *options.Registry, path string) ([]options.Descriptor, error) {
	out := make([]options.Descriptor, 0, len(decls))
	for _, key := range order {
		field := "options." + key
		var (
			typeName string
			params   map[string]any
		)
		switch decl := decls[key].(type) {
		case string:
			typeName = decl
		case map[string]any:
			typeName, _ = decl["type"].(string)
			params = without(decl, "type")
		default:
			return nil, &InvalidManifestError{Path: path, Field: field, Reason: fmt.Sprintf("expected type name or object, got %T", decl)}
		}

		d, err := reg.New(typeName, key, params)
		if err != nil {
			return nil, &InvalidManifestError{Path: path, Field: field, Value: typeName, Reason: err.Error(), Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}

func buildLoaders(decls []map[string]any, reg *loader.Registry, path string) ([]loader.Loader, error) {
	out := make([]loader.Loader, 0, len(decls))
	taken := make(map[string]bool, len(decls))
	for i, decl := range decls {
		name, _ := decl["name"].(string)
		typeName, _ := decl["type"].(string)
		if taken[name] {
			return nil, &InvalidManifestError{Path: path, Field: fmt.Sprintf("loaders[%d].name", i), Value: name, Reason: "duplicate loader name"}
		}
		taken[name] = true

		l, err := reg.New(typeName, name, without(decl, "name", "type"))
		if err != nil {
			return nil, &InvalidManifestError{Path: path, Field: fmt.Sprintf("loaders[%d]", i), Value: typeName, Reason: err.Error(), Err: err}
		}
		out = append(out, l)
	}
	return out, nil
}

// documentError converts a decode or schema failure.
func documentError(path string, err error) error {
	var ve *cueutil.ValidationError
	if errors.As(err, &ve) {
		return &InvalidManifestError{Path: path, Field: ve.Path, Reason: ve.Message, Err: err}
	}
	return &InvalidManifestError{Path: path, Reason: err.Error(), Err: err}
}

func without(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !slices.Contains(keys, k) {
			out[k] = v
		}
	}
	return out
}

// ID returns "name@version".
func (m *Manifest) ID() string {
	return m.Name + "@" + m.Version.String()
}

// String implements fmt.Stringer.
func (m *Manifest) String() string { return m.ID() }

// Dir returns the directory holding the manifest file, empty if unknown.
func (m *Manifest) Dir() string {
	if m.Path == "" {
		return ""
	}
	return filepath.Dir(m.Path)
}

// ProjectPath returns the project directory of the package.
func (m *Manifest) ProjectPath() string {
	return filepath.Join(m.Dir(), filepath.FromSlash(m.ProjectDir))
}

// MainPath returns the path of the package's build script.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.Dir(), filepath.FromSlash(m.Main))
}

// DependencyNames returns the names of the required packages, sorted.
func (m *Manifest) DependencyNames() []string {
	return slices.Sorted(maps.Keys(m.Dependencies))
}

// Option returns the declared option key.
func (m *Manifest) Option(key string) (options.Descriptor, bool) {
	for _, d := range m.Options {
		if d.Name() == key {
			return d, true
		}
	}
	return nil, false
}

// Loader returns the declared loader name.
func (m *Manifest) Loader(name string) (loader.Loader, bool) {
	for _, l := range m.Loaders {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}

// OptionsNamespace resolves the declared options against provider, using
// the package name as qualifier.
func (m *Manifest) OptionsNamespace(provider options.Provider) (options.Namespace, []*options.CoercionError) {
	return options.Resolve(m.Options, provider, m.Name)
}
