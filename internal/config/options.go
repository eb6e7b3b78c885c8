// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/craftr/craftr/pkg/options"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidOverride is returned for a malformed -d argument.
var ErrInvalidOverride = errors.New("invalid option override")

// OptionSources lists where option values come from, lowest precedence
// first: the user option file, the per-build option file, then
// command-line overrides.
type OptionSources struct {
	// UserFile is the user-wide option file. Missing files are skipped.
	UserFile string
	// BuildFile is the per-build option file. Missing files are skipped.
	BuildFile string
	// Overrides are "key=value", "key" or "key=" arguments applied in order.
	Overrides []string
}

// BuildProvider merges every source into a single provider.
func (s OptionSources) BuildProvider() (options.MapProvider, error) {
	provider := options.MapProvider{}
	for _, path := range []string{s.UserFile, s.BuildFile} {
		if path == "" {
			continue
		}
		values, err := ReadOptionFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			provider[k] = v
		}
	}
	for _, arg := range s.Overrides {
		if err := ApplyOverride(provider, arg); err != nil {
			return nil, err
		}
	}
	return provider, nil
}

// ReadOptionFile decodes a TOML option file into dotted keys. Tables
// qualify their keys, so
//
//	[zlib]
//	VERSION = "1.2.11"
//
// yields "zlib.VERSION". Key case is preserved and top-level keys stay bare.
func ReadOptionFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read option file: %w", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, tomlError(path, err)
	}

	values := make(map[string]any, len(doc))
	flatten(values, "", doc)
	return values, nil
}

// ApplyOverride applies one command-line override to p: "key=value" sets
// the string value, a bare "key" sets "true" and "key=" removes the key.
func ApplyOverride(p options.MapProvider, arg string) error {
	key, value, hasValue := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: %q has no key", ErrInvalidOverride, arg)
	}
	switch {
	case !hasValue:
		p[key] = "true"
	case value == "":
		delete(p, key)
	default:
		p[key] = value
	}
	return nil
}

func flatten(dst map[string]any, prefix string, table map[string]any) {
	for k, v := range table {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(dst, key, sub)
			continue
		}
		dst[key] = v
	}
}
