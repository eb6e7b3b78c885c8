// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/craftr/craftr/pkg/semver"
)

// ScriptFile is the build script created by Create.
const ScriptFile = DefaultMain

// Scaffold returns the manifest.json content of a new, empty package.
func Scaffold(name string, version semver.Version) ([]byte, error) {
	if err := ValidatePackageName(name); err != nil {
		return nil, err
	}
	doc := object{
		{"name", name},
		{"version", version.String()},
		{"author", ""},
		{"url", ""},
		{"dependencies", object{}},
		{"options", object{}},
		{"loaders", []any{}},
	}
	return encodeIndented(doc)
}

// Create writes a new package into dir, creating the directory if needed.
// It fails with ErrExists rather than overwrite a manifest or build script.
// The manifest path is returned.
func Create(dir, name string, version semver.Version) (string, error) {
	content, err := Scaffold(name, version)
	if err != nil {
		return "", err
	}

	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	manifestPath := filepath.Join(dir, FileName)
	scriptPath := filepath.Join(dir, ScriptFile)
	for _, p := range []string{manifestPath, scriptPath} {
		if _, statErr := os.Stat(p); statErr == nil {
			return "", fmt.Errorf("%w: %s", ErrExists, p)
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return "", fmt.Errorf("failed to check %s: %w", p, statErr)
		}
	}

	if err := os.WriteFile(manifestPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", manifestPath, err)
	}
	if err := os.WriteFile(scriptPath, []byte("# "+name+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", scriptPath, err)
	}
	return manifestPath, nil
}
