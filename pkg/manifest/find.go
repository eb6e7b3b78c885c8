// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// searchLocations are tried in order by FindManifest.
var searchLocations = []string{
	FileName,
	filepath.Join("craftr", FileName),
}

// FindManifest returns the manifest of the package rooted at dir: either
// dir/manifest.json or dir/craftr/manifest.json.
func FindManifest(dir string) (string, error) {
	for _, rel := range searchLocations {
		candidate := filepath.Join(dir, rel)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("%w in %s", ErrManifestNotFound, dir)
}
