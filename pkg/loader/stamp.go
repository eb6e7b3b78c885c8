// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"os"
	"path/filepath"
	"strings"
)

// StampFile is written into every acquired directory and holds the URL the
// directory was populated from.
const StampFile = ".craftr_downloadurl"

// ReadStamp returns the URL recorded in dir, if any.
func ReadStamp(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, StampFile))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// WriteStamp records url in dir.
func WriteStamp(dir, url string) error {
	return os.WriteFile(filepath.Join(dir, StampFile), []byte(url+"\n"), 0o644)
}
