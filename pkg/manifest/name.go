// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"regexp"
)

var packageNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidatePackageName checks that name starts with a letter or digit and
// otherwise holds only letters, digits, periods, hyphens and underscores.
func ValidatePackageName(name string) error {
	if !packageNamePattern.MatchString(name) {
		return fmt.Errorf("invalid package name: %q", name)
	}
	return nil
}
