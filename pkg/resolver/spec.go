// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"fmt"
	"strings"

	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/semver"
)

// ModuleSpec names a module and the versions acceptable for it.
type ModuleSpec struct {
	Name     string
	Criteria semver.Criteria
}

// ParseModuleSpec parses "name" or "name:criteria". A missing criteria
// accepts any version.
func ParseModuleSpec(s string) (ModuleSpec, error) {
	name, criteria, hasCriteria := strings.Cut(strings.TrimSpace(s), ":")
	if err := manifest.ValidatePackageName(name); err != nil {
		return ModuleSpec{}, fmt.Errorf("%w %q: %w", ErrInvalidSpec, s, err)
	}

	spec := ModuleSpec{Name: name, Criteria: semver.Any()}
	if hasCriteria {
		c, err := semver.ParseCriteria(criteria)
		if err != nil {
			return ModuleSpec{}, fmt.Errorf("%w %q: %w", ErrInvalidSpec, s, err)
		}
		spec.Criteria = c
	}
	return spec, nil
}

// String renders the spec in the form ParseModuleSpec accepts.
func (s ModuleSpec) String() string {
	if s.Criteria.IsAny() {
		return s.Name
	}
	return s.Name + ":" + s.Criteria.String()
}
