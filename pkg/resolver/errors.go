// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/craftr/craftr/pkg/semver"
)

var (
	// ErrNotFound is the sentinel wrapped by NotFoundError.
	ErrNotFound = errors.New("module not found")
	// ErrConflict is the sentinel wrapped by ConflictError.
	ErrConflict = errors.New("conflicting version requirements")
	// ErrCycle is the sentinel wrapped by CycleError.
	ErrCycle = errors.New("dependency cycle")
	// ErrDuplicate is returned by Index.Add for an already indexed name and version.
	ErrDuplicate = errors.New("duplicate module")
	// ErrInvalidSpec is returned by ParseModuleSpec for malformed input.
	ErrInvalidSpec = errors.New("invalid module spec")
)

type (
	// Requirement is one package's demand on another.
	Requirement struct {
		// By is the requiring module as "name@version".
		By       string
		Criteria semver.Criteria
	}

	// NotFoundError reports that no known version of Name satisfies Criteria.
	NotFoundError struct {
		Name     string
		Criteria semver.Criteria
		// RequiredBy lists the requiring modules, empty for direct lookups.
		RequiredBy []string
		// Available lists the indexed versions of Name, ascending.
		Available []semver.Version
	}

	// ConflictError reports that versions of Name exist for each requirement
	// but none satisfies all of them at once.
	ConflictError struct {
		Name         string
		Requirements []Requirement
	}

	// CycleError reports modules that depend on each other. Cycle repeats its
	// first element at the end.
	CycleError struct {
		Cycle []string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no version of %q satisfies %q", e.Name, e.Criteria.String())
	if len(e.RequiredBy) > 0 {
		fmt.Fprintf(&sb, " (required by %s)", strings.Join(e.RequiredBy, ", "))
	}
	if len(e.Available) == 0 {
		sb.WriteString("; no versions are known")
	} else {
		versions := make([]string, len(e.Available))
		for i, v := range e.Available {
			versions[i] = v.String()
		}
		fmt.Fprintf(&sb, "; available: %s", strings.Join(versions, ", "))
	}
	return sb.String()
}

// Unwrap returns ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface.
func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Requirements))
	for i, r := range e.Requirements {
		parts[i] = fmt.Sprintf("%s requires %q", r.By, r.Criteria.String())
	}
	return fmt.Sprintf("no version of %q satisfies all requirements: %s", e.Name, strings.Join(parts, "; "))
}

// Unwrap returns ErrConflict.
func (e *ConflictError) Unwrap() error { return ErrConflict }

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error { return ErrCycle }
