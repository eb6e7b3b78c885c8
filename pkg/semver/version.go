// SPDX-License-Identifier: MPL-2.0

package semver

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

// ErrFormat is the sentinel error wrapped by FormatError.
var ErrFormat = errors.New("malformed version")

// versionRegex is the official SemVer 2.0 grammar.
var versionRegex = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

type (
	// Version is a parsed semantic version. The zero value is "0.0.0".
	Version struct {
		Major      uint64
		Minor      uint64
		Patch      uint64
		Prerelease string
		Build      string
	}

	// FormatError is returned when a version or criteria string is malformed.
	FormatError struct {
		// What names the kind of value that failed to parse ("version" or "criteria").
		What string
		// Input is the offending text.
		Input string
		// Reason describes the problem.
		Reason string
	}
)

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.What, e.Input)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.What, e.Input, e.Reason)
}

// Unwrap returns ErrFormat so callers can use errors.Is.
func (e *FormatError) Unwrap() error { return ErrFormat }

// ParseVersion parses a strict semantic version string.
func ParseVersion(text string) (Version, error) {
	m := versionRegex.FindStringSubmatch(text)
	if m == nil {
		return Version{}, &FormatError{What: "version", Input: text, Reason: "expected MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]"}
	}

	var v Version
	var err error
	if v.Major, err = strconv.ParseUint(m[1], 10, 64); err != nil {
		return Version{}, &FormatError{What: "version", Input: text, Reason: "major component out of range"}
	}
	if v.Minor, err = strconv.ParseUint(m[2], 10, 64); err != nil {
		return Version{}, &FormatError{What: "version", Input: text, Reason: "minor component out of range"}
	}
	if v.Patch, err = strconv.ParseUint(m[3], 10, 64); err != nil {
		return Version{}, &FormatError{What: "version", Input: text, Reason: "patch component out of range"}
	}
	v.Prerelease = m[4]
	v.Build = m[5]
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on malformed input.
// Intended for constants and tests.
func MustParseVersion(text string) Version {
	v, err := ParseVersion(text)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical text form of the version.
func (v Version) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		sb.WriteString("-")
		sb.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		sb.WriteString("+")
		sb.WriteString(v.Build)
	}
	return sb.String()
}

// canonical returns the "v"-prefixed form understood by x/mod/semver.
// Build metadata is dropped since it does not take part in precedence.
func (v Version) canonical() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// Compare returns -1, 0 or +1 depending on whether v has lower, equal or
// higher precedence than o. Build metadata is ignored.
func (v Version) Compare(o Version) int {
	return xsemver.Compare(v.canonical(), o.canonical())
}

// Less reports whether v has lower precedence than o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports structural equality, including build metadata.
func (v Version) Equal(o Version) bool { return v == o }

// IsPrerelease reports whether the version carries a pre-release suffix.
func (v Version) IsPrerelease() bool { return v.Prerelease != "" }

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Sort sorts versions in ascending precedence. Versions of equal precedence
// keep their relative order.
func Sort(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
}
