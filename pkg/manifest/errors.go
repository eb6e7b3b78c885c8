// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidManifest is the sentinel wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrManifestNotFound is returned by FindManifest when a directory holds
	// no manifest.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrExists is returned by Create when it would overwrite a file.
	ErrExists = errors.New("file already exists")
)

// InvalidManifestError describes why a manifest was rejected.
type InvalidManifestError struct {
	// Path is the manifest file, empty when parsed from memory.
	Path string
	// Field is the offending field (e.g. "name", "dependencies.zlib",
	// "loaders[1].type"), empty for document-level problems.
	Field string
	// Value is the offending value, if any.
	Value string
	// Reason describes the problem.
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *InvalidManifestError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid manifest")
	if e.Path != "" {
		fmt.Fprintf(&sb, " %s", e.Path)
	}
	if e.Field != "" {
		fmt.Fprintf(&sb, ": %s", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&sb, ": %q", e.Value)
	}
	if e.Reason != "" {
		fmt.Fprintf(&sb, ": %s", e.Reason)
	}
	return sb.String()
}

// Unwrap returns ErrInvalidManifest and the underlying cause.
func (e *InvalidManifestError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidManifest, e.Err}
	}
	return []error{ErrInvalidManifest}
}
