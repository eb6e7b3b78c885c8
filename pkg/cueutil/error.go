// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// ValidationError is a decode or schema failure located in an input file.
type ValidationError struct {
	// FilePath is the file being validated.
	FilePath string

	// Path is the JSON path of the first invalid value (e.g. "loaders[0].name").
	Path string

	// Message describes the failure. With several CUE errors it lists one
	// "path: message" line per error.
	Message string

	cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" && !strings.Contains(e.Message, "\n") {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the error FormatError was given.
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// FormatError converts err into a *ValidationError with JSON-path prefixes.
// It returns nil for a nil err.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var ce errors.Error
	if !errors.As(err, &ce) {
		return &ValidationError{FilePath: filePath, Message: err.Error(), cause: err}
	}

	ve := &ValidationError{FilePath: filePath, cause: err}
	cueErrors := errors.Errors(err)
	var lines []string
	for _, e := range cueErrors {
		pathStr := formatPath(errors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path at the start of the message.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}

		if ve.Path == "" {
			ve.Path = pathStr
		}
		if pathStr != "" {
			lines = append(lines, pathStr+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		ve.Message = strings.TrimPrefix(lines[0], ve.Path+": ")
		return ve
	}
	ve.Message = "validation failed:\n  " + strings.Join(lines, "\n  ")
	return ve
}

// formatPath converts a CUE error path (["loaders", "0", "name"]) to
// JSON-path notation ("loaders[0].name").
func formatPath(path []string) string {
	var result strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			result.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			result.WriteString(".")
		}
		result.WriteString(part)
	}
	return result.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error when data exceeds maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
