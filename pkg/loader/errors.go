// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoader is the sentinel wrapped by LoaderError.
	ErrLoader = errors.New("loader failed")
	// ErrUnknownType is returned when a loader type name is not registered.
	ErrUnknownType = errors.New("unknown loader type")
	// ErrInvalidParam is returned when loader constructor arguments are rejected.
	ErrInvalidParam = errors.New("invalid loader parameter")
	// ErrInvalidRegistration is returned by Registry.Register for rejected names.
	ErrInvalidRegistration = errors.New("invalid loader type registration")
)

type (
	// LoaderError is an unrecoverable failure of a single loader. Run moves
	// on to the next declared loader.
	//
	//nolint:revive // LoaderError reads better at call sites than loader.Error.
	LoaderError struct {
		// Loader is the failing loader's declared name.
		Loader string
		// Message describes the failure.
		Message string
		// Err is the underlying cause, if any.
		Err error
	}

	// PipelineError reports that every loader of a module failed.
	PipelineError struct {
		Module string
		Errors []*LoaderError
	}

	// UnknownTypeError is returned by Registry.New for unregistered type names.
	UnknownTypeError struct {
		Type string
	}

	// ParamError is returned when a loader constructor argument is missing,
	// unknown or ill-typed.
	ParamError struct {
		Loader string
		Param  string
		Reason string
	}
)

// Error implements the error interface.
func (e *LoaderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Loader, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Loader, e.Message)
}

// Unwrap returns ErrLoader and the underlying cause.
func (e *LoaderError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrLoader, e.Err}
	}
	return []error{ErrLoader}
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("module %s: no loader succeeded", e.Module)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, le := range e.Errors {
		parts = append(parts, le.Error())
	}
	return fmt.Sprintf("module %s: all loaders failed: %s", e.Module, strings.Join(parts, "; "))
}

// Unwrap exposes the individual loader errors.
func (e *PipelineError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, le := range e.Errors {
		errs = append(errs, le)
	}
	return errs
}

// Error implements the error interface.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("invalid loader type: %q", e.Type)
}

// Unwrap returns ErrUnknownType so callers can use errors.Is.
func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// Error implements the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("loader %q: parameter %q: %s", e.Loader, e.Param, e.Reason)
}

// Unwrap returns ErrInvalidParam so callers can use errors.Is.
func (e *ParamError) Unwrap() error { return ErrInvalidParam }
