// SPDX-License-Identifier: MPL-2.0

package options

import (
	"errors"
	"fmt"
)

var (
	// ErrCoercion is the sentinel wrapped by CoercionError.
	ErrCoercion = errors.New("option coercion failed")
	// ErrUnknownType is returned when an option type name is not registered.
	ErrUnknownType = errors.New("unknown option type")
	// ErrInvalidParam is returned when an option's constructor arguments are rejected.
	ErrInvalidParam = errors.New("invalid option parameter")
)

type (
	// CoercionError records a raw value that could not be converted by an
	// option. It is collected by Resolve rather than aborting resolution.
	CoercionError struct {
		// Option is the declared option key.
		Option string
		// Type is the option type name ("bool", "triplet", ...).
		Type string
		// Raw is the offending raw value.
		Raw any
		// Reason is an optional detail message.
		Reason string
	}

	// UnknownTypeError is returned by Registry.New for unregistered type names.
	UnknownTypeError struct {
		Type string
	}

	// ParamError is returned when an option constructor argument is unknown
	// or ill-typed.
	ParamError struct {
		Option string
		Param  string
		Reason string
	}
)

// Error implements the error interface.
func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("invalid value for %s option %q: %#v", e.Type, e.Option, e.Raw)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// Unwrap returns ErrCoercion so callers can use errors.Is.
func (e *CoercionError) Unwrap() error { return ErrCoercion }

// Error implements the error interface.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("invalid option type: %q", e.Type)
}

// Unwrap returns ErrUnknownType so callers can use errors.Is.
func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// Error implements the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("option %q: parameter %q: %s", e.Option, e.Param, e.Reason)
}

// Unwrap returns ErrInvalidParam so callers can use errors.Is.
func (e *ParamError) Unwrap() error { return ErrInvalidParam }
