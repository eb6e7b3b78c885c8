// SPDX-License-Identifier: MPL-2.0

package prepare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/craftr/craftr/pkg/loader"
	"github.com/craftr/craftr/pkg/options"
)

var (
	// ErrInvalidOptions is the sentinel wrapped by InvalidOptionsError.
	ErrInvalidOptions = errors.New("invalid option values")
	// ErrLoaderInit is the sentinel wrapped by LoaderInitError.
	ErrLoaderInit = errors.New("loader initialization failed")
	// ErrInvalidRequest is returned when a Request lacks required fields.
	ErrInvalidRequest = errors.New("invalid prepare request")
)

type (
	// ModuleOptionErrors lists the coercion failures of one module.
	ModuleOptionErrors struct {
		Module string
		Errors []*options.CoercionError
	}

	// InvalidOptionsError reports option values that could not be coerced,
	// grouped by module in dependency order.
	InvalidOptionsError struct {
		Modules []ModuleOptionErrors
	}

	// LoaderInitError reports modules none of whose loaders succeeded.
	LoaderInitError struct {
		Failures []*loader.PipelineError
	}
)

// Error implements the error interface.
func (e *InvalidOptionsError) Error() string {
	var sb strings.Builder
	n := 0
	for _, m := range e.Modules {
		n += len(m.Errors)
	}
	fmt.Fprintf(&sb, "%d invalid option value(s)", n)
	for _, m := range e.Modules {
		for _, ce := range m.Errors {
			fmt.Fprintf(&sb, "\n  %s: %s", m.Module, ce.Error())
		}
	}
	return sb.String()
}

// Unwrap returns ErrInvalidOptions for errors.Is() compatibility.
func (e *InvalidOptionsError) Unwrap() error { return ErrInvalidOptions }

// Error implements the error interface.
func (e *LoaderInitError) Error() string {
	modules := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		modules[i] = f.Module
	}
	msg := "loaders failed for " + strings.Join(modules, ", ")
	for _, f := range e.Failures {
		msg += "\n  " + f.Error()
	}
	return msg
}

// Unwrap returns ErrLoaderInit and every pipeline failure.
func (e *LoaderInitError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrLoaderInit)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
