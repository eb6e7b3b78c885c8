// SPDX-License-Identifier: MPL-2.0

package options

import (
	"errors"
	"slices"
	"testing"
)

func TestRegistry_NewBuiltins(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, typeName := range []string{TypeBool, TypeTriplet, TypeString} {
		d, err := r.New(typeName, "opt", nil)
		if err != nil {
			t.Fatalf("New(%q) error: %v", typeName, err)
		}
		if d.Type() != typeName || d.Name() != "opt" {
			t.Errorf("New(%q) = {type %q, name %q}", typeName, d.Type(), d.Name())
		}
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	for _, typeName := range []string{"int", "", "acme.Choice", "Bool"} {
		_, err := r.New(typeName, "opt", nil)
		if !errors.Is(err, ErrUnknownType) {
			t.Errorf("New(%q) error = %v, want ErrUnknownType", typeName, err)
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	factory := func(name string, params map[string]any) (Descriptor, error) {
		return NewStringOption(name, params)
	}

	if err := r.Register("acme.path", factory); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := r.Register("acme.path", factory); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("duplicate Register() error = %v", err)
	}
	if err := r.Register("path", factory); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("unqualified Register() error = %v", err)
	}
	if err := r.Register("acme.nil", nil); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("nil factory Register() error = %v", err)
	}

	d, err := r.New("acme.path", "SOURCE_DIR", map[string]any{"default": "/src"})
	if err != nil {
		t.Fatalf("New(acme.path) error: %v", err)
	}
	if d.Default().String() != "/src" {
		t.Errorf("Default() = %q", d.Default().String())
	}

	if !slices.Contains(r.Types(), "acme.path") {
		t.Errorf("Types() = %v, want acme.path listed", r.Types())
	}
	// An unqualified alias never resolves to an extension.
	if _, err := NewRegistry().New("acme.path", "x", nil); !errors.Is(err, ErrUnknownType) {
		t.Errorf("fresh registry should not see extensions, got %v", err)
	}
}
