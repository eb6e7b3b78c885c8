// SPDX-License-Identifier: MPL-2.0

package options

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrInvalidRegistration is returned by Registry.Register for rejected names.
var ErrInvalidRegistration = errors.New("invalid option type registration")

type (
	// Factory constructs a Descriptor for the option key name from the
	// constructor arguments declared in a manifest (without "type").
	Factory func(name string, params map[string]any) (Descriptor, error)

	// Registry maps option type names to factories. Unqualified names only
	// resolve against the built-in table; names containing a "." only
	// resolve against registered extensions.
	Registry struct {
		mu         sync.RWMutex
		builtins   map[string]Factory
		extensions map[string]Factory
	}
)

var defaultRegistry = NewRegistry()

// NewRegistry returns a registry holding only the built-in types.
func NewRegistry() *Registry {
	return &Registry{
		builtins: map[string]Factory{
			TypeBool: func(name string, params map[string]any) (Descriptor, error) {
				return NewBoolOption(name, params)
			},
			TypeTriplet: func(name string, params map[string]any) (Descriptor, error) {
				return NewTripletOption(name, params)
			},
			TypeString: func(name string, params map[string]any) (Descriptor, error) {
				return NewStringOption(name, params)
			},
		},
		extensions: map[string]Factory{},
	}
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds an extension type. The name must be qualified (contain a
// ".") and not already registered.
func (r *Registry) Register(typeName string, f Factory) error {
	if f == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidRegistration, typeName)
	}
	if !strings.Contains(typeName, ".") || strings.HasPrefix(typeName, ".") || strings.HasSuffix(typeName, ".") {
		return fmt.Errorf("%w: %q is not a qualified type name", ErrInvalidRegistration, typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.extensions[typeName]; exists {
		return fmt.Errorf("%w: %q already registered", ErrInvalidRegistration, typeName)
	}
	r.extensions[typeName] = f
	return nil
}

// New builds the option optionName of type typeName.
func (r *Registry) New(typeName, optionName string, params map[string]any) (Descriptor, error) {
	f, ok := r.lookup(typeName)
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	d, err := f(optionName, params)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &UnknownTypeError{Type: typeName}
	}
	return d, nil
}

// Types returns every resolvable type name in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := slices.Collect(maps.Keys(r.builtins))
	names = slices.AppendSeq(names, maps.Keys(r.extensions))
	slices.Sort(names)
	return names
}

func (r *Registry) lookup(typeName string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if strings.Contains(typeName, ".") {
		f, ok := r.extensions[typeName]
		return f, ok
	}
	f, ok := r.builtins[typeName]
	return f, ok
}
