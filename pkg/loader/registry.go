// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// TypeURL is the built-in URL loader type.
const TypeURL = "url"

type (
	// Factory constructs a Loader from its declared name and the remaining
	// manifest arguments (without "name" and "type").
	Factory func(name string, params map[string]any) (Loader, error)

	// Registry maps loader type names to factories. Unqualified names only
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
			TypeURL: func(name string, params map[string]any) (Loader, error) {
				return NewURLLoader(name, params)
			},
		},
		extensions: map[string]Factory{},
	}
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds an extension type under a qualified name.
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

// New builds the loader name of type typeName.
func (r *Registry) New(typeName, name string, params map[string]any) (Loader, error) {
	r.mu.RLock()
	table := r.builtins
	if strings.Contains(typeName, ".") {
		table = r.extensions
	}
	f, ok := table[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	l, err := f(name, params)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, &UnknownTypeError{Type: typeName}
	}
	return l, nil
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
