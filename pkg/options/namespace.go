// SPDX-License-Identifier: MPL-2.0

package options

import (
	"fmt"
	"strings"
)

type (
	// Namespace is the ordered, immutable set of resolved option values of
	// one module. The zero value is an empty namespace.
	Namespace struct {
		keys   []string
		values map[string]Value
	}
)

// Get returns the value of key.
func (n Namespace) Get(key string) (Value, bool) {
	v, ok := n.values[key]
	return v, ok
}

// Lookup returns the template text of key (see Value.String).
func (n Namespace) Lookup(key string) (string, bool) {
	v, ok := n.values[key]
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Keys returns the option keys in declaration order.
func (n Namespace) Keys() []string {
	return append([]string(nil), n.keys...)
}

// Len returns the number of entries.
func (n Namespace) Len() int { return len(n.keys) }

// With returns a copy of n with key set to v. An existing key keeps its
// position.
func (n Namespace) With(key string, v Value) Namespace {
	out := Namespace{
		keys:   append([]string(nil), n.keys...),
		values: make(map[string]Value, len(n.values)+1),
	}
	for k, val := range n.values {
		out.values[k] = val
	}
	if _, exists := out.values[key]; !exists {
		out.keys = append(out.keys, key)
	}
	out.values[key] = v
	return out
}

// String renders the namespace for diagnostics.
func (n Namespace) String() string {
	var sb strings.Builder
	sb.WriteString("Namespace(")
	for i, k := range n.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%#v", k, n.values[k])
	}
	sb.WriteString(")")
	return sb.String()
}
