// SPDX-License-Identifier: MPL-2.0

package options

import "errors"

type (
	// Provider supplies raw option values by dotted key
	// ("<module>.<option>" or bare "<option>").
	Provider interface {
		Lookup(key string) (raw any, ok bool)
	}

	// MapProvider is a Provider backed by a map.
	MapProvider map[string]any
)

// Lookup implements Provider.
func (p MapProvider) Lookup(key string) (any, bool) {
	v, ok := p[key]
	return v, ok
}

// Resolve computes the namespace of moduleName's declared options.
//
// For each declaration the module-qualified key is consulted first, then,
// if the option inherits, the bare key. Absent or null values take the
// option's default. Coercion failures are returned alongside the namespace
// and the default is substituted. Resolve never fails as a whole.
func Resolve(decls []Descriptor, provider Provider, moduleName string) (Namespace, []*CoercionError) {
	if provider == nil {
		provider = MapProvider(nil)
	}

	ns := Namespace{
		keys:   make([]string, 0, len(decls)),
		values: make(map[string]Value, len(decls)),
	}
	var errs []*CoercionError

	for _, d := range decls {
		if d == nil {
			continue
		}
		raw, ok := provider.Lookup(moduleName + "." + d.Name())
		if !ok && d.Inherit() {
			raw, ok = provider.Lookup(d.Name())
		}

		value := d.Default()
		if ok && raw != nil {
			coerced, err := coerce(d, raw)
			if err != nil {
				errs = append(errs, err)
			} else {
				value = coerced
			}
		}

		if _, seen := ns.values[d.Name()]; !seen {
			ns.keys = append(ns.keys, d.Name())
		}
		ns.values[d.Name()] = value
	}
	return ns, errs
}

// coerce runs d.Coerce, normalizing failures from extension types into
// *CoercionError and recovering from panicking implementations.
func coerce(d Descriptor, raw any) (v Value, cerr *CoercionError) {
	defer func() {
		if r := recover(); r != nil {
			v = Value{}
			cerr = &CoercionError{Option: d.Name(), Type: d.Type(), Raw: raw, Reason: "coercion panicked"}
		}
	}()

	v, err := d.Coerce(raw)
	if err == nil {
		return v, nil
	}
	if errors.As(err, &cerr) {
		return Value{}, cerr
	}
	return Value{}, &CoercionError{Option: d.Name(), Type: d.Type(), Raw: raw, Reason: err.Error()}
}
