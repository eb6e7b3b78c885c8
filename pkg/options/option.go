// SPDX-License-Identifier: MPL-2.0

package options

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

const (
	// TypeBool is the built-in boolean option type.
	TypeBool = "bool"
	// TypeTriplet is the built-in tri-state (true, false, null) option type.
	TypeTriplet = "triplet"
	// TypeString is the built-in string option type.
	TypeString = "string"

	paramDefault = "default"
	paramInherit = "inherit"
	paramHelp    = "help"
)

type (
	// Descriptor is a declared option that converts raw values into typed
	// Values. Coerce must be pure.
	Descriptor interface {
		// Name is the option key as declared in the manifest.
		Name() string
		// Type is the type name the option was built from.
		Type() string
		// Inherit reports whether a bare (unqualified) provider key may
		// supply the value when the module-qualified key is absent.
		Inherit() bool
		// Default is used for absent, null or invalid raw values.
		Default() Value
		// Help is a free-form description, possibly empty.
		Help() string
		// Coerce converts a raw value. Failures are *CoercionError.
		Coerce(raw any) (Value, error)
		// Params returns the constructor arguments the option was built
		// with, suitable for re-serialization.
		Params() map[string]any
	}

	// BoolOption accepts yes/true/1 and no/false/0, case-insensitively.
	BoolOption struct {
		common
	}

	// TripletOption behaves like BoolOption and additionally accepts
	// null/none as the null value.
	TripletOption struct {
		common
	}

	// StringOption passes values through unchanged.
	StringOption struct {
		common
	}

	common struct {
		name     string
		typeName string
		inherit  bool
		help     string
		def      Value
		params   map[string]any
	}
)

func (c *common) Name() string           { return c.name }
func (c *common) Type() string           { return c.typeName }
func (c *common) Inherit() bool          { return c.inherit }
func (c *common) Default() Value         { return c.def }
func (c *common) Help() string           { return c.help }
func (c *common) Params() map[string]any { return maps.Clone(c.params) }

func (c *common) coercionError(raw any) *CoercionError {
	return &CoercionError{Option: c.name, Type: c.typeName, Raw: raw}
}

// NewBoolOption builds a bool option. Accepted params: default (bool),
// inherit (bool), help (string).
func NewBoolOption(name string, params map[string]any) (*BoolOption, error) {
	c, err := newCommon(name, TypeBool, params, Bool(false), func(raw any) (Value, bool) {
		b, ok := raw.(bool)
		return Bool(b), ok
	})
	if err != nil {
		return nil, err
	}
	return &BoolOption{common: c}, nil
}

// Coerce implements Descriptor.
func (o *BoolOption) Coerce(raw any) (Value, error) {
	s, isString := raw.(string)
	if !isString {
		return Bool(truthy(raw)), nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return Bool(true), nil
	case "no", "false", "0":
		return Bool(false), nil
	case "":
		return o.def, nil
	default:
		return Value{}, o.coercionError(raw)
	}
}

// NewTripletOption builds a triplet option. Accepted params: default (bool
// or null), inherit (bool), help (string).
func NewTripletOption(name string, params map[string]any) (*TripletOption, error) {
	c, err := newCommon(name, TypeTriplet, params, Null(), func(raw any) (Value, bool) {
		switch x := raw.(type) {
		case nil:
			return Null(), true
		case bool:
			return Bool(x), true
		default:
			return Value{}, false
		}
	})
	if err != nil {
		return nil, err
	}
	return &TripletOption{common: c}, nil
}

// Coerce implements Descriptor.
func (o *TripletOption) Coerce(raw any) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	s, isString := raw.(string)
	if !isString {
		return Bool(truthy(raw)), nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return Bool(true), nil
	case "no", "false", "0":
		return Bool(false), nil
	case "null", "none":
		return Null(), nil
	case "":
		return o.def, nil
	default:
		return Value{}, o.coercionError(raw)
	}
}

// NewStringOption builds a string option. Accepted params: default
// (string), inherit (bool), help (string).
func NewStringOption(name string, params map[string]any) (*StringOption, error) {
	c, err := newCommon(name, TypeString, params, String(""), func(raw any) (Value, bool) {
		s, ok := raw.(string)
		return String(s), ok
	})
	if err != nil {
		return nil, err
	}
	return &StringOption{common: c}, nil
}

// Coerce implements Descriptor.
func (o *StringOption) Coerce(raw any) (Value, error) {
	if s, ok := raw.(string); ok {
		return String(s), nil
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		ce := o.coercionError(raw)
		ce.Reason = err.Error()
		return Value{}, ce
	}
	return String(s), nil
}

// newCommon validates the shared constructor arguments. convertDefault
// reports whether a raw default is acceptable for the option type.
func newCommon(name, typeName string, params map[string]any, def Value, convertDefault func(any) (Value, bool)) (common, error) {
	c := common{
		name:     name,
		typeName: typeName,
		inherit:  true,
		def:      def,
		params:   maps.Clone(params),
	}
	if c.params == nil {
		c.params = map[string]any{}
	}

	for _, key := range slices.Sorted(maps.Keys(params)) {
		raw := params[key]
		switch key {
		case paramDefault:
			v, ok := convertDefault(raw)
			if !ok {
				return common{}, &ParamError{Option: name, Param: key, Reason: fmt.Sprintf("ill-typed default %#v for %s option", raw, typeName)}
			}
			c.def = v
		case paramInherit:
			b, ok := raw.(bool)
			if !ok {
				return common{}, &ParamError{Option: name, Param: key, Reason: fmt.Sprintf("expected bool, got %T", raw)}
			}
			c.inherit = b
		case paramHelp:
			switch h := raw.(type) {
			case nil:
			case string:
				c.help = h
			default:
				return common{}, &ParamError{Option: name, Param: key, Reason: fmt.Sprintf("expected string, got %T", raw)}
			}
		default:
			return common{}, &ParamError{Option: name, Param: key, Reason: "unexpected argument"}
		}
	}
	return c, nil
}

// truthy applies boolean truthiness to non-string raw values: zero numbers,
// empty collections and nil are false.
func truthy(raw any) bool {
	if raw == nil {
		return false
	}
	if b, err := cast.ToBoolE(raw); err == nil {
		return b
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
