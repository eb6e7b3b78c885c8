// SPDX-License-Identifier: MPL-2.0

package options

import "strconv"

const (
	// KindNull is the kind of the absent value (a triplet's third state).
	KindNull Kind = "null"
	// KindBool is the kind of boolean values.
	KindBool Kind = "bool"
	// KindString is the kind of string values.
	KindString Kind = "string"
)

type (
	// Kind identifies the variant held by a Value.
	Kind string

	// Value is a resolved option value. The zero value is Null.
	Value struct {
		kind Kind
		b    bool
		s    string
	}
)

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the variant of the value.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind() == KindNull }

// AsBool returns the boolean held by v. ok is false for other kinds.
func (v Value) AsBool() (b, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the string held by v. ok is false for other kinds.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// String returns the text substituted for v in URL templates: "true" or
// "false" for booleans, the empty string for null.
func (v Value) String() string {
	switch v.Kind() {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// GoString renders v for diagnostics.
func (v Value) GoString() string {
	switch v.Kind() {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return strconv.Quote(v.s)
	default:
		return "null"
	}
}

// Equal reports whether v and o hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	return v.Kind() == o.Kind() && v.b == o.b && v.s == o.s
}
