// SPDX-License-Identifier: MPL-2.0

// Package options implements the typed option declarations of a craftr
// manifest and their resolution against user-supplied raw values.
//
// Every declared option is a Descriptor built through a Registry from a
// type name. The built-in types are "bool", "triplet" and "string";
// qualified type names (containing a ".") are looked up in the extension
// table populated with Registry.Register.
//
// Resolve turns a module's declarations plus a Provider of raw values into
// an immutable Namespace. Resolution is total: coercion failures are
// collected and the option's default is used in their place.
package options
