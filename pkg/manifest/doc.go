// SPDX-License-Identifier: MPL-2.0

// Package manifest parses and validates craftr package manifests.
//
// A manifest is a JSON document naming a package and its version, the
// version criteria of its dependencies, the options it accepts and the
// ordered loaders that acquire its external resources. Parsing is
// all-or-nothing: any problem yields an *InvalidManifestError and no
// Manifest.
package manifest
