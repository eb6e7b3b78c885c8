// SPDX-License-Identifier: MPL-2.0

// Package resolver indexes package manifests by name and version and
// selects the versions that satisfy a package's dependency criteria.
//
// Whenever several versions qualify, the highest one wins.
package resolver
