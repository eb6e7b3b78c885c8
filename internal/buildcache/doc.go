// SPDX-License-Identifier: MPL-2.0

// Package buildcache persists the loader cache records of a build
// directory between invocations.
package buildcache
