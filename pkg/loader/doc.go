// SPDX-License-Identifier: MPL-2.0

// Package loader acquires the external resources of a module (source trees,
// prebuilt binaries) before its build script runs.
//
// A module declares an ordered list of loaders. Run tries them in order
// until one succeeds. Each loader receives the CacheRecord it returned on
// the previous invocation so that it can reuse what it acquired then.
//
// The built-in "url" loader (URLLoader) scans a list of URL templates,
// adopting an existing directory, a local archive or a download, and
// unpacks archives into the module's install directory. Templates are
// expanded against the module's resolved options.
package loader
