// SPDX-License-Identifier: MPL-2.0

// Package prepare drives a build's preparation step: it resolves the
// dependency closure of the root module, computes every module's option
// namespace and runs each module's loaders, persisting what they acquired
// in the build cache.
package prepare
