// SPDX-License-Identifier: MPL-2.0

// Package semver implements semantic version values and the version criteria
// used by package manifests to constrain their dependencies.
//
// Versions follow the SemVer 2.0 grammar strictly (MAJOR.MINOR.PATCH with an
// optional pre-release and build suffix, no leading zeros, no "v" prefix).
// Precedence between versions is delegated to golang.org/x/mod/semver.
//
// Criteria accept:
//   - exact versions: "1.2.3", "=1.2.3"
//   - comparators: ">=1.0.0", ">1.0.0", "<=2.0.0", "<2.0.0"
//   - conjunctions separated by commas or whitespace: ">=1.0.0,<2.0.0"
//   - wildcards: "*", "x", "1.x", "1.2.x", and partial versions such as "1.2"
//   - caret and tilde ranges: "^1.2.3", "~1.2.3"
//
// Matching is a pure function of the criteria and the version. [Select] picks
// the highest version satisfying a criteria, which is the tie-break rule used
// when several manifests of the same package are known.
package semver
