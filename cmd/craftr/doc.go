// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for craftr.
//
// Commands are built around an App that carries the configuration provider,
// working directory and output streams, so tests can run the whole command
// tree against temporary directories.
package cmd
