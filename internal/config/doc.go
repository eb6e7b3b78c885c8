// SPDX-License-Identifier: MPL-2.0

// Package config loads craftr's settings and option files.
//
// Settings are read with Viper from $XDG_CONFIG_HOME/craftr/config.toml (or
// ~/Library/Application Support/craftr/config.toml on macOS,
// %APPDATA%\craftr\config.toml on Windows, or the file given with --config)
// and may be overridden by CRAFTR_* environment variables.
//
// Option files (~/.craftrconfig and the per-build .craftrconfig) are TOML
// documents whose tables qualify option keys by module name. They are merged
// with command-line overrides into an options.MapProvider.
package config
