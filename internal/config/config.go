// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/craftr/craftr/internal/issue"
	"github.com/craftr/craftr/pkg/loader"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "craftr"
	// ConfigFileName is the name of the settings file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the settings file extension.
	ConfigFileExt = "toml"
	// EnvPrefix prefixes environment variables that override settings.
	EnvPrefix = "CRAFTR"
	// PathEnv lists additional module search directories.
	PathEnv = "CRAFTR_PATH"
	// DefaultOptionFile is the per-build option file name, also looked up
	// in the home directory as the user option file.
	DefaultOptionFile = ".craftrconfig"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// Config holds the application settings.
	Config struct {
		// BuildDir is the build directory, relative to the working directory.
		BuildDir string `mapstructure:"build_dir"`
		// ConfigFile is the per-build option file.
		ConfigFile string `mapstructure:"config_file"`
		// SearchPath lists extra directories scanned for modules.
		SearchPath []string `mapstructure:"search_path"`
		// Parallelism bounds how many modules are prepared at once.
		Parallelism int `mapstructure:"parallelism"`
		// HTTP configures downloads over http and https.
		HTTP HTTPConfig `mapstructure:"http"`
		// S3 configures the object store behind s3:// URLs.
		S3 S3Config `mapstructure:"s3"`
		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose"`
	}

	// HTTPConfig configures the HTTP fetcher.
	HTTPConfig struct {
		Timeout time.Duration `mapstructure:"timeout"`
		Retries int           `mapstructure:"retries"`
	}

	// S3Config configures the S3 fetcher. An empty Endpoint disables it.
	S3Config struct {
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		UseSSL    bool   `mapstructure:"use_ssl"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		BuildDir:    "build",
		ConfigFile:  DefaultOptionFile,
		SearchPath:  []string{},
		Parallelism: 1,
		HTTP: HTTPConfig{
			Timeout: loader.DefaultHTTPTimeout,
			Retries: loader.DefaultHTTPRetries,
		},
		S3: S3Config{UseSSL: true},
	}
}

// Validate reports every invalid field of c.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BuildDir) == "" {
		errs = append(errs, errors.New("build_dir must not be empty"))
	}
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must not be negative, got %s", c.HTTP.Timeout))
	}
	if c.HTTP.Retries < 0 {
		errs = append(errs, fmt.Errorf("http.retries must not be negative, got %d", c.HTTP.Retries))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// LoaderS3Config converts the S3 settings for the loader package. It reports
// false when no endpoint is configured.
func (c *Config) LoaderS3Config() (loader.S3Config, bool) {
	if c.S3.Endpoint == "" {
		return loader.S3Config{}, false
	}
	return loader.S3Config{
		Endpoint:  c.S3.Endpoint,
		Region:    c.S3.Region,
		AccessKey: c.S3.AccessKey,
		SecretKey: c.S3.SecretKey,
		UseSSL:    c.S3.UseSSL,
	}, true
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// ConfigDir returns the craftr configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// UserOptionFile returns the path of the user-wide option file.
func UserOptionFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultOptionFile), nil
}

// SearchPath returns the directories scanned for modules: cwd first, then
// the configured search path, then the entries of CRAFTR_PATH. Relative
// configured entries resolve against cwd.
func SearchPath(cfg *Config, cwd string) []string {
	paths := []string{cwd}
	for _, p := range cfg.SearchPath {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		paths = append(paths, p)
	}
	for _, p := range filepath.SplitList(os.Getenv(PathEnv)) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state. It returns the settings and the file they came from.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("build_dir", defaults.BuildDir)
	v.SetDefault("config_file", defaults.ConfigFile)
	v.SetDefault("search_path", defaults.SearchPath)
	v.SetDefault("parallelism", defaults.Parallelism)
	v.SetDefault("http.timeout", defaults.HTTP.Timeout)
	v.SetDefault("http.retries", defaults.HTTP.Retries)
	v.SetDefault("s3.endpoint", defaults.S3.Endpoint)
	v.SetDefault("s3.region", defaults.S3.Region)
	v.SetDefault("s3.access_key", defaults.S3.AccessKey)
	v.SetDefault("s3.secret_key", defaults.S3.SecretKey)
	v.SetDefault("s3.use_ssl", defaults.S3.UseSSL)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// An explicit --config path is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}
		if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
			resolvedPath = p
		}
	}

	if resolvedPath != "" {
		if err := loadTOMLIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid TOML syntax").
				WithSuggestion("See 'craftr --help' for the supported settings").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(resolvedPath).
			WithSuggestion("Remove settings craftr does not know about").
			Wrap(fmt.Errorf("failed to parse config: %w", err)).
			BuildError()
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadTOMLIntoViper decodes a TOML settings file and merges it over the
// defaults already registered in v.
func loadTOMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var configMap map[string]any
	if err := toml.Unmarshal(data, &configMap); err != nil {
		return tomlError(path, err)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// tomlError prefixes decode errors with the file position when available.
func tomlError(path string, err error) error {
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		return fmt.Errorf("%s:%d:%d: %s", path, row, col, derr.Error())
	}
	return fmt.Errorf("%s: %w", path, err)
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
