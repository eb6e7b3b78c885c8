// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/craftr/craftr/internal/issue"
	"github.com/craftr/craftr/internal/testutil"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), []byte(content))
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	want := DefaultConfig()
	if cfg.BuildDir != want.BuildDir || cfg.ConfigFile != want.ConfigFile || cfg.Parallelism != want.Parallelism {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
	if cfg.HTTP != want.HTTP {
		t.Errorf("HTTP = %+v, want %+v", cfg.HTTP, want.HTTP)
	}
	if _, ok := cfg.LoaderS3Config(); ok {
		t.Error("LoaderS3Config() reported an endpoint for defaults")
	}
}

func TestLoad_SettingsFile(t *testing.T) {
	t.Parallel()

	dir := writeSettings(t, `
build_dir = "out"
search_path = ["vendor", "/opt/craftr"]
parallelism = 4

[http]
timeout = "30s"
retries = 1

[s3]
endpoint = "localhost:9000"
access_key = "key"
secret_key = "secret"
use_ssl = false
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != filepath.Join(dir, "config.toml") {
		t.Errorf("resolved path = %q", path)
	}
	if cfg.BuildDir != "out" || cfg.Parallelism != 4 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ConfigFile != DefaultOptionFile {
		t.Errorf("ConfigFile = %q, want default %q", cfg.ConfigFile, DefaultOptionFile)
	}
	if !slices.Equal(cfg.SearchPath, []string{"vendor", "/opt/craftr"}) {
		t.Errorf("SearchPath = %v", cfg.SearchPath)
	}
	if cfg.HTTP.Timeout != 30*time.Second || cfg.HTTP.Retries != 1 {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}

	s3, ok := cfg.LoaderS3Config()
	if !ok {
		t.Fatal("LoaderS3Config() reported no endpoint")
	}
	if s3.Endpoint != "localhost:9000" || s3.AccessKey != "key" || s3.SecretKey != "secret" || s3.UseSSL {
		t.Errorf("LoaderS3Config() = %+v", s3)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := writeSettings(t, "parallelism = 2\n")
	t.Setenv("CRAFTR_PARALLELISM", "8")
	t.Setenv("CRAFTR_HTTP_RETRIES", "0")

	cfg, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Parallelism != 8 {
		t.Errorf("Parallelism = %d, want 8", cfg.Parallelism)
	}
	if cfg.HTTP.Retries != 0 {
		t.Errorf("HTTP.Retries = %d, want 0", cfg.HTTP.Retries)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	testutil.MustWriteFile(t, path, []byte(`build_dir = "custom"`))

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: path,
		ConfigDirPath:  writeSettings(t, `build_dir = "ignored"`),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BuildDir != "custom" {
		t.Errorf("BuildDir = %q, want custom", cfg.BuildDir)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		missing  bool
		wantIs   error
		wantText string
	}{
		{name: "missing explicit file", missing: true, wantText: "config file not found"},
		{name: "syntax error", content: "build_dir = \n", wantText: "config.toml"},
		{name: "unknown setting", content: "colour = \"red\"\n", wantText: "colour"},
		{name: "zero parallelism", content: "parallelism = 0\n", wantIs: ErrInvalidConfig, wantText: "parallelism"},
		{name: "empty build dir", content: "build_dir = \" \"\n", wantIs: ErrInvalidConfig, wantText: "build_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")
			if !tt.missing {
				testutil.MustWriteFile(t, path, []byte(tt.content))
			}

			_, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Errorf("error type = %T, want *issue.ActionableError", err)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q does not mention %q", err, tt.wantText)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestSearchPath(t *testing.T) {
	extra1 := filepath.Join(t.TempDir(), "a")
	extra2 := filepath.Join(t.TempDir(), "b")
	t.Setenv(PathEnv, extra1+string(filepath.ListSeparator)+string(filepath.ListSeparator)+extra2)

	cwd := t.TempDir()
	abs := filepath.Join(t.TempDir(), "abs")
	cfg := DefaultConfig()
	cfg.SearchPath = []string{"vendor", "", abs}

	got := SearchPath(cfg, cwd)
	want := []string{cwd, filepath.Join(cwd, "vendor"), abs, extra1, extra2}
	if !slices.Equal(got, want) {
		t.Errorf("SearchPath() = %v, want %v", got, want)
	}
}

func TestConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and other Unix systems")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, AppName); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}
