// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/craftr/craftr/internal/config"
	"github.com/craftr/craftr/internal/issue"
	"github.com/craftr/craftr/pkg/loader"
	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/resolver"

	"github.com/charmbracelet/log"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every Cobra command
	// handler receives the App and resolves per-invocation state through it.
	App struct {
		Config ConfigProvider
		// Getwd returns the directory commands operate in.
		Getwd func() (string, error)
		// UserOptionFile returns the user-wide option file.
		UserOptionFile func() (string, error)
		// MarkdownStyle is the glamour style for rendered Markdown.
		MarkdownStyle string
		stdout        io.Writer
		stderr        io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config         ConfigProvider
		Getwd          func() (string, error)
		UserOptionFile func() (string, error)
		MarkdownStyle  string
		Stdout         io.Writer
		Stderr         io.Writer
	}

	// rootFlagValues holds the persistent flags of the root command.
	rootFlagValues struct {
		verbose    bool
		configPath string
	}

	// session is the state of one command invocation.
	session struct {
		app    *App
		cfg    *config.Config
		cwd    string
		logger *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	if deps.UserOptionFile == nil {
		deps.UserOptionFile = config.UserOptionFile
	}
	if deps.MarkdownStyle == "" {
		deps.MarkdownStyle = "auto"
	}

	return &App{
		Config:         deps.Config,
		Getwd:          deps.Getwd,
		UserOptionFile: deps.UserOptionFile,
		MarkdownStyle:  deps.MarkdownStyle,
		stdout:         deps.Stdout,
		stderr:         deps.Stderr,
	}
}

// newSession loads configuration and sets up logging for one invocation.
//
// An explicit --config file must load. A broken default settings file is
// reported as a warning and the defaults are used.
func (a *App) newSession(ctx context.Context, flags *rootFlagValues) (*session, error) {
	cwd, err := a.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		if flags.configPath != "" {
			return nil, withIssue(err, issue.ConfigLoadFailedId)
		}
		_, _ = fmt.Fprintln(a.stderr, WarningStyle.Render("warning: ")+formatErrorForDisplay(err, flags.verbose))
		cfg = config.DefaultConfig()
	}

	level := log.InfoLevel
	if flags.verbose || cfg.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Level:  level,
		Prefix: "craftr",
	})

	return &session{app: a, cfg: cfg, cwd: cwd, logger: logger}, nil
}

// path resolves p against the working directory.
func (s *session) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.cwd, p)
}

// discover indexes every manifest on the module search path.
func (s *session) discover(ctx context.Context) (*resolver.Index, error) {
	cache, err := resolver.NewManifestCache(resolver.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	ix, err := resolver.Discover(ctx, config.SearchPath(s.cfg, s.cwd), resolver.DiscoverOptions{
		Logger: s.logger,
		Cache:  cache,
	})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("discover modules").
			Wrap(err).
			BuildError()
	}
	s.logger.Debug("modules discovered", "count", ix.Len())
	return ix, nil
}

// rootModule selects the module to work on: the module matching spec when
// given, otherwise the package in the working directory.
func (s *session) rootModule(ix *resolver.Index, spec string) (*manifest.Manifest, error) {
	if spec != "" {
		ms, err := resolver.ParseModuleSpec(spec)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("parse module spec").
				WithResource(spec).
				WithSuggestion("Use name or name:criteria, for example zlib:1.x (quote > and < in your shell)").
				Wrap(err).
				BuildError()
		}
		m, err := ix.Find(ms)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("find module").
				WithResource(ms.String()).
				WithIssue(issue.ModuleNotFoundId).
				Wrap(err).
				BuildError()
		}
		return m, nil
	}

	path, err := manifest.FindManifest(s.cwd)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("find manifest").
			WithResource(s.cwd).
			WithSuggestion("Run 'craftr startpackage <name>' to create a package").
			WithSuggestion("Or select a module with -m name[:criteria]").
			WithIssue(issue.ManifestNotFoundId).
			Wrap(err).
			BuildError()
	}
	m, err := manifest.ParseFile(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load manifest").
			WithResource(path).
			WithIssue(issue.ManifestInvalidId).
			Wrap(err).
			BuildError()
	}
	return m, nil
}

// optionSources lists the option files and overrides of the invocation.
// buildFile overrides the configured per-build option file when set.
func (s *session) optionSources(buildFile string, overrides []string) config.OptionSources {
	if buildFile == "" {
		buildFile = s.cfg.ConfigFile
	}
	userFile, err := s.app.UserOptionFile()
	if err != nil {
		s.logger.Warn("user option file unavailable", "err", err)
		userFile = ""
	}
	return config.OptionSources{
		UserFile:  userFile,
		BuildFile: s.path(buildFile),
		Overrides: overrides,
	}
}

// fetchers builds the download fetchers from the configuration.
func (s *session) fetchers() (map[string]loader.Fetcher, error) {
	httpFetcher := loader.NewHTTPFetcher(s.cfg.HTTP.Timeout, s.cfg.HTTP.Retries)
	fetchers := map[string]loader.Fetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
	}
	if s3cfg, ok := s.cfg.LoaderS3Config(); ok {
		s3, err := loader.NewS3Fetcher(s3cfg)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("configure s3 downloads").
				WithResource(s3cfg.Endpoint).
				WithSuggestion("Check the [s3] section of config.toml").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
		fetchers["s3"] = s3
	}
	return fetchers, nil
}

// withIssue attaches a catalog issue to err, wrapping it in an
// ActionableError when it is not one already.
func withIssue(err error, id issue.Id) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue == 0 {
			ae.Issue = id
		}
		return err
	}
	return &issue.ActionableError{Operation: "run craftr", Cause: err, Issue: id}
}
