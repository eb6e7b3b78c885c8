// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/craftr/craftr/internal/app/prepare"
	"github.com/craftr/craftr/internal/buildcache"
	"github.com/craftr/craftr/internal/issue"
	"github.com/craftr/craftr/pkg/resolver"

	"github.com/spf13/cobra"
)

// prepareFlagValues holds the flags shared by prepare and options.
type prepareFlagValues struct {
	module     string
	buildDir   string
	optionFile string
	overrides  []string
}

func (f *prepareFlagValues) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.module, "module", "m", "", "module to prepare as name[:criteria] (default is the package in the working directory)")
	cmd.Flags().StringArrayVarP(&f.overrides, "option", "d", nil, "set an option as key=value, key (true) or key= (unset); repeatable")
}

func newPrepareCommand(app *App, root *rootFlagValues) *cobra.Command {
	flags := &prepareFlagValues{}
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Resolve dependencies, options and loaders",
		Long: `Prepare a package for building.

The package in the working directory (manifest.json or craftr/manifest.json),
or the module selected with -m, is resolved together with every package it
depends on. Options are read from ~/.craftrconfig, the build option file and
-d overrides. Each package's loaders then fetch its sources into the build
directory, and what they acquired is recorded in <build>/.craftrcache.

Examples:
  craftr prepare
  craftr prepare -m "zlib:>=1.2" -b out
  craftr prepare -d zlib.static -d zlib.version=1.2.11`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.reportError(runPrepare(cmd.Context(), app, root, flags, false), root.verbose)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.buildDir, "build-dir", "b", "", "build directory (default from config, \"build\")")
	cmd.Flags().StringVarP(&flags.optionFile, "config-file", "c", "", "build option file (default from config, \".craftrconfig\")")
	return cmd
}

// runPrepare runs a preparation. With optionsOnly set it stops after
// option resolution and prints the namespaces instead of a summary.
func runPrepare(ctx context.Context, app *App, root *rootFlagValues, flags *prepareFlagValues, optionsOnly bool) error {
	s, err := app.newSession(ctx, root)
	if err != nil {
		return err
	}

	ix, err := s.discover(ctx)
	if err != nil {
		return err
	}
	m, err := s.rootModule(ix, flags.module)
	if err != nil {
		return err
	}

	provider, err := s.optionSources(flags.optionFile, flags.overrides).BuildProvider()
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read options").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	buildDir := flags.buildDir
	if buildDir == "" {
		buildDir = s.cfg.BuildDir
	}
	buildDir = s.path(buildDir)

	req := prepare.Request{
		Root:        m,
		Index:       ix,
		Provider:    provider,
		BuildDir:    buildDir,
		Parallelism: s.cfg.Parallelism,
		OptionsOnly: optionsOnly,
	}

	var cachePath string
	if !optionsOnly {
		if req.Fetchers, err = s.fetchers(); err != nil {
			return err
		}
		if err := os.MkdirAll(buildDir, 0o755); err != nil {
			return issue.WrapWithContext(err, "create build directory", buildDir)
		}
		cachePath = buildcache.Path(buildDir)
		req.Cache, err = buildcache.Load(cachePath)
		if err != nil {
			s.logger.Error("ignoring unreadable build cache", "path", cachePath, "err", err)
			req.Cache = buildcache.New()
		}
	}

	report, prepErr := prepare.New(s.logger).Prepare(ctx, req)

	if req.Cache != nil && report != nil {
		if err := req.Cache.Save(cachePath); err != nil {
			s.logger.Error("failed to write build cache", "path", cachePath, "err", err)
		} else {
			s.logger.Debug("build cache written", "path", cachePath)
		}
	}

	if report != nil {
		if optionsOnly {
			printOptions(app.stdout, report)
		} else {
			printSummary(app.stdout, report)
		}
	}
	if prepErr != nil {
		return classifyPrepareError(prepErr, m.ID())
	}
	return nil
}

// classifyPrepareError wraps a Prepare failure with its catalog issue.
func classifyPrepareError(err error, root string) error {
	ctx := issue.NewErrorContext().WithOperation("prepare").WithResource(root).Wrap(err)
	switch {
	case errors.Is(err, prepare.ErrInvalidOptions):
		ctx.WithIssue(issue.InvalidOptionsId)
	case errors.Is(err, prepare.ErrLoaderInit):
		ctx.WithIssue(issue.LoaderFailedId)
	case errors.Is(err, resolver.ErrCycle):
		ctx.WithIssue(issue.DependencyCycleId)
	case errors.Is(err, resolver.ErrConflict):
		ctx.WithIssue(issue.DependencyConflictId)
	case errors.Is(err, resolver.ErrNotFound):
		ctx.WithIssue(issue.ModuleNotFoundId)
	}
	return ctx.BuildError()
}

func printSummary(w io.Writer, report *prepare.Report) {
	for _, mr := range report.Modules {
		id := TitleStyle.Render(mr.Module.ID())
		for _, skipped := range mr.Skipped {
			_, _ = fmt.Fprintf(w, "%s %s: %s\n", WarningStyle.Render("!"), id, skipped.Error())
		}
		switch {
		case mr.Loader != "":
			_, _ = fmt.Fprintf(w, "%s %s %s %s\n", SuccessStyle.Render("✓"), id, ValueStyle.Render(mr.Loader), SubtitleStyle.Render(mr.Directory))
		case len(mr.Module.Loaders) == 0:
			_, _ = fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), id, SubtitleStyle.Render("(no loaders)"))
		default:
			_, _ = fmt.Fprintf(w, "%s %s %s\n", ErrorStyle.Render("✗"), id, SubtitleStyle.Render("(not loaded)"))
		}
	}
}

func printOptions(w io.Writer, report *prepare.Report) {
	for _, mr := range report.Modules {
		if mr.Options.Len() == 0 {
			continue
		}
		_, _ = fmt.Fprintln(w, TitleStyle.Render(mr.Module.ID()))
		for _, key := range mr.Options.Keys() {
			v, _ := mr.Options.Get(key)
			_, _ = fmt.Fprintf(w, "  %s %s\n", keyStyle.Render(mr.Module.Name+"."+key), ValueStyle.Render(v.GoString()))
		}
	}
}

func newOptionsCommand(app *App, root *rootFlagValues) *cobra.Command {
	flags := &prepareFlagValues{}
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Show the resolved options of a package and its dependencies",
		Long: `Resolve options without running loaders.

Prints every declared option with the value it resolves to. Values that
cannot be converted to their option type are reported and replaced by the
option's default.

Examples:
  craftr options
  craftr options -m libpng -d zlib.static=yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := runPrepare(cmd.Context(), app, root, flags, true)
			if errors.Is(err, prepare.ErrInvalidOptions) {
				err = &ExitError{Code: 1, Err: err}
			}
			return app.reportError(err, root.verbose)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.optionFile, "config-file", "c", "", "build option file (default from config, \".craftrconfig\")")
	return cmd
}

