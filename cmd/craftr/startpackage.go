// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/craftr/craftr/internal/issue"
	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/semver"

	"github.com/spf13/cobra"
)

const defaultPackageVersion = "1.0.0"

func newStartPackageCommand(app *App, root *rootFlagValues) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "startpackage <name> [directory]",
		Short: "Create a new package",
		Long: `Create a new package with an empty manifest.json and Craftrfile.

The directory defaults to the package name and is created if needed.
Existing manifests and build scripts are never overwritten.

Examples:
  craftr startpackage mylib
  craftr startpackage mylib . --version 0.1.0`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.reportError(runStartPackage(app, args, version), root.verbose)
		},
	}
	cmd.Flags().StringVar(&version, "version", defaultPackageVersion, "initial package version")
	return cmd
}

func runStartPackage(app *App, args []string, versionText string) error {
	name := args[0]
	dir := name
	if len(args) > 1 {
		dir = args[1]
	}

	if err := manifest.ValidatePackageName(name); err != nil {
		return issue.NewErrorContext().
			WithOperation("create package").
			WithResource(name).
			WithSuggestion("Start with a letter or digit and use only letters, digits, '.', '-' and '_'").
			Wrap(err).
			BuildError()
	}
	version, err := semver.ParseVersion(versionText)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("create package").
			WithResource(versionText).
			WithSuggestion("Use a semantic version such as 1.0.0").
			Wrap(err).
			BuildError()
	}

	cwd, err := app.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	s := &session{app: app, cwd: cwd}

	path, err := manifest.Create(s.path(dir), name, version)
	if err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("create package").
			WithResource(s.path(dir))
		if errors.Is(err, manifest.ErrExists) {
			ctx.WithIssue(issue.PackageExistsId).
				WithSuggestion("Choose another directory or remove the existing files")
		}
		return ctx.Wrap(err).BuildError()
	}

	_, _ = fmt.Fprintf(app.stdout, "%s Created %s %s\n", SuccessStyle.Render("✓"), TitleStyle.Render(name+"@"+version.String()), SubtitleStyle.Render(path))
	return nil
}
