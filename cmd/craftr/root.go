// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/craftr/craftr/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the craftr command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "craftr",
		Short: "Prepare craftr packages and their dependencies",
		Long: TitleStyle.Render("craftr") + SubtitleStyle.Render(" - package preparation for the craftr build system") + `

craftr reads a package's manifest.json, selects a version for every
package it depends on, resolves build options from your option files and
the command line, and runs each package's loaders to fetch its sources.

` + SubtitleStyle.Render("Examples:") + `
  craftr prepare                    Prepare the package in this directory
  craftr prepare -m zlib:1.x        Prepare a package from the search path
  craftr options -d zlib.static     Show resolved options
  craftr module list                List packages on the search path
  craftr startpackage mylib         Create a new package`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "settings file (default is $XDG_CONFIG_HOME/craftr/config.toml)")

	rootCmd.AddCommand(newPrepareCommand(app, flags))
	rootCmd.AddCommand(newOptionsCommand(app, flags))
	rootCmd.AddCommand(newModuleCommand(app, flags))
	rootCmd.AddCommand(newStartPackageCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// reportError prints the catalog guidance linked to err in verbose mode
// and returns err for the caller to propagate.
func (a *App) reportError(err error, verbose bool) error {
	if err == nil || !verbose {
		return err
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return err
	}
	if is := ae.CatalogIssue(); is != nil {
		a.renderIssue(a.stderr, is)
	}
	return err
}

func (a *App) renderIssue(w io.Writer, is *issue.Issue) {
	rendered, renderErr := is.Render(a.MarkdownStyle)
	if renderErr != nil {
		rendered = string(is.MarkdownMsg())
	}
	_, _ = fmt.Fprint(w, rendered)
}
