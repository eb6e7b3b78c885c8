// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/craftr/craftr/internal/issue"
	"github.com/craftr/craftr/pkg/loader"
	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/resolver"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newModuleCommand(app *App, root *rootFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Inspect packages on the module search path",
		Long: `Inspect the packages craftr can see.

The search path is the working directory, the search_path entries of
config.toml and the directories listed in CRAFTR_PATH. Each directory is
scanned for manifest.json files one and two levels deep.`,
		Args: cobra.NoArgs,
	}
	cmd.AddCommand(
		newModuleListCommand(app, root),
		newModuleFindCommand(app, root),
		newModuleInfoCommand(app, root),
	)
	return cmd
}

func newModuleListCommand(app *App, root *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every package and its versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd.Context(), root)
			if err != nil {
				return app.reportError(err, root.verbose)
			}
			ix, err := s.discover(cmd.Context())
			if err != nil {
				return app.reportError(err, root.verbose)
			}
			if ix.Len() == 0 {
				_, _ = fmt.Fprintln(app.stdout, SubtitleStyle.Render("No packages found."))
				return nil
			}
			for _, name := range ix.Names() {
				versions := ix.Versions(name)
				texts := make([]string, len(versions))
				for i, v := range versions {
					texts[i] = v.String()
				}
				_, _ = fmt.Fprintf(app.stdout, "%s %s\n", keyStyle.Render(name), ValueStyle.Render(strings.Join(texts, ", ")))
			}
			return nil
		},
	}
}

func newModuleFindCommand(app *App, root *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "find <name[:criteria]>",
		Short: "Show the newest package version matching a spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := findModule(cmd, app, root, args[0])
			if err != nil {
				return app.reportError(err, root.verbose)
			}
			_, _ = fmt.Fprintf(app.stdout, "%s %s\n", TitleStyle.Render(m.ID()), SubtitleStyle.Render(m.Path))
			return nil
		},
	}
}

func newModuleInfoCommand(app *App, root *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name[:criteria]>",
		Short: "Describe a package's dependencies, options and loaders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := findModule(cmd, app, root, args[0])
			if err != nil {
				return app.reportError(err, root.verbose)
			}
			md := moduleMarkdown(m)
			rendered, renderErr := glamour.Render(md, app.MarkdownStyle)
			if renderErr != nil {
				rendered = md
			}
			_, _ = fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}

func findModule(cmd *cobra.Command, app *App, root *rootFlagValues, spec string) (*manifest.Manifest, error) {
	s, err := app.newSession(cmd.Context(), root)
	if err != nil {
		return nil, err
	}
	ix, err := s.discover(cmd.Context())
	if err != nil {
		return nil, err
	}
	ms, err := resolver.ParseModuleSpec(spec)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse module spec").
			WithResource(spec).
			WithSuggestion("Use name or name:criteria, for example zlib:1.x").
			Wrap(err).
			BuildError()
	}
	m, err := ix.Find(ms)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("find module").
			WithResource(ms.String()).
			WithSuggestion("Run 'craftr module list' to see the packages on the search path").
			WithIssue(issue.ModuleNotFoundId).
			Wrap(err).
			BuildError()
	}
	return m, nil
}

// moduleMarkdown describes m as a Markdown document.
func moduleMarkdown(m *manifest.Manifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", m.Name, m.Version)
	if m.Version.IsPrerelease() {
		b.WriteString("> Pre-release version.\n\n")
	}
	if m.Author != "" {
		fmt.Fprintf(&b, "- **Author:** %s\n", m.Author)
	}
	if m.URL != "" {
		fmt.Fprintf(&b, "- **URL:** %s\n", m.URL)
	}
	fmt.Fprintf(&b, "- **Manifest:** `%s`\n", m.Path)
	fmt.Fprintf(&b, "- **Build script:** `%s`\n\n", m.MainPath())

	if names := m.DependencyNames(); len(names) > 0 {
		b.WriteString("## Dependencies\n\n")
		for _, name := range names {
			fmt.Fprintf(&b, "- `%s` %s\n", name, m.Dependencies[name])
		}
		b.WriteString("\n")
	}

	if len(m.Options) > 0 {
		b.WriteString("## Options\n\n| Name | Type | Default | Help |\n|---|---|---|---|\n")
		for _, o := range m.Options {
			fmt.Fprintf(&b, "| `%s.%s` | %s | `%s` | %s |\n", m.Name, o.Name(), o.Type(), o.Default().GoString(), o.Help())
		}
		b.WriteString("\n")
	}

	if len(m.Loaders) > 0 {
		b.WriteString("## Loaders\n\n")
		for _, l := range m.Loaders {
			fmt.Fprintf(&b, "- `%s` (%s)\n", l.Name(), l.Type())
			if ul, ok := l.(*loader.URLLoader); ok {
				for _, u := range ul.URLs() {
					fmt.Fprintf(&b, "  - `%s`\n", u)
				}
			}
		}
	}
	return b.String()
}
