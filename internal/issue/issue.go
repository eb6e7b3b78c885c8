// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestInvalidId
	ModuleNotFoundId
	DependencyConflictId
	DependencyCycleId
	InvalidOptionsId
	LoaderFailedId
	ConfigLoadFailedId
	PackageExistsId
	BuildCacheCorruptId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal Markdown using the glamour style at
// stylePath ("dark", "light", "notty", a JSON style file, ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(slices.Clone(i.docLinks), i.extLinks...) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No manifest found!

craftr looked for a package manifest but couldn't find one.

## Search locations (in order):
1. ` + "`manifest.json`" + ` in the current directory
2. ` + "`craftr/manifest.json`" + ` in the current directory

## Things you can try:
- Create a new package skeleton:
~~~
$ craftr startpackage mypackage
~~~

- Or select a module from the search path:
~~~
$ craftr prepare -m zlib:1.x
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Invalid manifest!

The package manifest is not valid JSON or does not match the manifest schema.

## Common issues:
- Missing ` + "`name`" + ` or ` + "`version`" + `
- A version that is not a semantic version (` + "`1.2.3`" + `, ` + "`1.0.0-beta.1`" + `)
- A dependency criteria string such as ` + "`>=1.0` " + `with a typo
- An option or loader with an unknown ` + "`type`" + `
- Two loaders with the same ` + "`name`" + `

## Example manifest:
~~~json
{
  "name": "zlib",
  "version": "1.2.11",
  "dependencies": {"libc": "*"},
  "options": {
    "static": {"type": "bool", "default": true},
    "version": "string"
  },
  "loaders": [
    {"name": "source", "type": "url", "urls": ["https://zlib.net/zlib-$version.tar.gz"]}
  ]
}
~~~`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

No module on the search path matches the requested name and version criteria.

## Things you can try:
- List the modules craftr can see:
~~~
$ craftr module list
~~~

- Add directories to the search path with ` + "`CRAFTR_PATH`" + ` or ` + "`search_path`" + ` in config.toml
- Loosen the version criteria (for example ` + "`zlib:1.x`" + ` or ` + "`zlib:*`" + `)`,
	}

	dependencyConflictIssue = &Issue{
		id: DependencyConflictId,
		mdMsg: `
# Dependency conflict!

Two or more modules require versions of the same dependency that no single
available version satisfies.

## Things you can try:
- Inspect the versions on the search path:
~~~
$ craftr module find <name>
~~~

- Relax one of the conflicting criteria in the manifests listed above
- Add a version of the dependency that satisfies every requirement`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

The selected modules depend on each other in a cycle, so no module can be
prepared first.

## Things you can try:
- Follow the cycle printed above and remove one of its edges
- Move shared pieces into a separate module both sides can depend on`,
	}

	invalidOptionsIssue = &Issue{
		id: InvalidOptionsId,
		mdMsg: `
# Invalid option values!

One or more option values could not be converted to the type their module declares.

## Things you can try:
- Check the values in ` + "`~/.craftrconfig`" + ` and the build ` + "`.craftrconfig`" + `
- Check ` + "`-d key=value`" + ` overrides on the command line
- Inspect the resolved options:
~~~
$ craftr options
~~~`,
	}

	loaderFailedIssue = &Issue{
		id: LoaderFailedId,
		mdMsg: `
# Loader failed!

None of a module's loaders could acquire its sources.

## Things you can try:
- Check your network connection and proxy settings
- Verify the URLs in the manifest's ` + "`loaders`" + ` section
- Point the module at a local copy:
~~~
$ craftr prepare -d zlib.source=/path/to/zlib
~~~

- Run with ` + "`--verbose`" + ` to see every attempted URL`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

craftr could not read its settings or an option file.

## Things you can try:
- Check the TOML syntax of ` + "`config.toml`" + ` and ` + "`.craftrconfig`" + `
- Remove settings craftr does not know about
- Pass a different settings file:
~~~
$ craftr --config ./craftr.toml prepare
~~~`,
	}

	packageExistsIssue = &Issue{
		id: PackageExistsId,
		mdMsg: `
# Package already exists!

` + "`startpackage`" + ` refuses to overwrite an existing manifest or build script.

## Things you can try:
- Choose a different directory
- Remove the existing files first`,
	}

	buildCacheCorruptIssue = &Issue{
		id: BuildCacheCorruptId,
		mdMsg: `
# Build cache is unreadable!

The ` + "`.craftrcache`" + ` file in the build directory is damaged or was written
by an incompatible craftr version.

## Things you can try:
- Delete the cache file; the next run downloads sources again:
~~~
$ rm build/.craftrcache
~~~`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():   manifestNotFoundIssue,
		manifestInvalidIssue.Id():    manifestInvalidIssue,
		moduleNotFoundIssue.Id():     moduleNotFoundIssue,
		dependencyConflictIssue.Id(): dependencyConflictIssue,
		dependencyCycleIssue.Id():    dependencyCycleIssue,
		invalidOptionsIssue.Id():     invalidOptionsIssue,
		loaderFailedIssue.Id():       loaderFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		packageExistsIssue.Id():      packageExistsIssue,
		buildCacheCorruptIssue.Id():  buildCacheCorruptIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
