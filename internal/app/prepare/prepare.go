// SPDX-License-Identifier: MPL-2.0

package prepare

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/craftr/craftr/internal/buildcache"
	"github.com/craftr/craftr/internal/dag"
	"github.com/craftr/craftr/pkg/loader"
	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/options"
	"github.com/craftr/craftr/pkg/resolver"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	// stateDir holds craftr's own files inside the build directory.
	stateDir = ".craftr"
	// downloadsDir holds per-module downloads inside stateDir.
	downloadsDir = "downloads"
)

type (
	// Request describes one preparation run.
	//
	// Root and BuildDir are required. Index may be nil when Root has no
	// dependencies. Cache may be nil, in which case loaders start from
	// scratch and nothing is recorded.
	Request struct {
		Root     *manifest.Manifest
		Index    *resolver.Index
		Provider options.Provider
		BuildDir string
		Cache    *buildcache.Store
		// Parallelism bounds concurrently prepared modules. Values below 1
		// mean 1.
		Parallelism int
		// Fetchers maps URL schemes to fetchers for every loader context.
		Fetchers map[string]loader.Fetcher
		// OptionsOnly stops after option resolution without running loaders.
		OptionsOnly bool
	}

	// ModuleReport is the outcome for one module.
	ModuleReport struct {
		Module  *manifest.Manifest
		Options options.Namespace
		// Loader is the name of the loader that succeeded, empty if the
		// module declares none or loaders did not run.
		Loader string
		// Directory is the directory the loader acquired.
		Directory string
		// Skipped holds failures of loaders tried before Loader.
		Skipped []*loader.LoaderError
	}

	// Report lists the prepared modules, dependencies first.
	Report struct {
		Modules []*ModuleReport
	}

	// Preparer runs preparation requests.
	Preparer struct {
		logger *log.Logger
	}
)

// New creates a Preparer. A nil logger means log.Default().
func New(logger *log.Logger) *Preparer {
	if logger == nil {
		logger = log.Default()
	}
	return &Preparer{logger: logger.WithPrefix("prepare")}
}

// Module returns the report of the module called name.
func (r *Report) Module(name string) (*ModuleReport, bool) {
	for _, m := range r.Modules {
		if m.Module.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Prepare resolves the dependency closure of req.Root, computes every
// module's options and runs each module's loaders.
//
// Option coercion failures of all modules are collected into an
// *InvalidOptionsError; the report with default-substituted namespaces is
// still returned alongside it and loaders do not run. Modules whose loaders
// all fail are collected into a *LoaderInitError; modules that depend on a
// failed module are not attempted. Successful records are written to
// req.Cache even when other modules fail.
func (p *Preparer) Prepare(ctx context.Context, req Request) (*Report, error) {
	if req.Root == nil {
		return nil, fmt.Errorf("%w: no root module", ErrInvalidRequest)
	}
	if req.BuildDir == "" {
		return nil, fmt.Errorf("%w: no build directory", ErrInvalidRequest)
	}

	modules, err := resolve(req)
	if err != nil {
		return nil, err
	}

	report := &Report{Modules: make([]*ModuleReport, len(modules))}
	var optErrs []ModuleOptionErrors
	for i, m := range modules {
		ns, errs := m.OptionsNamespace(req.Provider)
		report.Modules[i] = &ModuleReport{Module: m, Options: ns}
		if len(errs) > 0 {
			optErrs = append(optErrs, ModuleOptionErrors{Module: m.Name, Errors: errs})
		}
	}
	if len(optErrs) > 0 {
		return report, &InvalidOptionsError{Modules: optErrs}
	}
	if req.OptionsOnly {
		return report, nil
	}

	if err := p.runLoaders(ctx, req, report); err != nil {
		return report, err
	}
	return report, nil
}

func resolve(req Request) ([]*manifest.Manifest, error) {
	ix := req.Index
	if ix == nil {
		ix = resolver.NewIndex()
	}
	return ix.ResolveDependencies(req.Root)
}

// runLoaders prepares modules level by level. Modules of one level only
// depend on earlier levels and run concurrently.
func (p *Preparer) runLoaders(ctx context.Context, req Request, report *Report) error {
	byName := make(map[string]*ModuleReport, len(report.Modules))
	g := dag.New()
	for _, mr := range report.Modules {
		byName[mr.Module.Name] = mr
		g.AddNode(mr.Module.Name)
	}
	for _, mr := range report.Modules {
		for _, dep := range mr.Module.DependencyNames() {
			if _, ok := byName[dep]; ok {
				g.DependsOn(mr.Module.Name, dep)
			}
		}
	}
	levels, err := g.Levels()
	if err != nil {
		return fmt.Errorf("%w: %w", resolver.ErrCycle, err)
	}

	var (
		mu       sync.Mutex
		failures []*loader.PipelineError
		failed   = map[string]bool{}
	)

	for _, level := range levels {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(max(req.Parallelism, 1))

		for _, name := range level {
			mr := byName[name]
			if blocked := blockedBy(mr.Module, failed); blocked != "" {
				p.logger.Warn("skipping module", "module", mr.Module.ID(), "failed_dependency", blocked)
				failed[name] = true
				continue
			}
			eg.Go(func() error {
				err := p.prepareModule(egCtx, req, mr)
				var pe *loader.PipelineError
				if errors.As(err, &pe) {
					mu.Lock()
					failures = append(failures, pe)
					mu.Unlock()
					return nil
				}
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		for _, pe := range failures {
			failed[pe.Module] = true
		}
	}

	if len(failures) > 0 {
		return &LoaderInitError{Failures: sortFailures(failures, report)}
	}
	return nil
}

func (p *Preparer) prepareModule(ctx context.Context, req Request, mr *ModuleReport) error {
	m := mr.Module
	logger := p.logger.With("module", m.ID())
	loaderLogger := p.logger.WithPrefix("loader").With("module", m.ID())

	lc := &loader.Context{
		ModuleName: m.Name,
		Dir:        m.ProjectPath(),
		InstallDir: filepath.Join(req.BuildDir, m.Name),
		TempDir:    filepath.Join(req.BuildDir, stateDir, downloadsDir, m.Name),
		Options:    mr.Options,
		Reporter:   loader.NewLogReporter(loaderLogger),
		Logger:     loaderLogger,
		Fetchers:   req.Fetchers,
	}

	var cache loader.Cache
	if req.Cache != nil {
		cache = req.Cache.Module(m.ID())
	}

	res, err := loader.Run(ctx, m.Loaders, lc, cache)
	if err != nil {
		return err
	}
	mr.Skipped = res.Skipped
	if res.Loader == nil {
		return nil
	}

	mr.Loader = res.Loader.Name()
	mr.Directory = res.Record.Directory()
	if req.Cache != nil {
		req.Cache.Set(m.ID(), mr.Loader, res.Record)
	}
	logger.Info("module prepared", "loader", mr.Loader, "directory", mr.Directory)
	return nil
}

// blockedBy returns the name of a failed dependency of m, or "".
func blockedBy(m *manifest.Manifest, failed map[string]bool) string {
	for _, dep := range m.DependencyNames() {
		if failed[dep] {
			return dep
		}
	}
	return ""
}

// sortFailures orders failures like the report's modules.
func sortFailures(failures []*loader.PipelineError, report *Report) []*loader.PipelineError {
	byModule := make(map[string]*loader.PipelineError, len(failures))
	for _, f := range failures {
		byModule[f.Module] = f
	}
	sorted := make([]*loader.PipelineError, 0, len(failures))
	for _, mr := range report.Modules {
		if f, ok := byModule[mr.Module.Name]; ok {
			sorted = append(sorted, f)
		}
	}
	return sorted
}
