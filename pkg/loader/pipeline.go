// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
)

// Result is the outcome of a successful Run.
type Result struct {
	// Loader is the loader that succeeded, nil if the module declares none.
	Loader Loader
	// Record is the cache record to persist under Loader.Name().
	Record CacheRecord
	// Skipped holds the failures of loaders tried before Loader.
	Skipped []*LoaderError
}

// Run tries loaders in declared order until one succeeds. Each loader gets
// its previous record from cache (which may be nil). A module without
// loaders succeeds with an empty Result. When every loader fails, the error
// is a *PipelineError listing each failure.
func Run(ctx context.Context, loaders []Loader, lc *Context, cache Cache) (Result, error) {
	logger := lc.logger()
	var failures []*LoaderError

	for _, l := range loaders {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("loading %s: %w", lc.ModuleName, err)
		}

		var cached CacheRecord
		if cache != nil {
			if rec, ok := cache.Get(l.Name()); ok {
				cached = rec
			}
		}

		record, err := l.Load(ctx, lc, cached)
		if err == nil {
			logger.Debug("loader succeeded", "module", lc.ModuleName, "loader", l.Name(), "directory", record.Directory())
			return Result{Loader: l, Record: record, Skipped: failures}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("loading %s: %w", lc.ModuleName, ctxErr)
		}

		var le *LoaderError
		if !errors.As(err, &le) {
			le = &LoaderError{Loader: l.Name(), Message: "load failed", Err: err}
		}
		logger.Warn("loader failed", "module", lc.ModuleName, "loader", l.Name(), "err", le)
		failures = append(failures, le)
	}

	if len(failures) == 0 {
		return Result{}, nil
	}
	return Result{}, &PipelineError{Module: lc.ModuleName, Errors: failures}
}
